package matcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocollect/internal/catalog"
)

func movie(title string, year int, files ...string) catalog.Item {
	return catalog.Item{Key: title, Type: catalog.TypeMovie, Title: title, Year: year, Files: files}
}

func mustTitle(t *testing.T, source string) Pattern {
	t.Helper()
	p, err := CompileTitle(source)
	require.NoError(t, err)
	return p
}

func TestTitlePatternWithoutYearFilter(t *testing.T) {
	tests := []struct {
		pattern string
		title   string
		want    bool
	}{
		{"Halloween", "Halloween (1978)", true},
		{"halloween", "HALLOWEEN", true},
		{"ween", "Halloween", true},
		{"^Psycho$", "Psycho", true},
		{"^Psycho$", "Psycho II", false},
		{"Alien(?!s)", "Aliens", false},
		{"Alien(?!s)", "Alien", true},
		{"Scream", "Halloween", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.title, func(t *testing.T) {
			p := mustTitle(t, tt.pattern)
			assert.False(t, p.HasYearFilter())
			for _, year := range []int{0, 1978, 2024} {
				got, err := p.Match(movie(tt.title, year))
				require.NoError(t, err)
				assert.Equal(t, tt.want, got, "year %d", year)
			}
		})
	}
}

func TestTitlePatternWithYearFilter(t *testing.T) {
	p := mustTitle(t, "Christmas {{2000|2010}}")
	require.True(t, p.HasYearFilter())

	tests := []struct {
		name string
		item catalog.Item
		want bool
	}{
		{"year fails", movie("A Christmas Story", 1983), false},
		{"second alternative", movie("Christmas Carol", 2010), true},
		{"first alternative", movie("Christmas Eve", 2000), true},
		{"title fails", movie("Halloween", 2010), false},
		{"missing year", movie("Christmas Carol", 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Match(tt.item)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestYearFilterToleratesWhitespace(t *testing.T) {
	p := mustTitle(t, "Dune {{ 1984 | 2021 }}")
	require.True(t, p.HasYearFilter())

	got, err := p.Match(movie("Dune", 2021))
	require.NoError(t, err)
	assert.True(t, got)

	got, err = p.Match(movie("Dune", 1984))
	require.NoError(t, err)
	assert.True(t, got)

	got, err = p.Match(movie("Dune", 2000))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestYearFilterIsSubstringSearch(t *testing.T) {
	p := mustTitle(t, "Batman {{19}}")
	got, err := p.Match(movie("Batman", 1989))
	require.NoError(t, err)
	assert.True(t, got)

	got, err = p.Match(movie("Batman", 2022))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestLastYearTokenWins(t *testing.T) {
	p := mustTitle(t, "Heat {{1986}} {{1995}}")
	got, err := p.Match(movie("Heat", 1995))
	require.NoError(t, err)
	assert.True(t, got)

	got, err = p.Match(movie("Heat", 1986))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestYearTokenWithoutLeadingSpace(t *testing.T) {
	p := mustTitle(t, "Heat{{1995}}")
	got, err := p.Match(movie("Heat", 1995))
	require.NoError(t, err)
	assert.True(t, got)
}

func TestPathPatternIsLiteral(t *testing.T) {
	p, err := CompilePath("/media/4k.hdr/")
	require.NoError(t, err)
	assert.Equal(t, Path, p.Kind())

	got, err := p.Match(movie("Dune", 2021, "/data/movies/Dune.mkv", "/MEDIA/4K.HDR/Dune.mkv"))
	require.NoError(t, err)
	assert.True(t, got, "expected case-insensitive literal match on second file")

	got, err = p.Match(movie("Dune", 2021, "/media/4kXhdr/Dune.mkv"))
	require.NoError(t, err)
	assert.False(t, got, "dot must not act as a wildcard")

	got, err = p.Match(movie("Dune", 2021))
	require.NoError(t, err)
	assert.False(t, got, "item without files never matches")
}

func TestPathPatternIgnoresYearGrammar(t *testing.T) {
	p, err := CompilePath("Heat {{1995}}")
	require.NoError(t, err)
	assert.False(t, p.HasYearFilter())

	got, err := p.Match(movie("Heat", 2000, "/movies/Heat {{1995}}/Heat.mkv"))
	require.NoError(t, err)
	assert.True(t, got)
}

func TestPatternsAreNormalized(t *testing.T) {
	p := mustTitle(t, "Ame\u0301lie")
	got, err := p.Match(movie("Am\u00e9lie", 2001))
	require.NoError(t, err)
	assert.True(t, got)
}

func TestPythonNamedGroupsCompile(t *testing.T) {
	tests := []struct {
		pattern string
		title   string
		want    bool
	}{
		{"(?P<x>Alien)s?", "Aliens", true},
		{"(?P<x>Alien)s?", "Predator", false},
		{`(?P<word>Bo)ra (?P=word)ra`, "Bora Bora", true},
		{`(?P<word>Bo)ra (?P=word)ra`, "Bora Tora", false},
		{"(?P<franchise>Halloween) {{1978}}", "Halloween", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.title, func(t *testing.T) {
			p := mustTitle(t, tt.pattern)
			got, err := p.Match(movie(tt.title, 1978))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMalformedPatternFailsToCompile(t *testing.T) {
	_, err := CompileTitle("Alien (")
	require.Error(t, err)

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "Alien (", compileErr.Pattern)
	assert.Contains(t, err.Error(), "Alien (")
}

func TestCompileDispatchesOnKind(t *testing.T) {
	p, err := Compile("a.b", Path)
	require.NoError(t, err)
	assert.Equal(t, Path, p.Kind())
	assert.Equal(t, "a.b", p.Source())

	p, err = Compile("a.b", Title)
	require.NoError(t, err)
	assert.Equal(t, Title, p.Kind())

	_, err = Compile("a.b", Kind(9))
	assert.Error(t, err)
}
