package matcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"autocollect/internal/catalog"
	"autocollect/internal/textutil"
)

// Kind selects which item attribute a pattern is matched against.
type Kind int

const (
	Title Kind = iota
	Path
)

func (k Kind) String() string {
	switch k {
	case Title:
		return "Title"
	case Path:
		return "Path"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DefaultMatchTimeout bounds a single regex evaluation.
const DefaultMatchTimeout = time.Second

// yearToken is the year filter grammar. The leading whitespace is part of
// the match so removing the token leaves no trailing blanks in the pattern.
var yearToken = regexp2.MustCompile(`\s*\{\{((?:\s?\d+\s?\|?)+)\}\}`, regexp2.None)

// Python spells named groups and their backreferences differently from the
// .NET dialect regexp2 parses.
var (
	pythonNamedGroup = regexp2.MustCompile(`\(\?P<(\w+)>`, regexp2.None)
	pythonGroupRef   = regexp2.MustCompile(`\(\?P=(\w+)\)`, regexp2.None)
)

// Pattern is one compiled rule entry.
type Pattern struct {
	source string
	kind   Kind
	expr   *regexp2.Regexp
	year   *regexp2.Regexp
}

// CompileError reports a pattern that could not be compiled.
type CompileError struct {
	Pattern string
	Part    string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s %q: %v", e.Part, e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Compile builds a pattern of the given kind.
func Compile(source string, kind Kind) (Pattern, error) {
	switch kind {
	case Title:
		return CompileTitle(source)
	case Path:
		return CompilePath(source)
	default:
		return Pattern{}, fmt.Errorf("unknown pattern kind %v", kind)
	}
}

// CompileTitle compiles a title pattern and its optional year filter. When
// several year tokens are present the last one wins and all are removed.
func CompileTitle(source string) (Pattern, error) {
	normalized := textutil.Normalize(source)
	body, yearExpr, err := splitYearFilter(normalized)
	if err != nil {
		return Pattern{}, &CompileError{Pattern: source, Part: "title pattern", Err: err}
	}

	body, err = translateNamedGroups(body)
	if err != nil {
		return Pattern{}, &CompileError{Pattern: source, Part: "title pattern", Err: err}
	}
	expr, err := compileExpr(body)
	if err != nil {
		return Pattern{}, &CompileError{Pattern: source, Part: "title pattern", Err: err}
	}
	pattern := Pattern{source: source, kind: Title, expr: expr}
	if yearExpr != "" {
		year, err := compileExpr(yearExpr)
		if err != nil {
			return Pattern{}, &CompileError{Pattern: source, Part: "year filter", Err: err}
		}
		pattern.year = year
	}
	return pattern, nil
}

// CompilePath compiles a literal path fragment.
func CompilePath(source string) (Pattern, error) {
	expr, err := compileExpr(regexp2.Escape(textutil.Normalize(source)))
	if err != nil {
		return Pattern{}, &CompileError{Pattern: source, Part: "path pattern", Err: err}
	}
	return Pattern{source: source, kind: Path, expr: expr}, nil
}

func compileExpr(expr string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(expr, regexp2.IgnoreCase)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = DefaultMatchTimeout
	return re, nil
}

// translateNamedGroups rewrites (?P<name>...) and (?P=name) into (?<name>...)
// and \k<name>.
func translateNamedGroups(expr string) (string, error) {
	expr, err := pythonNamedGroup.Replace(expr, "(?<$1>", -1, -1)
	if err != nil {
		return "", err
	}
	return pythonGroupRef.Replace(expr, `\k<$1>`, -1, -1)
}

// splitYearFilter returns the pattern with every year token removed and the
// body of the last token with its whitespace stripped.
func splitYearFilter(source string) (string, string, error) {
	var last string
	m, err := yearToken.FindStringMatch(source)
	for m != nil && err == nil {
		last = m.GroupByNumber(1).String()
		m, err = yearToken.FindNextMatch(m)
	}
	if err != nil {
		return "", "", err
	}
	if last == "" {
		return source, "", nil
	}
	body, err := yearToken.Replace(source, "", -1, -1)
	if err != nil {
		return "", "", err
	}
	return body, strings.Join(strings.Fields(last), ""), nil
}

// Source returns the pattern as written in the rule file.
func (p Pattern) Source() string { return p.source }

// Kind reports whether p is a title or path pattern.
func (p Pattern) Kind() Kind { return p.kind }

// HasYearFilter reports whether p carries a year filter.
func (p Pattern) HasYearFilter() bool { return p.year != nil }

// Match evaluates p against item. An error is returned only when the regex
// engine gives up, for example on a match timeout.
func (p Pattern) Match(item catalog.Item) (bool, error) {
	if p.expr == nil {
		return false, nil
	}
	switch p.kind {
	case Path:
		for _, file := range item.Files {
			ok, err := p.expr.MatchString(textutil.Normalize(file))
			if err != nil || ok {
				return ok, p.wrapMatchErr(err)
			}
		}
		return false, nil
	default:
		ok, err := p.expr.MatchString(textutil.Normalize(item.Title))
		if err != nil || !ok {
			return false, p.wrapMatchErr(err)
		}
		if p.year == nil {
			return true, nil
		}
		ok, err = p.year.MatchString(item.YearString())
		return ok, p.wrapMatchErr(err)
	}
}

func (p Pattern) wrapMatchErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("match %s pattern %q: %w", strings.ToLower(p.kind.String()), p.source, err)
}
