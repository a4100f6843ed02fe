package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocollect/internal/catalog"
	"autocollect/internal/rules"
)

type call struct {
	Op     string
	Item   string
	Name   string
	Locked bool
	Thumb  string
}

type fakeMutator struct {
	calls []call
	fail  map[string]error
}

func (f *fakeMutator) record(c call) error {
	f.calls = append(f.calls, c)
	if err, ok := f.fail[c.Op+":"+c.Item]; ok {
		return err
	}
	return nil
}

func (f *fakeMutator) AddCollection(_ context.Context, item catalog.Item, name string) error {
	return f.record(call{Op: "collection", Item: item.Title, Name: name})
}

func (f *fakeMutator) AddActor(_ context.Context, item catalog.Item, name string, locked bool) error {
	return f.record(call{Op: "add-actor", Item: item.Title, Name: name, Locked: locked})
}

func (f *fakeMutator) RemoveActor(_ context.Context, item catalog.Item, name string, locked bool) error {
	return f.record(call{Op: "remove-actor", Item: item.Title, Name: name, Locked: locked})
}

func (f *fakeMutator) SetActorThumb(_ context.Context, item catalog.Item, name, thumb string, locked bool) error {
	return f.record(call{Op: "thumb", Item: item.Title, Name: name, Thumb: thumb, Locked: locked})
}

type recordingReporter struct {
	lines []string
}

func (r *recordingReporter) CollectionAdded(item catalog.Item, collection string) {
	r.lines = append(r.lines, fmt.Sprintf("Adding %s to collection %s", item.Title, collection))
}

func (r *recordingReporter) ActorAdded(item catalog.Item, actor string) {
	r.lines = append(r.lines, fmt.Sprintf("Adding actor %s to movie %s", actor, item.Title))
}

func (r *recordingReporter) ActorRemoved(item catalog.Item, actor string) {
	r.lines = append(r.lines, fmt.Sprintf("Removing actor %s from movie %s", actor, item.Title))
}

func (r *recordingReporter) ThumbSet(item catalog.Item, actor string) {
	r.lines = append(r.lines, fmt.Sprintf("Thumb %s on %s", actor, item.Title))
}

func movie(title string, year int) catalog.Item {
	return catalog.Item{Key: title, SectionKey: "1", Type: catalog.TypeMovie, Title: title, Year: year}
}

// loadBundle writes collection and actor YAML to disk and loads it the same
// way a run does.
func loadBundle(t *testing.T, collections, actors string) rules.Bundle {
	t.Helper()
	dir := t.TempDir()
	layout := rules.Layout{
		CollectionsFile: filepath.Join(dir, "collections.yml"),
		ActorsDir:       filepath.Join(dir, "actors.d"),
	}
	if collections != "" {
		require.NoError(t, os.WriteFile(layout.CollectionsFile, []byte(collections), 0o644))
	}
	if actors != "" {
		require.NoError(t, os.MkdirAll(layout.ActorsDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(layout.ActorsDir, "actors.yml"), []byte(actors), 0o644))
	}
	bundle, err := rules.NewLoader(nil, nil).Discover(layout)
	require.NoError(t, err)
	return bundle
}

func run(t *testing.T, bundle rules.Bundle, items []catalog.Item, opts Options) (*fakeMutator, *recordingReporter, Summary) {
	t.Helper()
	mutator := &fakeMutator{}
	reporter := &recordingReporter{}
	summary, err := New(mutator, reporter, nil, opts).Run(context.Background(), bundle, items)
	require.NoError(t, err)
	return mutator, reporter, summary
}

func TestScenarioFlatCollection(t *testing.T) {
	bundle := loadBundle(t, "Horror: [Halloween, Psycho]\n", "")
	items := []catalog.Item{movie("Halloween (1978)", 1978), movie("Psycho", 1960), movie("Airplane!", 1980)}

	mutator, reporter, summary := run(t, bundle, items, Options{})

	assert.Equal(t, []call{
		{Op: "collection", Item: "Halloween (1978)", Name: "Horror"},
		{Op: "collection", Item: "Psycho", Name: "Horror"},
	}, mutator.calls)
	assert.Equal(t, []string{
		"Adding Halloween (1978) to collection Horror",
		"Adding Psycho to collection Horror",
	}, reporter.lines)
	assert.Equal(t, 2, summary.CollectionAdds)
	assert.Equal(t, 3, summary.Items)
}

func TestScenarioYearFilter(t *testing.T) {
	bundle := loadBundle(t, "Holiday:\n  Title: [\"Christmas {{2000|2010}}\"]\n", "")
	items := []catalog.Item{movie("A Christmas Story", 1983), movie("Christmas Carol", 2010)}

	mutator, _, _ := run(t, bundle, items, Options{})

	assert.Equal(t, []call{{Op: "collection", Item: "Christmas Carol", Name: "Holiday"}}, mutator.calls)
}

func TestScenarioActorRemove(t *testing.T) {
	bundle := loadBundle(t, "", "Tom Hanks:\n  Title: [Forrest Gump]\n  Action: Remove\n")
	items := []catalog.Item{movie("Forrest Gump", 1994), movie("Big", 1988)}

	mutator, reporter, summary := run(t, bundle, items, Options{})

	assert.Equal(t, []call{{Op: "remove-actor", Item: "Forrest Gump", Name: "Tom Hanks", Locked: true}}, mutator.calls)
	assert.Equal(t, []string{"Removing actor Tom Hanks from movie Forrest Gump"}, reporter.lines)
	assert.Equal(t, 1, summary.ActorRemovals)
	assert.Zero(t, summary.ThumbsSet)
}

func TestScenarioExcludeWins(t *testing.T) {
	bundle := loadBundle(t, "", "Tom Hanks:\n  Title: [Toy Story]\n  Exclude: [Toy Story 3]\n")
	items := []catalog.Item{movie("Toy Story", 1995), movie("Toy Story 2", 1999), movie("Toy Story 3", 2010)}

	mutator, _, summary := run(t, bundle, items, Options{})

	assert.Equal(t, []call{
		{Op: "add-actor", Item: "Toy Story", Name: "Tom Hanks", Locked: true},
		{Op: "add-actor", Item: "Toy Story 2", Name: "Tom Hanks", Locked: true},
	}, mutator.calls)
	assert.Equal(t, 1, summary.Excluded)
}

func TestExcludeAppliesToPathRules(t *testing.T) {
	bundle := loadBundle(t, "", "Tom Hanks:\n  Path: [/hanks/]\n  Exclude: [\"Big {{1988}}\"]\n")
	big := movie("Big", 1988)
	big.Files = []string{"/media/hanks/Big.mkv"}
	bigRemake := movie("Big", 2030)
	bigRemake.Files = []string{"/media/hanks/Big (2030).mkv"}

	mutator, _, _ := run(t, bundle, []catalog.Item{big, bigRemake}, Options{})

	require.Len(t, mutator.calls, 1)
	assert.Equal(t, "add-actor", mutator.calls[0].Op)
}

func TestThumbAppliedToEveryMatchedItem(t *testing.T) {
	bundle := loadBundle(t, "", "Tom Hanks:\n  Title: [Toy Story]\n  Thumb: https://img.example/hanks.jpg\n  Locked: false\n")
	items := []catalog.Item{movie("Toy Story", 1995), movie("Big", 1988), movie("Toy Story 2", 1999)}

	mutator, _, summary := run(t, bundle, items, Options{})

	assert.Equal(t, []call{
		{Op: "add-actor", Item: "Toy Story", Name: "Tom Hanks"},
		{Op: "thumb", Item: "Toy Story", Name: "Tom Hanks", Thumb: "https://img.example/hanks.jpg"},
		{Op: "add-actor", Item: "Toy Story 2", Name: "Tom Hanks"},
		{Op: "thumb", Item: "Toy Story 2", Name: "Tom Hanks", Thumb: "https://img.example/hanks.jpg"},
	}, mutator.calls)
	assert.Equal(t, 2, summary.ThumbsSet)
}

func TestThumbIgnoredOnRemove(t *testing.T) {
	bundle := loadBundle(t, "", "Tom Hanks:\n  Title: [Big]\n  Action: remove\n  Thumb: x.jpg\n")
	mutator, _, _ := run(t, bundle, []catalog.Item{movie("Big", 1988)}, Options{})
	assert.Equal(t, []call{{Op: "remove-actor", Item: "Big", Name: "Tom Hanks", Locked: true}}, mutator.calls)
}

func TestNestedBranchesEditOnce(t *testing.T) {
	bundle := loadBundle(t, "Horror:\n  - Psycho\n  - [Psycho, [psycho]]\n", "")
	mutator, _, _ := run(t, bundle, []catalog.Item{movie("Psycho", 1960)}, Options{})
	assert.Len(t, mutator.calls, 1)
}

func TestItemMayJoinSeveralCollections(t *testing.T) {
	bundle := loadBundle(t, "Horror: [Psycho]\nHitchcock: [Psycho, Vertigo]\n", "")
	mutator, _, _ := run(t, bundle, []catalog.Item{movie("Psycho", 1960), movie("Vertigo", 1958)}, Options{})
	assert.Equal(t, []call{
		{Op: "collection", Item: "Psycho", Name: "Horror"},
		{Op: "collection", Item: "Psycho", Name: "Hitchcock"},
		{Op: "collection", Item: "Vertigo", Name: "Hitchcock"},
	}, mutator.calls)
}

func TestCollectionsRunBeforeActors(t *testing.T) {
	bundle := loadBundle(t, "Comedy: [Big]\n", "Tom Hanks: [Big, Splash]\n")
	items := []catalog.Item{movie("Splash", 1984), movie("Big", 1988)}

	mutator, _, _ := run(t, bundle, items, Options{})

	var ops []string
	for _, c := range mutator.calls {
		ops = append(ops, c.Op+":"+c.Item)
	}
	assert.Equal(t, []string{"collection:Big", "add-actor:Splash", "add-actor:Big"}, ops)
}

func TestFailureDoesNotStopLaterItems(t *testing.T) {
	bundle := loadBundle(t, "Horror: [Halloween, Psycho, Scream]\n", "")
	items := []catalog.Item{movie("Halloween", 1978), movie("Psycho", 1960), movie("Scream", 1996)}

	mutator := &fakeMutator{fail: map[string]error{"collection:Psycho": errors.New("plex said no")}}
	summary, err := New(mutator, nil, nil, Options{}).Run(context.Background(), bundle, items)
	require.NoError(t, err)

	assert.Len(t, mutator.calls, 3)
	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, 2, summary.CollectionAdds)
	assert.Equal(t, 3, summary.Matches)
}

func TestThumbSkippedWhenAddFails(t *testing.T) {
	bundle := loadBundle(t, "", "Tom Hanks:\n  Title: [Big]\n  Thumb: x.jpg\n")
	mutator := &fakeMutator{fail: map[string]error{"add-actor:Big": errors.New("boom")}}
	summary, err := New(mutator, nil, nil, Options{}).Run(context.Background(), bundle, []catalog.Item{movie("Big", 1988)})
	require.NoError(t, err)
	assert.Len(t, mutator.calls, 1)
	assert.Equal(t, 1, summary.Failures)
}

func TestDryRunSkipsMutations(t *testing.T) {
	bundle := loadBundle(t, "Horror: [Psycho]\n", "Anthony Perkins:\n  Title: [Psycho]\n  Thumb: p.jpg\n")

	mutator, reporter, summary := run(t, bundle, []catalog.Item{movie("Psycho", 1960)}, Options{DryRun: true})

	assert.Empty(t, mutator.calls)
	assert.Equal(t, []string{
		"Adding Psycho to collection Horror",
		"Adding actor Anthony Perkins to movie Psycho",
		"Thumb Anthony Perkins on Psycho",
	}, reporter.lines)
	assert.True(t, summary.DryRun)
	assert.Equal(t, 3, summary.Edits())
}

func TestCancelledContextStopsRun(t *testing.T) {
	bundle := loadBundle(t, "Horror: [Psycho]\n", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mutator := &fakeMutator{}
	_, err := New(mutator, nil, nil, Options{}).Run(ctx, bundle, []catalog.Item{movie("Psycho", 1960)})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mutator.calls)
}

func TestSummaryRows(t *testing.T) {
	rows := Summary{Rules: 2, Items: 5, CollectionAdds: 3, Failures: 1}.Rows()
	require.Len(t, rows, 9)
	assert.Equal(t, []string{"Rules", "2"}, rows[0])
	assert.Equal(t, []string{"Failures", "1"}, rows[8])
}
