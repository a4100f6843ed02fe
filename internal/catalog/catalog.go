// Package catalog holds the media types shared between the Plex session and
// the rule dispatcher.
package catalog

import (
	"context"
	"strconv"
)

// ItemType distinguishes the two kinds of leaf items a library flattens to.
type ItemType string

const (
	TypeMovie   ItemType = "movie"
	TypeEpisode ItemType = "episode"
)

// Item is one movie or episode of the library being processed.
type Item struct {
	Key        string
	SectionKey string
	Type       ItemType
	Title      string
	// Year is zero when Plex reports none.
	Year  int
	Files []string
}

// YearString renders the year for year-filter matching. A missing year is
// the empty string.
func (i Item) YearString() string {
	if i.Year <= 0 {
		return ""
	}
	return strconv.Itoa(i.Year)
}

// Mutator applies tag edits to a single item. The Plex session implements
// it; tests substitute a recorder.
type Mutator interface {
	AddCollection(ctx context.Context, item Item, name string) error
	AddActor(ctx context.Context, item Item, name string, locked bool) error
	RemoveActor(ctx context.Context, item Item, name string, locked bool) error
	SetActorThumb(ctx context.Context, item Item, name, thumb string, locked bool) error
}
