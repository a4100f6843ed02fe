package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"autocollect/internal/catalog"
	"autocollect/internal/services"
	"autocollect/internal/textutil"
)

var _ catalog.Mutator = (*Server)(nil)

// Plex search types used by the tag edit endpoint.
const (
	searchTypeMovie   = "1"
	searchTypeEpisode = "4"
)

const (
	tagCollection = "collection"
	tagActor      = "actor"
)

// AddCollection adds item to the named collection, keeping the collections
// it already belongs to, and locks the field.
func (s *Server) AddCollection(ctx context.Context, item catalog.Item, name string) error {
	current, err := s.metadata(ctx, item.Key)
	if err != nil {
		return err
	}
	values := appendTag(tagCollection, tagNames(current.Collections), name)
	values.Set(tagCollection+".locked", "1")
	return s.edit(ctx, item, values)
}

// AddActor adds an actor tag to item and sets the actor field lock.
func (s *Server) AddActor(ctx context.Context, item catalog.Item, name string, locked bool) error {
	current, err := s.metadata(ctx, item.Key)
	if err != nil {
		return err
	}
	values := appendTag(tagActor, tagNames(current.Roles), name)
	values.Set(tagActor+".locked", lockValue(locked))
	return s.edit(ctx, item, values)
}

// RemoveActor removes an actor tag from item and sets the actor field lock.
func (s *Server) RemoveActor(ctx context.Context, item catalog.Item, name string, locked bool) error {
	values := url.Values{}
	values.Set(tagActor+"[].tag.tag-", name)
	values.Set(tagActor+".locked", lockValue(locked))
	return s.edit(ctx, item, values)
}

// SetActorThumb sets the thumbnail of one actor of item. The full role list
// is resent because Plex replaces the field on every edit.
func (s *Server) SetActorThumb(ctx context.Context, item catalog.Item, name, thumb string, locked bool) error {
	current, err := s.metadata(ctx, item.Key)
	if err != nil {
		return err
	}
	roles := current.Roles
	found := false
	for _, role := range roles {
		if textutil.EqualFold(role.Tag, name) {
			found = true
			break
		}
	}
	if !found {
		roles = append(roles, tag{Tag: name})
	}

	values := url.Values{}
	for i, role := range roles {
		values.Set(fmt.Sprintf("%s[%d].tag.tag", tagActor, i), role.Tag)
		switch {
		case textutil.EqualFold(role.Tag, name):
			values.Set(fmt.Sprintf("%s[%d].tag.thumb", tagActor, i), thumb)
		case role.Thumb != "":
			values.Set(fmt.Sprintf("%s[%d].tag.thumb", tagActor, i), role.Thumb)
		}
	}
	values.Set(tagActor+".locked", lockValue(locked))
	return s.edit(ctx, item, values)
}

func (s *Server) edit(ctx context.Context, item catalog.Item, values url.Values) error {
	sectionKey := strings.TrimSpace(item.SectionKey)
	if sectionKey == "" || item.Key == "" {
		return services.Wrap(services.ErrConfiguration, "plex", "edit",
			fmt.Sprintf("item %q lacks a section or rating key", item.Title), nil)
	}
	values.Set("type", searchType(item.Type))
	values.Set("id", item.Key)
	return s.do(ctx, http.MethodPut, "/library/sections/"+url.PathEscape(sectionKey)+"/all", values, nil)
}

// appendTag lists existing tags followed by name unless name is already
// present.
func appendTag(field string, existing []string, name string) url.Values {
	values := url.Values{}
	names := existing
	present := false
	for _, tag := range existing {
		if textutil.EqualFold(tag, name) {
			present = true
			break
		}
	}
	if !present {
		names = append(names, name)
	}
	for i, tag := range names {
		values.Set(fmt.Sprintf("%s[%d].tag.tag", field, i), tag)
	}
	return values
}

func tagNames(tags []tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		if t.Tag != "" {
			names = append(names, t.Tag)
		}
	}
	return names
}

func searchType(itemType catalog.ItemType) string {
	if itemType == catalog.TypeEpisode {
		return searchTypeEpisode
	}
	return searchTypeMovie
}

func lockValue(locked bool) string {
	if locked {
		return "1"
	}
	return "0"
}
