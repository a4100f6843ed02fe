package rules

import (
	"fmt"
	"strings"

	"autocollect/internal/catalog"
	"autocollect/internal/matcher"
)

// Kind separates collection rules from actor rules.
type Kind int

const (
	KindCollection Kind = iota
	KindActor
)

func (k Kind) String() string {
	if k == KindActor {
		return "actor"
	}
	return "collection"
}

// Shape records how a spec was written in YAML.
type Shape int

const (
	// ShapeList is a bare list of title patterns.
	ShapeList Shape = iota
	// ShapeMapping is a mapping with Title/Path and, for actors, options.
	ShapeMapping
)

func (s Shape) String() string {
	if s == ShapeMapping {
		return "mapping"
	}
	return "list"
}

// Action is the actor tag edit to perform on a match.
type Action int

const (
	ActionAdd Action = iota
	ActionRemove
)

func (a Action) String() string {
	if a == ActionRemove {
		return "Remove"
	}
	return "Add"
}

// ParseAction accepts "add" or "remove" in any case.
func ParseAction(value string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "add":
		return ActionAdd, nil
	case "remove":
		return ActionRemove, nil
	default:
		return ActionAdd, fmt.Errorf("unknown action %q (want Add or Remove)", value)
	}
}

// Spec is one compiled rule body.
type Spec struct {
	Shape   Shape
	Title   matcher.Group
	Path    matcher.Group
	Action  Action
	Thumb   string
	Locked  bool
	Exclude matcher.Group
}

// NewSpec returns a spec carrying the actor defaults: Add, locked, no thumb
// and no exclusions.
func NewSpec(shape Shape) Spec {
	return Spec{Shape: shape, Action: ActionAdd, Locked: true}
}

// Matches reports whether the Title or Path patterns select item.
func (s Spec) Matches(item catalog.Item) (bool, error) {
	ok, err := s.Title.Match(item)
	if err != nil || ok {
		return ok, err
	}
	return s.Path.Match(item)
}

// Excluded reports whether any Exclude pattern matches item's title.
func (s Spec) Excluded(item catalog.Item) (bool, error) {
	return s.Exclude.Match(item)
}

// Rule binds a spec to the collection or actor it edits.
type Rule struct {
	Name string
	Kind Kind
	Spec Spec
	// Source is the file the current definition was read from.
	Source string
}
