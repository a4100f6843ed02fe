package rules

import (
	"strconv"
	"strings"

	"autocollect/internal/matcher"
)

// DumpHeaders are the column titles of Rows.
var DumpHeaders = []string{"Kind", "Name", "Shape", "Title", "Path", "Action", "Locked", "Thumb", "Exclude", "Source"}

// Rows renders the bundle for the rules listing and the debug dump, one row
// per rule, collections first.
func (b Bundle) Rows() [][]string {
	var rows [][]string
	for _, set := range []*Set{b.Collections, b.Actors} {
		for _, rule := range set.Rules() {
			rows = append(rows, rule.row())
		}
	}
	return rows
}

func (r Rule) row() []string {
	action, locked, thumb, exclude := "", "", "", ""
	if r.Kind == KindActor {
		action = r.Spec.Action.String()
		locked = strconv.FormatBool(r.Spec.Locked)
		thumb = r.Spec.Thumb
		exclude = describeGroup(r.Spec.Exclude)
	}
	return []string{
		r.Kind.String(),
		r.Name,
		r.Spec.Shape.String(),
		describeGroup(r.Spec.Title),
		describeGroup(r.Spec.Path),
		action,
		locked,
		thumb,
		exclude,
		r.Source,
	}
}

// describeGroup lists the patterns of g, wrapping nested groups in brackets.
func describeGroup(g matcher.Group) string {
	parts := make([]string, 0, len(g.Patterns)+len(g.Groups))
	for _, p := range g.Patterns {
		parts = append(parts, p.Source())
	}
	for _, child := range g.Groups {
		parts = append(parts, "["+describeGroup(child)+"]")
	}
	return strings.Join(parts, ", ")
}
