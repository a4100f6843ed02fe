package matcher

import "autocollect/internal/catalog"

// Group is a node of a pattern tree. A group matches when any of its own
// patterns or any nested group matches. An empty group matches nothing.
type Group struct {
	Patterns []Pattern
	Groups   []Group
}

// Empty reports whether the group and all of its descendants hold no
// patterns.
func (g Group) Empty() bool {
	if len(g.Patterns) > 0 {
		return false
	}
	for _, child := range g.Groups {
		if !child.Empty() {
			return false
		}
	}
	return true
}

// Len counts the patterns in the tree.
func (g Group) Len() int {
	n := len(g.Patterns)
	for _, child := range g.Groups {
		n += child.Len()
	}
	return n
}

// Match reports whether any pattern of the tree matches item. Evaluation
// stops at the first hit, so an item reached by several branches counts
// once.
func (g Group) Match(item catalog.Item) (bool, error) {
	for _, p := range g.Patterns {
		ok, err := p.Match(item)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	for _, child := range g.Groups {
		ok, err := child.Match(item)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
