package rules

// Set is an insertion-ordered collection of rules keyed by name.
type Set struct {
	rules []Rule
	index map[string]int
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{index: make(map[string]int)}
}

// Put stores rule. A rule with the same name is replaced in place.
func (s *Set) Put(rule Rule) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[rule.Name]; ok {
		s.rules[i] = rule
		return
	}
	s.index[rule.Name] = len(s.rules)
	s.rules = append(s.rules, rule)
}

// Merge puts every rule of other into s in other's order.
func (s *Set) Merge(other *Set) {
	if other == nil {
		return
	}
	for _, rule := range other.rules {
		s.Put(rule)
	}
}

// Get looks up a rule by name.
func (s *Set) Get(name string) (Rule, bool) {
	if s == nil {
		return Rule{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Rule{}, false
	}
	return s.rules[i], true
}

// Rules returns the rules in merge order.
func (s *Set) Rules() []Rule {
	if s == nil {
		return nil
	}
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Len returns the number of rules.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Bundle holds everything a run dispatches.
type Bundle struct {
	Collections *Set
	Actors      *Set
}

// NewBundle returns a bundle with two empty sets.
func NewBundle() Bundle {
	return Bundle{Collections: NewSet(), Actors: NewSet()}
}

// Empty reports whether no rule was loaded at all.
func (b Bundle) Empty() bool {
	return b.Collections.Len() == 0 && b.Actors.Len() == 0
}
