package dispatch

import "strconv"

// Summary counts what a run did.
type Summary struct {
	DryRun         bool
	Rules          int
	Items          int
	Matches        int
	Excluded       int
	CollectionAdds int
	ActorAdds      int
	ActorRemovals  int
	ThumbsSet      int
	Failures       int
}

// Edits returns the number of successful (or, in a dry run, planned) edits.
func (s Summary) Edits() int {
	return s.CollectionAdds + s.ActorAdds + s.ActorRemovals + s.ThumbsSet
}

// Rows renders the summary as label/count pairs.
func (s Summary) Rows() [][]string {
	rows := [][]string{
		{"Rules", strconv.Itoa(s.Rules)},
		{"Items", strconv.Itoa(s.Items)},
		{"Matches", strconv.Itoa(s.Matches)},
		{"Excluded", strconv.Itoa(s.Excluded)},
		{"Collection adds", strconv.Itoa(s.CollectionAdds)},
		{"Actor adds", strconv.Itoa(s.ActorAdds)},
		{"Actor removals", strconv.Itoa(s.ActorRemovals)},
		{"Thumbs set", strconv.Itoa(s.ThumbsSet)},
		{"Failures", strconv.Itoa(s.Failures)},
	}
	return rows
}
