// Package rules loads collection and actor rule files.
//
// A rule file is a YAML mapping from a collection or actor name to a rule
// spec. A spec is either a plain list of title patterns or a mapping with
// Title and Path lists; actor rules additionally accept Action, Thumb, Locked
// and Exclude. Lists may nest, and a nested list becomes a pattern group
// whose result is the union of its members.
//
// Patterns are compiled while loading, so a bad expression stops the run
// before any Plex edit is made. Files are merged by name: a later file
// replaces an earlier definition but the rule keeps its original position.
package rules
