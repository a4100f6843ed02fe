// Package matcher compiles rule patterns and evaluates them against catalog
// items.
//
// Title patterns are case-insensitive regular expressions searched anywhere
// in the item title. A title pattern may end with a year filter token such as
// "{{1999|2001}}"; the token is cut from the pattern and compiled as its own
// expression, which must also match the item's release year. Path patterns
// are literals searched in every file path of the item.
//
// Expressions use the backtracking dialect of github.com/dlclark/regexp2 so
// that lookarounds and backreferences written by operators keep working.
// Every compiled expression carries a match timeout.
package matcher
