// Package textutil provides Unicode helpers shared by the matcher and the
// Plex session.
//
// Titles coming back from Plex and patterns typed into YAML files can carry
// the same text in different normal forms (a precomposed "é" versus "e" plus
// a combining accent). Everything that is compared goes through Normalize
// first so both sides agree byte for byte.
package textutil
