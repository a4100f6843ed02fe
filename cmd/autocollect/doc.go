// Package main hosts the autocollect CLI entrypoint and command graph.
//
// The root command performs one pass: load the YAML rule files, connect to
// Plex, flatten the chosen library section and apply every matching
// collection and actor edit. The rules subcommand prints the loaded rules
// without contacting Plex, and config scaffolds or checks the TOML
// configuration.
//
// Keep this package lean: matching, loading and Plex access live in the
// internal packages and are only wired together here.
package main
