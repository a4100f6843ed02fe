// Package plex talks to Plex Media Server and plex.tv on behalf of a run.
//
// A Connector builds the session: it either connects directly with a
// configured URL and token or signs in to plex.tv, lists the account's
// servers and lets the operator pick one. It then resolves the library
// section and flattens it into catalog items. The resulting Server applies
// collection and actor edits through the same tag edit endpoint the Plex web
// app uses, and satisfies catalog.Mutator.
//
// The client identifier sent with every request is generated once and kept
// in identity.json under the state directory so Plex lists autocollect as a
// single device.
package plex
