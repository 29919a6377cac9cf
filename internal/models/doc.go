// Package models defines the client-side domain entities of musicbox.
//
// The package contains two categories of types:
//
// 1. State entities held by the client
//   - [Session] : the authenticated identity and token
//   - [User] : the account the session belongs to
//   - [PlayerState] : the current track and playback flag
//   - [Notification] : a transient user-facing status message
//
// 2. Normalized backend records
//   - [Track] : a playable song built from a raw server record
//   - [AuthResult] : the token/user pair extracted from an auth response
//
// Backend payloads vary in shape, so every field is read through an ordered
// [Rule]: a list of key paths tried in order until one yields a value.
package models
