// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a guarded multi-view workflow:
//  1. [WaitView] : Shown while the persisted session loads
//  2. [LoginView] / [RegisterView] : Credential forms with inline validation
//  3. [LibraryView] : Song list, player bar and playback controls
//  4. [UploadView] : Upload an mp3, title and artist prefilled from its tags
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Session, player and notification changes reach the update loop through a single buffered channel; views
// always read live snapshots, so a coalesced signal never loses state.
//
// [Decide] is the route guard shared with the CLI.
package ui
