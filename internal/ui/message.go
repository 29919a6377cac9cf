package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/musicbox/internal/models"
	"github.com/desertthunder/musicbox/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSessionLoaded MsgKind = iota
	MsgStateChanged
	MsgSongsFetched
	MsgAuthDone
	MsgUploadDone
)

type songsFetched struct {
	tracks []models.Track
	err    error
}

type authDone struct {
	mode   formMode
	email  string
	result models.AuthResult
	err    error
}

// sessionLoadedMsg is the constructor for [MsgSessionLoaded]
func sessionLoadedMsg() Msg {
	return Msg{kind: MsgSessionLoaded}
}

// stateChangedMsg is the constructor for [MsgStateChanged]; session, player
// and notification changes all funnel into it.
func stateChangedMsg() Msg {
	return Msg{kind: MsgStateChanged}
}

// songsFetchedMsg is the constructor for [MsgSongsFetched]
func songsFetchedMsg(tracks []models.Track, err error) Msg {
	return Msg{kind: MsgSongsFetched, data: songsFetched{tracks, err}}
}

// authDoneMsg is the constructor for [MsgAuthDone]
func authDoneMsg(mode formMode, email string, res models.AuthResult, err error) Msg {
	return Msg{kind: MsgAuthDone, data: authDone{mode, email, res, err}}
}

// uploadDoneMsg is the constructor for [MsgUploadDone]
func uploadDoneMsg(res tasks.FileUploadResult) Msg {
	return Msg{kind: MsgUploadDone, data: res}
}
