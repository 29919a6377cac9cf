package ui

import (
	"github.com/desertthunder/musicbox/internal/models"
	"github.com/desertthunder/musicbox/internal/shared"
)

// Decision is what the route guard does with a protected view.
type Decision int

const (
	// Wait shows a neutral indicator until the persisted session is read.
	Wait Decision = iota
	// RedirectLogin sends anonymous users to the login view.
	RedirectLogin
	// Render shows the protected view.
	Render
)

// WaitingText is shown while the session is initializing.
const WaitingText = "Loading session…"

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case RedirectLogin:
		return "redirect_login"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Decide gates protected views on the session.
//
// No redirect decision is made while the session is initializing, so a
// persisted session never flashes the login view.
func Decide(s models.Session) Decision {
	switch {
	case s.Initializing:
		return Wait
	case !s.Authenticated():
		return RedirectLogin
	default:
		return Render
	}
}

// RequireSession applies [Decide] for non-interactive callers, returning
// [shared.ErrNotAuthenticated] unless the session may render.
func RequireSession(s models.Session) error {
	if Decide(s) != Render {
		return shared.ErrNotAuthenticated
	}
	return nil
}
