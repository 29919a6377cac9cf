package ui

import (
	"errors"
	"testing"

	"github.com/desertthunder/musicbox/internal/models"
	"github.com/desertthunder/musicbox/internal/shared"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		session models.Session
		want    Decision
	}{
		{"Initializing", models.Session{Initializing: true}, Wait},
		{"Initializing With Token", models.Session{Initializing: true, Token: "t"}, Wait},
		{"Anonymous", models.Session{}, RedirectLogin},
		{"Authenticated", models.Session{Token: "t"}, Render},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.session); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRequireSession(t *testing.T) {
	if err := RequireSession(models.Session{Token: "t"}); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	for _, s := range []models.Session{{}, {Initializing: true}} {
		if err := RequireSession(s); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated for %+v, got %v", s, err)
		}
	}
}
