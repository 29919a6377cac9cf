package main

import (
	"context"
	"strings"

	"github.com/desertthunder/musicbox/internal/forms"
	"github.com/urfave/cli/v3"
)

// Register creates an account. When the server returns a token the session is persisted.
func (r *Runner) Register(ctx context.Context, cmd *cli.Command) error {
	email := strings.TrimSpace(cmd.String("email"))
	password := cmd.String("password")

	if err := forms.Register(email, password, cmd.String("confirm")).Err(); err != nil {
		return err
	}

	r.loadSession(ctx)
	r.logger.Info("registering", "email", email)

	res, err := r.session.Register(ctx, email, password)
	if err != nil {
		return err
	}

	if res.Token == "" {
		r.writePlain("✓ Account created\n")
		return r.writePlain("Sign in with 'musicbox login --email %s'\n", email)
	}
	return r.writePlain("✓ Account created, signed in as %s\n", r.signedInAs(email))
}

// Login signs in and persists the session.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	email := strings.TrimSpace(cmd.String("email"))
	password := cmd.String("password")

	if err := forms.Login(email, password).Err(); err != nil {
		return err
	}

	r.loadSession(ctx)
	r.logger.Info("signing in", "email", email)

	if _, err := r.session.Login(ctx, email, password); err != nil {
		return err
	}
	return r.writePlain("✓ Signed in as %s\n", r.signedInAs(email))
}

// Logout clears the persisted session. The server is not contacted.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	r.loadSession(ctx)
	if !r.session.Session().Authenticated() {
		return r.writePlain("Not signed in\n")
	}
	r.session.Logout()
	return r.writePlain("✓ Signed out\n")
}

// Status reports the session state, the resolved base URL and the backend health.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	r.loadSession(ctx)
	s := r.session.Session()
	base := r.client.BaseURL()

	health, err := r.client.Health(ctx)
	healthErr := ""
	if err != nil {
		r.logger.Warn("health check failed", "error", err)
		healthErr = err.Error()
	}

	if cmd.Bool("json") {
		status := map[string]any{
			"state":       r.session.State().String(),
			"base_url":    base.URL,
			"base_source": base.Source,
			"health":      health,
		}
		if s.User != nil {
			status["user"] = s.User
		}
		if healthErr != "" {
			status["health_error"] = healthErr
		}
		return r.writeJSON(status, true)
	}

	r.writePlainHeader("musicbox status")
	r.writePlain("Session: %s\n", r.session.State())
	if s.User != nil && s.User.Email != "" {
		r.writePlain("User: %s\n", s.User.Email)
	}
	r.writePlain("API: %s\n", base.URL)
	r.writePlain("%s\n", base.Hint())
	if healthErr != "" {
		return r.writePlain("Health: ✗ %s\n", healthErr)
	}
	return r.writePlain("Health: ✓ %s\n", health)
}

func (r *Runner) signedInAs(fallback string) string {
	if u := r.session.Session().User; u != nil && u.Email != "" {
		return u.Email
	}
	return fallback
}
