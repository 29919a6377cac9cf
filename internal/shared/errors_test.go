package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTypedErrors(t *testing.T) {
	t.Run("TransportError", func(t *testing.T) {
		err := &TransportError{
			URL:  "http://localhost:3001/songs",
			Base: BaseURL{URL: "http://localhost:3001", Source: "default"},
			Err:  context.DeadlineExceeded,
		}

		if !errors.Is(err, ErrTransport) {
			t.Error("expected TransportError to match ErrTransport")
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Error("expected TransportError to unwrap the original error")
		}
		msg := err.Error()
		if !strings.Contains(msg, "http://localhost:3001/songs") {
			t.Errorf("expected message to include URL, got %q", msg)
		}
		if !strings.Contains(msg, "No API base env set") {
			t.Errorf("expected message to include config source hint, got %q", msg)
		}
	})

	t.Run("APIError", func(t *testing.T) {
		err := fmt.Errorf("listing songs: %w", &APIError{Message: "Request failed (404 Not Found)", StatusCode: 404})

		if !errors.Is(err, ErrAPIRequest) {
			t.Error("expected APIError to match ErrAPIRequest")
		}
		if got := StatusCode(err); got != 404 {
			t.Errorf("expected status 404, got %d", got)
		}
		if got := StatusCode(errors.New("other")); got != 0 {
			t.Errorf("expected status 0 for non API error, got %d", got)
		}
	})

	t.Run("ValidationError", func(t *testing.T) {
		err := &ValidationError{Field: "email", Message: "Email is required."}
		if !errors.Is(err, ErrInvalidInput) {
			t.Error("expected ValidationError to match ErrInvalidInput")
		}
		if err.Error() != "Email is required." {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("SessionError", func(t *testing.T) {
		err := &SessionError{Message: "no token", Payload: map[string]any{"ok": true}}
		if !errors.Is(err, ErrSessionToken) {
			t.Error("expected SessionError to match ErrSessionToken")
		}
	})
}
