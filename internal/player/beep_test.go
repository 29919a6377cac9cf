package player

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeepHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("Idle Handle Is Paused", func(t *testing.T) {
		h := NewBeepHandle(nil, nil)
		assert.True(t, h.Paused())
		h.Pause()
		assert.NoError(t, h.Close())
	})

	t.Run("Nil Client Uses Stream Client", func(t *testing.T) {
		h := NewBeepHandle(nil, nil)
		require.NotNil(t, h.httpClient)
		assert.Zero(t, h.httpClient.Timeout)
		transport, ok := h.httpClient.Transport.(*http.Transport)
		require.True(t, ok)
		assert.Positive(t, transport.ResponseHeaderTimeout)
	})

	t.Run("Play Without Source", func(t *testing.T) {
		h := NewBeepHandle(nil, nil)
		assert.ErrorIs(t, h.Play(ctx), errNoSource)
	})

	t.Run("Rejected Stream", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer server.Close()

		h := NewBeepHandle(server.Client(), nil)
		require.NoError(t, h.SetSource(server.URL+"/songs/missing/stream"))

		err := h.Play(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
		assert.True(t, h.Paused())
	})

	t.Run("Undecodable Stream", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "audio/mpeg")
			w.Write([]byte("definitely not an mp3"))
		}))
		defer server.Close()

		h := NewBeepHandle(server.Client(), nil)
		require.NoError(t, h.SetSource(server.URL+"/songs/1/stream"))

		err := h.Play(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode")
	})
}
