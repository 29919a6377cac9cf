package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/musicbox/internal/models"
)

// MP3ContentType is the content type sent for uploaded files.
const MP3ContentType = "audio/mpeg"

// ListSongs calls GET /songs and normalizes the library.
//
// The token is optional; when empty no authorization header is sent.
func (c *Client) ListSongs(ctx context.Context, token string) ([]models.Track, error) {
	res, err := c.Request(ctx, "/songs", RequestOpts{AuthToken: token})
	if err != nil {
		return nil, err
	}

	tracks := models.NormalizeSongList(res.JSON)
	for i := range tracks {
		if tracks[i].Playable() {
			tracks[i].StreamURL = c.StreamURL(tracks[i].ID)
		}
	}
	return tracks, nil
}

// Upload is a song file with optional metadata.
type Upload struct {
	Filename string
	File     io.Reader
	Title    string
	Artist   string
}

// UploadSong calls POST /songs/upload with a multipart body.
//
// Title and artist are only sent when non-blank. The decoded response is
// normalized into a [models.Track]; a non-object response yields a zero Track.
func (c *Client) UploadSong(ctx context.Context, token string, up Upload) (*models.Track, error) {
	body := NewMultipartBody()
	if err := body.WriteFile("file", up.Filename, MP3ContentType, up.File); err != nil {
		return nil, err
	}
	if t := strings.TrimSpace(up.Title); t != "" {
		if err := body.WriteField("title", t); err != nil {
			return nil, fmt.Errorf("failed to write title: %w", err)
		}
	}
	if a := strings.TrimSpace(up.Artist); a != "" {
		if err := body.WriteField("artist", a); err != nil {
			return nil, fmt.Errorf("failed to write artist: %w", err)
		}
	}

	res, err := c.Request(ctx, "/songs/upload", RequestOpts{
		Method:    http.MethodPost,
		Body:      body,
		AuthToken: token,
	})
	if err != nil {
		return nil, err
	}

	var track models.Track
	if raw, ok := res.JSON.(map[string]any); ok {
		track = models.NormalizeTrack(raw)
		if track.Playable() {
			track.StreamURL = c.StreamURL(track.ID)
		}
	}
	return &track, nil
}

// Health calls GET /health and returns the body as text.
func (c *Client) Health(ctx context.Context) (string, error) {
	res, err := c.Request(ctx, "/health", RequestOpts{})
	if err != nil {
		return "", err
	}
	switch v := res.Value().(type) {
	case nil:
		return "ok", nil
	case string:
		return strings.TrimSpace(v), nil
	case map[string]any:
		if s, ok := v["status"].(string); ok {
			return s, nil
		}
	}
	return "ok", nil
}
