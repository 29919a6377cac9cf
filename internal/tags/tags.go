// Package tags reads embedded metadata from audio files to prefill uploads.
package tags

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Metadata is the subset of embedded tags musicbox uses.
type Metadata struct {
	Title  string
	Artist string
	Album  string
	Year   int
	Format string // e.g. ID3v2.3, empty when the file carried no tags
}

// Read extracts metadata from r. Files without tags return zero Metadata and no error.
func Read(r io.ReadSeeker) (Metadata, error) {
	m, err := tag.ReadFrom(r)
	if errors.Is(err, tag.ErrNoTagsFound) {
		return Metadata{}, nil
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read tags: %w", err)
	}

	return Metadata{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
		Year:   m.Year(),
		Format: string(m.Format()),
	}, nil
}

// ReadFile reads the metadata of the file at path.
//
// Unreadable tags are not fatal and yield empty metadata. Title is left blank
// when the file has no title tag; see [FallbackTitle] for a display label.
func ReadFile(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	md, err := Read(f)
	if err != nil {
		md = Metadata{}
	}
	return md, nil
}

// FallbackTitle derives a display label from a file name. It is never sent
// to the server.
func FallbackTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Prefill returns title and artist, preferring explicit values over tags.
func (m Metadata) Prefill(title, artist string) (string, string) {
	if strings.TrimSpace(title) == "" {
		title = m.Title
	}
	if strings.TrimSpace(artist) == "" {
		artist = m.Artist
	}
	return title, artist
}
