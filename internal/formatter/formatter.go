// package formatter renders the song library as a table, CSV or Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/desertthunder/musicbox/internal/models"
	"github.com/desertthunder/musicbox/internal/shared"
)

// UnknownArtist labels tracks without an artist.
const UnknownArtist = "Unknown artist"

// EmptyLibraryMessage is shown when the library has no songs.
const EmptyLibraryMessage = "No songs yet. Upload an mp3 to get started."

// Format is a library output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatCSV, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (table, csv, markdown)", shared.ErrInvalidArgument, s)
	}
}

// FormatDuration renders seconds as m:ss. Absent, negative or NaN durations render as "".
func FormatDuration(seconds *float64) string {
	if seconds == nil || math.IsNaN(*seconds) || *seconds < 0 {
		return ""
	}
	total := int(math.Floor(*seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// ArtistLabel returns artist or [UnknownArtist].
func ArtistLabel(artist string) string {
	if artist == "" {
		return UnknownArtist
	}
	return artist
}

// Render writes tracks in the given format.
func Render(tracks []models.Track, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return LibraryToCSV(tracks)
	case FormatMarkdown:
		return LibraryToMarkdown(tracks)
	case FormatTable, "":
		return LibraryToTable(tracks), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// LibraryToTable renders tracks as a bordered table with columns: #, ID, Title, Artist, Length
func LibraryToTable(tracks []models.Track) []byte {
	if len(tracks) == 0 {
		return []byte(EmptyLibraryMessage + "\n")
	}

	rows := make([][]string, 0, len(tracks))
	for i, t := range tracks {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			t.ID,
			t.Title,
			ArtistLabel(t.Artist),
			FormatDuration(t.Duration),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "ID", "Title", "Artist", "Length").
		Rows(rows...)

	return []byte(tbl.String() + "\n")
}

// LibraryToCSV renders tracks as CSV with columns: ID, Title, Artist, Duration, StreamURL
//
// Duration is in whole seconds and empty when unknown.
func LibraryToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Title", "Artist", "Duration", "StreamURL"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, t := range tracks {
		duration := ""
		if t.Duration != nil {
			duration = fmt.Sprintf("%d", int(math.Floor(*t.Duration)))
		}
		if err := writer.Write([]string{t.ID, t.Title, t.Artist, duration, t.StreamURL}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// LibraryToMarkdown renders tracks as a numbered Markdown list.
func LibraryToMarkdown(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Library\n\n")
	buf.WriteString(fmt.Sprintf("**Songs**: %d\n\n", len(tracks)))

	if len(tracks) == 0 {
		buf.WriteString(EmptyLibraryMessage + "\n")
		return buf.Bytes(), nil
	}

	for i, t := range tracks {
		line := fmt.Sprintf("%d. %s - %s", i+1, ArtistLabel(t.Artist), t.Title)
		if d := FormatDuration(t.Duration); d != "" {
			line += fmt.Sprintf(" [%s]", d)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// WriteLibraryExport renders tracks and writes them to path.
func WriteLibraryExport(tracks []models.Track, format Format, path string) error {
	data, err := Render(tracks, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
