package ui

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/musicbox/internal/formatter"
	"github.com/desertthunder/musicbox/internal/models"
)

var _ list.Item = songItem{}

// songItem wraps [models.Track] to implement [list.Item].
type songItem struct {
	track models.Track
}

func (i songItem) FilterValue() string { return i.track.Title + " " + i.track.Artist }
func (i songItem) Title() string       { return i.track.Title }
func (i songItem) Description() string {
	desc := formatter.ArtistLabel(i.track.Artist)
	if d := formatter.FormatDuration(i.track.Duration); d != "" {
		desc += " • " + d
	}
	return desc
}

func songItems(tracks []models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = songItem{track: t}
	}
	return items
}
