package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/musicbox/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262", "#3C9DD0")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	info  lipgloss.Style
	bar   lipgloss.Style
	toast lipgloss.Style
}

func NewPalette(t, s, e, w, h, i string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		info:  NewBold(i),
		bar:   lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true, false, false, false).BorderForeground(lipgloss.Color(h)).PaddingTop(0),
		toast: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

// kind returns the style for a notification kind.
func (p *Palette) kind(k models.NotificationKind) lipgloss.Style {
	switch k {
	case models.KindSuccess:
		return p.ok
	case models.KindError:
		return p.err
	default:
		return p.info
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
