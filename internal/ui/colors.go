package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors pairs the hex value used on light terminals with the one used on dark terminals.
type Colors struct {
	Light string
	Dark  string
}

func (c Colors) adaptive() lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: c.Light, Dark: c.Dark}
}

// PaletteColors names the color of every notice kind and text role.
type PaletteColors struct {
	Title   Colors
	Success Colors
	Info    Colors
	Error   Colors
	Warn    Colors
	Help    Colors
}

var styles = NewPalette(PaletteColors{
	Title:   Colors{Light: "#5A3FC0", Dark: "#7D56F4"},
	Success: Colors{Light: "#027A4E", Dark: "#04B575"},
	Info:    Colors{Light: "#1F6FB2", Dark: "#3B9FE8"},
	Error:   Colors{Light: "#C00000", Dark: "#FF5F5F"},
	Warn:    Colors{Light: "#B36B00", Dark: "#FFA500"},
	Help:    Colors{Light: "#8A8A8A", Dark: "#626262"},
})

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	info  lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

// NewPalette builds a [Palette] whose colors adapt to the terminal background.
func NewPalette(c PaletteColors) *Palette {
	return &Palette{
		title: NewBold(c.Title.adaptive()).MarginBottom(1),
		ok:    NewBold(c.Success.adaptive()),
		info:  NewStyle(c.Info.adaptive()),
		err:   NewBold(c.Error.adaptive()),
		warn:  NewStyle(c.Warn.adaptive()),
		help:  NewEm(c.Help.adaptive()),
	}
}

// notice returns the style and leading mark for k.
func (p *Palette) notice(k Kind) (lipgloss.Style, string) {
	switch k {
	case KindSuccess:
		return p.ok, "✓"
	case KindInfo:
		return p.info, "ℹ"
	default:
		return p.err, "✗"
	}
}

func NewStyle(fg lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(fg)
}

func NewBold(fg lipgloss.TerminalColor) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg lipgloss.TerminalColor) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
