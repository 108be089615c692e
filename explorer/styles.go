// Package explorer renders dbctx schema trees, either as static text or as
// an interactive terminal view.
package explorer

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rlch/dbctx"
)

// Styles controls how tree items are drawn.
type Styles struct {
	Root     lipgloss.Style
	Category lipgloss.Style
	Object   lipgloss.Style
	Property lipgloss.Style
	Icon     lipgloss.Style
	Branch   lipgloss.Style
	Selected lipgloss.Style
	Spinner  lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style

	Icons map[dbctx.ExplorerIcon]string
}

// DefaultStyles returns the colored styles used on terminals.
func DefaultStyles() *Styles {
	return &Styles{
		Root: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#336791")).
			Padding(0, 1),
		Category: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")),
		Object: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DDDDDD")),
		Property: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9B9B9B")),
		Icon: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")),
		Branch: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true),
		Spinner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(1, 0, 0, 0),
		Icons: DefaultIcons(),
	}
}

// PlainStyles returns styles that add no escape sequences.
func PlainStyles() *Styles {
	return &Styles{Icons: DefaultIcons()}
}

// DefaultIcons maps explorer icons to glyphs.
func DefaultIcons() map[dbctx.ExplorerIcon]string {
	return map[dbctx.ExplorerIcon]string{
		dbctx.IconSchema:    "◇",
		dbctx.IconTable:     "▦",
		dbctx.IconView:      "◫",
		dbctx.IconColumn:    "·",
		dbctx.IconKey:       "⚷",
		dbctx.IconRoutine:   "ƒ",
		dbctx.IconProcedure: "⚙",
		dbctx.IconParameter: "→",
		dbctx.IconEnum:      "≡",
		dbctx.IconValue:     "•",
	}
}

func (s *Styles) text(item *dbctx.ExplorerItem) string {
	switch item.Kind {
	case dbctx.KindRoot:
		return s.Root.Render(item.Text)
	case dbctx.KindCategory:
		return s.Category.Render(item.Text)
	case dbctx.KindProperty:
		return s.Property.Render(item.Text)
	default:
		return s.Object.Render(item.Text)
	}
}

// label is the icon glyph, if any, followed by the styled text.
func (s *Styles) label(item *dbctx.ExplorerItem) string {
	glyph, ok := s.Icons[item.Icon]
	if !ok || glyph == "" {
		return s.text(item)
	}

	return s.Icon.Render(glyph) + " " + s.text(item)
}
