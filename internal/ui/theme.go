package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stockroom/internal/shop"
)

// Theme is a named dashboard palette.
type Theme struct {
	Name string

	Background string
	Surface    string

	SelectionBg   string
	SelectionText string
	Border        string

	Text    string
	Muted   string
	Accent  string
	Success string
	Warning string
	Danger  string

	// StatusColors maps order statuses and stock levels to badge colors.
	StatusColors map[string]string
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Header   lipgloss.Style
	Footer   lipgloss.Style
	Title    lipgloss.Style
	Tab      lipgloss.Style
	TabOn    lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Danger   lipgloss.Style
	Spinner  lipgloss.Style
	Border   lipgloss.Style
	Selected lipgloss.Style

	statusColors map[string]string
	background   string
	muted        string
}

// Styles builds the style set for t.
func (t Theme) Styles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),
		Tab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),
		TabOn: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.SelectionText)).
			Background(lipgloss.Color(t.SelectionBg)).
			Bold(true).
			Padding(0, 1),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Success)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning)),
		Danger:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Danger)).Bold(true),
		Spinner: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(t.Border)),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),

		statusColors: t.StatusColors,
		background:   t.Background,
		muted:        t.Muted,
	}
}

// StatusStyle returns a badge style for an order status or stock level.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color := s.statusColors[status]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

var themeOrder = []string{"Ledger", "Slate", "Paper"}

var themes = map[string]Theme{
	"Ledger": ledgerTheme(),
	"Slate":  slateTheme(),
	"Paper":  paperTheme(),
}

// GetTheme returns the named theme, or Ledger when the name is unknown.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return ledgerTheme()
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns the available theme names in cycle order.
func ThemeNames() []string {
	return themeOrder
}

func statusPalette(pending, paid, shipped, delivered, cancelled, out, low, ok string) map[string]string {
	return map[string]string{
		shop.OrderPending:   pending,
		shop.OrderPaid:      paid,
		shop.OrderShipped:   shipped,
		shop.OrderDelivered: delivered,
		shop.OrderCancelled: cancelled,
		stockOut:            out,
		stockLow:            low,
		stockOK:             ok,
	}
}

func ledgerTheme() Theme {
	return Theme{
		Name:          "Ledger",
		Background:    "#1b1d1e",
		Surface:       "#26292b",
		SelectionBg:   "#3d6b5a",
		SelectionText: "#f2efe6",
		Border:        "#44494c",
		Text:          "#e6e1d6",
		Muted:         "#8c918f",
		Accent:        "#7fc8a9",
		Success:       "#8fcf7a",
		Warning:       "#e0b84f",
		Danger:        "#e0674f",
		StatusColors: statusPalette(
			"#8c918f", "#7fc8a9", "#6fa3d8", "#8fcf7a", "#e0674f",
			"#e0674f", "#e0b84f", "#8fcf7a",
		),
	}
}

func slateTheme() Theme {
	// Tailwind slate and sky.
	return Theme{
		Name:          "Slate",
		Background:    "#020617",
		Surface:       "#0f172a",
		SelectionBg:   "#0284c7",
		SelectionText: "#f8fafc",
		Border:        "#334155",
		Text:          "#f1f5f9",
		Muted:         "#94a3b8",
		Accent:        "#38bdf8",
		Success:       "#22c55e",
		Warning:       "#f59e0b",
		Danger:        "#ef4444",
		StatusColors: statusPalette(
			"#64748b", "#0ea5e9", "#06b6d4", "#16a34a", "#dc2626",
			"#dc2626", "#f59e0b", "#22c55e",
		),
	}
}

func paperTheme() Theme {
	return Theme{
		Name:          "Paper",
		Background:    "#faf8f2",
		Surface:       "#ece8dc",
		SelectionBg:   "#2f5d8a",
		SelectionText: "#ffffff",
		Border:        "#c9c3b2",
		Text:          "#2b2a27",
		Muted:         "#7a766c",
		Accent:        "#2f5d8a",
		Success:       "#3b7d3a",
		Warning:       "#a86b00",
		Danger:        "#b23a2b",
		StatusColors: statusPalette(
			"#7a766c", "#2f5d8a", "#4b7fa8", "#3b7d3a", "#b23a2b",
			"#b23a2b", "#a86b00", "#3b7d3a",
		),
	}
}
