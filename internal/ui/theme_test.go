package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stockroom/internal/prefs"
	"github.com/five82/stockroom/internal/shop"
)

func TestNextTheme_CyclesAllThemes(t *testing.T) {
	names := ThemeNames()
	current := names[0]
	for i := 1; i <= len(names); i++ {
		current = NextTheme(current)
		if want := names[i%len(names)]; current != want {
			t.Fatalf("step %d: NextTheme = %q, want %q", i, current, want)
		}
	}
	if got := NextTheme("Dracula"); got != names[0] {
		t.Fatalf("NextTheme(unknown) = %q, want %q", got, names[0])
	}
}

func TestGetTheme_UnknownFallsBackToDefault(t *testing.T) {
	if got := GetTheme("nope").Name; got != prefs.Default().Theme {
		t.Fatalf("GetTheme(unknown).Name = %q, want %q", got, prefs.Default().Theme)
	}
	for _, name := range ThemeNames() {
		if got := GetTheme(name).Name; got != name {
			t.Fatalf("GetTheme(%q).Name = %q", name, got)
		}
	}
}

func TestThemes_CoverEveryStatus(t *testing.T) {
	statuses := []string{
		shop.OrderPending, shop.OrderPaid, shop.OrderShipped, shop.OrderDelivered, shop.OrderCancelled,
		stockOut, stockLow, stockOK,
	}
	for _, name := range ThemeNames() {
		theme := GetTheme(name)
		for _, s := range statuses {
			if theme.StatusColors[s] == "" {
				t.Errorf("theme %s has no color for %q", name, s)
			}
		}
	}
}

func TestStatusStyle_UnknownUsesMuted(t *testing.T) {
	theme := GetTheme("Slate")
	styles := theme.Styles()

	if got := styles.StatusStyle(shop.OrderPaid).GetBackground(); got != lipgloss.Color(theme.StatusColors[shop.OrderPaid]) {
		t.Fatalf("paid background = %v, want %v", got, theme.StatusColors[shop.OrderPaid])
	}
	if got := styles.StatusStyle("refunded").GetBackground(); got != lipgloss.Color(theme.Muted) {
		t.Fatalf("unknown background = %v, want %v", got, theme.Muted)
	}
}
