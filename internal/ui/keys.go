package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the dashboard key bindings.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Refresh    key.Binding

	// Views
	NextView      key.Binding
	PrevView      key.Binding
	ViewProducts  key.Binding
	ViewOrders    key.Binding
	ViewInventory key.Binding
	ViewLogs      key.Binding

	// Inventory actions
	StockUp   key.Binding
	StockDown key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh now"),
		),

		NextView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next view"),
		),
		PrevView: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous view"),
		),
		ViewProducts: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Products"),
		),
		ViewOrders: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Orders"),
		),
		ViewInventory: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Inventory"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Logs"),
		),

		StockUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Stock +1"),
		),
		StockDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Stock -1"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextView, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextView, k.PrevView, k.ViewProducts, k.ViewOrders, k.ViewInventory, k.ViewLogs},
		{k.StockUp, k.StockDown},
		{k.Refresh, k.CycleTheme, k.Help, k.Quit},
	}
}
