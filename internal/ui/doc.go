// Package ui provides the stockroom terminal dashboard.
//
// # Architecture Overview
//
// The dashboard is a Bubble Tea program. Model holds a copy of the state
// snapshot and renders it; it never owns data. Bus traffic is forwarded into
// the program by subscribe: every state:changed notification becomes a fresh
// snapshot message and the sync:* channels drive the spinner and status line.
//
// # Package Structure
//
//   - app.go: Model, Options, Update and key handling, and Run
//   - commands.go: messages, tea.Cmd constructors and the bus bridge
//   - view.go: rendering for the header, tabs, body and status line
//   - rows.go: pure row and column builders for each table view
//   - keys.go: key bindings for the help view
//   - theme.go: palettes and lipgloss styles
//
// # Views
//
// Products, Orders and Inventory are tables over the snapshot. Logs tails the
// application log file through logtail. The last table view and the theme are
// saved to prefs whenever they change.
//
// # Actions
//
//   - r: refresh every permitted domain now
//   - +/-: adjust the selected inventory item by one (admin sessions only)
//   - T: cycle the theme
//
// Store writes triggered from the dashboard run inside commands, never in
// Update, so notifications can be delivered back to the program while it is
// busy.
package ui
