package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stockroom/internal/logtail"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	styles := m.theme.Styles()

	var body string
	if m.view == viewLogs {
		body = m.logs.View()
	} else {
		body = m.table.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(styles),
		m.renderTabs(styles),
		body,
		m.renderStatus(styles),
		m.help.View(m.keys),
	)
}

func (m Model) renderHeader(styles Styles) string {
	left := styles.Title.Render("stockroom")
	user := "signed out"
	if u := m.snapshot.User; u != nil {
		user = u.Email + " (" + u.Role + ")"
	}
	left += "  " + user

	right := syncLabel(m.snapshot.LastSync, m.now())
	if m.pending > 0 {
		right = m.spinner.View() + " syncing"
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return styles.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderTabs(styles Styles) string {
	tabs := make([]string, 0, len(viewOrder))
	for _, v := range viewOrder {
		style := styles.Tab
		if v == m.view {
			style = styles.TabOn
		}
		tabs = append(tabs, style.Render(v.String()))
	}
	for _, c := range m.badgeCounts() {
		tabs = append(tabs, " ", styles.StatusStyle(c.label).Render(fmt.Sprintf("%s %d", c.label, c.count)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

type badgeCount struct {
	label string
	count int
}

// badgeCounts summarises the active view: order statuses or stock levels.
func (m Model) badgeCounts() []badgeCount {
	var labels []string
	switch m.view {
	case viewOrders:
		for _, o := range m.snapshot.Orders {
			labels = append(labels, o.Status)
		}
	case viewInventory:
		for _, it := range m.snapshot.Inventory {
			labels = append(labels, stockLevel(it.Quantity))
		}
	default:
		return nil
	}
	return countLabels(labels)
}

// countLabels counts occurrences, keeping first-seen order.
func countLabels(labels []string) []badgeCount {
	var out []badgeCount
	index := make(map[string]int)
	for _, l := range labels {
		if i, ok := index[l]; ok {
			out[i].count++
			continue
		}
		index[l] = len(out)
		out = append(out, badgeCount{label: l, count: 1})
	}
	return out
}

func (m Model) renderStatus(styles Styles) string {
	if m.status == "" {
		return ""
	}
	if m.failed {
		return styles.Danger.Render(m.status)
	}
	return styles.Success.Render(m.status)
}

func renderLogs(entries []logtail.Entry, styles Styles) string {
	if len(entries) == 0 {
		return styles.Muted.Render("No log entries yet.")
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		if !e.Time.IsZero() {
			b.WriteString(styles.Muted.Render(e.Time.Local().Format("15:04:05")))
			b.WriteByte(' ')
		}
		b.WriteString(levelStyle(styles, e.Level.String()).Render(padLevel(e.Level.String())))
		b.WriteByte(' ')
		b.WriteString(e.Message)
		if e.Attrs != "" {
			b.WriteByte(' ')
			b.WriteString(styles.Muted.Render(e.Attrs))
		}
	}
	return b.String()
}

func levelStyle(styles Styles, level string) lipgloss.Style {
	switch level {
	case "ERROR":
		return styles.Danger
	case "WARN":
		return styles.Warning
	case "DEBUG":
		return styles.Muted
	default:
		return styles.Success
	}
}

func padLevel(level string) string {
	const width = 5
	if len(level) >= width {
		return level
	}
	return level + strings.Repeat(" ", width-len(level))
}
