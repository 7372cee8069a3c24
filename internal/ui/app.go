package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/stockroom/internal/autosync"
	"github.com/five82/stockroom/internal/events"
	"github.com/five82/stockroom/internal/prefs"
	"github.com/five82/stockroom/internal/shop"
	"github.com/five82/stockroom/internal/state"
)

// Refresher runs an immediate sync.
type Refresher interface {
	ForceRefresh(ctx context.Context, domains ...autosync.Domain) (autosync.Result, error)
}

// StockAdjuster applies a relative change to an inventory item and records
// the result in the state store.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, id string, delta int) (shop.InventoryItem, error)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Bus       *events.Bus
	Refresher Refresher
	Inventory StockAdjuster
	Prefs     prefs.Prefs
	PrefsPath string
	LogPath   string
	// Tick drives the clock in the header and the log pane; zero uses one second.
	Tick time.Duration
	Now  func() time.Time
}

const logPaneLines = 500

// Model is the root dashboard state for Bubble Tea.
//
// Update never writes to the state store. Store writes happen inside
// commands, which run off the event loop, so bus notifications can be
// delivered to the program without blocking it.
type Model struct {
	ctx       context.Context
	store     *state.Store
	refresher Refresher
	inventory StockAdjuster
	prefsPath string
	logPath   string
	tick      time.Duration
	now       func() time.Time

	keys    keyMap
	help    help.Model
	table   table.Model
	spinner spinner.Model
	logs    viewport.Model

	theme  Theme
	view   view
	width  int
	height int
	ready  bool

	snapshot state.State
	pending  int
	status   string
	failed   bool
}

// New creates the dashboard model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:       ctx,
		store:     opts.Store,
		refresher: opts.Refresher,
		inventory: opts.Inventory,
		prefsPath: prefsPath,
		logPath:   opts.LogPath,
		tick:      tick,
		now:       now,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		table:     table.New(table.WithFocused(true)),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		logs:      viewport.New(0, 0),
		theme:     GetTheme(opts.Prefs.Theme),
		view:      viewFromPref(opts.Prefs.LastView),
	}
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
	}
	m.applyTheme()
	m.refreshTable()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.view == viewLogs {
		cmds = append(cmds, loadLogsCmd(m.logPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(m.tick)}
		if m.view == viewLogs {
			cmds = append(cmds, loadLogsCmd(m.logPath))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = state.State(msg)
		m.refreshTable()
		return m, nil

	case syncStartedMsg:
		start := m.pending == 0
		m.pending += len(msg.domains)
		if start {
			return m, m.spinner.Tick
		}
		return m, nil

	case domainDoneMsg:
		if m.pending > 0 {
			m.pending--
		}
		if msg.Err != nil {
			m.setError(fmt.Errorf("sync %s: %w", msg.Domain, msg.Err))
		}
		return m, nil

	case syncFailedMsg:
		m.pending = 0
		m.setError(msg.err)
		return m, nil

	case refreshDoneMsg:
		m.handleRefreshDone(msg)
		return m, nil

	case adjustedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus(fmt.Sprintf("%s stock now %d", msg.item.ID, msg.item.Quantity))
		}
		return m, nil

	case logsMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		atBottom := m.logs.AtBottom()
		m.logs.SetContent(renderLogs(msg.entries, m.theme.Styles()))
		if atBottom {
			m.logs.GotoBottom()
		}
		return m, nil

	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.savePrefs()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyTheme()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.refresher == nil {
			return m, nil
		}
		m.setStatus("refreshing")
		return m, refreshCmd(m.ctx, m.refresher)

	case key.Matches(msg, m.keys.NextView):
		return m.switchView(m.view.next(1))
	case key.Matches(msg, m.keys.PrevView):
		return m.switchView(m.view.next(-1))
	case key.Matches(msg, m.keys.ViewProducts):
		return m.switchView(viewProducts)
	case key.Matches(msg, m.keys.ViewOrders):
		return m.switchView(viewOrders)
	case key.Matches(msg, m.keys.ViewInventory):
		return m.switchView(viewInventory)
	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(viewLogs)

	case key.Matches(msg, m.keys.StockUp):
		return m.adjustSelected(1)
	case key.Matches(msg, m.keys.StockDown):
		return m.adjustSelected(-1)
	}

	var cmd tea.Cmd
	if m.view == viewLogs {
		m.logs, cmd = m.logs.Update(msg)
	} else {
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

func (m Model) switchView(v view) (tea.Model, tea.Cmd) {
	if v == m.view {
		return m, nil
	}
	m.view = v
	m.table.SetCursor(0)
	m.refreshTable()
	m.resize()
	if v == viewLogs {
		return m, loadLogsCmd(m.logPath)
	}
	m.savePrefs()
	return m, nil
}

func (m Model) adjustSelected(delta int) (tea.Model, tea.Cmd) {
	if m.view != viewInventory || m.inventory == nil {
		return m, nil
	}
	if !m.snapshot.IsAdmin {
		m.setError(errors.New("stock changes need an admin session"))
		return m, nil
	}
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return m, nil
	}
	return m, adjustCmd(m.ctx, m.inventory, row[0], delta)
}

func (m *Model) handleRefreshDone(msg refreshDoneMsg) {
	switch {
	case errors.Is(msg.err, autosync.ErrBusy):
		m.setStatus("sync already running")
	case msg.err != nil:
		m.setError(msg.err)
	case msg.result.Skipped:
		m.setStatus("nothing to refresh")
	case len(msg.result.Failed) > 0:
		m.setError(fmt.Errorf("refreshed %d, failed %d", len(msg.result.Refreshed), len(msg.result.Failed)))
	default:
		m.setStatus(fmt.Sprintf("refreshed %d domains", len(msg.result.Refreshed)))
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.failed = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.failed = true
}

func (m *Model) savePrefs() {
	p := prefs.Prefs{Theme: m.theme.Name, LastView: m.view.pref()}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		slog.Warn("save prefs failed", "path", m.prefsPath, "error", err)
	}
}

func (m *Model) applyTheme() {
	styles := m.theme.Styles()
	ts := table.DefaultStyles()
	ts.Header = ts.Header.Foreground(styles.Title.GetForeground()).Bold(true)
	ts.Selected = styles.Selected
	m.table.SetStyles(ts)
	m.spinner.Style = styles.Spinner
}

// refreshTable rebuilds the rows for the current view and keeps the cursor on
// the same position, clamped to the new row count. Rows are cleared before
// the columns change since the table renders old rows against new columns.
func (m *Model) refreshTable() {
	cursor := max(m.table.Cursor(), 0)
	var rows []table.Row
	switch m.view {
	case viewOrders:
		rows = orderRows(m.snapshot.Orders)
	case viewInventory:
		rows = inventoryRows(m.snapshot.Inventory, m.snapshot.Products)
	case viewProducts:
		rows = productRows(m.snapshot.Products)
	}
	m.table.SetRows(nil)
	m.table.SetColumns(columnsFor(m.view, m.width))
	m.table.SetRows(rows)
	m.table.SetCursor(cursor)
}

// resize fits the body between the header, tabs, status and help lines.
func (m *Model) resize() {
	if !m.ready {
		return
	}
	chrome := 4
	if m.help.ShowAll {
		chrome += len(m.keys.FullHelp()[0]) - 1
	}
	body := max(m.height-chrome, 3)
	m.table.SetWidth(m.width)
	m.table.SetHeight(body)
	m.table.SetColumns(columnsFor(m.view, m.width))
	m.logs.Width = m.width
	m.logs.Height = body
	m.help.Width = m.width
}

// Run starts the dashboard and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	if opts.Bus != nil {
		unsubscribe := subscribe(opts.Bus, opts.Store, p.Send)
		defer unsubscribe()
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
