package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/stockroom/internal/autosync"
	"github.com/five82/stockroom/internal/events"
	"github.com/five82/stockroom/internal/prefs"
	"github.com/five82/stockroom/internal/shop"
	"github.com/five82/stockroom/internal/state"
)

type fakeAdjuster struct {
	item shop.InventoryItem
	err  error

	gotID    string
	gotDelta int
}

func (f *fakeAdjuster) AdjustStock(_ context.Context, id string, delta int) (shop.InventoryItem, error) {
	f.gotID, f.gotDelta = id, delta
	return f.item, f.err
}

type fakeRefresher struct {
	result autosync.Result
	err    error
	calls  int
}

func (f *fakeRefresher) ForceRefresh(context.Context, ...autosync.Domain) (autosync.Result, error) {
	f.calls++
	return f.result, f.err
}

func newTestModel(t *testing.T, store *state.Store, opts Options) (Model, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prefs.toml")
	opts.Store = store
	opts.PrefsPath = path
	m := New(opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return next.(Model), path
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func seededStore(admin bool) *state.Store {
	store := state.NewStore(state.Options{})
	role := shop.RoleCustomer
	if admin {
		role = shop.RoleAdmin
	}
	store.SetUser(&shop.User{ID: "u-1", Email: "someone@stockroom.test", Role: role})
	store.SetProducts([]shop.Product{{ID: "p-100", Name: "Canvas Tote", Price: 18.5, Active: true}})
	store.SetInventory([]shop.InventoryItem{
		{ID: "inv-100", ProductID: "p-100", SKU: "TOTE-01", Quantity: 40},
		{ID: "inv-200", ProductID: "p-100", SKU: "TOTE-02", Quantity: 0},
	})
	return store
}

func TestNew_StartsOnSavedView(t *testing.T) {
	m, _ := newTestModel(t, seededStore(false), Options{
		Prefs: prefs.Prefs{Theme: "Paper", LastView: prefs.ViewInventory},
	})
	if m.view != viewInventory {
		t.Fatalf("view = %v, want Inventory", m.view)
	}
	if m.theme.Name != "Paper" {
		t.Fatalf("theme = %q, want Paper", m.theme.Name)
	}
	if got := len(m.table.Rows()); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
}

func TestTab_CyclesViewsAndSavesPrefs(t *testing.T) {
	m, path := newTestModel(t, seededStore(false), Options{})

	m, _ = press(t, m, "tab")
	if m.view != viewOrders {
		t.Fatalf("view = %v, want Orders", m.view)
	}
	if got := prefs.Load(path).LastView; got != prefs.ViewOrders {
		t.Fatalf("saved view = %q, want %q", got, prefs.ViewOrders)
	}

	m, _ = press(t, m, "3")
	if m.view != viewInventory {
		t.Fatalf("view = %v, want Inventory", m.view)
	}
}

func TestThemeKey_SavesPrefs(t *testing.T) {
	m, path := newTestModel(t, seededStore(false), Options{})

	m, _ = press(t, m, "T")
	want := NextTheme(prefs.Default().Theme)
	if m.theme.Name != want {
		t.Fatalf("theme = %q, want %q", m.theme.Name, want)
	}
	if got := prefs.Load(path).Theme; got != want {
		t.Fatalf("saved theme = %q, want %q", got, want)
	}
}

func TestAdjust_RequiresAdmin(t *testing.T) {
	adj := &fakeAdjuster{}
	m, _ := newTestModel(t, seededStore(false), Options{
		Inventory: adj,
		Prefs:     prefs.Prefs{LastView: prefs.ViewInventory},
	})

	m, cmd := press(t, m, "+")
	if cmd != nil {
		t.Fatalf("expected no command for a customer session")
	}
	if !m.failed || !strings.Contains(m.status, "admin") {
		t.Fatalf("status = %q (failed=%v), want admin error", m.status, m.failed)
	}
}

func TestAdjust_ReportsNewQuantity(t *testing.T) {
	store := seededStore(true)
	adj := &fakeAdjuster{item: shop.InventoryItem{ID: "inv-100", ProductID: "p-100", SKU: "TOTE-01", Quantity: 41}}
	m, _ := newTestModel(t, store, Options{
		Inventory: adj,
		Prefs:     prefs.Prefs{LastView: prefs.ViewInventory},
	})

	m, cmd := press(t, m, "+")
	if cmd == nil {
		t.Fatalf("expected adjust command")
	}
	msg := cmd()
	if adj.gotID != "inv-100" || adj.gotDelta != 1 {
		t.Fatalf("AdjustStock(%q, %d), want (inv-100, 1)", adj.gotID, adj.gotDelta)
	}
	next, _ := m.Update(msg)
	m = next.(Model)
	if m.failed || m.status != "inv-100 stock now 41" {
		t.Fatalf("status = %q (failed=%v)", m.status, m.failed)
	}
}

func TestAdjust_ShowsError(t *testing.T) {
	store := seededStore(true)
	adj := &fakeAdjuster{err: errors.New("stock cannot go below zero")}
	m, _ := newTestModel(t, store, Options{
		Inventory: adj,
		Prefs:     prefs.Prefs{LastView: prefs.ViewInventory},
	})

	m, cmd := press(t, m, "-")
	next, _ := m.Update(cmd())
	m = next.(Model)

	if !m.failed || m.status != "stock cannot go below zero" {
		t.Fatalf("status = %q (failed=%v)", m.status, m.failed)
	}
	if adj.gotDelta != -1 {
		t.Fatalf("delta = %d, want -1", adj.gotDelta)
	}
}

func TestRefreshKey_ReportsPartialFailure(t *testing.T) {
	ref := &fakeRefresher{result: autosync.Result{
		Refreshed: []autosync.Domain{autosync.Products},
		Failed:    map[autosync.Domain]error{autosync.Orders: errors.New("503")},
	}}
	m, _ := newTestModel(t, seededStore(false), Options{Refresher: ref})

	m, cmd := press(t, m, "r")
	if cmd == nil {
		t.Fatalf("expected refresh command")
	}
	next, _ := m.Update(cmd())
	m = next.(Model)

	if ref.calls != 1 {
		t.Fatalf("ForceRefresh calls = %d, want 1", ref.calls)
	}
	if !m.failed || m.status != "refreshed 1, failed 1" {
		t.Fatalf("status = %q (failed=%v)", m.status, m.failed)
	}
}

func TestSyncMessages_TrackPendingDomains(t *testing.T) {
	m, _ := newTestModel(t, seededStore(false), Options{})

	next, cmd := m.Update(syncStartedMsg{domains: []autosync.Domain{autosync.Products, autosync.Orders}})
	m = next.(Model)
	if m.pending != 2 || cmd == nil {
		t.Fatalf("pending = %d, cmd = %v; want 2 and a spinner tick", m.pending, cmd)
	}
	if !strings.Contains(m.View(), "syncing") {
		t.Fatalf("header should show syncing")
	}

	next, _ = m.Update(domainDoneMsg{Domain: autosync.Products, Count: 4})
	next, _ = next.(Model).Update(domainDoneMsg{Domain: autosync.Orders, Err: errors.New("timeout")})
	m = next.(Model)
	if m.pending != 0 {
		t.Fatalf("pending = %d, want 0", m.pending)
	}
	if !m.failed || !strings.Contains(m.status, "sync orders") {
		t.Fatalf("status = %q, want orders failure", m.status)
	}
}

func TestView_ShowsInventoryBadges(t *testing.T) {
	m, _ := newTestModel(t, seededStore(false), Options{
		Prefs: prefs.Prefs{LastView: prefs.ViewInventory},
	})

	out := m.View()
	for _, want := range []string{"someone@stockroom.test", "ok 1", "out 1", "TOTE-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

type collector struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (c *collector) send(msg tea.Msg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func TestSubscribe_ForwardsBusTraffic(t *testing.T) {
	bus := events.NewBus(nil)
	store := state.NewStore(state.Options{Bus: bus})
	c := &collector{}

	unsubscribe := subscribe(bus, store, c.send)

	store.SetProducts([]shop.Product{{ID: "p-1"}})
	bus.Publish(events.SyncStarted, []autosync.Domain{autosync.Products})
	bus.Publish(events.SyncDomain, autosync.DomainResult{Domain: autosync.Products, Count: 1})
	bus.Publish(events.SyncFailed, autosync.Result{Err: errors.New("panic")})

	c.mu.Lock()
	msgs := append([]tea.Msg(nil), c.msgs...)
	c.mu.Unlock()
	if len(msgs) != 4 {
		t.Fatalf("forwarded %d messages, want 4: %#v", len(msgs), msgs)
	}
	if snap, ok := msgs[0].(snapshotMsg); !ok || len(snap.Products) != 1 {
		t.Fatalf("msgs[0] = %#v, want snapshot with one product", msgs[0])
	}
	if started, ok := msgs[1].(syncStartedMsg); !ok || len(started.domains) != 1 {
		t.Fatalf("msgs[1] = %#v, want syncStartedMsg", msgs[1])
	}
	if _, ok := msgs[2].(domainDoneMsg); !ok {
		t.Fatalf("msgs[2] = %#v, want domainDoneMsg", msgs[2])
	}
	if _, ok := msgs[3].(syncFailedMsg); !ok {
		t.Fatalf("msgs[3] = %#v, want syncFailedMsg", msgs[3])
	}

	unsubscribe()
	store.SetProducts(nil)
	if got := c.count(); got != 4 {
		t.Fatalf("messages after unsubscribe = %d, want 4", got)
	}
}

func TestSnapshot_KeepsSelectedRow(t *testing.T) {
	store := seededStore(true)
	m, _ := newTestModel(t, store, Options{
		Prefs: prefs.Prefs{LastView: prefs.ViewInventory},
	})

	m, _ = press(t, m, "j")
	if got := m.table.Cursor(); got != 1 {
		t.Fatalf("cursor = %d, want 1", got)
	}

	next, _ := m.Update(snapshotMsg(store.Snapshot()))
	m = next.(Model)
	if row := m.table.SelectedRow(); row == nil || row[0] != "inv-200" {
		t.Fatalf("selected = %v, want inv-200 after refresh", row)
	}

	store.SetInventory([]shop.InventoryItem{{ID: "inv-100", ProductID: "p-100", SKU: "TOTE-01", Quantity: 40}})
	next, _ = m.Update(snapshotMsg(store.Snapshot()))
	m = next.(Model)
	if row := m.table.SelectedRow(); row == nil || row[0] != "inv-100" {
		t.Fatalf("selected = %v, want cursor clamped to inv-100", row)
	}
}
