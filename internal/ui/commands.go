package ui

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/stockroom/internal/autosync"
	"github.com/five82/stockroom/internal/events"
	"github.com/five82/stockroom/internal/logtail"
	"github.com/five82/stockroom/internal/shop"
	"github.com/five82/stockroom/internal/state"
)

type (
	tickMsg        time.Time
	snapshotMsg    state.State
	syncStartedMsg struct{ domains []autosync.Domain }
	domainDoneMsg  autosync.DomainResult
	syncFailedMsg  struct{ err error }
	refreshDoneMsg struct {
		result autosync.Result
		err    error
	}
	adjustedMsg struct {
		item shop.InventoryItem
		err  error
	}
	logsMsg struct {
		entries []logtail.Entry
		err     error
	}
)

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func refreshCmd(ctx context.Context, r Refresher) tea.Cmd {
	return func() tea.Msg {
		res, err := r.ForceRefresh(ctx)
		return refreshDoneMsg{result: res, err: err}
	}
}

func adjustCmd(ctx context.Context, inv StockAdjuster, id string, delta int) tea.Cmd {
	return func() tea.Msg {
		item, err := inv.AdjustStock(ctx, id, delta)
		return adjustedMsg{item: item, err: err}
	}
}

func loadLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := logtail.Read(path, logPaneLines, slog.LevelDebug)
		return logsMsg{entries: entries, err: err}
	}
}

// subscribe forwards bus traffic into the program. It returns a function
// that removes every subscription.
func subscribe(bus *events.Bus, store *state.Store, send func(tea.Msg)) func() {
	unsubs := []func(){
		bus.Subscribe(events.StateChanged, func(any) {
			if store != nil {
				send(snapshotMsg(store.Snapshot()))
			}
		}),
		bus.Subscribe(events.SyncStarted, func(payload any) {
			domains, _ := payload.([]autosync.Domain)
			send(syncStartedMsg{domains: domains})
		}),
		bus.Subscribe(events.SyncDomain, func(payload any) {
			if res, ok := payload.(autosync.DomainResult); ok {
				send(domainDoneMsg(res))
			}
		}),
		bus.Subscribe(events.SyncFailed, func(payload any) {
			if res, ok := payload.(autosync.Result); ok && res.Err != nil {
				send(syncFailedMsg{err: res.Err})
			}
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
