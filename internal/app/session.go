package app

import (
	"context"
	"fmt"

	"github.com/five82/stockroom/internal/prefs"
	"github.com/five82/stockroom/internal/repo"
	"github.com/five82/stockroom/internal/shop"
	"github.com/five82/stockroom/internal/ui"
)

// Login authenticates and records the account in the store. The token is
// persisted by the client's token store.
func (a *App) Login(ctx context.Context, email, password string) (shop.User, error) {
	user, err := a.Repos.Auth.Login(ctx, email, password)
	if err != nil {
		return shop.User{}, err
	}
	a.Store.SetUser(&user)
	a.Logger.Info("logged in", "email", user.Email, "role", user.Role)
	return user, nil
}

// Logout drops the token and resets the session keys. Cached collections
// stay until the next sync replaces them.
func (a *App) Logout(ctx context.Context) {
	a.Repos.Auth.Logout(ctx)
	a.Store.Reset()
	a.Logger.Info("logged out")
}

// AdjustStock applies delta to one inventory item and writes the result
// into the store.
func (a *App) AdjustStock(ctx context.Context, id string, delta int) (shop.InventoryItem, error) {
	item, err := a.Repos.Inventory.AdjustStock(ctx, id, delta)
	if err != nil {
		a.Logger.Warn("adjust stock failed", "item", id, "delta", delta, "error", err)
		return shop.InventoryItem{}, err
	}
	a.Store.SetInventory(withItems(a.Store.Snapshot().Inventory, item))
	a.Logger.Info("stock adjusted", "item", id, "delta", delta, "quantity", item.Quantity)
	return item, nil
}

// BulkAdjust applies adjustments in windows of the configured batch size and
// writes every successful result into the store.
func (a *App) BulkAdjust(ctx context.Context, adjustments []repo.Adjustment) (shop.BatchResult[shop.InventoryItem], error) {
	res, err := a.Repos.Inventory.BulkAdjust(ctx, adjustments, a.Config.BatchConcurrency)

	var updated []shop.InventoryItem
	for i := range adjustments {
		if res.Succeeded(i) {
			updated = append(updated, res.Results[i])
		}
	}
	if len(updated) > 0 {
		a.Store.SetInventory(withItems(a.Store.Snapshot().Inventory, updated...))
	}
	a.Logger.Info("bulk stock adjustment", "requested", len(adjustments), "applied", len(updated))
	if err != nil {
		return res, fmt.Errorf("bulk adjust: %w", err)
	}
	return res, nil
}

// Dashboard runs the scheduler and the terminal UI until the UI exits or ctx
// is cancelled.
func (a *App) Dashboard(ctx context.Context, prefsPath string) error {
	a.Sync.Start(ctx)
	defer a.Sync.Stop()

	return ui.Run(ui.Options{
		Context:   ctx,
		Store:     a.Store,
		Bus:       a.Bus,
		Refresher: a.Sync,
		Inventory: a,
		Prefs:     prefs.Load(prefsPath),
		PrefsPath: prefsPath,
		LogPath:   a.Config.LogFile,
	})
}

// withItems returns items with each entry of updated replacing the item with
// the same ID, or appended when it is new.
func withItems(items []shop.InventoryItem, updated ...shop.InventoryItem) []shop.InventoryItem {
	out := make([]shop.InventoryItem, len(items), len(items)+len(updated))
	copy(out, items)
	index := make(map[string]int, len(out))
	for i, it := range out {
		index[it.ID] = i
	}
	for _, it := range updated {
		if i, ok := index[it.ID]; ok {
			out[i] = it
			continue
		}
		index[it.ID] = len(out)
		out = append(out, it)
	}
	return out
}
