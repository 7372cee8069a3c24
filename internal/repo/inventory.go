package repo

import (
	"context"
	"fmt"
	"net/http"

	"github.com/five82/stockroom/internal/shop"
)

// Inventory wraps /api/inventory.
type Inventory struct {
	api API
}

const inventoryPath = "/api/inventory"

func (i *Inventory) List(ctx context.Context) ([]shop.InventoryItem, error) {
	var resp shop.ListResponse[shop.InventoryItem]
	if err := i.api.RequestWithRetry(ctx, shop.Request{Path: inventoryPath}, &resp); err != nil {
		return nil, translate("list inventory", "inventory", err)
	}
	return resp.Items, nil
}

func (i *Inventory) Get(ctx context.Context, id string) (shop.InventoryItem, error) {
	var out shop.InventoryItem
	if err := i.api.RequestWithRetry(ctx, shop.Request{Path: itemPath(inventoryPath, id)}, &out); err != nil {
		return shop.InventoryItem{}, translate("get inventory", "inventory item "+id, err)
	}
	return out, nil
}

// SetQuantity writes an absolute quantity.
func (i *Inventory) SetQuantity(ctx context.Context, id string, quantity int) (shop.InventoryItem, error) {
	if quantity < 0 {
		return shop.InventoryItem{}, negativeStock(id, quantity)
	}
	var out shop.InventoryItem
	req := shop.Request{
		Method: http.MethodPut,
		Path:   itemPath(inventoryPath, id),
		Body:   map[string]int{"quantity": quantity},
	}
	if err := i.api.Request(ctx, req, &out); err != nil {
		return shop.InventoryItem{}, translate("update inventory", "inventory item "+id, err)
	}
	return out, nil
}

// AdjustStock reads the current record, applies delta locally and writes the
// resulting absolute quantity. A result below zero fails with
// ErrNegativeStock before any write.
//
// The read and the write are separate requests, so two concurrent
// adjustments of the same item can lose one update.
func (i *Inventory) AdjustStock(ctx context.Context, id string, delta int) (shop.InventoryItem, error) {
	current, err := i.Get(ctx, id)
	if err != nil {
		return shop.InventoryItem{}, err
	}
	next := current.Quantity + delta
	if next < 0 {
		return shop.InventoryItem{}, negativeStock(id, next)
	}
	return i.SetQuantity(ctx, id, next)
}

// Adjustment is one entry of a bulk stock change.
type Adjustment struct {
	ID    string
	Delta int
}

// BulkAdjust applies adjustments in windows of concurrency, recording each
// outcome at its index. Failures do not stop the remaining adjustments.
func (i *Inventory) BulkAdjust(ctx context.Context, adjustments []Adjustment, concurrency int) (shop.BatchResult[shop.InventoryItem], error) {
	jobs := make([]shop.Job[shop.InventoryItem], len(adjustments))
	for n, adj := range adjustments {
		adj := adj
		jobs[n] = func(ctx context.Context) (shop.InventoryItem, error) {
			return i.AdjustStock(ctx, adj.ID, adj.Delta)
		}
	}
	// Reads inside AdjustStock already retry; one attempt per job here.
	return shop.RunBatch(ctx, jobs, shop.BatchOptions{
		Concurrency: concurrency,
		Retry:       shop.RetryPolicy{MaxAttempts: 1},
	})
}

func negativeStock(id string, quantity int) error {
	return &DomainError{
		Op:      "adjust stock",
		Message: fmt.Sprintf("inventory item %s would drop to %d", id, quantity),
		Kind:    ErrNegativeStock,
	}
}
