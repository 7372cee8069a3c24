package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"

	"github.com/five82/stockroom/internal/prefs"
	"github.com/five82/stockroom/internal/shop"
)

type view int

const (
	viewProducts view = iota
	viewOrders
	viewInventory
	viewLogs
)

var viewOrder = []view{viewProducts, viewOrders, viewInventory, viewLogs}

func (v view) String() string {
	switch v {
	case viewOrders:
		return "Orders"
	case viewInventory:
		return "Inventory"
	case viewLogs:
		return "Logs"
	default:
		return "Products"
	}
}

// pref is the name saved as the last view. The log pane is transient and
// saves as products.
func (v view) pref() string {
	switch v {
	case viewOrders:
		return prefs.ViewOrders
	case viewInventory:
		return prefs.ViewInventory
	default:
		return prefs.ViewProducts
	}
}

func viewFromPref(name string) view {
	switch name {
	case prefs.ViewOrders:
		return viewOrders
	case prefs.ViewInventory:
		return viewInventory
	default:
		return viewProducts
	}
}

func (v view) next(step int) view {
	n := len(viewOrder)
	return viewOrder[((int(v)+step)%n+n)%n]
}

// Stock levels shown in the inventory table.
const (
	stockOut = "out"
	stockLow = "low"
	stockOK  = "ok"

	lowStockAt = 5
)

func stockLevel(quantity int) string {
	switch {
	case quantity <= 0:
		return stockOut
	case quantity <= lowStockAt:
		return stockLow
	default:
		return stockOK
	}
}

func formatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func formatTimestamp(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.Local().Format("2006-01-02 15:04")
}

func humanAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}

func syncLabel(lastSync, now time.Time) string {
	if lastSync.IsZero() {
		return "never synced"
	}
	return "synced " + humanAge(now.Sub(lastSync))
}

// flex returns the width left for the stretchable column, never below floor.
func flex(total, fixed, floor int) int {
	if w := total - fixed; w > floor {
		return w
	}
	return floor
}

func columnsFor(v view, width int) []table.Column {
	// Each column is padded by one cell on both sides.
	switch v {
	case viewOrders:
		return []table.Column{
			{Title: "Order", Width: 10},
			{Title: "Placed", Width: 16},
			{Title: "Items", Width: 5},
			{Title: "Total", Width: 10},
			{Title: "Status", Width: flex(width, 10+16+5+10+10, 10)},
		}
	case viewInventory:
		return []table.Column{
			{Title: "Item", Width: 9},
			{Title: "SKU", Width: 12},
			{Title: "Product", Width: flex(width, 9+12+5+5+14+12, 14)},
			{Title: "Qty", Width: 5},
			{Title: "Level", Width: 5},
			{Title: "Location", Width: 14},
		}
	default:
		return []table.Column{
			{Title: "ID", Width: 8},
			{Title: "Name", Width: flex(width, 8+12+10+7+10, 14)},
			{Title: "Category", Width: 12},
			{Title: "Price", Width: 10},
			{Title: "Status", Width: 7},
		}
	}
}

func productRows(products []shop.Product) []table.Row {
	rows := make([]table.Row, 0, len(products))
	for _, p := range products {
		status := "active"
		if !p.Active {
			status = "hidden"
		}
		rows = append(rows, table.Row{p.ID, p.Name, p.Category, formatMoney(p.Price), status})
	}
	return rows
}

func orderRows(orders []shop.Order) []table.Row {
	rows := make([]table.Row, 0, len(orders))
	for _, o := range orders {
		items := 0
		for _, line := range o.Items {
			items += line.Quantity
		}
		rows = append(rows, table.Row{
			o.ID,
			formatTimestamp(o.CreatedAt),
			strconv.Itoa(items),
			formatMoney(o.Total),
			o.Status,
		})
	}
	return rows
}

func inventoryRows(items []shop.InventoryItem, products []shop.Product) []table.Row {
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	rows := make([]table.Row, 0, len(items))
	for _, it := range items {
		name := names[it.ProductID]
		if name == "" {
			name = it.ProductID
		}
		rows = append(rows, table.Row{
			it.ID,
			it.SKU,
			name,
			strconv.Itoa(it.Quantity),
			stockLevel(it.Quantity),
			it.Location,
		})
	}
	return rows
}
