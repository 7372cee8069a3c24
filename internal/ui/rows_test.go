package ui

import (
	"reflect"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/table"

	"github.com/five82/stockroom/internal/prefs"
	"github.com/five82/stockroom/internal/shop"
)

func TestStockLevel(t *testing.T) {
	tests := []struct {
		qty  int
		want string
	}{
		{-2, stockOut},
		{0, stockOut},
		{1, stockLow},
		{lowStockAt, stockLow},
		{lowStockAt + 1, stockOK},
		{40, stockOK},
	}
	for _, tt := range tests {
		if got := stockLevel(tt.qty); got != tt.want {
			t.Errorf("stockLevel(%d) = %q, want %q", tt.qty, got, tt.want)
		}
	}
}

func TestProductRows(t *testing.T) {
	got := productRows([]shop.Product{
		{ID: "p-100", Name: "Canvas Tote", Category: "bags", Price: 18.5, Active: true},
		{ID: "p-400", Name: "Sticker Pack", Category: "paper", Price: 4.25},
	})
	want := []table.Row{
		{"p-100", "Canvas Tote", "bags", "$18.50", "active"},
		{"p-400", "Sticker Pack", "paper", "$4.25", "hidden"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("productRows = %v, want %v", got, want)
	}
}

func TestOrderRows_SumsLineQuantities(t *testing.T) {
	got := orderRows([]shop.Order{{
		ID:        "ord-1",
		CreatedAt: "not a timestamp",
		Items: []shop.OrderLine{
			{ProductID: "p-100", Quantity: 2},
			{ProductID: "p-200", Quantity: 3},
		},
		Total:  61,
		Status: shop.OrderPaid,
	}})
	want := table.Row{"ord-1", "not a timestamp", "5", "$61.00", "paid"}
	if len(got) != 1 || !reflect.DeepEqual(got[0], want) {
		t.Fatalf("orderRows = %v, want [%v]", got, want)
	}
}

func TestInventoryRows_ResolvesProductNames(t *testing.T) {
	items := []shop.InventoryItem{
		{ID: "inv-100", ProductID: "p-100", SKU: "TOTE-01", Quantity: 40, Location: "A1"},
		{ID: "inv-900", ProductID: "p-900", SKU: "GONE-01", Quantity: 0, Location: "Z9"},
	}
	products := []shop.Product{{ID: "p-100", Name: "Canvas Tote"}}

	got := inventoryRows(items, products)
	if got[0][2] != "Canvas Tote" {
		t.Fatalf("product name = %q, want %q", got[0][2], "Canvas Tote")
	}
	if got[1][2] != "p-900" {
		t.Fatalf("unknown product = %q, want product id", got[1][2])
	}
	if got[1][4] != stockOut {
		t.Fatalf("level = %q, want %q", got[1][4], stockOut)
	}
}

func TestSyncLabel(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		last time.Time
		want string
	}{
		{time.Time{}, "never synced"},
		{now.Add(-20 * time.Second), "synced just now"},
		{now.Add(-7 * time.Minute), "synced 7m ago"},
		{now.Add(-3 * time.Hour), "synced 3h ago"},
		{now.Add(-49 * time.Hour), "synced 2d ago"},
	}
	for _, tt := range tests {
		if got := syncLabel(tt.last, now); got != tt.want {
			t.Errorf("syncLabel(%v) = %q, want %q", tt.last, got, tt.want)
		}
	}
}

func TestViewNextWraps(t *testing.T) {
	if got := viewLogs.next(1); got != viewProducts {
		t.Fatalf("viewLogs.next(1) = %v, want Products", got)
	}
	if got := viewProducts.next(-1); got != viewLogs {
		t.Fatalf("viewProducts.next(-1) = %v, want Logs", got)
	}
}

func TestViewPrefs(t *testing.T) {
	for _, name := range prefs.Views {
		if got := viewFromPref(name).pref(); got != name {
			t.Errorf("viewFromPref(%q).pref() = %q", name, got)
		}
	}
	if got := viewLogs.pref(); got != prefs.ViewProducts {
		t.Fatalf("viewLogs.pref() = %q, want %q", got, prefs.ViewProducts)
	}
	if got := viewFromPref("reports"); got != viewProducts {
		t.Fatalf("viewFromPref(unknown) = %v, want Products", got)
	}
}

func TestColumnsFor_FlexColumnHasFloor(t *testing.T) {
	cols := columnsFor(viewProducts, 10)
	if cols[1].Width != 14 {
		t.Fatalf("narrow name width = %d, want 14", cols[1].Width)
	}
	cols = columnsFor(viewProducts, 120)
	if cols[1].Width != 120-47 {
		t.Fatalf("wide name width = %d, want %d", cols[1].Width, 120-47)
	}
	for _, v := range []view{viewProducts, viewOrders, viewInventory} {
		if n := len(columnsFor(v, 80)); n == 0 {
			t.Fatalf("columnsFor(%v) returned no columns", v)
		}
	}
}

func TestCountLabels_KeepsFirstSeenOrder(t *testing.T) {
	got := countLabels([]string{"paid", "pending", "paid", "shipped", "paid"})
	want := []badgeCount{{"paid", 3}, {"pending", 1}, {"shipped", 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("countLabels = %v, want %v", got, want)
	}
}
