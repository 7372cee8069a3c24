package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/five82/stockroom/internal/shop"
	"github.com/five82/stockroom/internal/state"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the locally cached state",
	Args:  cobra.NoArgs,
	RunE:  runState,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.Flags().StringP("output", "o", "yaml", "output format (yaml, json)")
	stateCmd.Flags().Bool("full", false, "include every cached product, order and inventory item")
}

type stateDump struct {
	User      *userDump        `yaml:"user" json:"user"`
	IsAdmin   bool             `yaml:"isAdmin" json:"isAdmin"`
	LastSync  string           `yaml:"lastSync,omitempty" json:"lastSync,omitempty"`
	Cart      []shop.CartItem  `yaml:"cart,omitempty" json:"cart,omitempty"`
	CartTotal float64          `yaml:"cartTotal" json:"cartTotal"`
	Counts    map[string]int   `yaml:"counts" json:"counts"`
	LowStock  []stockLine      `yaml:"lowStock,omitempty" json:"lowStock,omitempty"`
	Full      *collectionsDump `yaml:"collections,omitempty" json:"collections,omitempty"`
}

type userDump struct {
	ID    string `yaml:"id" json:"id"`
	Email string `yaml:"email" json:"email"`
	Role  string `yaml:"role" json:"role"`
}

type stockLine struct {
	ID       string `yaml:"id" json:"id"`
	SKU      string `yaml:"sku" json:"sku"`
	Quantity int    `yaml:"quantity" json:"quantity"`
}

type collectionsDump struct {
	Products  []shop.Product       `yaml:"products" json:"products"`
	Orders    []shop.Order         `yaml:"orders" json:"orders"`
	Inventory []shop.InventoryItem `yaml:"inventory" json:"inventory"`
}

const lowStockThreshold = 5

func runState(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("output")
	full, _ := cmd.Flags().GetBool("full")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return writeState(cmd.OutOrStdout(), buildDump(a.Store.Snapshot(), full), format)
}

func buildDump(snap state.State, full bool) stateDump {
	d := stateDump{
		IsAdmin: snap.IsAdmin,
		Cart:    snap.Cart,
		Counts: map[string]int{
			"products":  len(snap.Products),
			"orders":    len(snap.Orders),
			"inventory": len(snap.Inventory),
		},
	}
	if u := snap.User; u != nil {
		d.User = &userDump{ID: u.ID, Email: u.Email, Role: u.Role}
	}
	if !snap.LastSync.IsZero() {
		d.LastSync = snap.LastSync.UTC().Format(time.RFC3339)
	}
	for _, line := range snap.Cart {
		d.CartTotal += line.Price * float64(line.Quantity)
	}
	for _, it := range snap.Inventory {
		if it.Quantity <= lowStockThreshold {
			d.LowStock = append(d.LowStock, stockLine{ID: it.ID, SKU: it.SKU, Quantity: it.Quantity})
		}
	}
	if full {
		d.Full = &collectionsDump{Products: snap.Products, Orders: snap.Orders, Inventory: snap.Inventory}
	}
	return d
}

func writeState(w io.Writer, d stateDump, format string) error {
	switch format {
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q (expected yaml or json)", format)
	}
}
