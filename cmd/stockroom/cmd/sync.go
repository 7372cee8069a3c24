package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/stockroom/internal/autosync"
)

var syncCmd = &cobra.Command{
	Use:   "sync [domain...]",
	Short: "Refresh cached data now",
	Long: `Refresh the given domains (products, orders, inventory), or every domain the
signed-in account may read, ignoring staleness thresholds.`,
	ValidArgs: []string{string(autosync.Products), string(autosync.Orders), string(autosync.Inventory)},
	Args:      cobra.OnlyValidArgs,
	RunE:      runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	domains := make([]autosync.Domain, len(args))
	for i, arg := range args {
		domains[i] = autosync.Domain(arg)
	}

	res, err := a.Sync.ForceRefresh(cmd.Context(), domains...)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	out := cmd.OutOrStdout()
	snap := a.Store.Snapshot()
	counts := map[autosync.Domain]int{
		autosync.Products:  len(snap.Products),
		autosync.Orders:    len(snap.Orders),
		autosync.Inventory: len(snap.Inventory),
	}
	for _, d := range res.Refreshed {
		fmt.Fprintf(out, "%-10s ok      %d\n", d, counts[d])
	}
	failed := make([]autosync.Domain, 0, len(res.Failed))
	for d := range res.Failed {
		failed = append(failed, d)
	}
	slices.Sort(failed)
	for _, d := range failed {
		fmt.Fprintf(out, "%-10s failed  %v\n", d, res.Failed[d])
	}
	if len(failed) > 0 {
		names := make([]string, len(failed))
		for i, d := range failed {
			names[i] = string(d)
		}
		return fmt.Errorf("sync failed for %s", strings.Join(names, ", "))
	}
	return nil
}
