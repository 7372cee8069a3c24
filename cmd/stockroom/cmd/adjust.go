package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/stockroom/internal/repo"
)

var adjustCmd = &cobra.Command{
	Use:   "adjust <item> <delta> | adjust <item>=<delta>...",
	Short: "Change inventory quantities by a relative amount",
	Long: `Apply relative stock changes. A single change may be given as two arguments;
several changes are given as item=delta pairs and run in windows of the
configured batch_concurrency. Requires an admin session.

  stockroom adjust inv-100 -3
  stockroom adjust inv-100=-3 inv-200=+12`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdjust,
}

func init() {
	rootCmd.AddCommand(adjustCmd)
	// Negative deltas must not be read as shorthand flags.
	adjustCmd.Flags().SetInterspersed(false)
}

func runAdjust(cmd *cobra.Command, args []string) error {
	adjustments, err := parseAdjustments(args)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if len(adjustments) == 1 {
		adj := adjustments[0]
		item, err := a.AdjustStock(cmd.Context(), adj.ID, adj.Delta)
		if err != nil {
			return fmt.Errorf("adjust %s: %w", adj.ID, err)
		}
		fmt.Fprintf(out, "%s  %d\n", item.ID, item.Quantity)
		return nil
	}

	res, err := a.BulkAdjust(cmd.Context(), adjustments)
	if err != nil {
		return err
	}
	failures := 0
	for i, adj := range adjustments {
		if res.Succeeded(i) {
			fmt.Fprintf(out, "%s  %d\n", adj.ID, res.Results[i].Quantity)
			continue
		}
		failures++
		fmt.Fprintf(out, "%s  failed: %v\n", adj.ID, res.Errors[i])
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d adjustments failed", failures, len(adjustments))
	}
	return nil
}

// parseAdjustments accepts either "<item> <delta>" or any number of
// "<item>=<delta>" pairs.
func parseAdjustments(args []string) ([]repo.Adjustment, error) {
	if len(args) == 2 && !strings.Contains(args[0], "=") && !strings.Contains(args[1], "=") {
		delta, err := parseDelta(args[1])
		if err != nil {
			return nil, err
		}
		return []repo.Adjustment{{ID: args[0], Delta: delta}}, nil
	}

	out := make([]repo.Adjustment, 0, len(args))
	for _, arg := range args {
		id, raw, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("invalid adjustment %q: want item=delta", arg)
		}
		delta, err := parseDelta(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, repo.Adjustment{ID: strings.TrimSpace(id), Delta: delta})
	}
	return out, nil
}

func parseDelta(raw string) (int, error) {
	delta, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid delta %q: %w", raw, err)
	}
	if delta == 0 {
		return 0, errors.New("delta must not be zero")
	}
	return delta, nil
}
