package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/five82/stockroom/internal/app"
)

var (
	configFile string
	apiBase    string
	storageURL string
	prefsFile  string
)

var rootCmd = &cobra.Command{
	Use:   "stockroom",
	Short: "Storefront client with offline state and background sync",
	Long: `stockroom keeps a local copy of a storefront's catalog, orders and inventory,
refreshes it in the background and lets admins adjust stock from the terminal.

Run without a subcommand to open the dashboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDashboard,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default ~/.config/stockroom/config.toml)")
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", "", "storefront API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&storageURL, "storage", "", "storage URL: sqlite://path, postgres://..., redis://... or memory:// (overrides config)")
	rootCmd.Flags().StringVar(&prefsFile, "prefs", "", "dashboard preferences path (default ~/.config/stockroom/prefs.toml)")
}

// Execute runs the CLI with ctx as the parent of every command context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openApp builds the application for one command and makes its logger the
// process default.
func openApp(cmd *cobra.Command) (*app.App, error) {
	a, err := app.Open(cmd.Context(), app.Options{
		ConfigPath: configFile,
		APIBase:    apiBase,
		Storage:    storageURL,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(a.Logger)
	return a, nil
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Dashboard(cmd.Context(), prefsFile)
}
