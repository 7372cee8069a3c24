package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/five82/stockroom/internal/config"
	"github.com/five82/stockroom/internal/mockshop"
)

var serveDevCmd = &cobra.Command{
	Use:   "serve-dev",
	Short: "Run an in-memory storefront API for local development",
	Long: `Serve a seeded in-memory storefront on --addr. Accounts:

  ` + mockshop.AdminEmail + ` / ` + mockshop.AdminPassword + `
  ` + mockshop.CustomerEmail + ` / ` + mockshop.CustomerPassword,
	Args: cobra.NoArgs,
	RunE: runServeDev,
}

func init() {
	rootCmd.AddCommand(serveDevCmd)
	serveDevCmd.Flags().String("addr", "127.0.0.1:8080", "listen address")
	serveDevCmd.Flags().String("secret", "", "token signing secret (default built in)")
	serveDevCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func runServeDev(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	secret, _ := cmd.Flags().GetString("secret")
	rawLevel, _ := cmd.Flags().GetString("log-level")
	level, err := config.ParseLevel(rawLevel)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	opts := []mockshop.Option{mockshop.WithLogger(logger)}
	if secret != "" {
		opts = append(opts, mockshop.WithSecret(secret))
	}

	return mockshop.New(opts...).Seed().ListenAndServe(cmd.Context(), addr)
}
