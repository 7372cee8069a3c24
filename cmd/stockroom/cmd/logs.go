package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/stockroom/internal/config"
	"github.com/five82/stockroom/internal/logtail"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the tail of the stockroom log",
	Args:  cobra.NoArgs,
	RunE:  runLogs,
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().IntP("lines", "n", 50, "number of entries to print")
	logsCmd.Flags().String("level", "info", "minimum level (debug, info, warn, error)")
}

func runLogs(cmd *cobra.Command, _ []string) error {
	lines, _ := cmd.Flags().GetInt("lines")
	rawLevel, _ := cmd.Flags().GetString("level")
	level, err := config.ParseLevel(rawLevel)
	if err != nil {
		return err
	}

	// Only the config is needed; opening the app would append to the log.
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	entries, err := logtail.Read(cfg.LogFile, lines, level)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, e := range entries {
		fmt.Fprintln(out, e.Raw)
	}
	return nil
}
