// Package cmd wires the civicaid CLI: a gateway server and an eval runner.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagVerbose bool
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "civicaid",
		Short: "CivicAid gateway: civic-assistance Q&A over Gemini",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogging()
		},
	}
	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default: civicaid.yaml)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(evalCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogging() {
	level := slog.LevelInfo
	if flagVerbose || os.Getenv("CIVICAID_DEBUG") != "" {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func resolveConfigPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	if v := os.Getenv("CIVICAID_CONFIG"); v != "" {
		return v
	}
	return "civicaid.yaml"
}

const version = "0.1.0"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the civicaid version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("civicaid " + version)
		},
	}
}
