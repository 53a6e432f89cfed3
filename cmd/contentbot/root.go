package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "contentbot",
	Short: "Contentbot - multi-agent blog publishing pipeline",
	Long: `Contentbot orchestrates a multi-agent content pipeline that takes a
blog topic from keyword research through writing, review, image
generation, and publishing. Workflow state is persisted in SQLite with
a JSON file mirror so progress survives restarts and degraded storage.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newCreateCmd(),
		newRunCmd(),
		newRunAgentCmd(),
		newStatusCmd(),
		newListCmd(),
		newResetCmd(),
		newMigrateCmd(),
		newVersionCmd(),
	)
}
