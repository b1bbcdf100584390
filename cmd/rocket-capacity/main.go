// Rocket capacity catalog builder and MCP server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rsned/rocket-capacity-server/internal/crafting/config"
	"github.com/rsned/rocket-capacity-server/internal/crafting/db"
)

func main() {
	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down...")
		cancel()
	}()

	root := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "rocket-capacity",
		Short: "Factorio rocket capacity catalog",
		Long: color.CyanString(`rocket-capacity - Factorio rocket capacity catalog

Collects the item, recipe and fluid prototypes of the game data, computes
the weight and rocket capacity of every item, and serves the resulting
catalog to MCP clients over stdio.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to config file (default ./rocket-capacity.yaml)")
	flags.String("db", "", "Path to SQLite database")
	flags.Bool("verbose", false, "Enable verbose logging")

	root.AddCommand(newCollectCommand())
	root.AddCommand(newImportCommand())
	root.AddCommand(newExportCommand())
	root.AddCommand(newStatusCommand())
	root.AddCommand(newClearCommand())
	root.AddCommand(newServeCommand())

	return root
}

// setup loads the configuration for cmd and installs the default logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	return cfg, logger, nil
}

// openDB opens and initializes the configured database.
func openDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.DB, error) {
	database, err := db.OpenAndInit(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Debug("database opened", "db", cfg.DB)
	return database, nil
}
