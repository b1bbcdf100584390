package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rsned/rocket-capacity-server/internal/crafting/engine"
	"github.com/rsned/rocket-capacity-server/internal/crafting/mcp"
	"github.com/rsned/rocket-capacity-server/internal/crafting/pipeline"
	"github.com/rsned/rocket-capacity-server/internal/crafting/sync"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	okColor    = color.New(color.FgGreen, color.Bold)
	warnColor  = color.New(color.FgYellow)
)

func newCollectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect the catalog from the game data",
		Long:  "Read the game data files, build the catalog, store it in the database and write it as JSON.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			database, err := openDB(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			collector := pipeline.NewCollector(cfg.Reader(), cfg.Source.Manifest, cfg.PipelineOptions(), logger)
			syncer := sync.NewSyncer(database, logger)

			runID, catalog, err := syncer.SyncFromSources(ctx, collector)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printStats(out, catalog.Stats)

			if cfg.Output != "" {
				if err := os.MkdirAll(filepath.Dir(cfg.Output), 0o755); err != nil {
					return fmt.Errorf("creating output directory: %w", err)
				}
				n, err := syncer.ExportCatalogToFile(ctx, cfg.Output)
				if err != nil {
					return err
				}
				printWritten(out, cfg.Output, n)
			}

			okColor.Fprintf(out, "Collected %s items (run %s)\n", humanize.Comma(int64(len(catalog.Items))), runID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Write the catalog JSON to this file")
	flags.Bool("with-icon-paths", false, "Include item icon paths")
	flags.Bool("allow-partial", false, "Keep the catalog when some entities cannot be resolved")
	flags.String("source-dir", "", "Read game data from a local checkout")
	flags.String("source-url", "", "Download game data from this base URL")
	flags.Duration("source-cache-ttl", 0, "Keep downloaded files in memory for this long")
	flags.Int("source-concurrency", 0, "Number of files read at once")

	return cmd
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a catalog JSON file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			database, err := openDB(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			runID, n, err := sync.NewSyncer(database, logger).ImportCatalogFromFile(ctx, args[0])
			if err != nil {
				return fmt.Errorf("importing %s: %w", args[0], err)
			}

			okColor.Fprintf(cmd.OutOrStdout(), "Imported %s items (run %s)\n", humanize.Comma(int64(n)), runID)
			return nil
		},
	}
}

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export the stored catalog as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			path := cfg.Output
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no output file given")
			}

			database, err := openDB(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			n, err := sync.NewSyncer(database, logger).ExportCatalogToFile(ctx, path)
			if err != nil {
				return err
			}
			printWritten(cmd.OutOrStdout(), path, n)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last catalog sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			database, err := openDB(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			st, err := sync.NewSyncer(database, logger).Status(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if st.RunID == "" {
				warnColor.Fprintln(out, "No catalog has been synced yet")
				return nil
			}
			titleColor.Fprint(out, "Last sync: ")
			fmt.Fprintf(out, "%s (%s)\n", humanize.Time(st.LastSync), st.LastSync.Format("2006-01-02 15:04:05 MST"))
			titleColor.Fprint(out, "Items: ")
			fmt.Fprintln(out, humanize.Comma(int64(st.Items)))
			titleColor.Fprint(out, "Origin: ")
			fmt.Fprintln(out, st.Origin)
			titleColor.Fprint(out, "Run: ")
			fmt.Fprintln(out, st.RunID)
			return nil
		},
	}
}

func newClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored catalog and its sync metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			database, err := openDB(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := sync.NewSyncer(database, logger).ClearAll(ctx); err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Cleared catalog in %s\n", cfg.DB)
			return nil
		},
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog to MCP clients over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			database, err := openDB(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			// Create engine and server
			server := mcp.NewServer(engine.New(database), logger)

			logger.Info("starting MCP server", "db", cfg.DB)
			if err := server.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("server error: %w", err)
			}

			fmt.Fprintln(os.Stderr, "server stopped")
			return nil
		},
	}
}

func printStats(w io.Writer, s pipeline.Stats) {
	titleColor.Fprintln(w, "Catalog")
	fmt.Fprintf(w, "  items:    %s\n", humanize.Comma(int64(s.Items)))
	fmt.Fprintf(w, "  recipes:  %s\n", humanize.Comma(int64(s.Recipes)))
	fmt.Fprintf(w, "  fluids:   %s\n", humanize.Comma(int64(s.Fluids)))
	fmt.Fprintf(w, "  patches:  %s\n", humanize.Comma(int64(s.Patches)))
	fmt.Fprintf(w, "  barrels:  %s (%s fluid ingredients barreled, %s fluids expanded)\n",
		humanize.Comma(int64(s.Barrels)),
		humanize.Comma(int64(s.BarrelSubstituted)),
		humanize.Comma(int64(s.FluidsExpanded)))
	if s.Diagnostics > 0 {
		warnColor.Fprintf(w, "  %s fields skipped while parsing\n", humanize.Comma(int64(s.Diagnostics)))
	}
	if s.UnresolvedEntities > 0 {
		warnColor.Fprintf(w, "  %s entities left unresolved\n", humanize.Comma(int64(s.UnresolvedEntities)))
	}
}

func printWritten(w io.Writer, path string, items int) {
	size := ""
	if info, err := os.Stat(path); err == nil {
		size = ", " + humanize.Bytes(uint64(info.Size()))
	}
	okColor.Fprintf(w, "Wrote %s items to %s%s\n", humanize.Comma(int64(items)), path, size)
}
