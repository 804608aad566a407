package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jlonij/dac-web/internal/dataset"
	"github.com/jlonij/dac-web/internal/linker"
	"github.com/jlonij/dac-web/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the annotation server",
		Long: `Serve starts the HTTP interface annotators use to label mentions.

Routes:
  GET  /<dataset>?id=|index=   instance with article text and candidates
  POST /<dataset>              save links and move to another instance
  GET  /<dataset>/edit         add or delete an article or mention
  GET  /predict?url=&ne=       live linker prediction

Examples:
  # Serve on the default address (localhost:5001)
  dacweb serve

  # Serve on all interfaces with version-checked saves
  dacweb serve -a :5001 --conflict-detection`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "a", "", "Listen address (default: localhost:5001)")
	cmd.Flags().Bool("log-json", false, "Write logs as JSON")
	cmd.Flags().Bool("conflict-detection", false,
		"Reject saves made against a dataset that changed since it was displayed")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()

	if listen, _ := flags.GetString("listen"); listen != "" {
		cfg.ListenAddress = listen
	}
	if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
		return err
	}
	if flags.Changed("conflict-detection") {
		if cfg.ConflictDetection, err = flags.GetBool("conflict-detection"); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg)

	client, err := linker.NewClient(linkerOptions(cfg, logger))
	if err != nil {
		return fmt.Errorf("failed to create service client: %w", err)
	}

	store := dataset.NewStore(cfg.DataDir, dataset.WithLogger(logger))
	if err := announceDatasets(cmd.OutOrStdout(), store, logger); err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Store:             store,
		Services:          client,
		Siblings:          cfg.Exclusivity.SiblingsFor,
		LinkMaxDelta:      cfg.LinkMaxDelta,
		EditMaxDelta:      cfg.EditMaxDelta,
		ConflictDetection: cfg.ConflictDetection,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", cfg.ListenAddress)
	return srv.Run(ctx, cfg.ListenAddress)
}

// announceDatasets prints the datasets found in the data directory.
// An empty directory is allowed; datasets can be created later.
func announceDatasets(out io.Writer, store *dataset.Store, logger *slog.Logger) error {
	names, err := store.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		logger.Warn("no datasets found", "dir", store.Dir())
		fmt.Fprintf(out, "Serving from %s (no datasets yet)\n", store.Dir())
		return nil
	}
	fmt.Fprintf(out, "Serving %d datasets from %s: %s\n", len(names), store.Dir(), strings.Join(names, ", "))
	return nil
}
