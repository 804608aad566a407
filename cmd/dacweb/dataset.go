package main

import (
	"errors"
	"fmt"

	"github.com/jlonij/dac-web/internal/config"
	"github.com/jlonij/dac-web/internal/dataset"
	"github.com/jlonij/dac-web/internal/model"
	"github.com/spf13/cobra"
)

// NewDatasetCmd creates the dataset command and its subcommands.
func NewDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "List or create annotation datasets",
		Long: `Dataset manages the datasets below the data directory. Each dataset is a
subdirectory holding an art.json file.

Examples:
  # List datasets
  dacweb dataset list

  # Create an empty dataset to fill through the edit endpoint
  dacweb dataset create train`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List datasets in the data directory",
		Args:  cobra.NoArgs,
		RunE:  runDatasetListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  runDatasetCreateCmd,
	})

	return cmd
}

func datasetStore(cmd *cobra.Command) (*dataset.Store, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("configuration error: %w", config.ErrNoDataDir)
	}
	return dataset.NewStore(cfg.DataDir, dataset.WithLogger(setupLogger(cmd, cfg))), nil
}

func runDatasetListCmd(cmd *cobra.Command, _ []string) error {
	store, err := datasetStore(cmd)
	if err != nil {
		return err
	}
	names, err := store.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintf(out, "No datasets found in %s\n", store.Dir())
		fmt.Fprintln(out, "\nUse 'dacweb dataset create <name>' to create one.")
		return nil
	}

	fmt.Fprintf(out, "Datasets in %s (%d):\n\n", store.Dir(), len(names))
	for _, name := range names {
		ds, err := store.Load(name)
		if err != nil {
			fmt.Fprintf(out, "  • %s (unreadable)\n", name)
			continue
		}
		fmt.Fprintf(out, "  • %s (%d instances, %d labelled)\n", name, ds.Len(), countLabelled(ds))
	}
	return nil
}

func runDatasetCreateCmd(cmd *cobra.Command, args []string) error {
	store, err := datasetStore(cmd)
	if err != nil {
		return err
	}
	name := args[0]
	if err := store.Create(name, &model.Dataset{Instances: []model.Instance{}}); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return fmt.Errorf("dataset %s already exists", name)
		}
		return err
	}

	path, err := store.Path(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created dataset %s at %s\n", name, path)
	return nil
}

func countLabelled(ds *model.Dataset) int {
	n := 0
	for _, inst := range ds.Instances {
		if inst.Labeled() {
			n++
		}
	}
	return n
}
