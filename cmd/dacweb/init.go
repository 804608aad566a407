package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jlonij/dac-web/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/dacweb.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new dacweb configuration file",
		Long: `Initialize creates a new .dacweb configuration file in the current directory.

The generated file documents every setting with its default value:
collaborator service endpoints, the data directory, save size bounds,
conflict detection and the dataset exclusivity rules.

Examples:
  # Create .dacweb in current directory
  dacweb init

  # Create config file at a specific path
  dacweb init -o myconfig.yaml

  # Force overwrite existing file
  dacweb init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/dacweb.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to point dacweb at your services, for example:")
	fmt.Fprintln(out, "  - linker.url and ner.url")
	fmt.Fprintln(out, "  - data_dir with one directory per dataset")
	fmt.Fprintln(out, "  - exclusivity rules between test and training sets")

	return nil
}
