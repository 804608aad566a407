package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for dacweb.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dacweb",
		Short: "Annotation and evaluation tooling for entity linking",
		Long: `dacweb maintains gold-standard datasets of named-entity mentions in
newspaper articles and measures how well the entity linker resolves them.

Annotators label mentions through the HTTP interface started by 'dacweb serve'.
'dacweb evaluate' replays a labelled dataset through the linker and reports
accuracy, link recall, link precision and F1.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .dacweb in current or home directory, then the XDG config directory)")
	cmd.PersistentFlags().String("env-file", ".env", "Environment file with DACWEB_* overrides")
	cmd.PersistentFlags().StringP("data-dir", "d", "", "Directory holding one subdirectory per dataset")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewEvaluateCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewDatasetCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
