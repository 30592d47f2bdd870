package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-pff/internal/logging"
)

var (
	// Global output flags only
	verbose      bool
	quiet        bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "go-pff",
	Short: "Cross-platform PFF mailbox explorer",
	Long: `go-pff is a cross-platform, read-only command-line tool for exploring
the Personal Folder File (PFF) family of mailbox containers: PST, OST
and PAB files.

It reconstructs the folder and message hierarchy from the descriptors
index of the file without requiring Outlook or Exchange. Ideal for
mailbox triage, forensic analysis and recovery of orphaned items.

Commands:
  info        Show file header information
  tree        Print the reconstructed item hierarchy
  orphans     Report items whose parent folder is missing`,
	Version: "0.1.0-dev",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetVerbose(verbose)
		logging.SetQuiet(quiet)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Only global output control flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json)")
}
