package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var orphansCmd = &cobra.Command{
	Use:   "orphans <file>",
	Short: "Report items whose parent folder is missing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := openMailbox(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		report, err := reader.BuildOrphanReport()
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			return json.NewEncoder(os.Stdout).Encode(report)
		}

		fmt.Printf("Scan:      %s\n", report.ScanID)
		fmt.Printf("File:      %s\n", report.FilePath)
		fmt.Printf("Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
		if len(report.Items) == 0 {
			fmt.Println("No orphaned items found.")
			return nil
		}
		fmt.Printf("Orphaned items: %d\n", len(report.Items))
		for _, item := range report.Items {
			fmt.Printf("  %d (data %#x)\n", item.DescriptorIdentifier, item.DataIdentifier)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(orphansCmd)
}
