package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-pff/internal/device"
	"github.com/deploymenttheory/go-pff/internal/services"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show file header information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := openMailbox(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		header := reader.Header()
		rootFolder, hasRootFolder, err := reader.RootFolder()
		if err != nil {
			return err
		}
		orphans, err := reader.Orphans()
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			info := map[string]any{
				"content_type":   header.ContentType,
				"format_version": header.FormatVersion,
				"file_size":      header.FileSize,
				"orphaned_items": len(orphans),
			}
			if hasRootFolder {
				info["root_folder"] = rootFolder.DescriptorIdentifier
			}
			return json.NewEncoder(os.Stdout).Encode(info)
		}

		fmt.Printf("Content type:    %s\n", header.ContentType)
		fmt.Printf("Format version:  %d\n", header.FormatVersion)
		fmt.Printf("File size:       %d\n", header.FileSize)
		if hasRootFolder {
			fmt.Printf("Root folder:     %d\n", rootFolder.DescriptorIdentifier)
		} else {
			fmt.Println("Root folder:     not present")
		}
		fmt.Printf("Orphaned items:  %d\n", len(orphans))
		return nil
	},
}

// openMailbox opens a mailbox with the configured file settings.
func openMailbox(path string) (*services.MailboxReader, error) {
	config, err := device.LoadFileConfig()
	if err != nil {
		return nil, err
	}
	return services.OpenMailbox(path, config)
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
