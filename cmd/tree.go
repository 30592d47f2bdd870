package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree <file>",
	Short: "Print the reconstructed item hierarchy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := openMailbox(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		items, err := reader.Hierarchy()
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			return json.NewEncoder(os.Stdout).Encode(items)
		}

		if len(items) == 0 {
			fmt.Println("no root folder present")
			return nil
		}
		for _, item := range items {
			fmt.Printf("%s%d (data %#x)\n", strings.Repeat("  ", item.Depth), item.DescriptorIdentifier, item.DataIdentifier)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
}
