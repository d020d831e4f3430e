package main

import (
	"github.com/spf13/cobra"

	"github.com/xidear/youtube-dl-gui/internal/binary"
)

var removeCmd = &cobra.Command{
	Use:   "remove <tool>",
	Short: "Remove an installed helper tool",
	Long: `Remove deletes a tool's installed binary and drops it from the version
ledger. The next ensure run reinstalls it.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	manager, err := newManager(binary.NopEmitter{})
	if err != nil {
		return err
	}
	if err := manager.RemoveTool(args[0]); err != nil {
		return err
	}
	printInfo("%s removed", args[0])
	return nil
}
