package main

import (
	"github.com/spf13/cobra"
)

var redownloadCmd = &cobra.Command{
	Use:   "redownload",
	Short: "Force a clean reinstall of every helper tool",
	Long: `Redownload clears the version ledger and reinstalls every tool,
unlocking a locked ledger first. GitHub mirror fallback is always
enabled for this run.`,
	RunE: runRedownload,
}

func init() {
	rootCmd.AddCommand(redownloadCmd)
}

func runRedownload(cmd *cobra.Command, args []string) error {
	manager, err := newManager(newConsoleEmitter(quiet))
	if err != nil {
		return err
	}
	return manager.RedownloadAll(cmd.Context())
}
