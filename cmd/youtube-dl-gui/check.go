package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/xidear/youtube-dl-gui/internal/binary"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show which helper tools need installing",
	Long: `Check compares the pinned tool versions against what is installed and
reports what an ensure run would do. Nothing is downloaded or written.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	manager, err := newManager(binary.NopEmitter{})
	if err != nil {
		return err
	}

	result, err := manager.Check()
	if err != nil {
		return err
	}

	if len(result.AllTools) == 0 {
		printInfo("No tools are managed on this platform.")
		return nil
	}

	printInfo("Managed tools: %s", strings.Join(result.AllTools, ", "))
	if len(result.Tools) == 0 {
		printInfo("Everything is up to date.")
		return nil
	}
	printInfo("Needs install: %s", strings.Join(result.Tools, ", "))
	printInfo("Run 'youtube-dl-gui ensure' to install.")
	return nil
}
