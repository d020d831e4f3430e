package main

import (
	"github.com/spf13/cobra"

	"github.com/xidear/youtube-dl-gui/internal/binary"
)

var manualInfoCmd = &cobra.Command{
	Use:   "manual-info <tool>",
	Short: "Show how to install a tool by hand",
	Long: `Manual-info prints the download URL for the current platform and the
directory to place the binary in, for networks where automatic
installation cannot reach GitHub or its mirrors.`,
	Args: cobra.ExactArgs(1),
	RunE: runManualInfo,
}

func init() {
	rootCmd.AddCommand(manualInfoCmd)
}

func runManualInfo(cmd *cobra.Command, args []string) error {
	manager, err := newManager(binary.NopEmitter{})
	if err != nil {
		return err
	}

	info, err := manager.ToolManualInfo(args[0])
	if err != nil {
		return err
	}

	printInfo("Download:    %s", info.URL)
	printInfo("Install dir: %s", info.BinDir)
	printInfo("Extract the archive if needed and place the binary in the install dir.")
	return nil
}
