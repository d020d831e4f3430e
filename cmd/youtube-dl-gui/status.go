package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xidear/youtube-dl-gui/internal/binary"
	"github.com/xidear/youtube-dl-gui/internal/platform"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every tool declared in the manifest",
	RunE:  runList,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show helper tools with their install state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := newManager(binary.NopEmitter{})
	if err != nil {
		return err
	}

	tools, err := manager.ListTools()
	if err != nil {
		return err
	}
	for _, tool := range tools {
		fmt.Println(tool)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
	defer cancel()

	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return err
	}
	printInfo("Platform: %s", info.Key())
	if info.Platform != "" {
		printInfo("Host: %s %s", info.Platform, info.Version)
	}
	printInfo("Install dir: %s", cfg.BinDir)
	printInfo("")

	manager, err := newManager(binary.NopEmitter{})
	if err != nil {
		return err
	}

	rows, err := manager.ListToolsWithStatus()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		printInfo("No tools are available for this platform.")
		return nil
	}

	for _, row := range rows {
		state := "missing"
		if row.Installed {
			state = "installed"
		}
		printInfo("%-16s %-24s %s", row.Name, row.Version, state)
	}
	return nil
}
