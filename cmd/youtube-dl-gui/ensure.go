package main

import (
	"github.com/spf13/cobra"
)

var useProxy bool

var ensureCmd = &cobra.Command{
	Use:   "ensure [tools...]",
	Short: "Install or update helper tools",
	Long: `Ensure installs every helper tool whose pinned version is missing or
outdated. Naming tools restricts the run to those tools. Tools that fail
keep the rest of the run going; rerun with --proxy if GitHub is
unreachable from your network.`,
	RunE: runEnsure,
}

func init() {
	ensureCmd.Flags().BoolVar(&useProxy, "proxy", false, "retry GitHub downloads through public mirrors")
	rootCmd.AddCommand(ensureCmd)
}

func runEnsure(cmd *cobra.Command, args []string) error {
	manager, err := newManager(newConsoleEmitter(quiet))
	if err != nil {
		return err
	}

	var allow []string
	if len(args) > 0 {
		allow = args
	}

	// Per-tool failures are already reported through events; the error
	// only sets the exit code.
	return manager.Ensure(cmd.Context(), allow, useProxy)
}
