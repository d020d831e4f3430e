// Package main provides the entry point for the youtube-dl-gui helper
// tool manager CLI.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
