package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/xidear/youtube-dl-gui/internal/binary"
)

// consoleEmitter renders install events as terminal output. Progress
// redraws a single line per tool; quiet mode drops everything except
// errors.
type consoleEmitter struct {
	out        io.Writer
	errOut     io.Writer
	quiet      bool
	lineActive bool
}

func newConsoleEmitter(quiet bool) *consoleEmitter {
	return &consoleEmitter{out: os.Stdout, errOut: os.Stderr, quiet: quiet}
}

func (c *consoleEmitter) Emit(event string, payload any) {
	switch event {
	case binary.EventDownloadStart:
		if c.quiet {
			return
		}
		start, ok := payload.(binary.ToolStart)
		if !ok {
			return
		}
		fmt.Fprintf(c.out, "Installing %s %s\n", start.Tool, start.Version)

	case binary.EventDownloadProgress:
		if c.quiet {
			return
		}
		progress, ok := payload.(binary.ToolProgress)
		if !ok {
			return
		}
		c.lineActive = true
		if progress.Total > 0 {
			fmt.Fprintf(c.out, "\r  %s: %s / %s", progress.Tool,
				humanize.Bytes(progress.Received), humanize.Bytes(progress.Total))
		} else {
			fmt.Fprintf(c.out, "\r  %s: %s", progress.Tool, humanize.Bytes(progress.Received))
		}

	case binary.EventDownloadComplete:
		if c.quiet {
			return
		}
		c.endLine()
		complete, ok := payload.(binary.ToolComplete)
		if !ok {
			return
		}
		fmt.Fprintf(c.out, "  %s installed\n", complete.Tool)

	case binary.EventDownloadError:
		c.endLine()
		toolErr, ok := payload.(binary.ToolError)
		if !ok {
			return
		}
		fmt.Fprintf(c.errOut, "  %s failed (%s): %s\n", toolErr.Tool, toolErr.Stage, toolErr.Reason)

	case binary.EventUpdateComplete:
		if c.quiet {
			return
		}
		c.endLine()
		result, ok := payload.(binary.Result)
		if !ok {
			return
		}
		fmt.Fprintf(c.out, "Done: %d installed, %d failed\n", len(result.Successes), len(result.Failures))
		if result.Error != "" {
			fmt.Fprintf(c.errOut, "  ledger write failed: %s\n", result.Error)
		}
	}
}

// endLine finishes an in-place progress line before regular output.
func (c *consoleEmitter) endLine() {
	if c.lineActive {
		fmt.Fprintln(c.out)
		c.lineActive = false
	}
}
