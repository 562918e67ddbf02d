// Package main implements the terminal frontend of the CHIP-8 emulator.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mnafees/c8vm/internal"
	"github.com/mnafees/c8vm/internal/config"
	"github.com/mnafees/c8vm/internal/rom"
	"github.com/mnafees/c8vm/pkg/frame"
	"github.com/mnafees/c8vm/pkg/term"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// defaultLogFile receives debug output, which can not share the terminal
// with the display.
const defaultLogFile = "chopper-term.log"

func main() {
	opts, err := config.ParseFlags("chopper-term", os.Args[1:])
	if err != nil {
		var usageErr *config.UsageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "%v\n\n", usageErr)
			usageErr.ShowUsage(os.Stderr)
		}
		os.Exit(1)
	}
	if opts.Version {
		fmt.Println(buildinfo.Version(version, commit, date))
		return
	}

	// output written while termbox owns the screen is held back until the
	// terminal is restored, unless it goes to a file
	var pending bytes.Buffer
	path := logFile(opts)
	output, closeLog, err := config.OpenLog(path, &pending)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet || path == "", output)
	err = run(app.Context(), logger, output, opts)
	if err != nil {
		logger.Error("Emulation failed", log.Err(err))
	}
	if cerr := closeLog(); cerr != nil {
		fmt.Fprintln(os.Stderr, cerr)
	}
	_, _ = pending.WriteTo(os.Stderr)
	if err != nil {
		os.Exit(1)
	}
}

// logFile returns the file log output goes to, empty if it is buffered.
func logFile(opts config.Options) string {
	if opts.LogFile != "" {
		return opts.LogFile
	}
	if opts.Debug || opts.Dump {
		return defaultLogFile
	}
	return ""
}

func run(ctx context.Context, logger *log.Logger, dump io.Writer, opts config.Options) error {
	vm, err := internal.NewC8VM(config.VMOptions(opts)...)
	if err != nil {
		return err
	}
	if err := rom.LoadInto(vm, opts.ROM); err != nil {
		return err
	}

	io := term.NewIO(logger, opts.Hold)
	if err := io.Setup(); err != nil {
		return err
	}
	defer io.Destroy()

	loop := frame.New(vm, frame.Config{
		CyclesPerFrame: opts.Cycles,
		FPS:            opts.FPS,
		Trace:          opts.Debug,
		Dump:           dump,
		DumpFrames:     opts.Dump,
	}, logger)
	err = loop.Run(ctx, io)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
