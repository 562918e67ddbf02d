// Package main implements the SDL frontend of the CHIP-8 emulator.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/mnafees/c8vm/internal"
	"github.com/mnafees/c8vm/internal/config"
	"github.com/mnafees/c8vm/internal/rom"
	"github.com/mnafees/c8vm/pkg/frame"
	"github.com/mnafees/c8vm/pkg/sdl"
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

func init() {
	runtime.LockOSThread()
}

func main() {
	opts, err := config.ParseFlags("chopper", os.Args[1:])
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

	output, closeLog, err := config.OpenLog(opts.LogFile, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// dumps follow the log into the file, otherwise they go to stderr
	var dump io.Writer = os.Stderr
	if output != nil {
		dump = output
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet, output)
	err = run(app.Context(), logger, dump, opts)
	if err != nil {
		logger.Error("Emulation failed", log.Err(err))
	}
	if cerr := closeLog(); cerr != nil {
		fmt.Fprintln(os.Stderr, cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *log.Logger, dump io.Writer, opts config.Options) error {
	vm, err := internal.NewC8VM(config.VMOptions(opts)...)
	if err != nil {
		return err
	}
	if err := rom.LoadInto(vm, opts.ROM); err != nil {
		return err
	}
	logger.Info("Program loaded", log.String("file", opts.ROM))

	io := sdl.NewIO(logger, opts.Scale)
	if err := io.SetupWindow("Chopper | CHIP-8 Emulator"); err != nil {
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
