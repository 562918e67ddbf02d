// Package config handles command line options and logger setup shared by
// the emulator commands.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mnafees/c8vm/internal"
	"github.com/mnafees/c8vm/pkg/frame"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"
)

// Defaults used when no flag overrides them.
const (
	DefaultCycles = frame.DefaultCyclesPerFrame
	DefaultFPS    = internal.TimerFrequency
	DefaultScale  = 20
	DefaultHold   = 6
)

// Options holds the emulator command line options.
type Options struct {
	ROM     string // Path to the program image
	Cycles  int    // Interpreter steps per frame
	FPS     int    // Frames per second, also the timer rate
	Scale   int    // Pixel scale factor of the SDL window
	Hold    int    // Frames a terminal key stays pressed
	Seed    int64  // Random seed, 0 picks a time based one
	Debug   bool   // Log every executed instruction
	Dump    bool   // Dump the machine state after every frame
	Quiet   bool   // Only log errors
	LogFile string // Write log output and dumps to this file
	Version bool   // Print version information and exit
}

// UsageError is returned when the command line is malformed and the
// usage text should be shown.
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

// ShowUsage prints the usage text and flag defaults.
func (e *UsageError) ShowUsage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s [options] <CHIP-8 program>\n\n", e.flags.Name())
	e.flags.SetOutput(w)
	e.flags.PrintDefaults()
}

// ParseFlags parses the arguments following the program name.
func ParseFlags(name string, args []string) (Options, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	opts := Options{}
	flags.IntVar(&opts.Cycles, "cycles", DefaultCycles, "interpreter instructions executed per frame")
	flags.IntVar(&opts.FPS, "fps", DefaultFPS, "frames per second, timers tick once per frame")
	flags.IntVar(&opts.Scale, "scale", DefaultScale, "pixel scale factor of the window")
	flags.IntVar(&opts.Hold, "hold", DefaultHold, "frames a key stays pressed in terminals without key release events")
	flags.Int64Var(&opts.Seed, "seed", 0, "seed for the random number instruction, 0 picks one from the clock")
	flags.BoolVar(&opts.Debug, "debug", false, "log every executed instruction")
	flags.BoolVar(&opts.Dump, "dump", false, "print registers, keypad and display after every frame")
	flags.BoolVar(&opts.Quiet, "q", false, "only log errors")
	flags.StringVar(&opts.LogFile, "log", "", "write log output and state dumps to this file")
	flags.BoolVar(&opts.Version, "version", false, "print version information")

	if err := flags.Parse(args); err != nil {
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}
	if opts.Version {
		return opts, nil
	}
	if flags.NArg() != 1 {
		return opts, &UsageError{flags: flags, msg: "expected exactly one program file"}
	}
	if opts.Cycles < 1 || opts.FPS < 1 || opts.Scale < 1 || opts.Hold < 1 {
		return opts, &UsageError{flags: flags, msg: "cycles, fps, scale and hold must be positive"}
	}

	opts.ROM = flags.Arg(0)
	return opts, nil
}

// CreateLogger creates a logger with appropriate settings. A nil output
// logs to stdout.
func CreateLogger(debug, quiet bool, output io.Writer) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = output
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// OpenLog returns the file at path opened for appending, or fallback if
// path is empty. The returned close function is never nil on success.
func OpenLog(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening log file '%s'", path)
	}
	return f, f.Close, nil
}

// VMOptions returns the VM options selected on the command line.
func VMOptions(opts Options) []internal.Option {
	if opts.Seed == 0 {
		return nil
	}
	return []internal.Option{internal.WithSeed(opts.Seed)}
}
