// Package main implements a CHIP-8 program listing tool.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mnafees/c8vm/internal/rom"
	"github.com/mnafees/c8vm/pkg/debug"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/buildinfo"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run writes the listing of the program named in args and returns the
// process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("c8dis", flag.ContinueOnError)
	flags.SetOutput(stderr)
	showVersion := flags.Bool("version", false, "print version information")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: c8dis [options] <CHIP-8 program>\n\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Fprintln(stdout, buildinfo.Version(version, commit, date))
		return 0
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}

	program, err := rom.Load(flags.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprint(stdout, debug.Listing(program))
	return 0
}
