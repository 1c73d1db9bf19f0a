package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrUsage wraps flag parsing failures.
var ErrUsage = errors.New("invalid usage")

// errHelpShown signals that -h printed usage and the command should stop.
var errHelpShown = errors.New("help shown")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// exportFlags holds flags for the pdf and docx commands.
type exportFlags struct {
	common  commonFlags
	output  string
	timeout string
}

// inspectFlags holds flags for the inspect command.
type inspectFlags struct {
	text bool
	json bool
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	common  commonFlags
	addr    string
	workers int
}

// addCommonFlags adds shared flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed output")
}

// newFlagSet returns a FlagSet that reports errors instead of exiting.
func newFlagSet(name string, usage func(io.Writer), w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// parse runs fs.Parse and normalizes its errors.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelpShown
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// exportFlagSet registers the pdf/docx flags. Completion reads the same set.
func exportFlagSet(name string, f *exportFlags, w io.Writer) *flag.FlagSet {
	fs := newFlagSet(name, func(w io.Writer) { printExportUsage(w, name) }, w)
	fs.StringVarP(&f.output, "output", "o", "", "output file")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "PDF generation timeout (e.g., 30s, 2m)")
	addCommonFlags(fs, &f.common)
	return fs
}

func inspectFlagSet(f *inspectFlags, w io.Writer) *flag.FlagSet {
	fs := newFlagSet("inspect", printInspectUsage, w)
	fs.BoolVar(&f.text, "text", false, "print the extracted text of every page")
	fs.BoolVar(&f.json, "json", false, "output as JSON")
	return fs
}

func serveFlagSet(f *serveFlags, w io.Writer) *flag.FlagSet {
	fs := newFlagSet("serve", printServeUsage, w)
	fs.StringVar(&f.addr, "addr", "", "listen address (default from config)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "exporter pool size (0 = auto)")
	addCommonFlags(fs, &f.common)
	return fs
}

func commonFlagSet(name string, usage func(io.Writer), f *commonFlags, w io.Writer) *flag.FlagSet {
	fs := newFlagSet(name, usage, w)
	addCommonFlags(fs, f)
	return fs
}

// parseExportFlags parses pdf/docx flags and returns positional args.
func parseExportFlags(name string, args []string, w io.Writer) (*exportFlags, []string, error) {
	f := &exportFlags{}
	fs := exportFlagSet(name, f, w)
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseInspectFlags parses inspect flags and returns positional args.
func parseInspectFlags(args []string, w io.Writer) (*inspectFlags, []string, error) {
	f := &inspectFlags{}
	fs := inspectFlagSet(f, w)
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve flags.
func parseServeFlags(args []string, w io.Writer) (*serveFlags, error) {
	f := &serveFlags{}
	fs := serveFlagSet(f, w)
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}
	return f, nil
}

// parseCommonOnly parses commands that take only the shared flags.
func parseCommonOnly(name string, usage func(io.Writer), args []string, w io.Writer) (*commonFlags, []string, error) {
	f := &commonFlags{}
	fs := commonFlagSet(name, usage, f, w)
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
