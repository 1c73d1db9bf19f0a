package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ErrUnknownCommand is returned for an unrecognized subcommand.
var ErrUnknownCommand = errors.New("unknown command")

func main() {
	// A missing .env is the common case and not an error.
	_ = godotenv.Load()

	env := DefaultEnv()
	setMaxProcs(hasVerboseFlag(os.Args[1:]), env.Stderr)

	ctx, stop := notifyContext(context.Background())
	err := run(ctx, os.Args, env)
	stop()

	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
	}
	os.Exit(exitCodeFor(err))
}

// setMaxProcs configures GOMAXPROCS for the container CPU quota.
// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
// in which case Go runtime defaults apply and the program continues safely.
func setMaxProcs(verbose bool, w io.Writer) {
	if verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(w, format+"\n", args...)
		}))
		return
	}
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
}

func hasVerboseFlag(args []string) bool {
	for _, a := range args {
		if a == "-v" || a == "--verbose" {
			return true
		}
	}
	return false
}

// run dispatches args[1] to its command.
func run(ctx context.Context, args []string, env *Environment) error {
	err := dispatch(ctx, args, env)
	if errors.Is(err, errHelpShown) {
		return nil
	}
	return err
}

func dispatch(ctx context.Context, args []string, env *Environment) error {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return fmt.Errorf("%w: none given", ErrUnknownCommand)
	}

	cmd, rest := args[1], args[2:]
	switch cmd {
	case "pdf":
		return runExport(ctx, targetPDF, rest, env)
	case "docx":
		return runExport(ctx, targetDOCX, rest, env)
	case "inspect":
		return runInspect(rest, env)
	case "serve":
		return runServe(ctx, rest, env)
	case "plugins":
		return runPlugins(rest, env)
	case "config":
		return runConfig(rest, env)
	case "doctor":
		if code := runDoctorCmd(rest, env); code != ExitSuccess {
			return ErrNotReady
		}
		return nil
	case "completion":
		return runCompletion(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "htmlexport %s\n", Version)
		return nil
	case "help", "-h", "--help":
		return runHelp(rest, env)
	default:
		printUsage(env.Stderr)
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
}
