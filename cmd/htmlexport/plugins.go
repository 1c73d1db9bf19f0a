package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	htmlexport "github.com/alnah/go-htmlexport"
	"github.com/alnah/go-htmlexport/internal/registry"
)

// ErrUnknownPlugin is returned for an id no feature carries.
var ErrUnknownPlugin = errors.New("unknown plugin")

// runPlugins lists, installs or uninstalls export features.
func runPlugins(args []string, env *Environment) error {
	flags, positional, err := parseCommonOnly("plugins", printPluginsUsage, args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		printPluginsUsage(env.Stderr)
		return fmt.Errorf("%w: missing subcommand", ErrUsage)
	}

	sess, err := openSession(*flags, env.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	state := sess.plugins()
	// Handlers are never called here, so no exporter is needed.
	features := htmlexport.GetFeatures(nil, nil, state)

	sub, rest := positional[0], positional[1:]
	switch sub {
	case "list":
		printPlugins(env.Stdout, features)
		return nil
	case "install", "uninstall":
		if len(rest) != 1 {
			return fmt.Errorf("%w: plugins %s takes one id", ErrUsage, sub)
		}
		f, err := findFeature(features, rest[0])
		if err != nil {
			return err
		}
		install := sub == "install"
		if f.Tier == registry.TierStandard {
			if !flags.quiet {
				fmt.Fprintf(env.Stdout, "%s is a standard feature and always installed\n", f.Name)
			}
			return nil
		}
		if err := state.SetInstalled(f.Name, install); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		if !flags.quiet {
			fmt.Fprintf(env.Stdout, "%s %sed (%s)\n", f.Name, sub, state.Path())
		}
		return nil
	default:
		printPluginsUsage(env.Stderr)
		return fmt.Errorf("%w: plugins %q", ErrUnknownCommand, sub)
	}
}

func findFeature(features []registry.Feature, id string) (registry.Feature, error) {
	for _, f := range features {
		if f.Name == id {
			return f, nil
		}
	}
	return registry.Feature{}, fmt.Errorf("%w: %q", ErrUnknownPlugin, id)
}

func printPlugins(w io.Writer, features []registry.Feature) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIER\tINSTALLED\tLABEL")
	for _, f := range features {
		installed := "no"
		if f.Installed {
			installed = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Name, f.Tier, installed, f.Label)
	}
	_ = tw.Flush()
}
