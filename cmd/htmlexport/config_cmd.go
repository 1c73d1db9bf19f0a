package main

import "fmt"

// runConfig prints the effective configuration as YAML.
func runConfig(args []string, env *Environment) error {
	flags, positional, err := parseCommonOnly("config", printConfigUsage, args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, positional[0])
	}

	sess, err := openSession(*flags, env.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	data, err := sess.cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = env.Stdout.Write(data)
	return err
}
