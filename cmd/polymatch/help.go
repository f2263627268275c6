package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/scoizzle/poly/config"
)

const helpHint = "To print polymatch usage, enter:\n\npolymatch help"

var errNoMatch = errors.New("no match")

type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// exitCode tells a miss apart from failures, so that the command can be
// used in scripts.
func exitCode(err error) int {
	if errors.Is(err, errNoMatch) {
		return 1
	}

	return -1
}

func printHint() {
	printStderr(helpHint)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: polymatch <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands: match, all, template, route, tree, serve, help")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")

	cfg := config.NewConfig()
	cfg.Flags.SetOutput(w)
	cfg.Flags.PrintDefaults()
}

func helpCmd(_ *config.Config, _ io.Writer) error {
	usage(os.Stderr)
	return nil
}
