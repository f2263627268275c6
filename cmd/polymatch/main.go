/*
This command provides tools to try patterns and route tables.

Usage:

	polymatch <command> [flags] [args]

Commands:

	match <pattern> <subject>        prints the captures of a subject
	all <pattern> <subject>          prints the captures of every occurrence
	template <pattern> [key=value]   renders the pattern from the values
	route <key>...                   looks up keys in the route table
	tree                             prints the route table
	serve                            serves lookups of the route table over HTTP
	help                             prints the usage

The route table is loaded from -routes-file and -routes.
*/
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/scoizzle/poly/config"
	"github.com/scoizzle/poly/logging"
)

type (
	command     string
	commandFunc func(cfg *config.Config, out io.Writer) error
)

const (
	match    command = "match"
	all      command = "all"
	template command = "template"
	route    command = "route"
	tree     command = "tree"
	serve    command = "serve"
	help     command = "help"
)

var commands = map[command]commandFunc{
	match:    matchCmd,
	all:      allCmd,
	template: templateCmd,
	route:    routeCmd,
	tree:     treeCmd,
	serve:    serveCmd,
	help:     helpCmd,
}

var (
	errMissingCommand = errors.New("missing command")
	errInvalidCommand = errors.New("invalid command")
)

func printStderr(args ...any) {
	fmt.Fprintln(os.Stderr, args...)
}

func exitErrHint(err error, hint bool) {
	if err == nil {
		os.Exit(0)
	}

	printStderr(err)
	if hint {
		printStderr()
		printHint()
	}

	os.Exit(exitCode(err))
}

func exitHint(err error) { exitErrHint(err, true) }
func exit(err error)     { exitErrHint(err, false) }

func getCommand(args []string) (command, error) {
	if len(args) < 2 {
		return "", errMissingCommand
	}

	cmd := command(args[1])
	if _, ok := commands[cmd]; !ok {
		return "", errInvalidCommand
	}

	return cmd, nil
}

func initLog(cfg *config.Config) (io.Closer, error) {
	o := cfg.LoggingOptions()
	var closer io.Closer
	if cfg.ApplicationLog != "" {
		f, err := os.OpenFile(cfg.ApplicationLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open application log: %w", err)
		}

		o.ApplicationLogOutput = f
		closer = f
	}

	logging.Init(o)
	return closer, nil
}

func run(args []string, out io.Writer) error {
	cmd, err := getCommand(args)
	if err != nil {
		return &usageError{err}
	}

	cfg := config.NewConfig()
	cfg.Flags.SetOutput(io.Discard)
	if err := cfg.ParseArgs(args[0], args[2:]); err != nil {
		return &usageError{err}
	}

	closer, err := initLog(cfg)
	if err != nil {
		return err
	}

	if closer != nil {
		defer closer.Close()
	}

	log.Debugf("running %s", cmd)
	return commands[cmd](cfg, out)
}

func main() {
	err := run(os.Args, os.Stdout)

	var uerr *usageError
	if errors.As(err, &uerr) {
		exitHint(err)
	}

	exit(err)
}
