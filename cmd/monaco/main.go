package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/servinagrero/monaco/internal/app"
	"github.com/servinagrero/monaco/internal/cli"
)

// main is the entrypoint for the monaco application.
func main() {
	os.Exit(run(os.Args[1:]))
}

// run encapsulates the main application logic for easier testing and exit
// code handling: 0 on success, 1 on a failed run, 2 on a usage error.
func run(args []string) int {
	cfg, done, err := cli.Parse(args, os.Stdout)
	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			return exitErr.Code
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if done {
		return 0
	}

	// Ctrl-C and SIGTERM cancel the run context. In-flight commands finish,
	// nothing new starts.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.NewApp(os.Stderr, os.Stdout, cfg)
	if err := a.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
