// Package appshell runs a command under signal handling.
package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"kgraph/internal/cmdutil"
)

// Main runs run with os.Args and exits with its code. The first SIGINT or
// SIGTERM cancels the run's context; a second one exits at once.
func Main(run func(context.Context, []string, io.Writer, io.Writer) int) {
	os.Exit(runWithSignals(os.Args[1:], os.Stdout, os.Stderr, run))
}

func runWithSignals(argv []string, stdout, stderr io.Writer, run func(context.Context, []string, io.Writer, io.Writer) int) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
			cancel()
		case <-ctx.Done():
			return
		}
		select {
		case <-sigs:
			os.Exit(cmdutil.ExitCancelled)
		case <-ctx.Done():
		}
	}()

	if len(argv) == 0 {
		argv = []string{"-h"}
	}
	code := run(ctx, argv, stdout, stderr)
	if ctx.Err() != nil && code == cmdutil.ExitOK {
		code = cmdutil.ExitCancelled
	}
	return code
}
