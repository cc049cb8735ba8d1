// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"kgraph/internal/cli"
	"kgraph/internal/cmdutil"
	"kgraph/internal/version"
	"kgraph/internal/writers"
)

// RunContext parses argv, runs one command and returns the process exit
// code: 0 ok, 2 usage or configuration error, 3 runtime or output error,
// 130 cancelled.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)

	inv, err := cli.Parse(argv)
	if err != nil {
		if cli.IsHelp(err) {
			_, _ = fmt.Fprintln(outw, err.Error())
			return flush(outw, stderr, cmdutil.ExitOK)
		}
		_, _ = fmt.Fprintf(stderr, "kgraph: %v\n", err)
		inv.WriteHelp(outw)
		return flush(outw, stderr, cmdutil.ExitUsage)
	}

	if inv.Global.Version {
		_, _ = fmt.Fprintf(outw, "kgraph version %s\n", version.Version)
		return flush(outw, stderr, cmdutil.ExitOK)
	}

	logger, err := cmdutil.NewLogger(stderr, inv.Global.LogLevel, inv.Global.LogFormat)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "kgraph: %v\n", err)
		return cmdutil.ExitUsage
	}

	switch inv.Command {
	case cli.CmdBuild:
		err = runBuild(parent, inv.Build, outw, logger)
	case cli.CmdMerge:
		err = runMerge(parent, inv.Merge, outw, logger)
	case cli.CmdServe:
		err = runServe(parent, inv.Serve, logger)
	}
	code := cmdutil.ExitCode(err)
	if err != nil {
		logger.WithError(err).WithField("command", inv.Command).Error("command failed")
	}
	return flush(outw, stderr, code)
}

// Run is RunContext without cancellation.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// flush writes buffered stdout. A closed pipe downstream is not an error.
func flush(w *bufio.Writer, stderr io.Writer, code int) int {
	if err := w.Flush(); err != nil && !writers.IsBrokenPipe(err) {
		_, _ = fmt.Fprintln(stderr, err)
		if code == cmdutil.ExitOK {
			return cmdutil.ExitRuntime
		}
	}
	return code
}
