// Package main provides the secureops command-line client.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	apperrors "github.com/secureops/secureops-client/internal/errors"
)

const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitAuth       = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code) //nolint:forbidigo // CLI must propagate command status to the shell.
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{}
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := c.close(); cerr != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "shutdown failed", "error", cerr)
	}
	if err == nil {
		return exitOK
	}

	_, _ = fmt.Fprintf(stderr, "Error: %s\n", apperrors.UserMessage(err))
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return exitValidation
	case apperrors.IsUnauthorized(err):
		return exitAuth
	default:
		return exitFailure
	}
}
