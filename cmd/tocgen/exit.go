package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tocgen/internal/batch"
	"github.com/dgallion1/tocgen/internal/heading"
	"github.com/dgallion1/tocgen/internal/patch"
)

// Process exit codes.
const (
	exitOK        = 0
	exitFailure   = 1 // generic failure, or --check found outdated files
	exitUsage     = 2
	exitMalformed = 3
	exitDecode    = 4
	exitIO        = 5
)

// errOutdated is returned by update --check when a TOC is stale.
var errOutdated = errors.New("table of contents out of date")

type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErr(err error) error { return &usageError{err: err} }

// ioErr marks err as an I/O failure unless it already is one.
func ioErr(err error) error {
	if errors.Is(err, batch.ErrIO) {
		return err
	}
	return fmt.Errorf("%w: %w", batch.ErrIO, err)
}

func exitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ue):
		return exitUsage
	case errors.Is(err, patch.ErrMalformedTocBlock):
		return exitMalformed
	case errors.Is(err, heading.ErrDecode):
		return exitDecode
	case errors.Is(err, batch.ErrIO):
		return exitIO
	default:
		return exitFailure
	}
}

// usageArgs reports argument count errors as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageErr(err)
		}
		return nil
	}
}
