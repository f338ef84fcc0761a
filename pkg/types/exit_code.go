// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// ExitSuccess is the conventional success status.
	ExitSuccess ExitCode = 0
	// ExitFailure is used when a launch failed before any child status existed.
	ExitFailure ExitCode = 1
	// ExitEngineFailure is returned by docker/podman when the engine itself failed.
	ExitEngineFailure ExitCode = 125
	// ExitNotExecutable is the shell status for a command that could not be invoked.
	ExitNotExecutable ExitCode = 126
	// ExitNotFound is the shell status for a command that was not found.
	ExitNotFound ExitCode = 127
	// ExitInterrupted is the status reported when the child was stopped by SIGINT.
	ExitInterrupted ExitCode = 130
	// ExitSSHFailure is the status OpenSSH uses for its own connection errors.
	ExitSSHFailure ExitCode = 255
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode represents a process exit status code.
	// Exit codes are in the range 0-255 on POSIX systems.
	// The zero value (0) means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range (0-255).
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside the valid range (0-255).
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// Normalize maps out-of-range values (signals reported as -1, Windows
// NTSTATUS codes) onto a shell-compatible status.
func (c ExitCode) Normalize() ExitCode {
	if c.Validate() != nil {
		return ExitFailure
	}
	return c
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

// IsEngineFailure reports whether a container engine exec status means the
// engine could not run the command at all.
func (c ExitCode) IsEngineFailure() bool { return c == ExitEngineFailure }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
