// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jonpugh/ash/internal/alias"
)

var (
	// ErrLaunch is the sentinel error wrapped by LaunchError.
	ErrLaunch = errors.New("command could not be launched")

	// ErrRemoteUnreachable is the sentinel error wrapped by RemoteUnreachableError.
	ErrRemoteUnreachable = errors.New("remote host unreachable")
)

type (
	// LaunchError is returned when the child process could not be started.
	LaunchError struct {
		Alias     string
		Transport alias.Transport
		// Program is the executable that failed to start.
		Program string
		Cause   error
	}

	// RemoteUnreachableError is returned when an ssh connection could not be
	// established.
	RemoteUnreachableError struct {
		Alias string
		Host  string
		User  string
		Port  int
		Cause error
	}
)

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s for %s (%s): %v", e.Program, e.Alias, e.Transport, e.Cause)
}

// Unwrap returns ErrLaunch and the cause so both match errors.Is.
func (e *LaunchError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrLaunch}
	}
	return []error{ErrLaunch, e.Cause}
}

func (e *RemoteUnreachableError) Error() string {
	return fmt.Sprintf("cannot reach %s for %s: %v", e.Address(), e.Alias, e.Cause)
}

// Unwrap returns ErrRemoteUnreachable and the cause so both match errors.Is.
func (e *RemoteUnreachableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrRemoteUnreachable}
	}
	return []error{ErrRemoteUnreachable, e.Cause}
}

// Address renders [user@]host[:port].
func (e *RemoteUnreachableError) Address() string {
	addr := e.Host
	if e.User != "" {
		addr = e.User + "@" + addr
	}
	if e.Port > 0 {
		addr += ":" + strconv.Itoa(e.Port)
	}
	return addr
}
