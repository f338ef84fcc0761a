// SPDX-License-Identifier: MPL-2.0

// Package dispatch runs a command vector against a resolved transport
// context and reports the child's exit status.
//
// Local and docker targets run as child processes; ssh targets run through
// the OpenSSH client or a native golang.org/x/crypto/ssh connection. Output
// is streamed to the caller's writers as it is produced. A non-zero exit is
// returned as data in Result; errors are reserved for launch failures,
// unreachable hosts and cancellation.
package dispatch
