// SPDX-License-Identifier: MPL-2.0

// Package sshserver provides a loopback SSH endpoint built on Wish.
//
// The endpoint accepts a fixed set of public keys and runs each session's
// command through a POSIX shell, reporting the command's exit status back to
// the client. It gives the ssh transport something real to talk to without a
// system sshd, which is how the dispatcher's native client is exercised.
package sshserver
