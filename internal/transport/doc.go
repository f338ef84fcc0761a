// SPDX-License-Identifier: MPL-2.0

// Package transport decides how a site alias is reached and produces the
// Context a dispatcher needs to run a command against it.
//
// The decision order is: an explicit transport on the record, then a host
// (ssh), then a docker mapping in the record's extra data, then local. Docker
// targets are demoted to local for commands on the configured allow-list
// (git by default) so they run against the host checkout.
//
// A Context is built fresh for every dispatch. The caller environment is read
// at resolution time and never cached between calls.
package transport
