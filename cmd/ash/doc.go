// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for ash.
//
// The App type is the composition root: it owns the configuration provider,
// the alias service and the dispatcher factory. Every cobra handler receives
// the App and builds its per-invocation state through it.
package cmd
