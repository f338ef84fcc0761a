// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Helpers cover environment variables (MustSetenv, SetHomeDir), alias
// fixtures (MustMkdirAll, WriteFile), server shutdown (MustStop) and the
// re-exec process mock used by the dispatch and container tests.
package testutil
