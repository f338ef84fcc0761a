// SPDX-License-Identifier: MPL-2.0

// Package container drives the docker and podman CLIs for the docker
// transport.
//
// Only exec into running containers is supported: either a named container
// (`docker exec`) or a compose service (`docker compose exec`). Both engines
// embed BaseCLIEngine, which builds the argument lists and creates the
// exec.Cmd so callers can wire their own stdio.
//
// Engine selection uses NewEngine(EngineType) with fallback to the other
// engine when the preferred one is unavailable.
package container
