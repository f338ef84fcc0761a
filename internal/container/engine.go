// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

const (
	EngineTypePodman EngineType = "podman"
	EngineTypeDocker EngineType = "docker"
)

// ErrNoEngineAvailable is the sentinel error wrapped by EngineNotAvailableError.
var ErrNoEngineAvailable = errors.New("no container engine available")

type (
	// Engine is a container CLI able to exec into running containers.
	Engine interface {
		// Name returns the engine name (docker or podman)
		Name() string
		// Available checks if the engine is available on the system
		Available() bool
		// Version returns the engine server version
		Version(ctx context.Context) (string, error)
		// BinaryPath returns the engine executable
		BinaryPath() string
		// ExecArgs builds the arguments that run command inside target
		ExecArgs(target Target, command []string, opts ExecOptions) []string
		// CreateCommand creates an exec.Cmd for the engine binary
		CreateCommand(ctx context.Context, args ...string) *exec.Cmd
	}

	// EngineType identifies the container engine type
	EngineType string

	// Target identifies a running container or a compose service.
	Target struct {
		// Container is a container name or ID. It takes precedence over Service.
		Container string
		// Service is a compose service, reached with `compose exec`.
		Service        string
		ComposeProject string
		ComposeFile    string
		// ComposeOptions are inserted after `compose` and its -p/-f flags.
		ComposeOptions []string
		// ExecOptions are inserted right after `exec`.
		ExecOptions []string
	}

	// ExecOptions contains per-invocation exec settings
	ExecOptions struct {
		// WorkDir is the working directory inside the container
		WorkDir string
		// Env contains environment variables
		Env map[string]string
		// User runs the command as this user
		User string
		// Interactive keeps stdin open
		Interactive bool
		// TTY allocates a pseudo-TTY
		TTY bool
	}

	// EngineNotAvailableError is returned when a container engine is not available.
	EngineNotAvailableError struct {
		Engine string
		Reason string
	}
)

func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// Unwrap returns ErrNoEngineAvailable so callers can use errors.Is.
func (e *EngineNotAvailableError) Unwrap() error { return ErrNoEngineAvailable }

// NewEngine creates a new container engine based on preference, falling back
// to the other engine when the preferred one is missing.
func NewEngine(preferredType EngineType) (Engine, error) {
	switch preferredType {
	case EngineTypePodman:
		if engine := NewPodmanEngine(); engine.Available() {
			return engine, nil
		}
		if engine := NewDockerEngine(); engine.Available() {
			return engine, nil
		}
		return nil, &EngineNotAvailableError{
			Engine: "podman",
			Reason: "podman is not installed or not accessible, and docker fallback is also not available",
		}

	case EngineTypeDocker:
		if engine := NewDockerEngine(); engine.Available() {
			return engine, nil
		}
		if engine := NewPodmanEngine(); engine.Available() {
			return engine, nil
		}
		return nil, &EngineNotAvailableError{
			Engine: "docker",
			Reason: "docker is not installed or not accessible, and podman fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}
}

