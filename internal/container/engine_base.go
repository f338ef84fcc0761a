// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"os/exec"
	"slices"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides the argument building and command creation shared
	// by the docker and podman engines.
	BaseCLIEngine struct {
		name        string
		binaryPath  string
		execCommand ExecCommandFunc
	}
)

// WithName sets the engine name used in error messages.
func WithName(name string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.name = name
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// NewBaseCLIEngine creates a new base engine with the given binary path.
func NewBaseCLIEngine(binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		binaryPath:  binaryPath,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the engine name used in error messages.
func (e *BaseCLIEngine) Name() string {
	return e.name
}

// BinaryPath returns the path to the container engine binary.
func (e *BaseCLIEngine) BinaryPath() string {
	return e.binaryPath
}

// ExecArgs constructs the arguments for running command inside target.
//
// Generated command for a container:
//
//	<binary> exec [exec options] [-i] [-t] [-w dir] [-u user] [-e K=V...] <container> <command...>
//
// and for a compose service:
//
//	<binary> compose [-p project] [-f file] [compose options] exec [exec options] [-T] [-w dir] [-u user] [-e K=V...] <service> <command...>
func (e *BaseCLIEngine) ExecArgs(target Target, command []string, opts ExecOptions) []string {
	var args []string
	if target.Container == "" {
		args = append(args, "compose")
		if target.ComposeProject != "" {
			args = append(args, "-p", target.ComposeProject)
		}
		if target.ComposeFile != "" {
			args = append(args, "-f", target.ComposeFile)
		}
		args = append(args, target.ComposeOptions...)
	}

	args = append(args, "exec")
	args = append(args, target.ExecOptions...)

	if target.Container != "" {
		if opts.Interactive {
			args = append(args, "-i")
		}
		if opts.TTY {
			args = append(args, "-t")
		}
	} else if !opts.TTY {
		// compose exec allocates a TTY unless told otherwise
		args = append(args, "-T")
	}

	if opts.WorkDir != "" {
		args = append(args, "-w", opts.WorkDir)
	}
	if opts.User != "" {
		args = append(args, "-u", opts.User)
	}
	for _, k := range slices.Sorted(maps.Keys(opts.Env)) {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, opts.Env[k]))
	}

	if target.Container != "" {
		args = append(args, target.Container)
	} else {
		args = append(args, target.Service)
	}
	return append(args, command...)
}

// RunCommandWithOutput executes a command with stdout captured to a buffer.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	cmd := e.CreateCommand(ctx, args...)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}

	return out.String(), nil
}

// CreateCommand creates an exec.Cmd for the given arguments.
// This is useful when the caller needs to customize stdin/stdout/stderr.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	return e.execCommand(ctx, e.binaryPath, args...)
}
