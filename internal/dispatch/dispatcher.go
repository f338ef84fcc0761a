// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/jonpugh/ash/internal/alias"
	"github.com/jonpugh/ash/internal/config"
	"github.com/jonpugh/ash/internal/container"
	"github.com/jonpugh/ash/internal/transport"
	"github.com/jonpugh/ash/pkg/types"

	"github.com/google/uuid"
)

// InternalTimeout bounds helper commands the CLI runs on its own behalf.
const InternalTimeout = 14400 * time.Second

type (
	// ExecCommandFunc creates the child process. Tests replace it.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// EngineFunc returns the container engine, resolved on first docker use.
	EngineFunc func() (container.Engine, error)

	// Request is one command against one resolved context.
	Request struct {
		Context transport.Context
		// Command is empty for an interactive shell, a single shell fragment,
		// or an argv.
		Command []string
		Stdin   io.Reader
		Stdout  io.Writer
		Stderr  io.Writer
		// Timeout is optional; zero means no limit.
		Timeout time.Duration
	}

	// Result is the outcome of a dispatch that ran to completion.
	Result struct {
		ExitCode types.ExitCode
	}

	// Dispatcher launches commands on local, ssh and docker targets.
	Dispatcher struct {
		ssh         config.SSHConfig
		execCommand ExecCommandFunc
		engine      EngineFunc
		native      nativeSettings
	}

	// Option configures a Dispatcher.
	Option func(*Dispatcher)
)

// WithExecCommand overrides child process creation.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(d *Dispatcher) {
		d.execCommand = fn
	}
}

// WithEngine sets how the container engine is obtained.
func WithEngine(fn EngineFunc) Option {
	return func(d *Dispatcher) {
		d.engine = fn
	}
}

// WithHomeDir sets the directory searched for ~/.ssh keys and known_hosts by
// the native ssh client.
func WithHomeDir(dir string) Option {
	return func(d *Dispatcher) {
		d.native.homeDir = dir
	}
}

// WithAgentSocket sets the ssh-agent socket used by the native client. An
// empty path disables the agent.
func WithAgentSocket(path string) Option {
	return func(d *Dispatcher) {
		d.native.agentSocket = path
	}
}

// New creates a Dispatcher using the given ssh settings.
func New(sshCfg config.SSHConfig, opts ...Option) *Dispatcher {
	home, _ := os.UserHomeDir()
	d := &Dispatcher{
		ssh:         sshCfg,
		execCommand: exec.CommandContext,
		engine: func() (container.Engine, error) {
			return container.NewEngine(container.EngineTypeDocker)
		},
		native: nativeSettings{
			homeDir:     home,
			agentSocket: os.Getenv("SSH_AUTH_SOCK"),
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.ssh.Binary == "" {
		d.ssh.Binary = "ssh"
	}
	return d
}

// Run executes req and waits for it. A non-zero exit status is reported in
// the Result, not as an error.
func (d *Dispatcher) Run(ctx context.Context, req Request) (*Result, error) {
	id := uuid.New()
	slog.Debug("dispatch",
		"id", id.String(),
		"alias", req.Context.Alias,
		"transport", req.Context.Transport,
		"demoted", req.Context.Demoted,
		"tty", req.Context.TTY,
		"argv", req.Command,
	)

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	start := time.Now()
	var (
		result *Result
		err    error
	)
	switch req.Context.Transport {
	case alias.TransportSSH:
		if d.ssh.Client == config.SSHClientNative {
			result, err = d.runNative(ctx, req)
		} else {
			result, err = d.runOpenSSH(ctx, req)
		}
	case alias.TransportDocker:
		result, err = d.runDocker(ctx, req)
	default:
		result, err = d.runLocal(ctx, req)
	}

	if err != nil {
		slog.Debug("dispatch failed", "id", id.String(), "error", err)
		return nil, err
	}
	slog.Debug("dispatch finished", "id", id.String(), "exit_code", int(result.ExitCode), "duration", time.Since(start))
	return result, nil
}

func (d *Dispatcher) runLocal(ctx context.Context, req Request) (*Result, error) {
	argv := Argv(req.Context, req.Command)
	cmd := d.execCommand(ctx, argv[0], argv[1:]...)
	cmd.Dir = req.Context.WorkDir
	cmd.Env = append(cmd.Env, req.Context.Environ()...)
	return d.wait(ctx, cmd, req, argv[0])
}

func (d *Dispatcher) runDocker(ctx context.Context, req Request) (*Result, error) {
	c := req.Context
	engine, err := d.engine()
	if err != nil {
		return nil, &LaunchError{Alias: c.Alias, Transport: c.Transport, Program: "docker", Cause: err}
	}
	if c.Container == nil {
		return nil, &LaunchError{Alias: c.Alias, Transport: c.Transport, Program: engine.Name(), Cause: errors.New("no container target")}
	}

	target := container.Target{
		Container:      c.Container.Container,
		Service:        c.Container.Service,
		ComposeProject: c.Container.ComposeProject,
		ComposeFile:    c.Container.ComposeFile,
		ComposeOptions: c.Container.ComposeOptions,
		ExecOptions:    c.Container.ExecOptions,
	}
	args := engine.ExecArgs(target, Argv(c, req.Command), container.ExecOptions{
		WorkDir:     c.WorkDir,
		Env:         c.Env(),
		User:        c.Container.User,
		Interactive: req.Stdin != nil || c.TTY,
		TTY:         c.TTY,
	})

	cmd := engine.CreateCommand(ctx, args...)
	return d.wait(ctx, cmd, req, engine.Name())
}

// wait runs cmd with the request's streams and maps its outcome.
func (d *Dispatcher) wait(ctx context.Context, cmd *exec.Cmd, req Request, program string) (*Result, error) {
	cmd.Stdin = req.Stdin
	cmd.Stdout = req.Stdout
	cmd.Stderr = req.Stderr

	err := cmd.Run()
	if err == nil {
		return &Result{ExitCode: types.ExitSuccess}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s: %w", req.Context.Alias, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &Result{ExitCode: types.ExitCode(exitErr.ExitCode()).Normalize()}, nil
	}
	return nil, &LaunchError{Alias: req.Context.Alias, Transport: req.Context.Transport, Program: program, Cause: err}
}
