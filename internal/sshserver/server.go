// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	gossh "golang.org/x/crypto/ssh"
)

const (
	// StateCreated indicates the server has been created but not started.
	StateCreated State = iota
	// StateRunning indicates the server is accepting connections.
	StateRunning
	// StateStopped is terminal: the server has been shut down.
	StateStopped
	// StateFailed is terminal: the server could not start.
	StateFailed
)

// ErrNotCreated is returned by Start when the server was already started once.
var ErrNotCreated = errors.New("server already started")

type (
	// State is the lifecycle state of a Server.
	State int32

	// Config holds immutable configuration for the SSH server.
	Config struct {
		// Host is the address to bind to (default: 127.0.0.1).
		Host string
		// Port is the port to listen on (0 = auto-select).
		Port int
		// AuthorizedKeys lists the client keys allowed to log in.
		AuthorizedKeys []gossh.PublicKey
		// HostSigner is the host key; a fresh ed25519 key is generated when nil.
		HostSigner gossh.Signer
		// Shell runs each session's command with -c (default: /bin/sh).
		Shell string
		// Dir is the working directory for sessions (default: inherited).
		Dir string
		// ShutdownTimeout bounds graceful shutdown (default: 5s).
		ShutdownTimeout time.Duration
		// Logger receives connection events (default: discarded).
		Logger *log.Logger
	}

	// Server is a single-use loopback SSH endpoint.
	Server struct {
		cfg    Config
		logger *log.Logger

		mu       sync.Mutex
		state    State
		srv      *ssh.Server
		addr     string
		done     chan struct{}
		serveErr error
	}
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultConfig returns a loopback configuration on an ephemeral port.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Shell:           "/bin/sh",
		ShutdownTimeout: 5 * time.Second,
	}
}

// New creates a server. Call Start to begin accepting connections.
func New(cfg Config) *Server {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Shell == "" {
		cfg.Shell = "/bin/sh"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{Prefix: "sshserver"})
	}
	return &Server{cfg: cfg, logger: logger, done: make(chan struct{})}
}

// publicKeyHandler accepts only the configured keys.
func (s *Server) publicKeyHandler(ctx ssh.Context, key ssh.PublicKey) bool {
	for _, allowed := range s.cfg.AuthorizedKeys {
		if ssh.KeysEqual(key, allowed) {
			return true
		}
	}
	s.logger.Warn("rejected public key", "user", ctx.User(), "type", key.Type())
	return false
}

func (s *Server) options() []ssh.Option {
	opts := []ssh.Option{
		wish.WithPublicKeyAuth(s.publicKeyHandler),
		wish.WithMiddleware(s.commandMiddleware()),
	}
	if s.cfg.HostSigner != nil {
		signer := s.cfg.HostSigner
		opts = append(opts, func(srv *ssh.Server) error {
			srv.AddHostKey(signer)
			return nil
		})
	}
	return opts
}

// commandMiddleware runs the session's raw command, or a shell when none was sent.
func (s *Server) commandMiddleware() wish.Middleware {
	return func(ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			raw := sess.RawCommand()
			s.logger.Debug("session", "user", sess.User(), "command", raw)

			var cmd *exec.Cmd
			if strings.TrimSpace(raw) == "" {
				cmd = exec.CommandContext(sess.Context(), s.cfg.Shell)
			} else {
				cmd = exec.CommandContext(sess.Context(), s.cfg.Shell, "-c", raw)
			}
			cmd.Dir = s.cfg.Dir
			cmd.WaitDelay = time.Second
			cmd.Env = append(os.Environ(), sess.Environ()...)

			ptyReq, winCh, isPty := sess.Pty()
			var err error
			if isPty {
				cmd.Env = append(cmd.Env, "TERM="+ptyReq.Term)
				err = runWithPty(cmd, sess, ptyReq.Window, winCh)
			} else {
				cmd.Stdin = sess
				cmd.Stdout = sess
				cmd.Stderr = sess.Stderr()
				err = cmd.Run()
			}
			_ = sess.Exit(exitStatus(err)) //nolint:errcheck // the client may already be gone
		}
	}
}

func runWithPty(cmd *exec.Cmd, sess ssh.Session, win ssh.Window, winCh <-chan ssh.Window) error {
	f, err := startPty(cmd)
	if err != nil {
		_, _ = fmt.Fprintf(sess.Stderr(), "cannot allocate a terminal: %v\n", err)
		return err
	}
	defer func() { _ = f.Close() }()

	setWinsize(f, win.Width, win.Height)
	go func() {
		for w := range winCh {
			setWinsize(f, w.Width, w.Height)
		}
	}()
	go func() { _, _ = io.Copy(f, sess) }()
	_, _ = io.Copy(sess, f)
	return cmd.Wait()
}

func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode()
	}
	return 1
}

// closeWithTimeout shuts srv down, forcing connections closed after the timeout.
func closeWithTimeout(srv *ssh.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return srv.Close()
	}
	return nil
}
