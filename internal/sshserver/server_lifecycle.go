// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
)

// Start binds the listener and begins serving in the background.
// It returns once connections can be accepted.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCreated {
		return fmt.Errorf("%w (state: %s)", ErrNotCreated, s.state)
	}
	if err := ctx.Err(); err != nil {
		s.state = StateFailed
		return fmt.Errorf("context cancelled before start: %w", err)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		s.state = StateFailed
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv, err := wish.NewServer(s.options()...)
	if err != nil {
		_ = listener.Close()
		s.state = StateFailed
		return fmt.Errorf("failed to create SSH server: %w", err)
	}

	s.srv = srv
	s.addr = listener.Addr().String()
	s.state = StateRunning

	go func() {
		defer close(s.done)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, ssh.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
			s.mu.Lock()
			s.serveErr = err
			s.mu.Unlock()
		}
	}()

	s.logger.Info("SSH server started", "address", s.addr)
	return nil
}

// Stop shuts the server down and waits for the serve loop to exit.
// It is safe to call more than once.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.state != StateRunning {
		if s.state == StateCreated {
			s.state = StateStopped
		}
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopped
	srv := s.srv
	s.mu.Unlock()

	err := closeWithTimeout(srv, s.cfg.ShutdownTimeout)
	<-s.done
	s.logger.Info("SSH server stopped")
	return err
}

// Wait blocks until the serve loop exits and returns its error, if any.
func (s *Server) Wait() error {
	s.mu.Lock()
	started := s.srv != nil
	s.mu.Unlock()
	if !started {
		return nil
	}
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serveErr
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Address returns the bound host:port, or "" before Start.
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Host returns the configured bind host.
func (s *Server) Host() string {
	return s.cfg.Host
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int {
	_, port, err := net.SplitHostPort(s.Address())
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return 0
	}
	return n
}
