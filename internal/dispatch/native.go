// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonpugh/ash/internal/transport"
	"github.com/jonpugh/ash/pkg/types"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"
)

const (
	defaultSSHPort     = 22
	nativeDialTimeout  = 30 * time.Second
	defaultTerminalEnv = "xterm-256color"
)

var defaultIdentityFiles = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

type nativeSettings struct {
	homeDir     string
	agentSocket string
}

// runNative runs req over an in-process ssh connection.
func (d *Dispatcher) runNative(ctx context.Context, req Request) (*Result, error) {
	c := req.Context
	remote, err := RemoteCommand(c, req.Command)
	if err != nil {
		return nil, &LaunchError{Alias: c.Alias, Transport: c.Transport, Program: "ssh", Cause: err}
	}

	client, err := d.dialNative(ctx, c)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	// Closing the client hangs up the remote side when ctx is canceled.
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	session, err := client.NewSession()
	if err != nil {
		return nil, d.unreachable(c, fmt.Errorf("open session: %w", err))
	}
	defer session.Close()

	session.Stdin = req.Stdin
	session.Stdout = req.Stdout
	session.Stderr = req.Stderr

	if c.TTY {
		restore, err := requestPty(session)
		if err != nil {
			return nil, &LaunchError{Alias: c.Alias, Transport: c.Transport, Program: "ssh", Cause: err}
		}
		defer restore()
	}

	err = session.Run(remote)
	if err == nil {
		return &Result{ExitCode: types.ExitSuccess}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s: %w", c.Alias, ctxErr)
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return &Result{ExitCode: types.ExitCode(exitErr.ExitStatus()).Normalize()}, nil
	}
	var missing *ssh.ExitMissingError
	if errors.As(err, &missing) {
		return nil, d.unreachable(c, err)
	}
	return nil, &LaunchError{Alias: c.Alias, Transport: c.Transport, Program: "ssh", Cause: err}
}

func (d *Dispatcher) dialNative(ctx context.Context, c transport.Context) (*ssh.Client, error) {
	login := c.User
	if login == "" {
		login = currentUser()
	}
	port := c.Port
	if port == 0 {
		port = defaultSSHPort
	}
	addr := net.JoinHostPort(c.Host, strconv.Itoa(port))

	hostKeys, err := d.hostKeyCallback()
	if err != nil {
		return nil, &LaunchError{Alias: c.Alias, Transport: c.Transport, Program: "ssh", Cause: err}
	}
	auth, closeAgent := d.authMethods(c)
	defer closeAgent()

	cfg := &ssh.ClientConfig{
		User:            login,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         nativeDialTimeout,
	}

	dialer := net.Dialer{Timeout: nativeDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", c.Alias, ctxErr)
		}
		return nil, d.unreachable(c, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, d.unreachable(c, err)
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

func (d *Dispatcher) unreachable(c transport.Context, cause error) error {
	return &RemoteUnreachableError{Alias: c.Alias, Host: c.Host, User: c.User, Port: c.Port, Cause: cause}
}

func (d *Dispatcher) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if !d.ssh.StrictHostKeyChecking {
		//nolint:gosec // host key checking disabled by configuration
		return ssh.InsecureIgnoreHostKey(), nil
	}
	path := filepath.Join(d.native.homeDir, ".ssh", "known_hosts")
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("load known hosts: %w", err)
	}
	return cb, nil
}

// authMethods offers the agent first, then the alias identity file or the
// default keys under ~/.ssh. The returned func closes the agent connection.
func (d *Dispatcher) authMethods(c transport.Context) ([]ssh.AuthMethod, func()) {
	var methods []ssh.AuthMethod
	closer := func() {}

	if d.native.agentSocket != "" {
		if conn, err := net.Dial("unix", d.native.agentSocket); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
			closer = func() { _ = conn.Close() }
		} else {
			slog.Debug("ssh agent unavailable", "socket", d.native.agentSocket, "error", err)
		}
	}

	var files []string
	if c.IdentityFile != "" {
		files = append(files, expandHome(c.IdentityFile, d.native.homeDir))
	} else {
		for _, name := range defaultIdentityFiles {
			files = append(files, filepath.Join(d.native.homeDir, ".ssh", name))
		}
	}

	var signers []ssh.Signer
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			slog.Debug("skipping identity file", "path", file, "error", err)
			continue
		}
		signers = append(signers, signer)
	}
	if len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}
	return methods, closer
}

// requestPty asks for a remote terminal sized like ours and puts the local
// terminal in raw mode. The returned func restores it.
func requestPty(session *ssh.Session) (func(), error) {
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}
	termEnv := os.Getenv("TERM")
	if termEnv == "" {
		termEnv = defaultTerminalEnv
	}
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty(termEnv, height, width, modes); err != nil {
		return nil, fmt.Errorf("request pty: %w", err)
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("raw terminal: %w", err)
	}
	return func() { _ = term.Restore(fd, state) }, nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

func expandHome(path, home string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return path
}
