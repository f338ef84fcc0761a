// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jonpugh/ash/pkg/types"
)

// OpenSSHArgs builds the ssh client arguments for req, excluding the binary.
func (d *Dispatcher) OpenSSHArgs(req Request) ([]string, error) {
	c := req.Context
	remote, err := RemoteCommand(c, req.Command)
	if err != nil {
		return nil, &LaunchError{Alias: c.Alias, Transport: c.Transport, Program: d.ssh.Binary, Cause: err}
	}

	var args []string
	for _, opt := range d.ssh.Options {
		args = append(args, "-o", opt)
	}
	if c.Port > 0 {
		args = append(args, "-p", strconv.Itoa(c.Port))
	}
	if c.IdentityFile != "" {
		args = append(args, "-i", c.IdentityFile)
	}
	args = append(args, c.SSHOptions...)
	if c.TTY {
		args = append(args, "-t")
	} else {
		args = append(args, "-T")
	}

	target := c.Host
	if c.User != "" {
		target = c.User + "@" + c.Host
	}
	return append(args, target, remote), nil
}

func (d *Dispatcher) runOpenSSH(ctx context.Context, req Request) (*Result, error) {
	args, err := d.OpenSSHArgs(req)
	if err != nil {
		return nil, err
	}

	cmd := d.execCommand(ctx, d.ssh.Binary, args...)
	result, err := d.wait(ctx, cmd, req, d.ssh.Binary)
	if err != nil {
		return nil, err
	}
	// OpenSSH reports its own connection failures as 255.
	if result.ExitCode == types.ExitSSHFailure {
		c := req.Context
		return nil, &RemoteUnreachableError{
			Alias: c.Alias,
			Host:  c.Host,
			User:  c.User,
			Port:  c.Port,
			Cause: fmt.Errorf("%s exited with status %d", d.ssh.Binary, types.ExitSSHFailure),
		}
	}
	return result, nil
}
