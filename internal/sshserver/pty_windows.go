// SPDX-License-Identifier: MPL-2.0

//go:build windows

package sshserver

import (
	"errors"
	"os"
	"os/exec"
)

var errPtyUnsupported = errors.New("pseudo-terminals are not supported on windows")

func startPty(*exec.Cmd) (*os.File, error) {
	return nil, errPtyUnsupported
}

func setWinsize(*os.File, int, int) {}
