// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"fmt"
	"strings"

	"github.com/jonpugh/ash/internal/transport"

	"mvdan.cc/sh/v3/syntax"
)

const fragmentShell = "sh"

// Argv turns a command vector into the argv executed on a local or container
// target: the login shell for an empty vector, `sh -c` for a single fragment,
// and the vector itself otherwise.
func Argv(c transport.Context, command []string) []string {
	switch len(command) {
	case 0:
		return []string{c.Shell, "-l"}
	case 1:
		return []string{fragmentShell, "-c", command[0]}
	default:
		return append([]string(nil), command...)
	}
}

// RemoteCommand renders the line executed by the remote shell of an ssh
// target:
//
//	cd <root> && VAR=value PATH=<dirs>:"$PATH" <command>
//
// Argv elements are quoted; a single element is passed to the remote shell
// as written, wrapped in `sh -c` when variables must apply to all of it.
func RemoteCommand(c transport.Context, command []string) (string, error) {
	var b strings.Builder

	if c.WorkDir != "" {
		dir, err := quote(c.WorkDir)
		if err != nil {
			return "", err
		}
		b.WriteString("cd " + dir + " && ")
	}

	var assigns []string
	for _, key := range c.EnvKeys() {
		if !syntax.ValidName(key) {
			return "", fmt.Errorf("environment variable name %q is not valid", key)
		}
		value, _ := c.Getenv(key)
		q, err := quote(value)
		if err != nil {
			return "", err
		}
		assigns = append(assigns, key+"="+q)
	}
	if len(c.PathPrefix) > 0 {
		q, err := quote(strings.Join(c.PathPrefix, ":"))
		if err != nil {
			return "", err
		}
		assigns = append(assigns, `PATH=`+q+`:"$PATH"`)
	}
	if len(assigns) > 0 {
		b.WriteString(strings.Join(assigns, " ") + " ")
	}

	switch len(command) {
	case 0:
		b.WriteString(c.Shell + " -l")
	case 1:
		if len(assigns) == 0 {
			b.WriteString(command[0])
			break
		}
		q, err := quote(command[0])
		if err != nil {
			return "", err
		}
		b.WriteString(fragmentShell + " -c " + q)
	default:
		words := make([]string, 0, len(command))
		for _, arg := range command {
			q, err := quote(arg)
			if err != nil {
				return "", err
			}
			words = append(words, q)
		}
		b.WriteString(strings.Join(words, " "))
	}
	return b.String(), nil
}

// quote prefers mvdan's minimal quoting. POSIX has no escapes for control
// characters, so strings it rejects (multi-line fragments) are single-quoted.
func quote(s string) (string, error) {
	q, err := syntax.Quote(s, syntax.LangPOSIX)
	if err == nil {
		return q, nil
	}
	if strings.ContainsRune(s, 0) {
		return "", fmt.Errorf("quote %q: %w", s, err)
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'", nil
}
