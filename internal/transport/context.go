// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"maps"
	"slices"

	"github.com/jonpugh/ash/internal/alias"
)

type (
	// Context is the resolved execution context for one dispatch. It is a
	// value type; the With* methods return modified copies.
	Context struct {
		// Alias is the record name, kept for error reporting.
		Alias     string
		Transport alias.Transport
		// WorkDir is local for local targets, remote for ssh and in-container
		// for docker. Empty means the target's default.
		WorkDir string
		TTY     bool
		// Shell is used for the interactive fallback when no command is given.
		Shell string
		// Demoted is set when a docker target was turned into a local one.
		Demoted bool

		// PathPrefix lists directories prepended to PATH on the target.
		PathPrefix []string

		Host         string
		User         string
		Port         int
		SSHOptions   []string
		IdentityFile string

		Container *ContainerTarget

		env map[string]string
	}

	// ContainerTarget names the container a docker context runs in.
	ContainerTarget struct {
		// Container is a running container name or ID. When empty, Service is
		// used with compose exec.
		Container      string
		Service        string
		ComposeProject string
		ComposeFile    string
		ComposeOptions []string
		ExecOptions    []string
		User           string
	}
)

// Env returns a copy of the environment for the target. For local contexts
// this is the full child environment; for ssh and docker it holds only the
// variables passed to the remote side.
func (c Context) Env() map[string]string {
	return maps.Clone(c.env)
}

// Getenv returns one environment value.
func (c Context) Getenv(key string) (string, bool) {
	v, ok := c.env[key]
	return v, ok
}

// EnvKeys returns the environment keys in lexical order.
func (c Context) EnvKeys() []string {
	return slices.Sorted(maps.Keys(c.env))
}

// Environ returns the environment as sorted KEY=VALUE pairs.
func (c Context) Environ() []string {
	keys := c.EnvKeys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+c.env[k])
	}
	return out
}

// WithWorkDir returns a copy of c running in dir.
func (c Context) WithWorkDir(dir string) Context {
	c.WorkDir = dir
	return c
}

// WithTTY returns a copy of c with the TTY flag set to tty.
func (c Context) WithTTY(tty bool) Context {
	c.TTY = tty
	return c
}

// Target describes where the context runs, for display.
func (c Context) Target() string {
	switch c.Transport {
	case alias.TransportSSH:
		target := c.Host
		if c.User != "" {
			target = c.User + "@" + target
		}
		return target
	case alias.TransportDocker:
		if c.Container == nil {
			return ""
		}
		if c.Container.Container != "" {
			return c.Container.Container
		}
		return c.Container.Service
	default:
		return "localhost"
	}
}
