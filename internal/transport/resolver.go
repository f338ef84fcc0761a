// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jonpugh/ash/internal/alias"
	"github.com/jonpugh/ash/internal/config"

	"mvdan.cc/sh/v3/shell"
)

const defaultShell = "bash"

type (
	// Request carries the per-dispatch inputs that influence resolution.
	Request struct {
		// Command is the command vector. Its first token drives docker demotion.
		Command []string
		// TTY asks for a terminal even when a command is given.
		TTY bool
	}

	// TerminalProbe reports whether a TTY can actually be allocated.
	TerminalProbe func() bool

	// Resolver turns alias records into execution contexts.
	Resolver struct {
		exec     config.ExecConfig
		environ  func() []string
		getwd    func() (string, error)
		terminal TerminalProbe
	}

	// Option configures a Resolver.
	Option func(*Resolver)
)

// WithEnviron overrides how the caller environment is read.
func WithEnviron(fn func() []string) Option {
	return func(r *Resolver) {
		r.environ = fn
	}
}

// WithGetwd overrides the caller working directory lookup used by demoted
// docker contexts.
func WithGetwd(fn func() (string, error)) Option {
	return func(r *Resolver) {
		r.getwd = fn
	}
}

// WithTerminalProbe overrides TTY detection.
func WithTerminalProbe(fn TerminalProbe) Option {
	return func(r *Resolver) {
		r.terminal = fn
	}
}

// NewResolver creates a Resolver for the given exec settings.
func NewResolver(cfg config.ExecConfig, opts ...Option) *Resolver {
	r := &Resolver{
		exec:     cfg,
		environ:  os.Environ,
		getwd:    alias.WorkingDir,
		terminal: StdioIsTerminal,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.exec.Shell == "" {
		r.exec.Shell = defaultShell
	}
	return r
}

// Decide returns the transport a record uses before demotion.
func Decide(rec *alias.Record) alias.Transport {
	switch {
	case rec.Transport != "":
		return rec.Transport
	case rec.Host != "":
		return alias.TransportSSH
	}
	if _, ok, _ := rec.Docker(); ok {
		return alias.TransportDocker
	}
	return alias.TransportLocal
}

// Resolve validates rec and derives the execution context for req.
func (r *Resolver) Resolve(rec *alias.Record, req Request) (Context, error) {
	if err := rec.Validate(); err != nil {
		return Context{}, err
	}

	ctx := Context{
		Alias:     rec.Name,
		Transport: Decide(rec),
		Shell:     r.exec.Shell,
		TTY:       (len(req.Command) == 0 || req.TTY) && r.terminal(),
	}

	var err error
	switch ctx.Transport {
	case alias.TransportSSH:
		err = r.resolveSSH(rec, &ctx)
	case alias.TransportDocker:
		err = r.resolveDocker(rec, req, &ctx)
	default:
		if rec.Root == "" {
			err = invalid(rec, "transport local requires root")
			break
		}
		r.resolveLocal(rec, rec.Root, &ctx)
	}
	if err != nil {
		return Context{}, err
	}
	return ctx, nil
}

func (r *Resolver) resolveLocal(rec *alias.Record, root string, ctx *Context) {
	ctx.Transport = alias.TransportLocal
	ctx.WorkDir = root
	ctx.PathPrefix = r.pathPrefix(root, filepath.Join)

	env := hostEnv(r.environ())
	if rec.URI != "" && r.exec.URIEnv != "" {
		env[r.exec.URIEnv] = rec.URI
	}
	if len(ctx.PathPrefix) > 0 {
		parts := slices.Clone(ctx.PathPrefix)
		if current := env["PATH"]; current != "" {
			parts = append(parts, current)
		}
		env["PATH"] = strings.Join(parts, string(os.PathListSeparator))
	}
	maps.Copy(env, rec.EnvVars())
	ctx.env = env
}

func (r *Resolver) resolveSSH(rec *alias.Record, ctx *Context) error {
	if rec.Host == "" {
		return invalid(rec, "transport ssh requires host")
	}
	settings, err := rec.SSH()
	if err != nil {
		return err
	}
	options, err := splitOptions(rec, "ssh.options", settings.Options)
	if err != nil {
		return err
	}

	ctx.Host = rec.Host
	ctx.User = rec.User
	ctx.Port = settings.Port
	ctx.IdentityFile = settings.IdentityFile
	ctx.SSHOptions = options
	ctx.WorkDir = rec.Root
	ctx.PathPrefix = r.pathPrefix(rec.Root, path.Join)
	ctx.env = r.remoteEnv(rec)
	return nil
}

func (r *Resolver) resolveDocker(rec *alias.Record, req Request, ctx *Context) error {
	settings, _, err := rec.Docker()
	if err != nil {
		return err
	}

	if r.runsLocally(req.Command) {
		root := settings.LocalRoot
		if root == "" {
			if root, err = r.getwd(); err != nil {
				return err
			}
		}
		ctx.Demoted = true
		r.resolveLocal(rec, root, ctx)
		return nil
	}

	if settings.Container == "" && settings.Service == "" {
		return invalid(rec, "docker transport requires docker.container or docker.service")
	}
	if settings.Root == "" && rec.Root == "" {
		return invalid(rec, "docker transport requires docker.root or root")
	}
	execOptions, err := splitOptions(rec, "docker.exec.options", settings.Exec.Options)
	if err != nil {
		return err
	}
	composeOptions, err := splitOptions(rec, "docker.compose.options", settings.Compose.Options)
	if err != nil {
		return err
	}

	ctx.Container = &ContainerTarget{
		Container:      settings.Container,
		Service:        settings.Service,
		ComposeProject: settings.Compose.Project,
		ComposeFile:    settings.Compose.File,
		ComposeOptions: composeOptions,
		ExecOptions:    execOptions,
		User:           settings.User,
	}
	ctx.WorkDir = settings.Root
	if ctx.WorkDir == "" {
		ctx.WorkDir = rec.Root
	}
	ctx.env = r.remoteEnv(rec)
	return nil
}

func invalid(rec *alias.Record, reason string) error {
	return &alias.InvalidDefinitionError{Name: rec.Name, Path: rec.Source(), Reasons: []string{reason}}
}

// runsLocally reports whether the first command token, or its base name, is
// on the local command list.
func (r *Resolver) runsLocally(command []string) bool {
	if len(command) == 0 {
		return false
	}
	first := command[0]
	if len(command) == 1 {
		// A single element is a shell fragment; match its first word.
		if fields := strings.Fields(first); len(fields) > 0 {
			first = fields[0]
		}
	}
	base := path.Base(filepath.ToSlash(first))
	for _, candidate := range r.exec.LocalCommands {
		if candidate == first || candidate == base {
			return true
		}
	}
	return false
}

func (r *Resolver) pathPrefix(root string, join func(...string) string) []string {
	if root == "" {
		return nil
	}
	dirs := make([]string, 0, len(r.exec.PathDirs))
	for _, dir := range r.exec.PathDirs {
		dirs = append(dirs, join(root, dir))
	}
	return dirs
}

// remoteEnv holds the variables passed to ssh and docker targets. PATH is
// carried separately in PathPrefix since it references the target's $PATH.
func (r *Resolver) remoteEnv(rec *alias.Record) map[string]string {
	env := map[string]string{}
	if rec.URI != "" && r.exec.URIEnv != "" {
		env[r.exec.URIEnv] = rec.URI
	}
	maps.Copy(env, rec.EnvVars())
	return env
}

func splitOptions(rec *alias.Record, key, value string) ([]string, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	fields, err := shell.Fields(value, nil)
	if err != nil {
		return nil, &alias.InvalidDefinitionError{Name: rec.Name, Path: rec.Source(), Reasons: []string{key + " cannot be parsed"}, Cause: err}
	}
	return fields, nil
}

// hostEnv parses KEY=VALUE pairs. Later duplicates win.
func hostEnv(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}
