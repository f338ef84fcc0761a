// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/jonpugh/ash/internal/alias"
)

var (
	// ErrNotLocal is returned when Init is asked to prepare a remote or
	// container alias.
	ErrNotLocal = errors.New("alias is not local")

	// ErrNoRemote is returned when the root is missing and there is no
	// git_remote to clone it from.
	ErrNoRemote = errors.New("alias has no git_remote")

	// ErrReferenceNotFound is the sentinel error wrapped by ReferenceNotFoundError.
	ErrReferenceNotFound = errors.New("git reference not found")
)

type (
	// ReferenceNotFoundError is returned when git_reference names no branch,
	// tag or commit of the repository.
	ReferenceNotFoundError struct {
		Reference string
		Root      string
	}

	// Result describes what Init did.
	Result struct {
		Root string
		// Cloned is true when the root was created by cloning git_remote.
		Cloned bool
		// Reference is the checked-out git_reference, empty if none was set.
		Reference string
		// Commit is the HEAD commit after checkout.
		Commit string
	}

	// AuthFunc picks credentials for a remote URL. A nil method means anonymous.
	AuthFunc func(remote string) transport.AuthMethod

	// Provisioner clones and checks out site codebases.
	Provisioner struct {
		auth     AuthFunc
		progress io.Writer
	}

	// Option configures a Provisioner.
	Option func(*Provisioner)
)

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("git reference %q not found in %s", e.Reference, e.Root)
}

// Unwrap returns ErrReferenceNotFound so callers can use errors.Is.
func (e *ReferenceNotFoundError) Unwrap() error { return ErrReferenceNotFound }

// WithAuth overrides credential selection.
func WithAuth(fn AuthFunc) Option {
	return func(p *Provisioner) {
		p.auth = fn
	}
}

// WithProgress receives clone progress output.
func WithProgress(w io.Writer) Option {
	return func(p *Provisioner) {
		p.progress = w
	}
}

// New creates a Provisioner that authenticates the way git users expect:
// ssh keys or the agent for ssh remotes, token variables for https.
func New(opts ...Option) *Provisioner {
	p := &Provisioner{auth: DefaultAuth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init prepares rec's root. The root is cloned from git_remote when it does
// not exist; git_reference is then checked out when set.
func (p *Provisioner) Init(ctx context.Context, rec *alias.Record) (*Result, error) {
	if !rec.IsLocal() {
		return nil, fmt.Errorf("%s: %w; cannot init", rec.Name, ErrNotLocal)
	}
	if rec.Root == "" {
		return nil, &alias.InvalidDefinitionError{Name: rec.Name, Path: rec.Source(), Reasons: []string{"root is not set"}}
	}

	res := &Result{Root: rec.Root, Reference: rec.GitReference}

	var repo *git.Repository
	if _, err := os.Stat(rec.Root); errors.Is(err, os.ErrNotExist) {
		if rec.GitRemote == "" {
			return nil, fmt.Errorf("%s: %w; cannot init", rec.Name, ErrNoRemote)
		}
		slog.Info("site codebase not found, cloning", "alias", rec.Name, "remote", rec.GitRemote, "root", rec.Root)
		if repo, err = p.clone(ctx, rec.GitRemote, rec.Root); err != nil {
			return nil, fmt.Errorf("clone %s into %s: %w", rec.GitRemote, rec.Root, err)
		}
		res.Cloned = true
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", rec.Root, err)
	} else if repo, err = git.PlainOpen(rec.Root); err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", rec.Root, err)
	}

	if rec.GitReference != "" {
		if err := checkout(repo, rec.GitReference); err != nil {
			var notFound *ReferenceNotFoundError
			if errors.As(err, &notFound) {
				notFound.Root = rec.Root
			}
			return nil, err
		}
		slog.Info("checked out git reference", "alias", rec.Name, "reference", rec.GitReference)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("read HEAD: %w", err)
	}
	res.Commit = head.Hash().String()
	return res, nil
}

func (p *Provisioner) clone(ctx context.Context, remote, root string) (*git.Repository, error) {
	var auth transport.AuthMethod
	if p.auth != nil {
		auth = p.auth(remote)
	}
	repo, err := git.PlainCloneContext(ctx, root, false, &git.CloneOptions{
		URL:      remote,
		Auth:     auth,
		Progress: p.progress,
	})
	if err != nil {
		// Leave nothing half-cloned behind; the next init must clone again.
		_ = os.RemoveAll(root)
		return nil, err
	}
	return repo, nil
}
