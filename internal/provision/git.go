// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

const originRemote = "origin"

// checkout moves the worktree to ref: a local branch, a branch on origin
// (creating a tracking branch), a tag, or a commit, in that order.
func checkout(repo *git.Repository, ref string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	branch := plumbing.NewBranchReferenceName(ref)
	if _, err := repo.Reference(branch, true); err == nil {
		return wrapCheckout(ref, wt.Checkout(&git.CheckoutOptions{Branch: branch}))
	}

	if remote, err := repo.Reference(plumbing.NewRemoteReferenceName(originRemote, ref), true); err == nil {
		if err := wt.Checkout(&git.CheckoutOptions{Branch: branch, Hash: remote.Hash(), Create: true}); err != nil {
			return wrapCheckout(ref, err)
		}
		err := repo.CreateBranch(&config.Branch{Name: ref, Remote: originRemote, Merge: branch})
		if err != nil && !errors.Is(err, git.ErrBranchExists) {
			return fmt.Errorf("track %s/%s: %w", originRemote, ref, err)
		}
		return nil
	}

	if tag, err := repo.Reference(plumbing.NewTagReferenceName(ref), true); err == nil {
		hash := tag.Hash()
		// Annotated tags point at a tag object, not the commit.
		if obj, err := repo.TagObject(hash); err == nil {
			commit, err := obj.Commit()
			if err != nil {
				return fmt.Errorf("tag %s: %w", ref, err)
			}
			hash = commit.Hash
		}
		return wrapCheckout(ref, wt.Checkout(&git.CheckoutOptions{Hash: hash}))
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return &ReferenceNotFoundError{Reference: ref}
	}
	return wrapCheckout(ref, wt.Checkout(&git.CheckoutOptions{Hash: *hash}))
}

func wrapCheckout(ref string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("checkout %s: %w", ref, err)
}

// DefaultAuth selects credentials for remote. ssh remotes use the agent when
// SSH_AUTH_SOCK is set, else the first readable key under ~/.ssh. https
// remotes use GITHUB_TOKEN, GITLAB_TOKEN or GIT_TOKEN. Anything else is
// anonymous.
func DefaultAuth(remote string) transport.AuthMethod {
	ep, err := transport.NewEndpoint(remote)
	if err != nil {
		return nil
	}
	switch ep.Protocol {
	case "ssh":
		user := ep.User
		if user == "" {
			user = "git"
		}
		return sshAuth(user)
	case "http", "https":
		return tokenAuth()
	default:
		return nil
	}
}

func sshAuth(user string) transport.AuthMethod {
	if os.Getenv("SSH_AUTH_SOCK") != "" {
		if auth, err := ssh.NewSSHAgentAuth(user); err == nil {
			return auth
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
		keyPath := filepath.Join(homeDir, ".ssh", name)
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		if auth, err := ssh.NewPublicKeysFromFile(user, keyPath, ""); err == nil {
			return auth
		}
	}
	return nil
}

func tokenAuth() transport.AuthMethod {
	tokens := []struct{ env, user string }{
		{"GITHUB_TOKEN", "x-access-token"},
		{"GITLAB_TOKEN", "gitlab-ci-token"},
		{"GIT_TOKEN", "git"},
	}
	for _, tok := range tokens {
		if value := os.Getenv(tok.env); value != "" {
			return &http.BasicAuth{Username: tok.user, Password: value}
		}
	}
	return nil
}
