// SPDX-License-Identifier: MPL-2.0

// Package provision prepares the codebase of a local site.
//
// Init clones an alias's git_remote into its root when the root does not
// exist yet, then checks out git_reference. The reference is looked up as a
// local branch, a branch on origin, a tag and finally a commit.
//
//	p := provision.New()
//	res, err := p.Init(ctx, rec)
package provision
