// SPDX-License-Identifier: MPL-2.0

// Package alias models site aliases and loads them from alias files.
//
// An alias names one site target: a local codebase, a remote host reached over
// ssh, or a container. Alias files live in search locations and are named
// <site>.site.yml, <site>.site.toml or <site>.site.cue. A file either defines
// one record (@site) or a mapping of environments (@site.env). Files inside a
// first-level subdirectory of a location are prefixed with the directory name
// (@location.site.env).
//
// File organization:
//   - record.go: Record, field access and validation
//   - name.go: alias name grammar
//   - store.go: Store lookups, @self synthesis and search locations
//   - loader.go, format.go: location scanning and file decoding
//   - sitespec.go, writer.go: site-spec parsing and alias file creation
package alias
