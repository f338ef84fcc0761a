// SPDX-License-Identifier: MPL-2.0

package alias

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jonpugh/ash/pkg/cueutil"
)

type (
	// Loader reads alias files from a Store's search locations.
	Loader struct {
		maxFileSize int64
	}

	// LoaderOption configures a Loader.
	LoaderOption func(*Loader)
)

// WithMaxFileSize caps the size of a single alias file.
func WithMaxFileSize(size int64) LoaderOption {
	return func(l *Loader) {
		l.maxFileSize = size
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{maxFileSize: cueutil.DefaultMaxFileSize}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load rebuilds the store's records from its search locations. Locations are
// scanned in registration order and the first definition of a name wins.
// Problems are reported as diagnostics; the load itself only fails when ctx
// is done.
func (l *Loader) Load(ctx context.Context, store *Store) (*LoadResult, error) {
	store.reset()
	result := &LoadResult{}

	for _, location := range store.SearchLocations() {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("load aliases: %w", err)
		}
		l.loadLocation(store, location, result)
	}

	slog.Debug("aliases loaded", "records", store.Len(), "files", len(result.Files), "diagnostics", len(result.Diagnostics))
	return result, nil
}

func (l *Loader) loadLocation(store *Store, location string, result *LoadResult) {
	info, err := os.Stat(location)
	if err != nil {
		code := CodeLocationUnreadable
		if os.IsNotExist(err) {
			code = CodeLocationMissing
		}
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Code:     code,
			Message:  fmt.Sprintf("cannot read alias location %s: %v", location, err),
			Path:     location,
			Cause:    err,
		})
		return
	}

	if !info.IsDir() {
		if !IsAliasFile(filepath.Base(location)) {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeLocationNotDirectory,
				Message:  fmt.Sprintf("%s is neither a directory nor an alias file", location),
				Path:     location,
			})
			return
		}
		l.loadFile(store, "", location, result)
		return
	}

	entries, err := os.ReadDir(location)
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeLocationUnreadable,
			Message:  fmt.Sprintf("cannot list alias location %s: %v", location, err),
			Path:     location,
			Cause:    err,
		})
		return
	}

	// Files directly in the location come before any subdirectory.
	var subdirs []os.DirEntry
	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, entry)
			continue
		}
		if IsAliasFile(entry.Name()) {
			l.loadFile(store, "", filepath.Join(location, entry.Name()), result)
		}
	}

	for _, dir := range subdirs {
		if !ValidSegment(dir.Name()) {
			continue
		}
		l.loadSubdir(store, dir.Name(), filepath.Join(location, dir.Name()), result)
	}
}

func (l *Loader) loadSubdir(store *Store, prefix, dir string, result *LoadResult) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeLocationUnreadable,
			Message:  fmt.Sprintf("cannot list alias directory %s: %v", dir, err),
			Path:     dir,
			Cause:    err,
		})
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !IsAliasFile(entry.Name()) {
			continue
		}
		l.loadFile(store, prefix, filepath.Join(dir, entry.Name()), result)
	}
}

func (l *Loader) loadFile(store *Store, prefix, path string, result *LoadResult) {
	records, err := l.readFile(prefix, path)
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeAliasFileInvalid,
			Message:  fmt.Sprintf("skipping alias file: %v", err),
			Path:     path,
			Cause:    err,
		})
		return
	}
	result.Files = append(result.Files, path)

	for _, r := range records {
		if existing, added := store.Add(r); !added {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Severity: SeverityInfo,
				Code:     CodeAliasShadowed,
				Message:  fmt.Sprintf("%s from %s is shadowed by %s", r.Name, path, existing.Source()),
				Path:     path,
			})
		}
	}
}

func (l *Loader) readFile(prefix, path string) ([]*Record, error) {
	site, f, ok := splitFileName(filepath.Base(path))
	if !ok {
		return nil, fmt.Errorf("%s: not an alias file", path)
	}
	if !ValidSegment(site) {
		return nil, fmt.Errorf("%s: site name %q: %w", path, site, ErrInvalidName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cueutil.CheckFileSize(data, l.maxFileSize, path); err != nil {
		return nil, err
	}

	doc, err := f.decode(data, path)
	if err != nil {
		return nil, err
	}

	records, err := recordsFromDocument(prefix, site, path, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
