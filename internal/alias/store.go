// SPDX-License-Identifier: MPL-2.0

package alias

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const maxSuggestions = 5

type (
	// Store holds loaded records in load order plus the search locations
	// that produced them. It is read-only once loading finishes.
	Store struct {
		records   []*Record
		byName    map[string]*Record
		groups    map[string][]*Record
		locations []string
		getwd     func() (string, error)
	}

	// StoreOption configures a Store.
	StoreOption func(*Store)
)

// WithGetwd overrides how the working directory for @self is determined.
func WithGetwd(fn func() (string, error)) StoreOption {
	return func(s *Store) {
		s.getwd = fn
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		byName: map[string]*Record{},
		groups: map[string][]*Record{},
		getwd:  WorkingDir,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WorkingDir returns $PWD when it names an existing directory, else os.Getwd.
// PWD keeps symlinked paths the way the user typed them.
func WorkingDir() (string, error) {
	if pwd := os.Getenv("PWD"); pwd != "" && filepath.IsAbs(pwd) {
		if info, err := os.Stat(pwd); err == nil && info.IsDir() {
			return pwd, nil
		}
	}
	return os.Getwd()
}

// AddSearchLocation registers path once. It returns false for duplicates.
func (s *Store) AddSearchLocation(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	for _, existing := range s.locations {
		if existing == abs {
			return false
		}
	}
	s.locations = append(s.locations, abs)
	return true
}

// SearchLocations returns the registered locations in order.
func (s *Store) SearchLocations() []string {
	return append([]string(nil), s.locations...)
}

// Add inserts r unless a record with the same name exists. The existing
// record is returned when r was shadowed.
func (s *Store) Add(r *Record) (*Record, bool) {
	if existing, ok := s.byName[r.Name]; ok {
		return existing, false
	}
	s.records = append(s.records, r)
	s.byName[r.Name] = r
	group := r.Group()
	if group != r.Name {
		s.groups[group] = append(s.groups[group], r)
	}
	return nil, true
}

// Len returns the number of loaded records.
func (s *Store) Len() int {
	return len(s.records)
}

// Names returns every record name in load order.
func (s *Store) Names() []string {
	names := make([]string, len(s.records))
	for i, r := range s.records {
		names[i] = r.Name
	}
	return names
}

// reset drops records but keeps search locations.
func (s *Store) reset() {
	s.records = nil
	s.byName = map[string]*Record{}
	s.groups = map[string][]*Record{}
}

// Get resolves name to one record. Names without @ are looked up as if
// prefixed. A site-only token picks the default environment, or the only one.
func (s *Store) Get(name string) (*Record, error) {
	token, err := Normalize(name)
	if err != nil {
		return nil, &NotFoundError{Name: name}
	}

	if r, ok := s.byName[token]; ok {
		return r, nil
	}

	if envs := s.groups[token]; len(envs) > 0 {
		for _, r := range envs {
			if r.Name == token+"."+DefaultEnv {
				return r, nil
			}
		}
		if len(envs) == 1 {
			return envs[0], nil
		}
		return nil, &NotFoundError{Name: token, Suggestions: namesOf(envs, maxSuggestions)}
	}

	if token == SelfName {
		return s.self()
	}

	return nil, &NotFoundError{Name: token, Suggestions: s.suggest(token)}
}

// GetMultiple returns every record when name is empty. Otherwise a record
// name yields that record and a site-only token yields all its environments.
func (s *Store) GetMultiple(name string) ([]*Record, error) {
	if name == "" {
		return append([]*Record(nil), s.records...), nil
	}

	token, err := Normalize(name)
	if err != nil {
		return nil, &NotFoundError{Name: name}
	}
	if r, ok := s.byName[token]; ok {
		return []*Record{r}, nil
	}
	if envs := s.groups[token]; len(envs) > 0 {
		return append([]*Record(nil), envs...), nil
	}
	if token == SelfName {
		r, err := s.self()
		if err != nil {
			return nil, err
		}
		return []*Record{r}, nil
	}
	return nil, &NotFoundError{Name: token, Suggestions: s.suggest(token)}
}

func (s *Store) self() (*Record, error) {
	cwd, err := s.getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", SelfName, err)
	}
	return &Record{Name: SelfName, Root: cwd}, nil
}

// suggest lists loaded names sharing the token's site, or containing it.
func (s *Store) suggest(token string) []string {
	needle := strings.TrimPrefix(token, Prefix)
	site, _, _ := strings.Cut(needle, ".")

	var matches []string
	for _, r := range s.records {
		name := strings.TrimPrefix(r.Name, Prefix)
		if strings.Contains(name, needle) || strings.HasPrefix(name, site+".") || strings.Contains(name, "."+site) {
			matches = append(matches, r.Name)
		}
	}
	sort.Strings(matches)
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	return matches
}

func namesOf(records []*Record, limit int) []string {
	names := make([]string, 0, len(records))
	for _, r := range records {
		if len(names) == limit {
			break
		}
		names = append(names, r.Name)
	}
	return names
}
