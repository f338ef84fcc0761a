// SPDX-License-Identifier: MPL-2.0

// Package watch reports changes to alias definition files.
//
// A Watcher monitors a set of search locations (directories and single
// files) and invokes a callback after a debounce period. Events within the
// debounce window are coalesced so the callback fires once with every changed
// path. Directories are watched together with their immediate
// subdirectories, matching how the loader scans them.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the delay before firing the callback after the last
// event. Editors that write then rename a temp file produce several events.
const defaultDebounce = 300 * time.Millisecond

// defaultIgnores lists patterns that never trigger callbacks.
var defaultIgnores = []string{
	"**/.git/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Paths are the locations to watch. Directories are watched one
		// level deep; a file is watched through its parent directory.
		// Missing paths are skipped.
		Paths []string

		// Patterns are doublestar globs, relative to the watched directory,
		// that select which files trigger callbacks. Empty matches all files.
		// Files listed directly in Paths always match.
		Patterns []string

		// Ignore are extra doublestar globs merged with the defaults.
		Ignore []string

		// Debounce is the quiet period after the last event. Zero or negative
		// values fall back to defaultDebounce.
		Debounce time.Duration

		// ClearScreen writes an ANSI clear sequence to Stdout before each
		// callback.
		ClearScreen bool

		// OnChange receives the absolute paths changed since the last call.
		OnChange func(ctx context.Context, changed []string) error

		// Stdout and Stderr default to os.Stdout / os.Stderr.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Watcher monitors alias locations. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		stdout   io.Writer
		stderr   io.Writer
		debounce time.Duration
		// roots are the watched directories; files are listed files.
		roots   []string
		files   map[string]bool
		started atomic.Bool
	}
)

// New creates a Watcher and registers every existing location.
func New(cfg Config) (*Watcher, error) {
	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		stdout:   cfg.Stdout,
		stderr:   cfg.Stderr,
		debounce: cfg.Debounce,
		files:    map[string]bool{},
	}
	if w.stdout == nil {
		w.stdout = os.Stdout
	}
	if w.stderr == nil {
		w.stderr = os.Stderr
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}

	for _, p := range cfg.Paths {
		if err := w.addLocation(p); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Watched returns the directories registered with the underlying watcher.
func (w *Watcher) Watched() []string {
	list := w.fsw.WatchList()
	slices.Sort(list)
	return list
}

// Run blocks until ctx is cancelled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when the watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire runs at most one callback at a time. A busy callback re-arms the
	// timer so the pending set is delivered later.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			fmt.Fprintf(w.stderr, "watch: skipping reload (previous run still in progress)\n")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.ClearScreen {
			fmt.Fprint(w.stdout, "\033[2J\033[H")
		}
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				fmt.Fprintf(w.stderr, "watch: callback error: %v\n", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			fmt.Fprintf(w.stderr, "watch: close fsnotify: %v\n", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			if !w.relevant(evt.Name) {
				continue
			}

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			fmt.Fprintf(w.stderr, "watch: fsnotify error: %v\n", err)
		}
	}
}

func (w *Watcher) addLocation(p string) error {
	abs, err := filepath.Abs(p)
	if err != nil {
		return fmt.Errorf("watch: resolve %q: %w", p, err)
	}
	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(w.stderr, "watch: skipping missing location %q\n", abs)
		return nil
	}
	if err != nil {
		return fmt.Errorf("watch: stat %q: %w", abs, err)
	}

	if !info.IsDir() {
		w.files[abs] = true
		return w.add(filepath.Dir(abs))
	}

	w.roots = append(w.roots, abs)
	if err := w.add(abs); err != nil {
		return err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		fmt.Fprintf(w.stderr, "watch: cannot list %q: %v\n", abs, err)
		return nil
	}
	for _, e := range entries {
		if e.IsDir() {
			w.maybeAddDir(filepath.Join(abs, e.Name()))
		}
	}
	return nil
}

func (w *Watcher) add(dir string) error {
	if slices.Contains(w.fsw.WatchList(), dir) {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch: add directory %q: %w", dir, err)
	}
	return nil
}

// maybeAddDir registers path when it is a non-ignored directory directly
// below a watched root.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	root, rel, ok := w.underRoot(path)
	// Probe a child name so directory patterns like **/.git/** apply.
	if !ok || filepath.Dir(path) != root || w.isIgnored(filepath.Join(rel, "_")) {
		return
	}
	if err := w.add(path); err != nil {
		fmt.Fprintf(w.stderr, "%v\n", err)
	}
}

// relevant reports whether an event on path should schedule a callback.
func (w *Watcher) relevant(path string) bool {
	if w.files[path] {
		return true
	}
	_, rel, ok := w.underRoot(path)
	if !ok || w.isIgnored(rel) {
		return false
	}
	return w.matchesPatterns(rel)
}

// underRoot finds the watched root containing path.
func (w *Watcher) underRoot(path string) (root, rel string, ok bool) {
	for _, r := range w.roots {
		rel, err := filepath.Rel(r, path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return r, rel, true
	}
	return "", "", false
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) matchesPatterns(rel string) bool {
	if len(w.cfg.Patterns) == 0 {
		return true
	}
	return matchAny(w.cfg.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if pat == "" {
			return fmt.Errorf("watch: empty %s pattern", label)
		}
		if _, err := doublestar.Match(pat, ""); err != nil {
			return fmt.Errorf("watch: invalid %s pattern %q: %w", label, pat, err)
		}
	}
	return nil
}
