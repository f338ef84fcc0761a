// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/jonpugh/ash/internal/alias"
	"github.com/jonpugh/ash/internal/watch"
)

// aliasFilePatterns selects the files whose changes re-render a watched list.
var aliasFilePatterns = []string{"**/*.site.{yml,yaml,toml,cue}"}

// runListWatch renders the alias list, then re-renders it whenever an alias
// file in one of the search locations changes. It blocks until ctx is done.
func runListWatch(ctx context.Context, app *App, flags *rootFlagValues, format string, args []string) error {
	render := func() error {
		return listAliases(ctx, app, flags, format, args)
	}
	if err := render(); err != nil {
		// Keep watching; the user may fix the file and save again.
		fmt.Fprintf(app.stderr, "%s Initial listing failed: %s\n", WarningStyle.Render("!"), formatErrorForDisplay(err, app.verbose))
	}

	split := alias.SplitArgs(args)
	ws, err := app.Aliases.Open(ctx, OpenRequest{ConfigPath: flags.configPath, Dirs: split.Dirs})
	if err != nil {
		return classifyError(err, "load aliases", "", app.verbose)
	}

	w, err := watch.New(watch.Config{
		Paths:       ws.Store.SearchLocations(),
		Patterns:    aliasFilePatterns,
		ClearScreen: true,
		OnChange: func(_ context.Context, changed []string) error {
			fmt.Fprintf(app.stderr, "%s Detected %d change(s). Reloading aliases...\n", VerboseStyle.Render("→"), len(changed))
			if err := render(); err != nil {
				fmt.Fprintf(app.stderr, "%s Reload failed: %s\n", WarningStyle.Render("!"), formatErrorForDisplay(err, app.verbose))
			}
			return nil
		},
		Stdout: app.stdout,
		Stderr: app.stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Fprintf(app.stderr, "\n%s Watching %d location(s) for changes (Ctrl+C to stop)...\n", VerboseStyle.Render("→"), len(w.Watched()))
	return w.Run(ctx)
}
