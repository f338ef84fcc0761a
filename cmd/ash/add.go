// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonpugh/ash/internal/alias"
	"github.com/jonpugh/ash/internal/config"

	"github.com/spf13/cobra"
)

type addFlagValues struct {
	name          string
	root          string
	dir           string
	force         bool
	noInteraction bool
}

func newAddCommand(app *App, flags *rootFlagValues) *cobra.Command {
	af := &addFlagValues{}
	addCmd := &cobra.Command{
		Use:     "add",
		Aliases: []string{"site:add"},
		Short:   "Create an alias file for a local site",
		Long: `Write <name>.site.yml with a default environment rooted at a local
directory. Missing values are asked for unless --no-interaction is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAdd(app, af)
		},
	}
	addCmd.Flags().StringVar(&af.name, "name", "", "site name (default derived from the root directory)")
	addCmd.Flags().StringVar(&af.root, "root", "", "site root directory (default is the current directory)")
	addCmd.Flags().StringVar(&af.dir, "dir", "", "directory to write the alias file to (default is ~/.ash/sites)")
	addCmd.Flags().BoolVarP(&af.force, "force", "f", false, "overwrite an existing alias file")
	addCmd.Flags().BoolVarP(&af.noInteraction, "no-interaction", "n", false, "never prompt")
	return addCmd
}

func runAdd(app *App, af *addFlagValues) error {
	root, name, dir := af.root, af.name, af.dir
	interactive := !af.noInteraction

	if root == "" {
		cwd, err := alias.WorkingDir()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		root = cwd
	}
	if interactive {
		if err := app.Prompter.Input("Site root", "Directory holding the site codebase", &root, requireValue); err != nil {
			return promptError(err)
		}
	}

	if name == "" {
		name = alias.SuggestName(root)
	}
	if interactive {
		if err := app.Prompter.Input("Site name", "Used as @name in commands", &name, validateSiteName); err != nil {
			return promptError(err)
		}
	} else if err := validateSiteName(name); err != nil {
		return err
	}

	if dir == "" {
		sites, err := config.SitesDir()
		if err != nil {
			return err
		}
		dir = sites
	}

	force := af.force
	path, err := alias.WriteFile(dir, name, root, force)
	if errors.Is(err, alias.ErrAliasFileExists) && interactive {
		ok, promptErr := app.Prompter.Confirm(fmt.Sprintf("%s already exists. Overwrite it?", path))
		if promptErr != nil {
			return promptError(promptErr)
		}
		if !ok {
			fmt.Fprintln(app.stderr, SubtitleStyle.Render("Nothing written."))
			return nil
		}
		path, err = alias.WriteFile(dir, name, root, true)
	}
	if err != nil {
		return classifyError(err, "write alias file", alias.Prefix+name, app.verbose)
	}

	fmt.Fprintf(app.stderr, "%s Wrote %s to %s\n", SuccessStyle.Render("✓"),
		CmdStyle.Render(alias.Prefix+name+"."+alias.DefaultEnv), path)
	return nil
}

func requireValue(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("a value is required")
	}
	return nil
}

func validateSiteName(s string) error {
	if !alias.ValidSegment(s) {
		return fmt.Errorf("site name %q: %w", s, alias.ErrInvalidName)
	}
	return nil
}

// promptError turns a cancelled prompt into a quiet failure.
func promptError(err error) error {
	if errors.Is(err, ErrPromptAborted) {
		return &ExitError{Code: 130}
	}
	return err
}
