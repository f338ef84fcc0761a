// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonpugh/ash/internal/alias"
	"github.com/jonpugh/ash/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `ash config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage ash configuration",
		Long: `Manage ash configuration.

Configuration is merged from ~/.ash/ash.yml, ./ash.yml and the file named
by ASH_CONFIG, in that order. --config replaces all three.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app, flags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app, flags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app)
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, flags *rootFlagValues) error {
	cwd, err := alias.WorkingDir()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath, WorkDir: cwd})
	if err != nil {
		return classifyError(err, "load configuration", flags.configPath, app.verbose)
	}

	fmt.Fprintln(app.stderr, TitleStyle.Render("Current Configuration"))
	if sources := cfg.Sources(); len(sources) == 0 {
		fmt.Fprintf(app.stderr, "%s: %s\n", CmdStyle.Render("Config files"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(app.stderr, "%s:\n", CmdStyle.Render("Config files"))
		for _, src := range sources {
			fmt.Fprintf(app.stderr, "  - %s\n", src)
		}
	}
	fmt.Fprintln(app.stderr)

	content, err := config.GenerateYAML(cfg)
	if err != nil {
		return err
	}
	_, err = app.stdout.Write(content)
	return err
}

func showConfigPath(app *App, flags *rootFlagValues) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	sitesDir, err := config.SitesDir()
	if err != nil {
		return err
	}
	cwd, err := alias.WorkingDir()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	candidates, err := config.Candidates(config.LoadOptions{ConfigFilePath: flags.configPath, WorkDir: cwd})
	if err != nil {
		return err
	}

	fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(app.stdout, "Sites directory: %s\n", sitesDir)
	fmt.Fprintln(app.stdout, "Config files:")
	for _, path := range candidates {
		marker := SubtitleStyle.Render("(missing)")
		if _, statErr := os.Stat(path); statErr == nil {
			marker = SuccessStyle.Render("(found)")
		}
		fmt.Fprintf(app.stdout, "  %s %s\n", path, marker)
	}
	return nil
}

func initConfig(app *App) error {
	path, written, err := config.CreateDefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if written {
		fmt.Fprintf(app.stderr, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	} else {
		fmt.Fprintf(app.stderr, "%s Configuration already exists at %s\n", SubtitleStyle.Render("•"), path)
	}

	sitesDir, err := config.SitesDir()
	if err != nil {
		slog.Warn("failed to determine sites directory", "error", err)
		return nil
	}
	if err := config.EnsureSitesDir(); err != nil {
		slog.Warn("failed to create sites directory", "path", sitesDir, "error", err)
		return nil
	}
	fmt.Fprintf(app.stderr, "%s Alias directory is %s\n", SuccessStyle.Render("✓"), sitesDir)
	return nil
}
