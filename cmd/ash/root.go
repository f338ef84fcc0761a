// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonpugh/ash/internal/alias"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	configPath string
	verbose    bool
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "ash",
		Short: "Run commands against your site aliases",
		Long: TitleStyle.Render("ash") + SubtitleStyle.Render(" - run commands against your site aliases") + `

ash reads *.site.yml alias files and runs commands in each site's
environment: locally, over ssh, or inside a docker container.

` + SubtitleStyle.Render("Examples:") + `
  ash list                      List every alias ash can find
  ash @shop.prod drush status   Run drush on the shop production site
  ash shell @shop.prod          Open a login shell on the site
  ash each @shop git pull       Run a command on every shop environment`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			app.setVerbose(flags.verbose)
		},
	}
	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is ~/.ash/ash.yml)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(
		newListCommand(app, flags),
		newGetCommand(app, flags),
		newValueCommand(app, flags),
		newExecCommand(app, flags),
		newShellCommand(app, flags),
		newEachCommand(app, flags),
		newInitCommand(app, flags),
		newAddCommand(app, flags),
		newSpecCommand(app),
		newSchemaCommand(app),
		newConfigCommand(app, flags),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI with args (without the program name) and returns the
// process exit code.
func Execute(ctx context.Context, args []string) int {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)

	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			if !app.renderError(w, err) {
				fang.DefaultErrorHandler(w, styles, err)
			}
		}),
	)
	return exitCode(err)
}

// exitCode maps a command error to a process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return int(exitErr.Code)
	}
	return 1
}

// renderError prints errors ash knows how to present. It reports false for
// anything else, such as cobra usage errors.
func (a *App) renderError(w io.Writer, err error) bool {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return true
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		renderServiceError(w, svcErr, a.verbose, a.glamourStyle)
		return true
	}
	return false
}

// setVerbose installs the charmbracelet logger as the slog default. Debug
// output is enabled by --verbose or ui.verbose.
func (a *App) setVerbose(verbose bool) {
	a.verbose = a.verbose || verbose
	level := log.WarnLevel
	if a.verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: "ash",
		Level:  level,
	})
	slog.SetDefault(slog.New(logger))
}

// RewriteArgs turns shorthand invocations into explicit exec commands.
// invokedAs is the program name. "ash @site.env cmd" becomes
// "ash exec @site.env cmd". Under a name ending in drush, every invocation
// runs drush: "drush @site.env st" becomes "exec @site.env drush st" and
// "drush st" becomes "exec @self drush st".
func RewriteArgs(invokedAs string, args []string) []string {
	name := strings.TrimSuffix(filepath.Base(invokedAs), filepath.Ext(invokedAs))
	if strings.HasSuffix(name, "drush") {
		if len(args) > 0 && alias.IsAliasToken(args[0]) {
			return append([]string{"exec", args[0], "drush"}, args[1:]...)
		}
		return append([]string{"exec", alias.SelfName, "drush"}, args...)
	}

	i := 0
	for i < len(args) && strings.HasPrefix(args[i], "-") {
		if args[i] == "--" {
			return args
		}
		if args[i] == "--config" {
			i++
		}
		i++
	}
	if i >= len(args) || !alias.IsAliasToken(args[i]) {
		return args
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[:i]...)
	out = append(out, "exec")
	return append(out, args[i:]...)
}
