// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jonpugh/ash/internal/alias"
	"github.com/jonpugh/ash/internal/dispatch"
	"github.com/jonpugh/ash/internal/transport"
	"github.com/jonpugh/ash/pkg/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// runOptions adjusts a single dispatch.
type runOptions struct {
	tty     bool
	workDir string
}

func newExecCommand(app *App, flags *rootFlagValues) *cobra.Command {
	execCmd := &cobra.Command{
		Use:     "exec <@alias> [command...]",
		Aliases: []string{"site:exec"},
		Short:   "Run a command in a site's environment",
		Long: `Run a command in a site's environment and exit with its status.

A single argument is run as a shell fragment; several arguments are run
as-is. Without a command an interactive login shell is opened.

ash @alias command... is shorthand for ash exec @alias command...`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnAlias(cmd.Context(), app, flags, args[0], args[1:], runOptions{})
		},
	}
	execCmd.Flags().SetInterspersed(false)
	return execCmd
}

func newShellCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var workDir string
	shellCmd := &cobra.Command{
		Use:     "shell <@alias> [command...]",
		Aliases: []string{"ssh", "site:ssh"},
		Short:   "Open a shell on a site",
		Long: `Open an interactive login shell on a site, or run a command with a
terminal attached.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnAlias(cmd.Context(), app, flags, args[0], args[1:], runOptions{tty: true, workDir: workDir})
		},
	}
	shellCmd.Flags().StringVar(&workDir, "cd", "", "directory to start in instead of the site root")
	shellCmd.Flags().SetInterspersed(false)
	return shellCmd
}

func newEachCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var parallel int
	eachCmd := &cobra.Command{
		Use:   "each <@alias|all> <command...>",
		Short: "Run a command on several sites",
		Long: `Run a command on every environment of a site, or on every alias
when the target is "all". Output lines are prefixed with the alias name.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEach(cmd.Context(), app, flags, args[0], args[1:], parallel)
		},
	}
	eachCmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "number of sites to run on at once")
	eachCmd.Flags().SetInterspersed(false)
	return eachCmd
}

// runOnAlias resolves name and dispatches command against it.
func runOnAlias(ctx context.Context, app *App, flags *rootFlagValues, name string, command []string, opts runOptions) error {
	rec, ws, err := lookupAlias(ctx, app, flags, name, nil)
	if err != nil {
		return err
	}

	tctx, err := app.resolver(ws).Resolve(rec, transport.Request{Command: command, TTY: opts.tty})
	if err != nil {
		return classifyError(err, "resolve alias", rec.Name, app.verbose)
	}
	if opts.workDir != "" {
		tctx = tctx.WithWorkDir(opts.workDir)
	}
	if app.verbose {
		renderDispatchTable(app.stderr, tctx, command)
	}

	res, err := app.NewRunner(ws.Config).Run(ctx, dispatch.Request{
		Context: tctx,
		Command: command,
		Stdin:   app.stdin,
		Stdout:  app.stdout,
		Stderr:  app.stderr,
	})
	if errors.Is(err, context.Canceled) {
		// Interrupted by the user; report it the way a shell would.
		return &ExitError{Code: types.ExitInterrupted}
	}
	if err != nil {
		return classifyError(err, "run command on", rec.Name, app.verbose)
	}
	if !res.ExitCode.IsSuccess() {
		return &ExitError{Code: res.ExitCode}
	}
	return nil
}

func runEach(ctx context.Context, app *App, flags *rootFlagValues, target string, command []string, parallel int) error {
	ws, err := app.open(ctx, flags, nil)
	if err != nil {
		return classifyError(err, "load aliases", "", app.verbose)
	}
	if target == "all" {
		target = ""
	}
	records, err := ws.Store.GetMultiple(target)
	if err != nil {
		return classifyError(err, "find aliases", target, app.verbose)
	}

	resolver := app.resolver(ws)
	contexts := make([]transport.Context, 0, len(records))
	failed := 0
	for _, rec := range records {
		tctx, err := resolver.Resolve(rec, transport.Request{Command: command})
		if err != nil {
			failed++
			fmt.Fprintf(app.stderr, "%s %s\n", ErrorStyle.Render("✗"), err)
			continue
		}
		contexts = append(contexts, tctx)
	}

	results := app.NewRunner(ws.Config).Each(ctx, contexts, command, dispatch.EachOptions{
		Parallel: parallel,
		Stdout:   app.stdout,
		Stderr:   app.stderr,
	})

	code := types.ExitSuccess
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Fprintf(app.stderr, "%s %s: %s\n", ErrorStyle.Render("✗"), CmdStyle.Render(r.Alias), formatErrorForDisplay(r.Err, app.verbose))
		case !r.Result.ExitCode.IsSuccess():
			failed++
			if code.IsSuccess() {
				code = r.Result.ExitCode
			}
			fmt.Fprintf(app.stderr, "%s %s exited with status %d\n", WarningStyle.Render("!"), CmdStyle.Render(r.Alias), r.Result.ExitCode)
		}
	}

	if failed == 0 {
		return nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return &ExitError{Code: types.ExitInterrupted}
	}
	if code.IsSuccess() {
		code = types.ExitFailure
	}
	return &ExitError{Code: code}
}

// renderDispatchTable shows what is about to run, for --verbose.
func renderDispatchTable(w io.Writer, c transport.Context, command []string) {
	cmdline := strings.Join(command, " ")
	if cmdline == "" {
		cmdline = c.Shell + " -l"
	}
	rows := [][]string{
		{"Alias", c.Alias},
		{"Transport", string(c.Transport)},
		{"Target", c.Target()},
		{"Directory", c.WorkDir},
		{"Command", cmdline},
	}
	if c.Demoted {
		rows[1][1] += " (" + string(alias.TransportDocker) + " command run locally)"
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 0 {
				return VerboseStyle.Bold(true).PaddingRight(1)
			}
			return VerboseStyle
		}).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}
