// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/jonpugh/ash/internal/dispatch"
	"github.com/jonpugh/ash/internal/transport"

	"github.com/spf13/cobra"
)

// initReportCommands run in the site root after a successful init.
var initReportCommands = [][]string{
	{"git", "show", "--compact-summary"},
	{"git", "status"},
}

func newInitCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:     "init <@alias>",
		Aliases: []string{"site:init"},
		Short:   "Clone a local site's codebase and check out its reference",
		Long: `Prepare a local site's root directory. When the root does not exist it
is cloned from git_remote; git_reference is then checked out when set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.Context(), app, flags, args[0])
		},
	}
}

func runInit(ctx context.Context, app *App, flags *rootFlagValues, name string) error {
	rec, ws, err := lookupAlias(ctx, app, flags, name, nil)
	if err != nil {
		return err
	}

	res, err := app.Provisioner.Init(ctx, rec)
	if err != nil {
		return classifyError(err, "initialize site", rec.Name, app.verbose)
	}
	if res.Cloned {
		fmt.Fprintf(app.stderr, "%s Cloned %s into %s\n", SuccessStyle.Render("✓"), rec.GitRemote, res.Root)
	} else {
		fmt.Fprintf(app.stderr, "%s Using existing codebase at %s\n", SuccessStyle.Render("✓"), res.Root)
	}
	if res.Reference != "" {
		fmt.Fprintf(app.stderr, "%s Checked out %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(res.Reference))
	}

	resolver := app.resolver(ws)
	runner := app.NewRunner(ws.Config)
	for _, command := range initReportCommands {
		tctx, err := resolver.Resolve(rec, transport.Request{Command: command})
		if err != nil {
			return classifyError(err, "resolve alias", rec.Name, app.verbose)
		}
		out, err := runner.Run(ctx, dispatch.Request{
			Context: tctx.WithWorkDir(res.Root),
			Command: command,
			Stdout:  app.stdout,
			Stderr:  app.stderr,
			Timeout: dispatch.InternalTimeout,
		})
		if err != nil {
			return classifyError(err, "run command on", rec.Name, app.verbose)
		}
		if !out.ExitCode.IsSuccess() {
			return &ExitError{Code: out.ExitCode}
		}
	}
	return nil
}
