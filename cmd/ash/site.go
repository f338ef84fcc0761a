// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jonpugh/ash/internal/alias"
	"github.com/jonpugh/ash/internal/issue"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatYAML  = "yaml"
	formatJSON  = "json"
)

type listFlagValues struct {
	format string
	watch  bool
}

func newListCommand(app *App, flags *rootFlagValues) *cobra.Command {
	lf := &listFlagValues{}
	listCmd := &cobra.Command{
		Use:     "list [@alias] [dir...]",
		Aliases: []string{"ls", "sl", "site:list"},
		Short:   "List site aliases",
		Long: `List every alias ash can find, or the environments of one site.

Directory arguments are searched before the default locations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lf.watch {
				return runListWatch(cmd.Context(), app, flags, lf.format, args)
			}
			return listAliases(cmd.Context(), app, flags, lf.format, args)
		},
	}
	listCmd.Flags().StringVar(&lf.format, "format", formatTable, "output format: table, yaml or json")
	listCmd.Flags().BoolVarP(&lf.watch, "watch", "w", false, "re-render the list when alias files change")
	return listCmd
}

func newGetCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var format string
	getCmd := &cobra.Command{
		Use:     "get <@alias> [dir...]",
		Aliases: []string{"site:get"},
		Short:   "Show every field of an alias",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, _, err := lookupAlias(cmd.Context(), app, flags, args[0], args[1:])
			if err != nil {
				return err
			}
			return writeStructured(app.stdout, format, rec.Export())
		},
	}
	getCmd.Flags().StringVar(&format, "format", formatYAML, "output format: yaml or json")
	return getCmd
}

func newValueCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:     "value <@alias> <key> [dir...]",
		Aliases: []string{"site:value"},
		Short:   "Print one field of an alias",
		Long: `Print one field of an alias. Nested keys are joined with dots,
for example docker.service.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, _, err := lookupAlias(cmd.Context(), app, flags, args[0], args[2:])
			if err != nil {
				return err
			}
			return printValue(app.stdout, rec, args[1])
		},
	}
}

func newSpecCommand(app *App) *cobra.Command {
	var format string
	specCmd := &cobra.Command{
		Use:     "spec <site-spec>",
		Aliases: []string{"site-spec:parse"},
		Short:   "Parse a site specification into alias fields",
		Long: `Parse a site specification of the form [user@]host[:port]/path#uri
or /path#uri and print the alias fields it describes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := alias.ParseSiteSpec(args[0])
			if err != nil {
				return classifyError(err, "parse site spec", args[0], app.verbose)
			}
			return writeStructured(app.stdout, format, rec.Export())
		},
	}
	specCmd.Flags().StringVar(&format, "format", formatYAML, "output format: yaml or json")
	return specCmd
}

func newSchemaCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "schema",
		Aliases: []string{"site:schema"},
		Short:   "Print the CUE schema alias files are checked against",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := app.stdout.Write(alias.Schema())
			return err
		},
	}
}

// lookupAlias opens the workspace with dirs and resolves name.
func lookupAlias(ctx context.Context, app *App, flags *rootFlagValues, name string, dirs []string) (*alias.Record, *Workspace, error) {
	ws, err := app.open(ctx, flags, dirs)
	if err != nil {
		return nil, nil, classifyError(err, "load aliases", "", app.verbose)
	}
	rec, err := ws.Store.Get(name)
	if err != nil {
		return nil, nil, classifyError(err, "find alias", name, app.verbose)
	}
	return rec, ws, nil
}

func listAliases(ctx context.Context, app *App, flags *rootFlagValues, format string, args []string) error {
	split := alias.SplitArgs(args)
	ws, err := app.open(ctx, flags, split.Dirs)
	if err != nil {
		return classifyError(err, "load aliases", "", app.verbose)
	}
	records, err := ws.Store.GetMultiple(split.Alias)
	if err != nil {
		return classifyError(err, "list aliases", split.Alias, app.verbose)
	}

	if format == formatTable {
		renderAliasTable(app.stdout, app.stderr, records)
		return nil
	}
	out := make(map[string]map[string]any, len(records))
	for _, r := range records {
		out[r.Name] = r.Export()
	}
	return writeStructured(app.stdout, format, out)
}

// renderAliasTable prints Name, URI and Location columns in load order.
func renderAliasTable(stdout, stderr io.Writer, records []*alias.Record) {
	if len(records) == 0 {
		fmt.Fprintln(stderr, SubtitleStyle.Render("No aliases found."))
		return
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Name, r.URI, aliasLocation(r)})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers("Name", "URI", "Location").
		Rows(rows...)
	fmt.Fprintln(stdout, t.Render())
}

// aliasLocation renders where a site lives: [user@]host:root or root.
func aliasLocation(r *alias.Record) string {
	if r.Host == "" {
		return r.Root
	}
	loc := r.Host
	if r.User != "" {
		loc = r.User + "@" + loc
	}
	return loc + ":" + r.Root
}

// printValue writes scalars verbatim and structured values as YAML.
func printValue(w io.Writer, rec *alias.Record, key string) error {
	v, ok := rec.Lookup(key)
	if !ok {
		nf := &alias.NotFoundError{Name: rec.Name, Key: key}
		return newServiceError(nf, issue.AliasKeyNotFoundId, ErrorStyle.Render(nf.Error())+"\n")
	}
	switch v.(type) {
	case map[string]any, []any:
		return writeStructured(w, formatYAML, v)
	default:
		_, err := fmt.Fprintln(w, v)
		return err
	}
}

func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want %s or %s)", format, formatYAML, formatJSON)
	}
}
