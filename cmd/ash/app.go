// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jonpugh/ash/internal/alias"
	"github.com/jonpugh/ash/internal/config"
	"github.com/jonpugh/ash/internal/container"
	"github.com/jonpugh/ash/internal/dispatch"
	"github.com/jonpugh/ash/internal/provision"
	"github.com/jonpugh/ash/internal/transport"

	"github.com/charmbracelet/lipgloss"
)

// AliasFileEnvVar names an alias file searched before every other location.
const AliasFileEnvVar = "ASH_ALIAS_FILE"

type (
	// App wires CLI services and shared dependencies. All cobra handlers
	// receive an App and reach configuration, aliases and dispatch through it.
	App struct {
		Config      config.Provider
		Aliases     AliasService
		Diagnostics DiagnosticRenderer
		Prompter    Prompter
		Provisioner Provisioner
		NewRunner   RunnerFactory

		resolverOpts []transport.Option
		verbose      bool
		glamourStyle string
		stdin        io.Reader
		stdout       io.Writer
		stderr       io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config      config.Provider
		Aliases     AliasService
		Diagnostics DiagnosticRenderer
		Prompter    Prompter
		Provisioner Provisioner
		NewRunner   RunnerFactory
		// ResolverOptions are applied to every transport.Resolver the App builds.
		ResolverOptions []transport.Option
		Stdin           io.Reader
		Stdout          io.Writer
		Stderr          io.Writer
	}

	// OpenRequest selects the configuration and extra alias directories for
	// one invocation.
	OpenRequest struct {
		// ConfigPath is the explicit --config value.
		ConfigPath string
		// Dirs are search directories taken from the command line.
		Dirs []string
	}

	// Workspace is the loaded configuration and alias store of one invocation.
	Workspace struct {
		Config *config.Config
		Store  *alias.Store
		Load   *alias.LoadResult
	}

	// AliasService loads configuration and aliases.
	AliasService interface {
		Open(ctx context.Context, req OpenRequest) (*Workspace, error)
	}

	// Runner dispatches commands. *dispatch.Dispatcher implements it.
	Runner interface {
		Run(ctx context.Context, req dispatch.Request) (*dispatch.Result, error)
		Each(ctx context.Context, contexts []transport.Context, command []string, opts dispatch.EachOptions) []dispatch.EachResult
	}

	// RunnerFactory builds a Runner for the loaded configuration.
	RunnerFactory func(cfg *config.Config) Runner

	// Provisioner prepares a local site codebase.
	Provisioner interface {
		Init(ctx context.Context, rec *alias.Record) (*provision.Result, error)
	}

	// DiagnosticRenderer renders loader diagnostics.
	DiagnosticRenderer interface {
		Render(ctx context.Context, diags []alias.Diagnostic, stderr io.Writer, verbose bool)
	}

	aliasService struct {
		config config.Provider
		// configDir overrides ~/.ash when set.
		configDir string
		getwd     func() (string, error)
		getenv    func(string) string
	}

	defaultDiagnosticRenderer struct{}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Aliases == nil {
		deps.Aliases = newAliasService(deps.Config)
	}
	if deps.Diagnostics == nil {
		deps.Diagnostics = &defaultDiagnosticRenderer{}
	}
	if deps.Prompter == nil {
		deps.Prompter = newHuhPrompter(deps.Stderr)
	}
	if deps.Provisioner == nil {
		deps.Provisioner = provision.New(provision.WithProgress(deps.Stderr))
	}
	if deps.NewRunner == nil {
		deps.NewRunner = newDispatcher
	}

	return &App{
		Config:       deps.Config,
		Aliases:      deps.Aliases,
		Diagnostics:  deps.Diagnostics,
		Prompter:     deps.Prompter,
		Provisioner:  deps.Provisioner,
		NewRunner:    deps.NewRunner,
		resolverOpts: deps.ResolverOptions,
		glamourStyle: "dark",
		stdin:        deps.Stdin,
		stdout:       deps.Stdout,
		stderr:       deps.Stderr,
	}
}

// newDispatcher is the production RunnerFactory.
func newDispatcher(cfg *config.Config) Runner {
	engineType := container.EngineType(cfg.Container.Engine)
	return dispatch.New(cfg.SSH, dispatch.WithEngine(func() (container.Engine, error) {
		return container.NewEngine(engineType)
	}))
}

// resolver builds a transport resolver for the workspace configuration.
func (a *App) resolver(ws *Workspace) *transport.Resolver {
	return transport.NewResolver(ws.Config.Exec, a.resolverOpts...)
}

// open loads the workspace and renders its diagnostics.
func (a *App) open(ctx context.Context, flags *rootFlagValues, dirs []string) (*Workspace, error) {
	ws, err := a.Aliases.Open(ctx, OpenRequest{ConfigPath: flags.configPath, Dirs: dirs})
	if err != nil {
		return nil, err
	}
	if ws.Config.UI.Verbose && !a.verbose {
		a.setVerbose(true)
	}
	a.glamourStyle = ws.Config.UI.ColorScheme.GlamourStyle(lipgloss.HasDarkBackground())
	a.Diagnostics.Render(ctx, ws.Load.Diagnostics, a.stderr, a.verbose)
	return ws, nil
}

func newAliasService(provider config.Provider) *aliasService {
	return &aliasService{
		config: provider,
		getwd:  alias.WorkingDir,
		getenv: os.Getenv,
	}
}

// Open loads configuration, registers search locations in precedence order
// and loads every alias file.
func (s *aliasService) Open(ctx context.Context, req OpenRequest) (*Workspace, error) {
	cwd, err := s.getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := s.config.Load(ctx, config.LoadOptions{
		ConfigFilePath: req.ConfigPath,
		ConfigDirPath:  s.configDir,
		WorkDir:        cwd,
	})
	if err != nil {
		return nil, err
	}

	locations, err := s.locations(cfg, cwd, req.Dirs)
	if err != nil {
		return nil, err
	}
	store := alias.NewStore(alias.WithGetwd(s.getwd))
	for _, loc := range locations {
		store.AddSearchLocation(loc)
	}

	res, err := alias.NewLoader().Load(ctx, store)
	if err != nil {
		return nil, err
	}
	return &Workspace{Config: cfg, Store: store, Load: res}, nil
}

// locations lists search locations, earliest wins: the ASH_ALIAS_FILE file,
// command-line directories, ./drush/sites, alias_directories, ~/.ash/sites.
// The two implicit directories are only added when they exist.
func (s *aliasService) locations(cfg *config.Config, cwd string, dirs []string) ([]string, error) {
	var out []string
	if file := s.getenv(AliasFileEnvVar); file != "" {
		out = append(out, file)
	}
	out = append(out, dirs...)

	if project := filepath.Join(cwd, "drush", "sites"); isDir(project) {
		out = append(out, project)
	}

	out = append(out, cfg.AliasDirectories...)

	cfgDir := s.configDir
	if cfgDir == "" {
		var err error
		if cfgDir, err = config.ConfigDir(); err != nil {
			return nil, err
		}
	}
	if sites := filepath.Join(cfgDir, "sites"); isDir(sites) {
		out = append(out, sites)
	}
	return out, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Render prints warnings always and informational diagnostics when verbose.
func (r *defaultDiagnosticRenderer) Render(_ context.Context, diags []alias.Diagnostic, stderr io.Writer, verbose bool) {
	for _, diag := range diags {
		var prefix string
		switch diag.Severity {
		case alias.SeverityInfo:
			if !verbose {
				continue
			}
			prefix = VerboseStyle.Render("info")
		default:
			prefix = WarningStyle.Render("warning")
		}

		_, _ = fmt.Fprintf(stderr, "%s: %s\n", prefix, diag.Message)
	}
}
