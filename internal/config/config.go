// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonpugh/ash/internal/issue"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application name.
	AppName = "ash"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "ash"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "yml"
	// EnvPrefix prefixes environment overrides (ASH_UI_VERBOSE).
	EnvPrefix = "ASH"
	// ConfigEnvVar names an extra config file merged last.
	ConfigEnvVar = "ASH_CONFIG"
)

// ConfigDir returns the ash home directory, ~/.ash on all platforms.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, "."+AppName), nil
}

// SitesDir returns the user-level alias directory, ~/.ash/sites.
func SitesDir() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, "sites"), nil
}

// ConfigFilePath returns the user-level config file path.
func ConfigFilePath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// Candidates lists config files in merge order for the given options. Files
// that do not exist are still listed; loading skips them.
func Candidates(opts LoadOptions) ([]string, error) {
	if opts.ConfigFilePath != "" {
		return []string{opts.ConfigFilePath}, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return nil, err
	}

	paths := []string{filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)}

	workDir := opts.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}
	local := filepath.Join(workDir, ConfigFileName+"."+ConfigFileExt)
	if local != paths[0] {
		paths = append(paths, local)
	}

	if explicit := os.Getenv(ConfigEnvVar); explicit != "" {
		paths = append(paths, explicit)
	}
	return paths, nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("alias_directories", defaults.AliasDirectories)
	v.SetDefault("exec.local_commands", defaults.Exec.LocalCommands)
	v.SetDefault("exec.uri_env", defaults.Exec.URIEnv)
	v.SetDefault("exec.path_dirs", defaults.Exec.PathDirs)
	v.SetDefault("exec.shell", defaults.Exec.Shell)
	v.SetDefault("ssh.client", defaults.SSH.Client)
	v.SetDefault("ssh.binary", defaults.SSH.Binary)
	v.SetDefault("ssh.options", defaults.SSH.Options)
	v.SetDefault("ssh.strict_host_key_checking", defaults.SSH.StrictHostKeyChecking)
	v.SetDefault("container.engine", defaults.Container.Engine)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	candidates, err := Candidates(opts)
	if err != nil {
		return nil, err
	}

	var sources []string
	for i, path := range candidates {
		// Only the --config path is required to exist; the rest are optional layers.
		required := opts.ConfigFilePath != "" || (i == len(candidates)-1 && os.Getenv(ConfigEnvVar) != "")
		if !fileExists(path) {
			if required {
				return nil, issue.NewErrorContext().
					WithOperation("load configuration").
					WithResource(path).
					WithIssue(issue.ConfigLoadFailedId).
					WithSuggestion("Verify the file path is correct").
					WithSuggestion("Use 'ash config show' to see the default configuration").
					Wrap(fmt.Errorf("config file not found: %s", path)).
					BuildError()
			}
			continue
		}
		if err := mergeYAMLIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid YAML").
				WithSuggestion("See 'ash config --help' for configuration options").
				Wrap(err).
				BuildError()
		}
		sources = append(sources, path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.AliasDirectories = expandHome(cfg.AliasDirectories)
	cfg.sources = sources

	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Run 'ash config show' to inspect the effective values").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// mergeYAMLIntoViper reads one YAML file and merges it over the current
// values, so later files override earlier ones key by key.
func mergeYAMLIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var configMap map[string]any
	if err := yaml.Unmarshal(data, &configMap); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if configMap == nil {
		return nil
	}

	// The original ash key lived under commands.site:exec; accept it as exec.*.
	if legacy, ok := legacyLocalCommands(configMap); ok {
		execMap, _ := configMap["exec"].(map[string]any)
		if execMap == nil {
			execMap = map[string]any{}
		}
		if _, set := execMap["local_commands"]; !set {
			execMap["local_commands"] = legacy
		}
		configMap["exec"] = execMap
		delete(configMap, "commands")
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func legacyLocalCommands(m map[string]any) (any, bool) {
	commands, ok := m["commands"].(map[string]any)
	if !ok {
		return nil, false
	}
	siteExec, ok := commands["site:exec"].(map[string]any)
	if !ok {
		return nil, false
	}
	local, ok := siteExec["local_commands"]
	return local, ok
}

func expandHome(dirs []string) []string {
	home, err := os.UserHomeDir()
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if err == nil && (dir == "~" || strings.HasPrefix(dir, "~/")) {
			dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
		out = append(out, dir)
	}
	return out
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureSitesDir creates ~/.ash/sites if it doesn't exist.
func EnsureSitesDir() error {
	dir, err := SitesDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// CreateDefaultConfig writes ~/.ash/ash.yml with default values unless the
// file already exists. It returns the path and whether a file was written.
func CreateDefaultConfig() (string, bool, error) {
	cfgPath, err := ConfigFilePath()
	if err != nil {
		return "", false, err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, false, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := GenerateYAML(DefaultConfig())
	if err != nil {
		return "", false, err
	}
	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, true, nil
}

// GenerateYAML renders cfg as a commented YAML document.
func GenerateYAML(cfg *Config) ([]byte, error) {
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# ash configuration\n")
	sb.WriteString("# Every key can be overridden with ASH_<SECTION>_<KEY> environment variables.\n\n")
	sb.Write(body)
	return []byte(sb.String()), nil
}
