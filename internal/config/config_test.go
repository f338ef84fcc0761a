// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonpugh/ash/internal/issue"
	"github.com/jonpugh/ash/internal/testutil"
)

// isolate points the config dir and cwd at fresh temp dirs and clears ASH_CONFIG.
func isolate(t *testing.T) (cfgDir, workDir string) {
	t.Helper()
	cfgDir = t.TempDir()
	workDir = t.TempDir()
	SetConfigDirOverride(cfgDir)
	t.Cleanup(Reset)
	t.Cleanup(testutil.MustUnsetenv(t, ConfigEnvVar))
	return cfgDir, workDir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if got := strings.Join(cfg.Exec.LocalCommands, ","); got != "git" {
		t.Errorf("default local commands = %q, want git", got)
	}
	if cfg.Exec.URIEnv != "DRUSH_OPTIONS_URI" {
		t.Errorf("default uri env = %q", cfg.Exec.URIEnv)
	}
	if got := strings.Join(cfg.Exec.PathDirs, ":"); got != "vendor/bin:bin" {
		t.Errorf("default path dirs = %q", got)
	}
	if cfg.SSH.Client != SSHClientOpenSSH {
		t.Errorf("default ssh client = %q", cfg.SSH.Client)
	}
	if !cfg.SSH.StrictHostKeyChecking {
		t.Error("strict host key checking should default to true")
	}
	if cfg.Container.Engine != ContainerEngineDocker {
		t.Errorf("default engine = %q", cfg.Container.Engine)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("default config should be valid: %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Cleanup(testutil.SetHomeDir(t, home))
	Reset()

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join(home, ".ash"); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}

	sites, err := SitesDir()
	if err != nil {
		t.Fatalf("SitesDir() returned error: %v", err)
	}
	if want := filepath.Join(home, ".ash", "sites"); sites != want {
		t.Errorf("SitesDir() = %s, want %s", sites, want)
	}
}

func TestLoad_ReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	_, workDir := isolate(t)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{WorkDir: workDir})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Exec.URIEnv != "DRUSH_OPTIONS_URI" {
		t.Errorf("uri env = %q", cfg.Exec.URIEnv)
	}
	if len(cfg.Sources()) != 0 {
		t.Errorf("Sources() = %v, want none", cfg.Sources())
	}
}

func TestLoad_MergesLayersInOrder(t *testing.T) {
	cfgDir, workDir := isolate(t)

	home := testutil.WriteFile(t, cfgDir, "ash.yml", `
alias_directories:
  - /srv/aliases
exec:
  shell: zsh
  uri_env: SITE_URI
`)
	local := testutil.WriteFile(t, workDir, "ash.yml", `
exec:
  shell: fish
`)
	extra := testutil.WriteFile(t, t.TempDir(), "extra.yml", `
ssh:
  client: native
`)
	t.Cleanup(testutil.MustSetenv(t, ConfigEnvVar, extra))

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{WorkDir: workDir})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Exec.Shell != "fish" {
		t.Errorf("shell = %q, want fish (./ash.yml overrides home)", cfg.Exec.Shell)
	}
	if cfg.Exec.URIEnv != "SITE_URI" {
		t.Errorf("uri env = %q, want SITE_URI from home config", cfg.Exec.URIEnv)
	}
	if cfg.SSH.Client != SSHClientNative {
		t.Errorf("ssh client = %q, want native from $ASH_CONFIG", cfg.SSH.Client)
	}
	if len(cfg.AliasDirectories) != 1 || cfg.AliasDirectories[0] != "/srv/aliases" {
		t.Errorf("alias directories = %v", cfg.AliasDirectories)
	}

	want := []string{home, local, extra}
	if got := cfg.Sources(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Sources() = %v, want %v", got, want)
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	_, workDir := isolate(t)
	t.Setenv("ASH_EXEC_URI_ENV", "MY_URI")
	t.Setenv("ASH_UI_VERBOSE", "true")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{WorkDir: workDir})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Exec.URIEnv != "MY_URI" {
		t.Errorf("uri env = %q, want MY_URI", cfg.Exec.URIEnv)
	}
	if !cfg.UI.Verbose {
		t.Error("ASH_UI_VERBOSE should enable verbose")
	}
}

func TestLoad_LegacyLocalCommandsKey(t *testing.T) {
	cfgDir, workDir := isolate(t)
	testutil.WriteFile(t, cfgDir, "ash.yml", `
commands:
  site:exec:
    local_commands: [git, composer]
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{WorkDir: workDir})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if got := strings.Join(cfg.Exec.LocalCommands, ","); got != "git,composer" {
		t.Errorf("local commands = %q, want git,composer", got)
	}
}

func TestLoad_CustomPath_NotFound_ReturnsError(t *testing.T) {
	_, workDir := isolate(t)
	missing := filepath.Join(t.TempDir(), "nope.yml")

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: missing, WorkDir: workDir})
	if err == nil {
		t.Fatal("expected error for missing --config file")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error should be *issue.ActionableError, got %T", err)
	}
	if ae.Resource != missing {
		t.Errorf("Resource = %q, want %q", ae.Resource, missing)
	}
	if ae.IssueID != issue.ConfigLoadFailedId {
		t.Errorf("IssueID = %d", ae.IssueID)
	}
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	cfgDir, workDir := isolate(t)
	path := testutil.WriteFile(t, cfgDir, "ash.yml", "exec: [unterminated\n")

	_, err := NewProvider().Load(context.Background(), LoadOptions{WorkDir: workDir})
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the file, got: %v", err)
	}
}

func TestLoad_InvalidValues_ReturnsError(t *testing.T) {
	cfgDir, workDir := isolate(t)
	testutil.WriteFile(t, cfgDir, "ash.yml", "container:\n  engine: lxc\n")

	_, err := NewProvider().Load(context.Background(), LoadOptions{WorkDir: workDir})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, ErrInvalidContainerEngine) {
		t.Errorf("error should wrap ErrInvalidContainerEngine, got: %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	cfgDir, workDir := isolate(t)

	path, created, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() returned error: %v", err)
	}
	if !created || path != filepath.Join(cfgDir, "ash.yml") {
		t.Errorf("CreateDefaultConfig() = %q, %v", path, created)
	}

	if _, created, err = CreateDefaultConfig(); err != nil || created {
		t.Errorf("second call should keep the existing file, got created=%v err=%v", created, err)
	}

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{WorkDir: workDir})
	if err != nil {
		t.Fatalf("generated config should load: %v", err)
	}
	if cfg.Exec.Shell != "bash" {
		t.Errorf("shell = %q", cfg.Exec.Shell)
	}
}

func TestEnsureSitesDir(t *testing.T) {
	cfgDir, _ := isolate(t)

	if err := EnsureSitesDir(); err != nil {
		t.Fatalf("EnsureSitesDir() returned error: %v", err)
	}
	if info, err := os.Stat(filepath.Join(cfgDir, "sites")); err != nil || !info.IsDir() {
		t.Errorf("sites dir not created: %v", err)
	}
}
