// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonpugh/ash/internal/config"
	"github.com/jonpugh/ash/internal/testutil"
)

func TestConfigShow(t *testing.T) {
	env := newTestEnv(t)
	cfgFile := testutil.WriteFile(t, t.TempDir(), "custom.yml", "exec:\n  shell: zsh\n")

	if err := env.run(t, "--config", cfgFile, "config", "show"); err != nil {
		t.Fatalf("config show error: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "shell: zsh") {
		t.Errorf("stdout = %q", env.stdout.String())
	}
	if !strings.Contains(env.stderr.String(), cfgFile) {
		t.Errorf("stderr should list the merged file: %q", env.stderr.String())
	}
}

func TestConfigInitAndPath(t *testing.T) {
	// Not parallel: the config directory override is package-level state.
	home := t.TempDir()
	config.SetConfigDirOverride(home)
	t.Cleanup(config.Reset)

	env := newTestEnv(t)
	if err := env.run(t, "config", "init"); err != nil {
		t.Fatalf("config init error: %v", err)
	}
	cfgPath := filepath.Join(home, "ash.yml")
	if _, err := os.Stat(cfgPath); err != nil {
		t.Errorf("config file not created: %v", err)
	}
	if info, err := os.Stat(filepath.Join(home, "sites")); err != nil || !info.IsDir() {
		t.Errorf("sites directory not created: %v", err)
	}

	env.stderr.Reset()
	if err := env.run(t, "config", "init"); err != nil {
		t.Fatalf("second config init error: %v", err)
	}
	if !strings.Contains(env.stderr.String(), "already exists") {
		t.Errorf("stderr = %q", env.stderr.String())
	}

	if err := env.run(t, "config", "path"); err != nil {
		t.Fatalf("config path error: %v", err)
	}
	out := env.stdout.String()
	if !strings.Contains(out, "Config directory: "+home) || !strings.Contains(out, cfgPath) {
		t.Errorf("config path output = %q", out)
	}
}
