// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestContainerEngine_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		engine ContainerEngine
		want   bool
	}{
		{ContainerEngineDocker, true},
		{ContainerEnginePodman, true},
		{"", false},
		{"DOCKER", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.engine), func(t *testing.T) {
			t.Parallel()
			isValid, errs := tt.engine.IsValid()
			if isValid != tt.want {
				t.Errorf("ContainerEngine(%q).IsValid() = %v, want %v", tt.engine, isValid, tt.want)
			}
			if !tt.want && (len(errs) == 0 || !errors.Is(errs[0], ErrInvalidContainerEngine)) {
				t.Errorf("error should wrap ErrInvalidContainerEngine, got: %v", errs)
			}
		})
	}
}

func TestSSHClient_IsValid(t *testing.T) {
	t.Parallel()

	for _, c := range []SSHClient{SSHClientOpenSSH, SSHClientNative} {
		if ok, _ := c.IsValid(); !ok {
			t.Errorf("%q should be valid", c)
		}
	}
	ok, errs := SSHClient("putty").IsValid()
	if ok || !errors.Is(errs[0], ErrInvalidSSHClient) {
		t.Errorf("putty should be invalid, got %v %v", ok, errs)
	}
}

func TestColorScheme_GlamourStyle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scheme ColorScheme
		dark   bool
		want   string
	}{
		{ColorSchemeLight, true, "light"},
		{ColorSchemeDark, false, "dark"},
		{ColorSchemeAuto, true, "dark"},
		{ColorSchemeAuto, false, "light"},
	}
	for _, tt := range tests {
		if got := tt.scheme.GlamourStyle(tt.dark); got != tt.want {
			t.Errorf("%q.GlamourStyle(%v) = %q, want %q", tt.scheme, tt.dark, got, tt.want)
		}
	}
}

func TestExecConfig_IsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig().Exec
	cfg.URIEnv = "BAD NAME"
	cfg.Shell = ""
	cfg.LocalCommands = []string{"git", " "}

	ok, errs := cfg.IsValid()
	if ok {
		t.Fatal("expected invalid exec config")
	}
	var execErr *InvalidExecConfigError
	if !errors.As(errs[0], &execErr) {
		t.Fatalf("error should be *InvalidExecConfigError, got %T", errs[0])
	}
	if len(execErr.FieldErrors) != 3 {
		t.Errorf("FieldErrors = %v, want 3", execErr.FieldErrors)
	}
	if !errors.Is(errs[0], ErrInvalidExecConfig) {
		t.Error("error should wrap ErrInvalidExecConfig")
	}
}
