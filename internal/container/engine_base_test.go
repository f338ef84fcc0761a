// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"slices"
	"testing"

	"github.com/jonpugh/ash/internal/testutil"
)

func TestHelperProcess(t *testing.T) { testutil.HelperProcess() }

func TestBaseCLIEngine_ExecArgs(t *testing.T) {
	t.Parallel()

	engine := NewBaseCLIEngine("/usr/bin/docker")

	tests := []struct {
		name     string
		target   Target
		command  []string
		opts     ExecOptions
		expected []string
	}{
		{
			name:     "container minimal",
			target:   Target{Container: "web"},
			command:  []string{"ls"},
			expected: []string{"exec", "web", "ls"},
		},
		{
			name:    "container interactive tty",
			target:  Target{Container: "web", ExecOptions: []string{"--privileged"}},
			command: []string{"bash", "-l"},
			opts: ExecOptions{
				Interactive: true,
				TTY:         true,
				WorkDir:     "/var/www/html",
				User:        "www-data",
				Env:         map[string]string{"B": "2", "A": "1"},
			},
			expected: []string{
				"exec", "--privileged", "-i", "-t", "-w", "/var/www/html", "-u", "www-data",
				"-e", "A=1", "-e", "B=2", "web", "bash", "-l",
			},
		},
		{
			name:     "compose service without tty",
			target:   Target{Service: "php"},
			command:  []string{"drush", "cr"},
			opts:     ExecOptions{WorkDir: "/app"},
			expected: []string{"compose", "exec", "-T", "-w", "/app", "php", "drush", "cr"},
		},
		{
			name: "compose project and file",
			target: Target{
				Service:        "php",
				ComposeProject: "site",
				ComposeFile:    "/srv/site/compose.yml",
				ComposeOptions: []string{"--ansi", "never"},
			},
			command:  []string{"sh", "-c", "ls | wc -l"},
			opts:     ExecOptions{TTY: true, Env: map[string]string{"DRUSH_OPTIONS_URI": "http://site.test"}},
			expected: []string{"compose", "-p", "site", "-f", "/srv/site/compose.yml", "--ansi", "never", "exec", "-e", "DRUSH_OPTIONS_URI=http://site.test", "php", "sh", "-c", "ls | wc -l"},
		},
		{
			name:     "container wins over service",
			target:   Target{Container: "web", Service: "php"},
			command:  []string{"id"},
			expected: []string{"exec", "web", "id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			args := engine.ExecArgs(tt.target, tt.command, tt.opts)
			if !slices.Equal(args, tt.expected) {
				t.Errorf("ExecArgs() mismatch\ngot:  %q\nwant: %q", args, tt.expected)
			}
		})
	}
}

func TestBaseCLIEngine_CreateCommand(t *testing.T) {
	t.Parallel()

	recorder := testutil.NewMockCommandRecorder()
	recorder.Stdout = "27.3.1\n"
	engine := &DockerEngine{NewBaseCLIEngine("/usr/bin/docker", WithExecCommand(recorder.ContextCommandFunc(t)))}

	version, err := engine.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error: %v", err)
	}
	if version != "27.3.1" {
		t.Errorf("Version() = %q", version)
	}
	recorder.AssertCommandName(t, "/usr/bin/docker")
	recorder.AssertArgs(t, "version", "--format", "{{.Server.Version}}")
	if !engine.Available() {
		t.Error("engine with a working binary should be available")
	}
}

func TestBaseCLIEngine_ExecExitCode(t *testing.T) {
	t.Parallel()

	recorder := testutil.NewMockCommandRecorder()
	recorder.ExitCode = 3
	recorder.Stderr = "no such service"
	engine := NewBaseCLIEngine("/usr/bin/podman", WithExecCommand(recorder.ContextCommandFunc(t)))

	cmd := engine.CreateCommand(context.Background(), engine.ExecArgs(Target{Service: "php"}, []string{"true"}, ExecOptions{})...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected a non-zero exit")
	}
	if cmd.ProcessState.ExitCode() != 3 {
		t.Errorf("exit code = %d, want 3", cmd.ProcessState.ExitCode())
	}
	if stderr.String() != "no such service" {
		t.Errorf("stderr = %q", stderr.String())
	}
	if !recorder.HasArgPair("exec", "-T") {
		t.Errorf("compose exec without tty should pass -T: %v", recorder.LastArgs())
	}
}

func TestPodmanEngine_Version(t *testing.T) {
	t.Parallel()

	recorder := testutil.NewMockCommandRecorder()
	recorder.Stdout = "5.2.0"
	engine := &PodmanEngine{NewBaseCLIEngine("/usr/bin/podman", WithExecCommand(recorder.ContextCommandFunc(t)))}

	version, err := engine.Version(context.Background())
	if err != nil || version != "5.2.0" {
		t.Errorf("Version() = %q, %v", version, err)
	}
	recorder.AssertArgs(t, "version", "--format", "{{.Version}}")
}
