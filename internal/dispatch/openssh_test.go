// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/jonpugh/ash/internal/alias"
	"github.com/jonpugh/ash/internal/config"
	"github.com/jonpugh/ash/internal/testutil"
)

func prodRecord() *alias.Record {
	return &alias.Record{
		Name: "@app.prod",
		Host: "prod.example.com",
		User: "deploy",
		Root: "/var/www/app",
		Extra: map[string]any{alias.ExtraSSH: map[string]any{
			"port":          2222,
			"options":       "-o ForwardAgent=yes",
			"identity_file": "~/.ssh/deploy",
		}},
	}
}

func openSSHConfig() config.SSHConfig {
	return config.SSHConfig{
		Client:  config.SSHClientOpenSSH,
		Binary:  "ssh",
		Options: []string{"BatchMode=yes"},
	}
}

func TestOpenSSHArgs(t *testing.T) {
	t.Parallel()

	d := New(openSSHConfig())
	command := []string{"drush", "status"}
	c := resolveFor(t, prodRecord(), command)

	args, err := d.OpenSSHArgs(Request{Context: c, Command: command})
	if err != nil {
		t.Fatalf("OpenSSHArgs() error: %v", err)
	}
	want := []string{
		"-o", "BatchMode=yes",
		"-p", "2222",
		"-i", "~/.ssh/deploy",
		"-o", "ForwardAgent=yes",
		"-T",
		"deploy@prod.example.com",
		`cd /var/www/app && PATH=/var/www/app/vendor/bin:/var/www/app/bin:"$PATH" drush status`,
	}
	if !slices.Equal(args, want) {
		t.Errorf("OpenSSHArgs()\ngot:  %q\nwant: %q", args, want)
	}
}

func TestOpenSSHArgs_TTYAndNoUser(t *testing.T) {
	t.Parallel()

	d := New(config.SSHConfig{})
	rec := &alias.Record{Name: "@box.default", Host: "box.example.com"}
	c := resolveFor(t, rec, nil).WithTTY(true)

	args, err := d.OpenSSHArgs(Request{Context: c})
	if err != nil {
		t.Fatalf("OpenSSHArgs() error: %v", err)
	}
	want := []string{"-t", "box.example.com", "bash -l"}
	if !slices.Equal(args, want) {
		t.Errorf("OpenSSHArgs() = %q, want %q", args, want)
	}
}

func TestRun_OpenSSH(t *testing.T) {
	t.Parallel()

	recorder := testutil.NewMockCommandRecorder()
	recorder.ExitCode = 2
	recorder.Stdout = "Drupal version : 11.1\n"
	d := New(openSSHConfig(), WithExecCommand(recorder.ContextCommandFunc(t)))

	command := []string{"drush", "status"}
	c := resolveFor(t, prodRecord(), command)
	res, err := d.Run(context.Background(), Request{Context: c, Command: command})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.ExitCode != 2 {
		t.Errorf("ExitCode = %d, want 2", res.ExitCode)
	}
	recorder.AssertCommandName(t, "ssh")
	if !recorder.HasArgPair("-p", "2222") {
		t.Errorf("missing port in %q", recorder.LastArgs())
	}
}

func TestRun_OpenSSHUnreachable(t *testing.T) {
	t.Parallel()

	recorder := testutil.NewMockCommandRecorder()
	recorder.ExitCode = 255
	recorder.Stderr = "ssh: connect to host prod.example.com port 2222: Connection refused\n"
	d := New(openSSHConfig(), WithExecCommand(recorder.ContextCommandFunc(t)))

	command := []string{"drush", "status"}
	c := resolveFor(t, prodRecord(), command)
	_, err := d.Run(context.Background(), Request{Context: c, Command: command})
	if !errors.Is(err, ErrRemoteUnreachable) {
		t.Fatalf("Run() = %v, want ErrRemoteUnreachable", err)
	}
	var unreachable *RemoteUnreachableError
	if !errors.As(err, &unreachable) {
		t.Fatalf("expected *RemoteUnreachableError, got %T", err)
	}
	if got := unreachable.Address(); got != "deploy@prod.example.com:2222" {
		t.Errorf("Address() = %q", got)
	}
	if unreachable.Alias != "@app.prod" {
		t.Errorf("Alias = %q", unreachable.Alias)
	}
}
