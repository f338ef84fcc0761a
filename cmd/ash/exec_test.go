// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"
	"testing"

	"github.com/jonpugh/ash/internal/alias"
	"github.com/jonpugh/ash/internal/dispatch"
	"github.com/jonpugh/ash/internal/issue"
	"github.com/jonpugh/ash/pkg/types"
)

func TestExec_Local(t *testing.T) {
	env := newTestEnv(t)
	env.writeAliases(t, "shop.site.yml", shopAliases)

	if err := env.run(t, "exec", "@shop.dev", "drush", "status", "--format=json"); err != nil {
		t.Fatalf("exec error: %v (stderr %s)", err, env.stderr.String())
	}
	if len(env.runner.requests) != 1 {
		t.Fatalf("runner got %d requests, want 1", len(env.runner.requests))
	}

	req := env.runner.requests[0]
	if want := []string{"drush", "status", "--format=json"}; !slices.Equal(req.Command, want) {
		t.Errorf("Command = %q, want %q", req.Command, want)
	}
	if req.Context.Transport != alias.TransportLocal {
		t.Errorf("Transport = %s, want local", req.Context.Transport)
	}
	if req.Context.WorkDir != "/srv/shop" {
		t.Errorf("WorkDir = %q, want /srv/shop", req.Context.WorkDir)
	}
	if uri, _ := req.Context.Getenv("DRUSH_OPTIONS_URI"); uri != "http://shop.test" {
		t.Errorf("DRUSH_OPTIONS_URI = %q", uri)
	}
	if req.Stdout != env.stdout || req.Stderr != env.stderr {
		t.Error("exec should stream to the App's stdout and stderr")
	}
}

func TestExec_Shorthand(t *testing.T) {
	env := newTestEnv(t)
	env.writeAliases(t, "shop.site.yml", shopAliases)

	args := RewriteArgs("ash", []string{"@shop.live", "uptime"})
	if err := env.run(t, args...); err != nil {
		t.Fatalf("exec error: %v", err)
	}
	req := env.runner.requests[0]
	if req.Context.Transport != alias.TransportSSH {
		t.Errorf("Transport = %s, want ssh", req.Context.Transport)
	}
	if req.Context.Target() != "deploy@web1" {
		t.Errorf("Target() = %q", req.Context.Target())
	}
}

func TestExec_ExitCodePropagates(t *testing.T) {
	env := newTestEnv(t)
	env.writeAliases(t, "shop.site.yml", shopAliases)
	env.runner.exitCode = 3

	err := env.run(t, "exec", "@shop.dev", "false")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *ExitError", err)
	}
	if exitCode(err) != 3 {
		t.Errorf("exitCode() = %d, want 3", exitCode(err))
	}
	if env.stderr.Len() != 0 {
		t.Errorf("a child exit status should not print an error: %q", env.stderr.String())
	}
}

func TestExec_LaunchFailure(t *testing.T) {
	env := newTestEnv(t)
	env.writeAliases(t, "shop.site.yml", shopAliases)
	env.runner.err = &dispatch.LaunchError{Alias: "@shop.dev", Transport: alias.TransportLocal, Program: "nope", Cause: exec.ErrNotFound}

	err := env.run(t, "exec", "@shop.dev", "nope")
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error = %v, want *ServiceError", err)
	}
	if svcErr.IssueID != issue.LaunchFailedId {
		t.Errorf("IssueID = %d, want LaunchFailedId", svcErr.IssueID)
	}
	if exitCode(err) != 1 {
		t.Errorf("exitCode() = %d, want 1", exitCode(err))
	}
}

func TestExec_Interrupted(t *testing.T) {
	env := newTestEnv(t)
	env.writeAliases(t, "shop.site.yml", shopAliases)
	env.runner.err = fmt.Errorf("@shop.dev: %w", context.Canceled)

	err := env.run(t, "exec", "@shop.dev", "sleep", "60")
	if exitCode(err) != int(types.ExitInterrupted) {
		t.Errorf("exitCode() = %d, want %d", exitCode(err), types.ExitInterrupted)
	}
	if env.stderr.Len() != 0 {
		t.Errorf("an interrupt should not print an error: %q", env.stderr.String())
	}
}

func TestExec_InvalidDefinition(t *testing.T) {
	env := newTestEnv(t)
	env.writeAliases(t, "ghost.site.yml", "live:\n  uri: https://ghost.example\n")

	err := env.run(t, "exec", "@ghost.live", "ls")
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error = %v, want *ServiceError", err)
	}
	if svcErr.IssueID != issue.InvalidAliasDefinitionId {
		t.Errorf("IssueID = %d, want InvalidAliasDefinitionId", svcErr.IssueID)
	}
	if len(env.runner.requests) != 0 {
		t.Error("nothing should be dispatched for an invalid alias")
	}
}

func TestShell(t *testing.T) {
	env := newTestEnv(t)
	env.writeAliases(t, "shop.site.yml", shopAliases)

	if err := env.run(t, "ssh", "--cd", "/tmp", "@shop.live"); err != nil {
		t.Fatalf("shell error: %v", err)
	}
	req := env.runner.requests[0]
	if len(req.Command) != 0 {
		t.Errorf("Command = %q, want an interactive shell", req.Command)
	}
	if req.Context.WorkDir != "/tmp" {
		t.Errorf("WorkDir = %q, want /tmp", req.Context.WorkDir)
	}
	if req.Context.Transport != alias.TransportSSH {
		t.Errorf("Transport = %s, want ssh", req.Context.Transport)
	}
}

func TestEach(t *testing.T) {
	env := newTestEnv(t)
	env.writeAliases(t, "shop.site.yml", shopAliases)
	env.writeAliases(t, "blog.site.yml", "root: /srv/blog\n")
	env.runner.eachCodes = map[string]types.ExitCode{"@shop.live": 2}

	err := env.run(t, "each", "@shop", "uptime")
	if exitCode(err) != 2 {
		t.Errorf("exitCode() = %d, want 2 (err %v)", exitCode(err), err)
	}
	if len(env.runner.eachCalls) != 1 || len(env.runner.eachCalls[0]) != 2 {
		t.Fatalf("Each calls = %v, want one call with both shop environments", env.runner.eachCalls)
	}
	if !strings.Contains(env.stderr.String(), "@shop.live exited with status 2") {
		t.Errorf("stderr = %q", env.stderr.String())
	}
}

func TestEach_All(t *testing.T) {
	env := newTestEnv(t)
	env.writeAliases(t, "shop.site.yml", shopAliases)
	env.writeAliases(t, "blog.site.yml", "root: /srv/blog\n")

	if err := env.run(t, "each", "all", "git", "status"); err != nil {
		t.Fatalf("each error: %v", err)
	}
	if got := len(env.runner.eachCalls[0]); got != 3 {
		t.Errorf("Each got %d contexts, want 3", got)
	}
}

func TestEach_UnresolvableTargetFails(t *testing.T) {
	env := newTestEnv(t)
	env.writeAliases(t, "ghost.site.yml", "live:\n  uri: https://ghost.example\n")
	env.writeAliases(t, "blog.site.yml", "root: /srv/blog\n")

	err := env.run(t, "each", "all", "ls")
	if exitCode(err) != int(types.ExitFailure) {
		t.Errorf("exitCode() = %d, want %d", exitCode(err), types.ExitFailure)
	}
	if got := len(env.runner.eachCalls[0]); got != 1 {
		t.Errorf("Each got %d contexts, want only @blog", got)
	}
	if !strings.Contains(env.stderr.String(), "@ghost.live") {
		t.Errorf("stderr should name the broken alias: %q", env.stderr.String())
	}
}
