// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/jonpugh/ash/internal/issue"
	"github.com/jonpugh/ash/internal/testutil"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestAdd_NoInteraction(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()

	if err := env.run(t, "add", "--no-interaction", "--root", "/srv/my.blog", "--dir", dir); err != nil {
		t.Fatalf("add error: %v", err)
	}
	got := readFile(t, filepath.Join(dir, "myblog.site.yml"))
	if !strings.Contains(got, "root: /srv/my.blog") {
		t.Errorf("alias file = %q", got)
	}
	if len(env.prompter.asked) != 0 {
		t.Errorf("prompted %v with --no-interaction", env.prompter.asked)
	}
}

func TestAdd_Prompts(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	env.prompter.inputs["Site name"] = "journal"

	if err := env.run(t, "site:add", "--root", "/srv/blog", "--dir", dir); err != nil {
		t.Fatalf("add error: %v", err)
	}
	if want := []string{"Site root", "Site name"}; !slices.Equal(env.prompter.asked, want) {
		t.Errorf("asked %v, want %v", env.prompter.asked, want)
	}
	if _, err := os.Stat(filepath.Join(dir, "journal.site.yml")); err != nil {
		t.Errorf("alias file not written: %v", err)
	}
}

func TestAdd_InvalidName(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()

	err := env.run(t, "add", "-n", "--name", "bad name", "--root", "/srv/blog", "--dir", dir)
	if err == nil {
		t.Fatal("add with an invalid name should fail")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("files written for an invalid name: %v", entries)
	}
}

func TestAdd_ExistingFile(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		confirm     bool
		wantRoot    string
		wantIssue   bool
		wantMessage string
	}{
		{name: "declined", confirm: false, wantRoot: "/old", wantMessage: "Nothing written."},
		{name: "confirmed", confirm: true, wantRoot: "/srv/blog"},
		{name: "forced", args: []string{"--force", "-n"}, wantRoot: "/srv/blog"},
		{name: "no interaction", args: []string{"-n"}, wantRoot: "/old", wantIssue: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			dir := t.TempDir()
			path := testutil.WriteFile(t, dir, "blog.site.yml", "default:\n  root: /old\n")
			env.prompter.confirm = tt.confirm

			args := append([]string{"add", "--root", "/srv/blog", "--dir", dir}, tt.args...)
			err := env.run(t, args...)

			if tt.wantIssue {
				var svcErr *ServiceError
				if !errors.As(err, &svcErr) || svcErr.IssueID != issue.AliasFileExistsId {
					t.Errorf("error = %v, want AliasFileExistsId", err)
				}
			} else if err != nil {
				t.Fatalf("add error: %v", err)
			}
			if got := readFile(t, path); !strings.Contains(got, "root: "+tt.wantRoot) {
				t.Errorf("alias file = %q, want root %s", got, tt.wantRoot)
			}
			if tt.wantMessage != "" && !strings.Contains(env.stderr.String(), tt.wantMessage) {
				t.Errorf("stderr = %q", env.stderr.String())
			}
		})
	}
}

func TestPromptError(t *testing.T) {
	t.Parallel()

	if got := exitCode(promptError(ErrPromptAborted)); got != 130 {
		t.Errorf("aborted prompt exit code = %d, want 130", got)
	}
	other := errors.New("tty gone")
	if !errors.Is(promptError(other), other) {
		t.Error("promptError should pass other errors through")
	}
}
