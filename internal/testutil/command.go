// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

const (
	helperWantEnv     = "GO_WANT_HELPER_PROCESS"
	helperExitCodeEnv = "GO_HELPER_EXIT_CODE"
	helperStdoutEnv   = "GO_HELPER_STDOUT"
	helperStderrEnv   = "GO_HELPER_STDERR"
	helperSleepEnv    = "GO_HELPER_SLEEP"
	helperEchoEnv     = "GO_HELPER_ECHO"
)

type (
	// MockCommandRecorder captures arguments passed to exec.Command for verification.
	// It uses the TestHelperProcess pattern to simulate command execution: the
	// returned commands re-run the test binary, which must define
	//
	//	func TestHelperProcess(t *testing.T) { testutil.HelperProcess() }
	MockCommandRecorder struct {
		mu sync.Mutex
		// Invocations records each call to the mock exec.Command
		Invocations []MockInvocation
		// ExitCode is the exit code to return (0 = success)
		ExitCode int
		// Stdout is the output to write to stdout
		Stdout string
		// Stderr is the output to write to stderr
		Stderr string
		// Sleep delays the exit, for cancellation tests
		Sleep time.Duration
		// EchoEnv lists variables the helper prints as KEY=value lines after
		// a cwd=<dir> line.
		EchoEnv []string
	}

	// MockInvocation represents a single invocation of exec.Command.
	MockInvocation struct {
		// Name is the command name (e.g., "docker", "ssh")
		Name string
		// Args are the arguments passed to the command
		Args []string
	}
)

// NewMockCommandRecorder creates a new recorder with default settings (success, no output).
func NewMockCommandRecorder() *MockCommandRecorder {
	return &MockCommandRecorder{}
}

// ContextCommandFunc returns a function that can replace exec.CommandContext.
// Callers that set cmd.Env must append to it so the helper settings survive.
func (m *MockCommandRecorder) ContextCommandFunc(t testing.TB) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	t.Helper()
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		m.mu.Lock()
		m.Invocations = append(m.Invocations, MockInvocation{Name: name, Args: slices.Clone(args)})
		m.mu.Unlock()

		cs := []string{"-test.run=^TestHelperProcess$", "--", name}
		cs = append(cs, args...)
		//nolint:gosec // TestHelperProcess is a test-only pattern
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = []string{
			helperWantEnv + "=1",
			fmt.Sprintf("%s=%d", helperExitCodeEnv, m.ExitCode),
			helperStdoutEnv + "=" + m.Stdout,
			helperStderrEnv + "=" + m.Stderr,
			helperSleepEnv + "=" + m.Sleep.String(),
			helperEchoEnv + "=" + strings.Join(m.EchoEnv, ","),
		}
		return cmd
	}
}

// LastInvocation returns the most recent invocation, or nil if none.
func (m *MockCommandRecorder) LastInvocation() *MockInvocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Invocations) == 0 {
		return nil
	}
	inv := m.Invocations[len(m.Invocations)-1]
	return &inv
}

// LastArgs returns the arguments from the most recent invocation.
func (m *MockCommandRecorder) LastArgs() []string {
	if inv := m.LastInvocation(); inv != nil {
		return inv.Args
	}
	return nil
}

// AssertCommandName verifies the last command name matches.
func (m *MockCommandRecorder) AssertCommandName(t testing.TB, expected string) {
	t.Helper()
	if inv := m.LastInvocation(); inv == nil {
		t.Errorf("expected command %q but no commands were invoked", expected)
	} else if inv.Name != expected {
		t.Errorf("expected command %q, got %q", expected, inv.Name)
	}
}

// AssertArgs verifies the last invocation args exactly.
func (m *MockCommandRecorder) AssertArgs(t testing.TB, expected ...string) {
	t.Helper()
	if got := m.LastArgs(); !slices.Equal(got, expected) {
		t.Errorf("args mismatch\ngot:  %q\nwant: %q", got, expected)
	}
}

// HasArgPair checks if the last invocation contains a flag-value pair (e.g., "-w", "/app").
func (m *MockCommandRecorder) HasArgPair(flag, value string) bool {
	args := m.LastArgs()
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

// HelperProcess is the body of TestHelperProcess. It does nothing unless the
// process was started by a MockCommandRecorder.
func HelperProcess() {
	if os.Getenv(helperWantEnv) != "1" {
		return
	}

	if echo := os.Getenv(helperEchoEnv); echo != "" {
		wd, _ := os.Getwd()
		fmt.Fprintf(os.Stdout, "cwd=%s\n", wd)
		for key := range strings.SplitSeq(echo, ",") {
			fmt.Fprintf(os.Stdout, "%s=%s\n", key, os.Getenv(key))
		}
	}
	if stdout := os.Getenv(helperStdoutEnv); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}
	if stderr := os.Getenv(helperStderrEnv); stderr != "" {
		fmt.Fprint(os.Stderr, stderr)
	}
	if d, err := time.ParseDuration(os.Getenv(helperSleepEnv)); err == nil && d > 0 {
		time.Sleep(d)
	}

	exitCode := 0
	if code := os.Getenv(helperExitCodeEnv); code != "" {
		fmt.Sscanf(code, "%d", &exitCode)
	}
	os.Exit(exitCode)
}
