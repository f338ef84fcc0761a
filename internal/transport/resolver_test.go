// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"errors"
	"slices"
	"testing"

	"github.com/jonpugh/ash/internal/alias"
	"github.com/jonpugh/ash/internal/config"
)

func newTestResolver(tty bool, environ ...string) *Resolver {
	return NewResolver(config.DefaultConfig().Exec,
		WithEnviron(func() []string { return environ }),
		WithGetwd(func() (string, error) { return "/home/me/project", nil }),
		WithTerminalProbe(func() bool { return tty }),
	)
}

func mustResolve(t *testing.T, r *Resolver, rec *alias.Record, req Request) Context {
	t.Helper()
	ctx, err := r.Resolve(rec, req)
	if err != nil {
		t.Fatalf("Resolve(%s) error: %v", rec.Name, err)
	}
	return ctx
}

func TestResolve_LocalAndRemoteScenario(t *testing.T) {
	t.Parallel()

	r := newTestResolver(false, "PATH=/usr/bin")
	local := &alias.Record{Name: "@app.local", Root: "/srv/app"}
	prod := &alias.Record{Name: "@app.prod", Host: "prod.example.com", Root: "/var/www/app"}

	lctx := mustResolve(t, r, local, Request{Command: []string{"ls"}})
	if lctx.Transport != alias.TransportLocal || lctx.WorkDir != "/srv/app" {
		t.Errorf("local context = %s in %q", lctx.Transport, lctx.WorkDir)
	}

	pctx := mustResolve(t, r, prod, Request{Command: []string{"ls"}})
	if pctx.Transport != alias.TransportSSH {
		t.Errorf("host without hint should use ssh, got %s", pctx.Transport)
	}
	if pctx.Host != "prod.example.com" || pctx.WorkDir != "/var/www/app" {
		t.Errorf("ssh context = %+v", pctx)
	}
	if want := []string{"/var/www/app/vendor/bin", "/var/www/app/bin"}; !slices.Equal(pctx.PathPrefix, want) {
		t.Errorf("PathPrefix = %v, want %v", pctx.PathPrefix, want)
	}
	if _, ok := pctx.Getenv("PATH"); ok {
		t.Error("caller PATH must not leak into the remote environment")
	}
}

func TestResolve_LocalEnvironment(t *testing.T) {
	t.Parallel()

	r := newTestResolver(false, "PATH=/usr/bin", "HOME=/home/me", "APP_ENV=dev")
	rec := &alias.Record{Name: "@shop.dev", Root: "/srv/shop", URI: "https://shop.test"}
	rec.Set("env-vars.APP_ENV", "test")

	ctx := mustResolve(t, r, rec, Request{Command: []string{"drush", "status"}})

	want := map[string]string{
		"PATH":              "/srv/shop/vendor/bin:/srv/shop/bin:/usr/bin",
		"HOME":              "/home/me",
		"APP_ENV":           "test",
		"DRUSH_OPTIONS_URI": "https://shop.test",
	}
	for k, v := range want {
		if got, _ := ctx.Getenv(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if env := ctx.Environ(); len(env) != 4 || env[0] != "APP_ENV=test" {
		t.Errorf("Environ() = %v", env)
	}
}

func TestResolve_EnvironmentIsReadPerCall(t *testing.T) {
	t.Parallel()

	path := "/usr/bin"
	r := NewResolver(config.DefaultConfig().Exec,
		WithEnviron(func() []string { return []string{"PATH=" + path} }),
		WithTerminalProbe(func() bool { return false }),
	)
	rec := &alias.Record{Name: "@a", Root: "/a"}

	first := mustResolve(t, r, rec, Request{})
	path = "/opt/bin"
	second := mustResolve(t, r, rec, Request{})

	if got, _ := first.Getenv("PATH"); got != "/a/vendor/bin:/a/bin:/usr/bin" {
		t.Errorf("first PATH = %q", got)
	}
	if got, _ := second.Getenv("PATH"); got != "/a/vendor/bin:/a/bin:/opt/bin" {
		t.Errorf("second PATH = %q", got)
	}
}

func TestResolve_InvalidDefinitions(t *testing.T) {
	t.Parallel()

	r := newTestResolver(false)
	tests := []struct {
		name string
		rec  *alias.Record
	}{
		{"no root and no host", &alias.Record{Name: "@ghost", URI: "https://ghost.test"}},
		{"ssh without host", &alias.Record{Name: "@s", Root: "/srv", Transport: alias.TransportSSH}},
		{"docker without container", &alias.Record{Name: "@d", Root: "/srv", Transport: alias.TransportDocker}},
		{"local hint without root", &alias.Record{Name: "@a.local", Host: "prod.example.com", Transport: alias.TransportLocal}},
		{"docker without any root", func() *alias.Record {
			rec := &alias.Record{Name: "@a.docker", Host: "prod.example.com", Transport: alias.TransportDocker}
			rec.Set("docker.service", "web")
			return rec
		}()},
		{"unparseable ssh options", func() *alias.Record {
			rec := &alias.Record{Name: "@o", Host: "h"}
			rec.Set("ssh.options", `-o "unterminated`)
			return rec
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := r.Resolve(tt.rec, Request{Command: []string{"ls"}}); !errors.Is(err, alias.ErrInvalidAliasDefinition) {
				t.Errorf("Resolve() error = %v, want ErrInvalidAliasDefinition", err)
			}
		})
	}
}

func TestResolve_SSHSettings(t *testing.T) {
	t.Parallel()

	rec := &alias.Record{Name: "@live", Host: "web1", User: "deploy"}
	rec.Set("ssh.port", 2222)
	rec.Set("ssh.options", "-o ForwardAgent=yes -A")
	rec.Set("ssh.identity_file", "/keys/deploy")
	rec.Set("env-vars.APP_ENV", "prod")

	ctx := mustResolve(t, newTestResolver(false), rec, Request{Command: []string{"uptime"}})

	if ctx.Port != 2222 || ctx.IdentityFile != "/keys/deploy" || ctx.User != "deploy" {
		t.Errorf("ssh context = %+v", ctx)
	}
	if want := []string{"-o", "ForwardAgent=yes", "-A"}; !slices.Equal(ctx.SSHOptions, want) {
		t.Errorf("SSHOptions = %v", ctx.SSHOptions)
	}
	if ctx.WorkDir != "" || ctx.PathPrefix != nil {
		t.Errorf("a record without root should not cd or touch PATH: %+v", ctx)
	}
	if got := ctx.Environ(); !slices.Equal(got, []string{"APP_ENV=prod"}) {
		t.Errorf("Environ() = %v", got)
	}
	if ctx.Target() != "deploy@web1" {
		t.Errorf("Target() = %q", ctx.Target())
	}
}

func dockerRecord() *alias.Record {
	rec := &alias.Record{Name: "@site.docker", Root: "/home/me/site", URI: "http://site.localhost"}
	rec.Set("docker.service", "php")
	rec.Set("docker.root", "/var/www/html")
	rec.Set("docker.compose.project", "site")
	rec.Set("docker.compose.file", "/home/me/site/compose.yml")
	return rec
}

func TestResolve_Docker(t *testing.T) {
	t.Parallel()

	ctx := mustResolve(t, newTestResolver(false, "PATH=/usr/bin"), dockerRecord(), Request{Command: []string{"drush", "cr"}})

	if ctx.Transport != alias.TransportDocker || ctx.Demoted {
		t.Fatalf("transport = %s demoted=%v", ctx.Transport, ctx.Demoted)
	}
	if ctx.WorkDir != "/var/www/html" {
		t.Errorf("WorkDir = %q", ctx.WorkDir)
	}
	c := ctx.Container
	if c == nil || c.Service != "php" || c.ComposeProject != "site" || c.ComposeFile != "/home/me/site/compose.yml" {
		t.Errorf("container target = %+v", c)
	}
	if got := ctx.Environ(); !slices.Equal(got, []string{"DRUSH_OPTIONS_URI=http://site.localhost"}) {
		t.Errorf("Environ() = %v", got)
	}
}

func TestResolve_DockerDemotion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		command []string
		local   string
		demoted bool
		workDir string
	}{
		{name: "git argv", command: []string{"git", "status"}, demoted: true, workDir: "/home/me/project"},
		{name: "git path", command: []string{"/usr/bin/git", "log"}, demoted: true, workDir: "/home/me/project"},
		{name: "git fragment", command: []string{"git status --short"}, demoted: true, workDir: "/home/me/project"},
		{name: "local root", command: []string{"git", "pull"}, local: "/home/me/site", demoted: true, workDir: "/home/me/site"},
		{name: "prefix is not a match", command: []string{"gitk"}, workDir: "/var/www/html"},
		{name: "other command", command: []string{"drush", "git"}, workDir: "/var/www/html"},
		{name: "empty command", command: nil, workDir: "/var/www/html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := dockerRecord()
			if tt.local != "" {
				rec.Set("docker.local_root", tt.local)
			}
			ctx := mustResolve(t, newTestResolver(false, "PATH=/usr/bin"), rec, Request{Command: tt.command})

			if ctx.Demoted != tt.demoted {
				t.Fatalf("Demoted = %v, want %v", ctx.Demoted, tt.demoted)
			}
			if ctx.WorkDir != tt.workDir {
				t.Errorf("WorkDir = %q, want %q", ctx.WorkDir, tt.workDir)
			}
			if tt.demoted {
				if ctx.Transport != alias.TransportLocal || ctx.Container != nil {
					t.Errorf("demoted context should be local: %+v", ctx)
				}
				if got, _ := ctx.Getenv("PATH"); got != tt.workDir+"/vendor/bin:"+tt.workDir+"/bin:/usr/bin" {
					t.Errorf("PATH = %q", got)
				}
			}
		})
	}
}

func TestResolve_TTY(t *testing.T) {
	t.Parallel()

	rec := &alias.Record{Name: "@a", Root: "/a"}
	tests := []struct {
		name      string
		supported bool
		req       Request
		want      bool
	}{
		{"empty command forces tty", true, Request{}, true},
		{"empty command without terminal", false, Request{}, false},
		{"explicit request", true, Request{Command: []string{"top"}, TTY: true}, true},
		{"explicit request without terminal", false, Request{Command: []string{"top"}, TTY: true}, false},
		{"plain command", true, Request{Command: []string{"ls"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := mustResolve(t, newTestResolver(tt.supported), rec, tt.req)
			if ctx.TTY != tt.want {
				t.Errorf("TTY = %v, want %v", ctx.TTY, tt.want)
			}
		})
	}
}

func TestResolve_Self(t *testing.T) {
	t.Parallel()

	store := alias.NewStore(alias.WithGetwd(func() (string, error) { return "/work/here", nil }))
	self, err := store.Get(alias.SelfName)
	if err != nil {
		t.Fatal(err)
	}
	ctx := mustResolve(t, newTestResolver(false), self, Request{Command: []string{"ls"}})
	if ctx.Transport != alias.TransportLocal || ctx.WorkDir != "/work/here" || ctx.Host != "" {
		t.Errorf("@self context = %+v", ctx)
	}
}

func TestContext_CopiesAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := mustResolve(t, newTestResolver(false, "A=1"), &alias.Record{Name: "@a", Root: "/a"}, Request{})
	env := ctx.Env()
	env["A"] = "changed"
	if got, _ := ctx.Getenv("A"); got != "1" {
		t.Error("Env() must return a copy")
	}

	moved := ctx.WithWorkDir("/elsewhere").WithTTY(true)
	if ctx.WorkDir != "/a" || ctx.TTY {
		t.Error("With* must not modify the receiver")
	}
	if moved.WorkDir != "/elsewhere" || !moved.TTY {
		t.Errorf("moved = %+v", moved)
	}
}

func TestDecide(t *testing.T) {
	t.Parallel()

	withDocker := &alias.Record{Name: "@d", Root: "/d"}
	withDocker.Set("docker.container", "web")
	hinted := &alias.Record{Name: "@h", Host: "h", Transport: alias.TransportDocker}

	for rec, want := range map[*alias.Record]alias.Transport{
		{Name: "@l", Root: "/l"}: alias.TransportLocal,
		{Name: "@s", Host: "h"}:  alias.TransportSSH,
		withDocker:               alias.TransportDocker,
		hinted:                   alias.TransportDocker,
	} {
		if got := Decide(rec); got != want {
			t.Errorf("Decide(%s) = %s, want %s", rec.Name, got, want)
		}
	}
}
