// SPDX-License-Identifier: MPL-2.0

package alias

import (
	"errors"
	"testing"
)

func TestIsAliasToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token string
		want  bool
	}{
		{"@site", true},
		{"@site.live", true},
		{"@team.site.live", true},
		{"@my_site-2.dev", true},
		{"@a.b.c.d", false},
		{"site", false},
		{"@", false},
		{"@site.", false},
		{"@si te", false},
		{"./drush/sites", false},
		{"user@host", false},
	}

	for _, tt := range tests {
		if got := IsAliasToken(tt.token); got != tt.want {
			t.Errorf("IsAliasToken(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	if got, err := Normalize("shop.live"); err != nil || got != "@shop.live" {
		t.Errorf("Normalize(shop.live) = %q, %v", got, err)
	}
	if got, err := Normalize("@self"); err != nil || got != SelfName {
		t.Errorf("Normalize(@self) = %q, %v", got, err)
	}
	if _, err := Normalize("bad name"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Normalize(bad name) error = %v", err)
	}
}

func TestName_StringAndGroup(t *testing.T) {
	t.Parallel()

	n := NewName("team", "blog", "prod")
	if n.String() != "@team.blog.prod" {
		t.Errorf("String() = %q", n.String())
	}
	if n.Group() != "@team.blog" {
		t.Errorf("Group() = %q", n.Group())
	}
	if got := NewName("", "blog", "").String(); got != "@blog" {
		t.Errorf("site-only String() = %q", got)
	}
}
