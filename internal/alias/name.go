// SPDX-License-Identifier: MPL-2.0

package alias

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// Prefix starts every canonical alias name.
	Prefix = "@"
	// SelfName is synthesized from the working directory when no record claims it.
	SelfName = "@self"
	// DefaultEnv is the environment a site-only token resolves to.
	DefaultEnv = "default"
)

var (
	segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	tokenPattern   = regexp.MustCompile(`^@[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+){0,2}$`)
)

// Name is a parsed alias name. Location and Env may be empty.
type Name struct {
	Location string
	Site     string
	Env      string
}

// NewName builds a canonical name from its parts.
func NewName(location, site, env string) Name {
	return Name{Location: location, Site: site, Env: env}
}

// String returns the canonical @[location.]site[.env] form.
func (n Name) String() string {
	parts := make([]string, 0, 3)
	if n.Location != "" {
		parts = append(parts, n.Location)
	}
	parts = append(parts, n.Site)
	if n.Env != "" {
		parts = append(parts, n.Env)
	}
	return Prefix + strings.Join(parts, ".")
}

// Group returns the name without its environment, the key site-only
// tokens are matched against.
func (n Name) Group() string {
	return Name{Location: n.Location, Site: n.Site}.String()
}

// IsAliasToken reports whether s is an @-prefixed alias name.
func IsAliasToken(s string) bool {
	return tokenPattern.MatchString(s)
}

// Normalize prefixes plain names with @ and rejects anything outside the
// grammar.
func Normalize(s string) (string, error) {
	if !strings.HasPrefix(s, Prefix) {
		s = Prefix + s
	}
	if !IsAliasToken(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, s)
	}
	return s, nil
}

// ValidSegment reports whether s can be used as a location, site or
// environment name.
func ValidSegment(s string) bool {
	return segmentPattern.MatchString(s)
}
