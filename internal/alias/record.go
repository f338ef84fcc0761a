// SPDX-License-Identifier: MPL-2.0

package alias

import (
	"fmt"
	"maps"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

const (
	TransportLocal  Transport = "local"
	TransportSSH    Transport = "ssh"
	TransportDocker Transport = "docker"

	keyRoot         = "root"
	keyURI          = "uri"
	keyHost         = "host"
	keyUser         = "user"
	keyTransport    = "transport"
	keyGitRemote    = "git_remote"
	keyGitReference = "git_reference"

	// ExtraEnvVars holds extra environment variables for the command.
	ExtraEnvVars = "env-vars"
	// ExtraDocker holds container settings.
	ExtraDocker = "docker"
	// ExtraSSH holds ssh connection settings.
	ExtraSSH = "ssh"
)

// RecordFields are the top-level keys mapped to Record fields. A file whose
// top level carries any of them is a single record.
var RecordFields = []string{keyRoot, keyURI, keyHost, keyUser, keyTransport, keyGitRemote, keyGitReference}

var validate = newValidator()

type (
	// Transport is an explicit transport hint.
	Transport string

	// Record is one named site target.
	Record struct {
		Name         string         `yaml:"name" validate:"required"`
		Root         string         `yaml:"root,omitempty" validate:"required_without=Host"`
		URI          string         `yaml:"uri,omitempty"`
		Host         string         `yaml:"host,omitempty" validate:"required_without=Root"`
		User         string         `yaml:"user,omitempty"`
		Transport    Transport      `yaml:"transport,omitempty" validate:"omitempty,oneof=local ssh docker"`
		GitRemote    string         `yaml:"git_remote,omitempty"`
		GitReference string         `yaml:"git_reference,omitempty"`
		Extra        map[string]any `yaml:",inline"`

		group    string
		location string
		source   string
	}

	// DockerSettings is the docker mapping of an alias.
	DockerSettings struct {
		Service   string `mapstructure:"service"`
		Container string `mapstructure:"container"`
		// Root is the site root inside the container.
		Root string `mapstructure:"root"`
		// LocalRoot is the host directory used when a command is demoted to local.
		LocalRoot string `mapstructure:"local_root"`
		User      string `mapstructure:"user"`
		Exec      struct {
			Options string `mapstructure:"options"`
		} `mapstructure:"exec"`
		Compose struct {
			Project string `mapstructure:"project"`
			File    string `mapstructure:"file"`
			Options string `mapstructure:"options"`
		} `mapstructure:"compose"`
	}

	// SSHSettings is the ssh mapping of an alias.
	SSHSettings struct {
		Options      string `mapstructure:"options"`
		Port         int    `mapstructure:"port"`
		IdentityFile string `mapstructure:"identity_file"`
	}
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	return v
}

// Location returns the directory-derived prefix the record was loaded under.
func (r *Record) Location() string { return r.location }

// Source returns the file the record was loaded from, empty for synthesized records.
func (r *Record) Source() string { return r.source }

// Group returns the site-only name the record answers to.
func (r *Record) Group() string {
	if r.group == "" {
		return r.Name
	}
	return r.group
}

// IsLocal reports whether the record runs on this machine without a container.
func (r *Record) IsLocal() bool {
	return r.Host == "" && r.Transport != TransportDocker
}

// Validate checks that the record describes a reachable site.
func (r *Record) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &InvalidDefinitionError{Name: r.Name, Path: r.source, Cause: err}
	}

	var reasons []string
	seen := map[string]bool{}
	for _, fe := range verrs {
		var reason string
		switch fe.Tag() {
		case "required_without":
			reason = "neither root nor host is set"
		case "oneof":
			reason = fmt.Sprintf("%s %q is not one of local, ssh, docker", fe.Field(), fe.Value())
		default:
			reason = fmt.Sprintf("%s is %s", fe.Field(), fe.Tag())
		}
		if !seen[reason] {
			seen[reason] = true
			reasons = append(reasons, reason)
		}
	}
	return &InvalidDefinitionError{Name: r.Name, Path: r.source, Reasons: reasons}
}

// Lookup returns the value at key. Dotted keys walk into nested Extra maps.
func (r *Record) Lookup(key string) (any, bool) {
	if v, ok := r.field(key); ok {
		return v, v != ""
	}
	if v, ok := r.Extra[key]; ok {
		return v, true
	}

	var cur any = r.Extra
	for _, part := range strings.Split(key, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Get returns the value at key or def when it is unset.
func (r *Record) Get(key string, def any) any {
	if v, ok := r.Lookup(key); ok {
		return v
	}
	return def
}

// GetString returns the value at key formatted as a string, or def.
func (r *Record) GetString(key, def string) string {
	v, ok := r.Lookup(key)
	if !ok || v == nil {
		return def
	}
	if s, isString := v.(string); isString {
		return s
	}
	return fmt.Sprint(v)
}

// Set assigns value to key. Record fields take a string; anything else
// lands in Extra, creating nested maps for dotted keys.
func (r *Record) Set(key string, value any) {
	if _, known := r.field(key); known {
		s := ""
		if value != nil {
			s = fmt.Sprint(value)
		}
		r.setField(key, s)
		return
	}

	if r.Extra == nil {
		r.Extra = map[string]any{}
	}
	parts := strings.Split(key, ".")
	m := r.Extra
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// Delete removes an Extra key, or clears a field.
func (r *Record) Delete(key string) {
	if _, known := r.field(key); known {
		r.setField(key, "")
		return
	}
	delete(r.Extra, key)
}

// Export returns a flat mapping of non-empty fields plus every Extra key.
func (r *Record) Export() map[string]any {
	out := make(map[string]any, len(r.Extra)+len(RecordFields))
	maps.Copy(out, r.Extra)
	for _, key := range RecordFields {
		if v, _ := r.field(key); v != "" {
			out[key] = v
		}
	}
	return out
}

// Clone returns a deep copy that keeps the loader metadata.
func (r *Record) Clone() *Record {
	c := *r
	c.Extra = deepCopyMap(r.Extra)
	return &c
}

// EnvVars returns the env-vars mapping with values formatted as strings.
func (r *Record) EnvVars() map[string]string {
	m, ok := asMap(r.Extra[ExtraEnvVars])
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if v == nil {
			out[k] = ""
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

// Docker decodes the docker mapping. ok is false when the alias has none.
func (r *Record) Docker() (DockerSettings, bool, error) {
	var settings DockerSettings
	raw, present := r.Extra[ExtraDocker]
	if !present || raw == nil {
		return settings, false, nil
	}
	if _, isMap := asMap(raw); !isMap {
		return settings, true, &InvalidDefinitionError{Name: r.Name, Path: r.source, Reasons: []string{"docker must be a mapping"}}
	}
	if err := decodeSettings(raw, &settings); err != nil {
		return settings, true, &InvalidDefinitionError{Name: r.Name, Path: r.source, Reasons: []string{"docker settings are malformed"}, Cause: err}
	}
	return settings, true, nil
}

// SSH decodes the ssh mapping; the zero value is returned when absent.
func (r *Record) SSH() (SSHSettings, error) {
	var settings SSHSettings
	raw, present := r.Extra[ExtraSSH]
	if !present || raw == nil {
		return settings, nil
	}
	if err := decodeSettings(raw, &settings); err != nil {
		return settings, &InvalidDefinitionError{Name: r.Name, Path: r.source, Reasons: []string{"ssh settings are malformed"}, Cause: err}
	}
	return settings, nil
}

func (r *Record) field(key string) (string, bool) {
	switch key {
	case keyRoot:
		return r.Root, true
	case keyURI:
		return r.URI, true
	case keyHost:
		return r.Host, true
	case keyUser:
		return r.User, true
	case keyTransport:
		return string(r.Transport), true
	case keyGitRemote:
		return r.GitRemote, true
	case keyGitReference:
		return r.GitReference, true
	}
	return "", false
}

func (r *Record) setField(key, value string) {
	switch key {
	case keyRoot:
		r.Root = value
	case keyURI:
		r.URI = value
	case keyHost:
		r.Host = value
	case keyUser:
		r.User = value
	case keyTransport:
		r.Transport = Transport(value)
	case keyGitRemote:
		r.GitRemote = value
	case keyGitReference:
		r.GitReference = value
	}
}

func decodeSettings(raw, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// asMap accepts the map shapes produced by the YAML, TOML and CUE decoders.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func deepCopyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = deepCopyValue(item)
		}
		return out
	}
	return v
}
