// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ContainerEngineDocker uses Docker as the container runtime.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses Podman as the container runtime.
	ContainerEnginePodman ContainerEngine = "podman"

	// SSHClientOpenSSH shells out to the ssh binary.
	SSHClientOpenSSH SSHClient = "openssh"
	// SSHClientNative uses the built-in golang.org/x/crypto/ssh client.
	SSHClientNative SSHClient = "native"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidSSHClient is returned when an SSHClient value is not recognized.
	ErrInvalidSSHClient = errors.New("invalid ssh client")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidExecConfig is the sentinel error wrapped by InvalidExecConfigError.
	ErrInvalidExecConfig = errors.New("invalid exec config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container CLI runs docker transport commands.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// SSHClient selects the ssh transport backend.
	SSHClient string

	// InvalidSSHClientError is returned when an SSHClient value is not recognized.
	InvalidSSHClientError struct {
		Value SSHClient
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidExecConfigError collects field errors of the exec section.
	InvalidExecConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig and collects field-level validation errors
	// from all sections.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// AliasDirectories are extra search locations for *.site.yml files.
		AliasDirectories []string `json:"alias_directories" yaml:"alias_directories" mapstructure:"alias_directories"`
		// Exec configures how commands run against a site.
		Exec ExecConfig `json:"exec" yaml:"exec" mapstructure:"exec"`
		// SSH configures the ssh transport.
		SSH SSHConfig `json:"ssh" yaml:"ssh" mapstructure:"ssh"`
		// Container configures the docker transport.
		Container ContainerConfig `json:"container" yaml:"container" mapstructure:"container"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" yaml:"ui" mapstructure:"ui"`

		sources []string
	}

	// ExecConfig configures command execution.
	ExecConfig struct {
		// LocalCommands run on the host even when the alias uses docker.
		LocalCommands []string `json:"local_commands" yaml:"local_commands" mapstructure:"local_commands"`
		// URIEnv names the variable that receives the alias uri.
		URIEnv string `json:"uri_env" yaml:"uri_env" mapstructure:"uri_env"`
		// PathDirs are root-relative directories prepended to PATH.
		PathDirs []string `json:"path_dirs" yaml:"path_dirs" mapstructure:"path_dirs"`
		// Shell is the interactive login shell used when no command is given.
		Shell string `json:"shell" yaml:"shell" mapstructure:"shell"`
	}

	// SSHConfig configures the ssh transport.
	SSHConfig struct {
		Client SSHClient `json:"client" yaml:"client" mapstructure:"client"`
		// Binary is the OpenSSH client executable.
		Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`
		// Options are passed as -o flags (OpenSSH) before alias options.
		Options []string `json:"options" yaml:"options" mapstructure:"options"`
		// StrictHostKeyChecking makes the native client verify known_hosts.
		StrictHostKeyChecking bool `json:"strict_host_key_checking" yaml:"strict_host_key_checking" mapstructure:"strict_host_key_checking"`
	}

	// ContainerConfig configures the docker transport.
	ContainerConfig struct {
		Engine ContainerEngine `json:"engine" yaml:"engine" mapstructure:"engine"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" yaml:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
	}
)

// Sources returns the config files merged into c, in load order.
func (c *Config) Sources() []string {
	return append([]string(nil), c.sources...)
}

// IsValid reports whether the exec section is usable.
func (c ExecConfig) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.URIEnv) == "" || strings.ContainsAny(c.URIEnv, "= \t") {
		errs = append(errs, fmt.Errorf("exec.uri_env %q is not a valid variable name", c.URIEnv))
	}
	if strings.TrimSpace(c.Shell) == "" {
		errs = append(errs, errors.New("exec.shell must not be empty"))
	}
	for i, cmd := range c.LocalCommands {
		if strings.TrimSpace(cmd) == "" {
			errs = append(errs, fmt.Errorf("exec.local_commands[%d] must not be empty", i))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidExecConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidExecConfigError) Error() string {
	return fmt.Sprintf("invalid exec config: %s", joinErrors(e.FieldErrors))
}

// Unwrap exposes ErrInvalidExecConfig and the field errors to errors.Is().
func (e *InvalidExecConfigError) Unwrap() []error {
	return append([]error{ErrInvalidExecConfig}, e.FieldErrors...)
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Exec.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.SSH.Client.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Container.Engine.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", joinErrors(e.FieldErrors))
}

// Unwrap exposes ErrInvalidConfig and the field errors to errors.Is().
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: docker, podman)", e.Value)
}

func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

func (ce ContainerEngine) String() string { return string(ce) }

// IsValid returns whether the ContainerEngine is one of the defined engine types.
func (ce ContainerEngine) IsValid() (bool, []error) {
	switch ce {
	case ContainerEngineDocker, ContainerEnginePodman:
		return true, nil
	default:
		return false, []error{&InvalidContainerEngineError{Value: ce}}
	}
}

func (e *InvalidSSHClientError) Error() string {
	return fmt.Sprintf("invalid ssh client %q (valid: openssh, native)", e.Value)
}

func (e *InvalidSSHClientError) Unwrap() error { return ErrInvalidSSHClient }

func (c SSHClient) String() string { return string(c) }

// IsValid returns whether the SSHClient names a known backend.
func (c SSHClient) IsValid() (bool, []error) {
	switch c {
	case SSHClientOpenSSH, SSHClientNative:
		return true, nil
	default:
		return false, []error{&InvalidSSHClientError{Value: c}}
	}
}

func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// GlamourStyle maps the scheme to a glamour standard style name. darkTerminal
// decides the auto scheme.
func (cs ColorScheme) GlamourStyle(darkTerminal bool) string {
	switch {
	case cs == ColorSchemeLight:
		return "light"
	case cs == ColorSchemeDark, darkTerminal:
		return "dark"
	default:
		return "light"
	}
}

func joinErrors(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		AliasDirectories: []string{},
		Exec: ExecConfig{
			LocalCommands: []string{"git"},
			URIEnv:        "DRUSH_OPTIONS_URI",
			PathDirs:      []string{"vendor/bin", "bin"},
			Shell:         "bash",
		},
		SSH: SSHConfig{
			Client:                SSHClientOpenSSH,
			Binary:                "ssh",
			Options:               []string{},
			StrictHostKeyChecking: true,
		},
		Container: ContainerConfig{
			Engine: ContainerEngineDocker,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
