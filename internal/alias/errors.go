// SPDX-License-Identifier: MPL-2.0

package alias

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no alias matches a name.
	ErrNotFound = errors.New("alias not found")
	// ErrInvalidAliasDefinition is returned when a record cannot describe a reachable site.
	ErrInvalidAliasDefinition = errors.New("invalid alias definition")
	// ErrInvalidName is returned for tokens outside the alias name grammar.
	ErrInvalidName = errors.New("invalid alias name")
	// ErrInvalidSiteSpec is returned when a site spec cannot be parsed.
	ErrInvalidSiteSpec = errors.New("invalid site spec")
	// ErrAliasFileExists is returned when an alias file would be overwritten.
	ErrAliasFileExists = errors.New("alias file already exists")
)

type (
	// NotFoundError reports a failed lookup. Key is set when the alias exists
	// but a requested field does not.
	NotFoundError struct {
		Name        string
		Key         string
		Suggestions []string
	}

	// InvalidDefinitionError reports why a record cannot be resolved.
	InvalidDefinitionError struct {
		Name    string
		Path    string
		Reasons []string
		Cause   error
	}

	// FileExistsError is returned by WriteFile when the target exists.
	FileExistsError struct {
		Path string
	}
)

func (e *NotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("Key %s was not found in alias %s.", e.Key, e.Name)
	}
	msg := fmt.Sprintf("alias %s not found", e.Name)
	if len(e.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(e.Suggestions, ", ") + "?)"
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func (e *InvalidDefinitionError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid alias definition ")
	sb.WriteString(e.Name)
	if e.Path != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Path)
		sb.WriteString(")")
	}
	if len(e.Reasons) > 0 {
		sb.WriteString(": ")
		sb.WriteString(strings.Join(e.Reasons, "; "))
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap exposes both the sentinel and the cause.
func (e *InvalidDefinitionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrInvalidAliasDefinition}
	}
	return []error{ErrInvalidAliasDefinition, e.Cause}
}

func (e *FileExistsError) Error() string {
	return fmt.Sprintf("alias file %s already exists", e.Path)
}

func (e *FileExistsError) Unwrap() error { return ErrAliasFileExists }
