// SPDX-License-Identifier: MPL-2.0

package alias

const (
	// SeverityInfo marks purely informational diagnostics such as shadowed aliases.
	SeverityInfo Severity = "info"
	// SeverityWarning indicates a skipped file or location.
	SeverityWarning Severity = "warning"

	CodeAliasShadowed        = "alias_shadowed"
	CodeAliasFileInvalid     = "alias_file_invalid"
	CodeLocationMissing      = "alias_location_missing"
	CodeLocationUnreadable   = "alias_location_unreadable"
	CodeLocationNotDirectory = "alias_location_not_directory"
)

type (
	// Severity represents loader diagnostic severity.
	Severity string

	// Diagnostic is a structured loader finding returned to callers rather
	// than written to stderr, so the CLI decides how to render it.
	Diagnostic struct {
		Severity Severity
		// Code is a machine-readable identifier (e.g., "alias_file_invalid").
		Code    string
		Message string
		// Path is the file or location involved (optional).
		Path string
		// Cause is the underlying error (optional).
		Cause error
	}

	// LoadResult bundles the files read during a load with its diagnostics.
	LoadResult struct {
		Files       []string
		Diagnostics []Diagnostic
	}
)

// Warnings returns diagnostics of warning severity.
func (r *LoadResult) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity != SeverityInfo {
			out = append(out, d)
		}
	}
	return out
}
