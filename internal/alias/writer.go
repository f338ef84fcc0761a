// SPDX-License-Identifier: MPL-2.0

package alias

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SuggestName derives a site name from a root directory: its base name with
// dots removed and other unsupported characters replaced by dashes.
func SuggestName(root string) string {
	base := filepath.Base(filepath.Clean(root))
	base = strings.ReplaceAll(base, ".", "")
	base = unsafeNameChars.ReplaceAllString(base, "-")
	return strings.Trim(base, "-")
}

// FilePath returns where WriteFile puts the alias for name.
func FilePath(dir, name string) string {
	return filepath.Join(dir, name+FileSuffix+".yml")
}

// WriteFile creates <dir>/<name>.site.yml with a default environment rooted
// at root. An existing file is only replaced when force is set.
func WriteFile(dir, name, root string, force bool) (string, error) {
	if !ValidSegment(name) {
		return "", fmt.Errorf("site name %q: %w", name, ErrInvalidName)
	}
	if strings.TrimSpace(root) == "" {
		return "", &InvalidDefinitionError{Name: Prefix + name, Reasons: []string{"root is required"}}
	}

	path := FilePath(dir, name)
	if _, err := os.Stat(path); err == nil && !force {
		return path, &FileExistsError{Path: path}
	}

	doc := map[string]map[string]string{
		DefaultEnv: {keyRoot: root},
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode alias file: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create alias directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write alias file: %w", err)
	}
	return path, nil
}
