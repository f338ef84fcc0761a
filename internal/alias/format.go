// SPDX-License-Identifier: MPL-2.0

package alias

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jonpugh/ash/pkg/cueutil"

	"cuelang.org/go/cue"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileSuffix is the part of an alias file name between the site and the extension.
const FileSuffix = ".site"

//go:embed alias_schema.cue
var schemaSource []byte

var errEmptyDocument = errors.New("file defines no aliases")

type (
	// decodeFunc turns file bytes into a document. Env mappings are returned
	// as map[string]any of map[string]any.
	decodeFunc func(data []byte, filename string) (map[string]any, error)

	format struct {
		ext    string
		decode decodeFunc
	}
)

var formats = []format{
	{ext: ".yml", decode: decodeYAML},
	{ext: ".yaml", decode: decodeYAML},
	{ext: ".toml", decode: decodeTOML},
	{ext: ".cue", decode: decodeCUE},
}

// Schema returns the CUE definition alias files are checked against.
func Schema() []byte {
	return slices.Clone(schemaSource)
}

// splitFileName returns the site name and format for an alias file name.
func splitFileName(base string) (string, *format, bool) {
	for i := range formats {
		f := &formats[i]
		if site, ok := strings.CutSuffix(base, FileSuffix+f.ext); ok && site != "" {
			return site, f, true
		}
	}
	return "", nil, false
}

// IsAliasFile reports whether base is a recognized alias file name.
func IsAliasFile(base string) bool {
	_, _, ok := splitFileName(base)
	return ok
}

func decodeYAML(data []byte, filename string) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return doc, nil
}

func decodeTOML(data []byte, filename string) (map[string]any, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %w", filename, row, col, err)
		}
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return doc, nil
}

// decodeCUE checks the whole document, or each environment, against #Alias.
func decodeCUE(data []byte, filename string) (map[string]any, error) {
	doc, err := cueutil.Compile(schemaSource, data, "#Alias",
		cueutil.WithFilename(filename),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return nil, err
	}

	labels, err := doc.Fields()
	if err != nil {
		return nil, err
	}
	if isSingleRecord(labels) {
		return doc.Check(cue.MakePath())
	}

	out := make(map[string]any, len(labels))
	for _, label := range labels {
		fields, err := doc.Check(cue.MakePath(cue.Str(label)))
		if err != nil {
			return nil, err
		}
		out[label] = fields
	}
	return out, nil
}

func isSingleRecord(keys []string) bool {
	for _, k := range keys {
		if slices.Contains(RecordFields, k) {
			return true
		}
	}
	return false
}

// recordsFromDocument builds the records a file defines, in a stable order:
// single records first, environments sorted by name.
func recordsFromDocument(location, site, source string, doc map[string]any) ([]*Record, error) {
	if len(doc) == 0 {
		return nil, errEmptyDocument
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}

	if isSingleRecord(keys) {
		r, err := newRecord(NewName(location, site, ""), source, doc)
		if err != nil {
			return nil, err
		}
		return []*Record{r}, nil
	}

	slices.Sort(keys)
	records := make([]*Record, 0, len(keys))
	for _, env := range keys {
		if !ValidSegment(env) {
			return nil, fmt.Errorf("environment %q: %w", env, ErrInvalidName)
		}
		fields, ok := asMap(doc[env])
		if !ok {
			return nil, fmt.Errorf("environment %q must be a mapping, got %T", env, doc[env])
		}
		r, err := newRecord(NewName(location, site, env), source, fields)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func newRecord(name Name, source string, fields map[string]any) (*Record, error) {
	r := &Record{
		Name:     name.String(),
		group:    name.Group(),
		location: name.Location,
		source:   source,
	}
	for k, v := range fields {
		if !slices.Contains(RecordFields, k) {
			if r.Extra == nil {
				r.Extra = map[string]any{}
			}
			r.Extra[k] = normalizeValue(v)
			continue
		}
		if v == nil {
			continue
		}
		switch v.(type) {
		case string, bool, int, int64, uint64, float64:
			r.setField(k, fmt.Sprint(v))
		default:
			return nil, fmt.Errorf("%s: %s must be a scalar, got %T", name, k, v)
		}
	}
	return r, nil
}

// normalizeValue converts decoder-specific map shapes to map[string]any.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeValue(val)
		}
		return out
	case map[any]any:
		m, _ := asMap(t)
		return normalizeValue(m)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	}
	return v
}
