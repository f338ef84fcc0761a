// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

type (
	// ParseResult contains the result of a successful CUE parse operation.
	ParseResult[T any] struct {
		// Value is the decoded Go value.
		Value *T

		// Unified is the unified CUE value.
		Unified cue.Value
	}

	// Document is user data compiled next to its schema definition. Both
	// values share one cue.Context, so they can be unified later.
	Document struct {
		// Data is the compiled user document.
		Data cue.Value

		schema   cue.Value
		filename string
		concrete bool
	}
)

// ParseAndDecode compiles schema and data, unifies data with the definition
// at schemaPath, validates and decodes the result into T.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	doc, err := Compile(schema, data, schemaPath, opts...)
	if err != nil {
		return nil, err
	}

	unified := doc.schema.Unify(doc.Data)
	if err := doc.validate(unified); err != nil {
		return nil, err
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, doc.filename)
	}

	return &ParseResult[T]{
		Value:   &result,
		Unified: unified,
	}, nil
}

// ParseAndDecodeString is ParseAndDecode with the schema given as a string.
func ParseAndDecodeString[T any](schema string, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	return ParseAndDecode[T]([]byte(schema), data, schemaPath, opts...)
}

// Compile compiles the schema and the user data without unifying them.
// Syntax errors in data are reported with the configured filename.
func Compile(schema, data []byte, schemaPath string, opts ...Option) (*Document, error) {
	options := applyOptions(opts)

	// Early file size check to prevent OOM from large files
	if err := CheckFileSize(data, options.maxFileSize, options.filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(options.filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), options.filename)
	}

	return &Document{
		Data:     userValue,
		schema:   schemaRoot,
		filename: options.filename,
		concrete: options.concrete,
	}, nil
}

// Check unifies the sub-value of the document at path with the schema
// definition and decodes it into a generic map.
func (d *Document) Check(path cue.Path) (map[string]any, error) {
	sub := d.Data.LookupPath(path)
	if !sub.Exists() {
		return nil, fmt.Errorf("%s: %s: value not found", d.filename, path)
	}

	unified := d.schema.Unify(sub)
	if err := d.validate(unified); err != nil {
		return nil, err
	}

	var out map[string]any
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, d.filename)
	}
	return out, nil
}

// Fields returns the regular top-level field labels of the document in
// source order.
func (d *Document) Fields() ([]string, error) {
	iter, err := d.Data.Fields()
	if err != nil {
		return nil, FormatError(err, d.filename)
	}

	var labels []string
	for iter.Next() {
		labels = append(labels, iter.Selector().Unquoted())
	}
	return labels, nil
}

func (d *Document) validate(v cue.Value) error {
	var err error
	if d.concrete {
		err = v.Validate(cue.Concrete(true))
	} else {
		err = v.Validate()
	}
	if err != nil {
		return FormatError(err, d.filename)
	}
	return nil
}
