// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities.
//
// Alias definition files written in CUE go through the same three steps:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with schema
//  3. Validate and decode to Go values
//
// ParseAndDecode covers documents with a single root definition. Documents
// whose shape is only known after inspection (one alias, or a mapping of
// environments to aliases) use Compile and then Document.Check per entry.
//
// # Usage
//
//	//go:embed alias_schema.cue
//	var schemaBytes []byte
//
//	doc, err := cueutil.Compile(schemaBytes, data, "#Alias",
//	    cueutil.WithFilename("prod.site.cue"),
//	    cueutil.WithConcrete(false),
//	)
//	if err != nil {
//	    return nil, err // error includes the CUE path
//	}
//	fields, err := doc.Check(cue.MakePath(cue.Str("live")))
package cueutil
