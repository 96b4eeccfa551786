// SPDX-License-Identifier: MPL-2.0

// Package cueutil checks descriptor and configuration documents against an
// embedded CUE schema.
//
// A Schema is compiled once at package initialization; Decode then unifies
// each document with the schema definition and decodes the result:
//
//	//go:embed descriptor_schema.cue
//	var schemaSource []byte
//
//	var descriptorSchema = cueutil.MustCompile(schemaSource, "#Descriptor")
//
//	f, err := cueutil.Decode[fileDescriptor](descriptorSchema, data,
//	    cueutil.WithFilename("Core.build.cue"))
//
// Schema violations come back as *ValidationError, one FieldError per
// offending field path (e.g. "platforms.Win64.public_dependencies[0]").
package cueutil
