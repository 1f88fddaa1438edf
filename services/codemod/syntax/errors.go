// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package syntax

import (
	"errors"
	"fmt"
)

// Sentinel errors for document parse and edit failures.
//
// These errors can be checked using errors.Is() to determine the
// category of failure without inspecting error messages.
var (
	// ErrUnsupportedExtension indicates that no grammar is registered for the
	// file extension of the document path.
	ErrUnsupportedExtension = errors.New("unsupported file extension")

	// ErrInvalidContent indicates that the source is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")

	// ErrFileTooLarge indicates that the source exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrSyntax indicates that the source does not parse cleanly.
	//
	// Malformed files are rejected before any rewrite runs; the codemod never
	// edits a file it cannot fully understand.
	ErrSyntax = errors.New("syntax error")

	// ErrOverlappingEdits indicates that two queued edits touch the same bytes.
	ErrOverlappingEdits = errors.New("overlapping edits")

	// ErrEditBrokeSyntax indicates that applying the queued edits produced
	// source that no longer parses. The document is left unchanged.
	ErrEditBrokeSyntax = errors.New("edit produced invalid syntax")
)

// ParseError provides the location of the first syntax error in a document.
type ParseError struct {
	// FilePath is the document path.
	FilePath string

	// Line is the 1-indexed line of the first error node.
	Line int

	// Column is the 0-indexed column of the first error node.
	Column int

	// Cause is ErrSyntax or ErrEditBrokeSyntax.
	Cause error
}

// Error returns "path:line:col: cause".
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %v", e.FilePath, e.Line, e.Column, e.Cause)
}

// Unwrap returns the underlying sentinel.
func (e *ParseError) Unwrap() error {
	return e.Cause
}
