// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runner

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"
)

// DiffContext is the number of unchanged lines around each hunk.
const DiffContext = 3

// DiffStat counts the lines a diff adds and removes. A modified line counts
// once on each side.
type DiffStat struct {
	Added   int32
	Deleted int32
}

// UnifiedDiff renders the change from before to after as a git-style
// unified diff and counts its lines.
//
// Outputs:
//
//	string - The diff, empty when the contents are equal.
//	DiffStat - Line counts parsed back from the rendered diff.
//	error - Non-nil if the diff could not be rendered or parsed.
func UnifiedDiff(rel string, before, after []byte) (string, DiffStat, error) {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "a/" + rel,
		ToFile:   "b/" + rel,
		Context:  DiffContext,
	})
	if err != nil {
		return "", DiffStat{}, fmt.Errorf("render diff for %s: %w", rel, err)
	}
	if text == "" {
		return "", DiffStat{}, nil
	}

	fd, err := diff.ParseFileDiff([]byte(text))
	if err != nil {
		return "", DiffStat{}, fmt.Errorf("parse diff for %s: %w", rel, err)
	}
	st := fd.Stat()
	return text, DiffStat{Added: st.Added + st.Changed, Deleted: st.Deleted + st.Changed}, nil
}
