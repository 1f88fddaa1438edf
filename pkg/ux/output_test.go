// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 files"},
		{1, "1 file"},
		{2, "2 files"},
		{12345, "12,345 files"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Count(tt.n, "file"))
	}
}

func TestBytes(t *testing.T) {
	assert.Equal(t, "12 kB", Bytes(12000))
	assert.Equal(t, "0 B", Bytes(0))
}

func TestPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.Title("Migration summary")
	p.Line(IconSuccess, "%d changed", 3)
	p.Box("Prerequisites not met", []string{"react-router is not a dependency"}, true)

	assert.Equal(t,
		"Migration summary\n"+
			"✓ 3 changed\n"+
			"Prerequisites not met\n"+
			"  react-router is not a dependency\n",
		buf.String())
}

func TestPrinter_PlainDiffIsVerbatim(t *testing.T) {
	diff := "--- a/x.ts\n+++ b/x.ts\n@@ -1 +1 @@\n-a\n+b\n"
	var buf bytes.Buffer
	NewPrinter(&buf, true).Diff(diff)
	assert.Equal(t, diff, buf.String())
}

func TestPrinter_StyledKeepsContent(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Box("Summary", []string{"2 files changed"}, false)
	p.Diff("@@ -1 +1 @@\n-old\n+new\n")

	out := buf.String()
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "2 files changed")
	assert.Contains(t, out, "-old")
	assert.Contains(t, out, "+new")
}
