// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package syntax wraps tree-sitter concrete syntax trees for JavaScript and
// TypeScript with a small edit API.
//
// A Document owns the source bytes of one file and the tree parsed from them.
// Rewrites never touch the tree directly: callers queue byte-range edits
// (Replace, Insert, Delete) computed from nodes of the current tree and call
// Commit, which splices the edits into the source and re-parses. Nodes
// obtained before a Commit must not be used after it.
//
// Bytes outside edited ranges are copied verbatim, so formatting and comments
// survive every rewrite.
package syntax

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

const (
	// DefaultMaxFileSize is the largest source accepted by Parse (5MB).
	DefaultMaxFileSize = 5 * 1024 * 1024

	// WarnFileSize triggers a warning log for unusually large route modules.
	WarnFileSize = 512 * 1024
)

// Grammar selects the tree-sitter grammar used for a document.
type Grammar int

const (
	// GrammarTypeScript parses .ts, .mts and .cts files.
	GrammarTypeScript Grammar = iota

	// GrammarTSX parses .tsx files.
	GrammarTSX

	// GrammarJavaScript parses .js, .jsx, .mjs and .cjs files (JSX included).
	GrammarJavaScript
)

// String returns the grammar name.
func (g Grammar) String() string {
	switch g {
	case GrammarTypeScript:
		return "typescript"
	case GrammarTSX:
		return "tsx"
	case GrammarJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// IsTypeScript reports whether the grammar accepts type syntax.
func (g Grammar) IsTypeScript() bool {
	return g == GrammarTypeScript || g == GrammarTSX
}

func (g Grammar) language() *sitter.Language {
	switch g {
	case GrammarTSX:
		return tsx.GetLanguage()
	case GrammarJavaScript:
		return javascript.GetLanguage()
	default:
		return typescript.GetLanguage()
	}
}

// GrammarFor picks a grammar from the file extension.
//
// Outputs:
//
//	Grammar - The grammar for the extension.
//	error - ErrUnsupportedExtension for anything that is not JS or TS.
func GrammarFor(path string) (Grammar, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return GrammarTypeScript, nil
	case ".tsx":
		return GrammarTSX, nil
	case ".js", ".jsx", ".mjs", ".cjs":
		return GrammarJavaScript, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedExtension, filepath.Ext(path))
	}
}

// edit is one pending byte-range replacement. Insertions have start == end.
type edit struct {
	start uint32
	end   uint32
	text  string
	seq   int
}

// Document is the mutable syntax tree of one source file.
//
// Description:
//
//	Document pairs the current source bytes with the tree-sitter tree parsed
//	from them. Rewrite passes read nodes from Root(), queue edits, and call
//	Commit to apply them. Commit re-parses, so after it returns every pass sees
//	a tree consistent with the new source.
//
// Thread Safety:
//
//	Document is NOT safe for concurrent use. It is owned by a single
//	transform call for its whole lifetime.
type Document struct {
	path     string
	grammar  Grammar
	src      []byte
	tree     *sitter.Tree
	pending  []edit
	seq      int
	revision int
}

// Parse builds a Document for the given path and source.
//
// Description:
//
//	Selects a grammar from the path extension, validates the content and
//	parses it. Sources that contain syntax errors are rejected with a
//	*ParseError wrapping ErrSyntax; rewriting such files could silently
//	corrupt them.
//
// Inputs:
//
//	ctx - Context for cancellation of the parse.
//	path - File path (used for grammar selection and error messages).
//	src - Source bytes. Must be valid UTF-8.
//
// Outputs:
//
//	*Document - The parsed document. Caller must call Close.
//	error - ErrUnsupportedExtension, ErrInvalidContent, ErrFileTooLarge,
//	        *ParseError, or a context error.
func Parse(ctx context.Context, path string, src []byte) (*Document, error) {
	grammar, err := GrammarFor(path)
	if err != nil {
		return nil, err
	}
	if len(src) > DefaultMaxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(src), DefaultMaxFileSize)
	}
	if len(src) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", path),
			slog.Int("size_bytes", len(src)))
	}
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	doc := &Document{
		path:    path,
		grammar: grammar,
		src:     append([]byte(nil), src...),
	}
	tree, err := doc.parse(ctx, doc.src)
	if err != nil {
		return nil, err
	}
	if errNode := firstError(tree.RootNode()); errNode != nil {
		tree.Close()
		return nil, &ParseError{
			FilePath: path,
			Line:     int(errNode.StartPoint().Row) + 1,
			Column:   int(errNode.StartPoint().Column),
			Cause:    ErrSyntax,
		}
	}
	doc.tree = tree
	return doc, nil
}

func (d *Document) parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	// New parser per call; tree-sitter parsers are not safe to share.
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(d.grammar.language())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	return tree, nil
}

// Close releases the tree-sitter tree.
func (d *Document) Close() {
	if d.tree != nil {
		d.tree.Close()
		d.tree = nil
	}
}

// Path returns the document path.
func (d *Document) Path() string { return d.path }

// Grammar returns the grammar the document was parsed with.
func (d *Document) Grammar() Grammar { return d.grammar }

// Source returns the current source bytes. The slice must not be modified.
func (d *Document) Source() []byte { return d.src }

// Revision counts the commits that changed the source.
func (d *Document) Revision() int { return d.revision }

// Root returns the root "program" node of the current tree.
func (d *Document) Root() *sitter.Node {
	return d.tree.RootNode()
}

// Text returns the source text covered by n.
func (d *Document) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if int(end) > len(d.src) || start > end {
		return ""
	}
	return string(d.src[start:end])
}

// Replace queues replacing the bytes of n with text.
func (d *Document) Replace(n *sitter.Node, text string) {
	d.ReplaceRange(n.StartByte(), n.EndByte(), text)
}

// ReplaceRange queues replacing src[start:end] with text.
func (d *Document) ReplaceRange(start, end uint32, text string) {
	d.seq++
	d.pending = append(d.pending, edit{start: start, end: end, text: text, seq: d.seq})
}

// Insert queues inserting text at offset. Insertions at the same offset keep
// their queue order.
func (d *Document) Insert(offset uint32, text string) {
	d.ReplaceRange(offset, offset, text)
}

// Delete queues removing exactly the bytes of n.
func (d *Document) Delete(n *sitter.Node) {
	d.ReplaceRange(n.StartByte(), n.EndByte(), "")
}

// DeleteStatement queues removing a statement together with its line.
//
// When the statement is the only thing on its line(s), the leading
// indentation and the trailing newline are removed as well so no blank line
// is left behind.
func (d *Document) DeleteStatement(n *sitter.Node) {
	start, end := n.StartByte(), n.EndByte()
	lineStart := d.LineStart(start)
	if strings.TrimSpace(string(d.src[lineStart:start])) == "" {
		start = lineStart
	}
	i := end
	for int(i) < len(d.src) && (d.src[i] == ' ' || d.src[i] == '\t') {
		i++
	}
	switch {
	case int(i) < len(d.src) && d.src[i] == '\n':
		end = i + 1
	case int(i)+1 < len(d.src) && d.src[i] == '\r' && d.src[i+1] == '\n':
		end = i + 2
	case int(i) == len(d.src):
		end = i
	}
	d.ReplaceRange(start, end, "")
}

// Pending returns the number of queued edits.
func (d *Document) Pending() int { return len(d.pending) }

// Discard drops all queued edits.
func (d *Document) Discard() { d.pending = d.pending[:0] }

// LineStart returns the offset of the first byte of the line containing offset.
func (d *Document) LineStart(offset uint32) uint32 {
	i := int(offset)
	if i > len(d.src) {
		i = len(d.src)
	}
	for i > 0 && d.src[i-1] != '\n' {
		i--
	}
	return uint32(i)
}

// Indent returns the leading whitespace of the line containing n.
func (d *Document) Indent(n *sitter.Node) string {
	start := d.LineStart(n.StartByte())
	i := start
	for int(i) < len(d.src) && (d.src[i] == ' ' || d.src[i] == '\t') {
		i++
	}
	return string(d.src[start:i])
}

// Commit applies all queued edits and re-parses the document.
//
// Description:
//
//	Edits are ordered by position; identical duplicates are collapsed and
//	any other overlap is rejected with ErrOverlappingEdits. If the edited
//	source fails to parse cleanly the document is left untouched and a
//	*ParseError wrapping ErrEditBrokeSyntax is returned. The pending queue
//	is always cleared.
//
// Outputs:
//
//	bool - True if the source bytes changed.
//	error - Non-nil if the edits could not be applied.
func (d *Document) Commit(ctx context.Context) (bool, error) {
	if len(d.pending) == 0 {
		return false, nil
	}
	edits := d.pending
	d.pending = nil

	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		if edits[i].end != edits[j].end {
			return edits[i].end < edits[j].end
		}
		return edits[i].seq < edits[j].seq
	})

	var out bytes.Buffer
	out.Grow(len(d.src))
	cursor := uint32(0)
	var prev *edit
	for i := range edits {
		e := &edits[i]
		if prev != nil && prev.start == e.start && prev.end == e.end && prev.text == e.text && e.start != e.end {
			continue
		}
		if e.start < cursor || int(e.end) > len(d.src) || e.start > e.end {
			return false, fmt.Errorf("%w: [%d,%d) in %s", ErrOverlappingEdits, e.start, e.end, d.path)
		}
		out.Write(d.src[cursor:e.start])
		out.WriteString(e.text)
		cursor = e.end
		prev = e
	}
	out.Write(d.src[cursor:])

	next := out.Bytes()
	if bytes.Equal(next, d.src) {
		return false, nil
	}

	tree, err := d.parse(ctx, next)
	if err != nil {
		return false, err
	}
	if errNode := firstError(tree.RootNode()); errNode != nil {
		tree.Close()
		return false, &ParseError{
			FilePath: d.path,
			Line:     int(errNode.StartPoint().Row) + 1,
			Column:   int(errNode.StartPoint().Column),
			Cause:    ErrEditBrokeSyntax,
		}
	}

	d.tree.Close()
	d.tree = tree
	d.src = next
	d.revision++
	return true, nil
}

// firstError returns the first ERROR or MISSING node, or nil.
func firstError(node *sitter.Node) *sitter.Node {
	if node == nil || !node.HasError() {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if found := firstError(node.Child(i)); found != nil {
			return found
		}
	}
	return node
}
