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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ImportSpecifier is one named binding of an import declaration.
type ImportSpecifier struct {
	// Node is the import_specifier node. Nil for synthesized specifiers.
	Node *sitter.Node

	// Imported is the exported name of the source module.
	Imported string

	// Local is the local binding name (equal to Imported when not aliased).
	Local string

	// TypeOnly is true for inline `type X` specifiers.
	TypeOnly bool
}

// Aliased reports whether the local binding differs from the imported name.
func (s ImportSpecifier) Aliased() bool {
	return s.Local != "" && s.Local != s.Imported
}

// Key identifies a specifier for de-duplication: kind, imported name and alias.
func (s ImportSpecifier) Key() string {
	kind := "value"
	if s.TypeOnly {
		kind = "type"
	}
	return kind + ":" + s.Imported + ":" + s.Local
}

// String renders the specifier, e.g. "type Foo as Bar".
func (s ImportSpecifier) String() string {
	var b strings.Builder
	if s.TypeOnly {
		b.WriteString("type ")
	}
	b.WriteString(s.Imported)
	if s.Aliased() {
		b.WriteString(" as ")
		b.WriteString(s.Local)
	}
	return b.String()
}

// ImportDecl is a parsed top-level import declaration.
type ImportDecl struct {
	// Node is the import_statement node. Nil for synthesized declarations.
	Node *sitter.Node

	// Source is the unquoted module specifier.
	Source string

	// SourceNode is the string literal node of the module specifier.
	SourceNode *sitter.Node

	// TypeOnly is true for `import type { ... }`.
	TypeOnly bool

	// Default is the default binding name, if any.
	Default string

	// Namespace is the `* as name` binding, if any.
	Namespace string

	// Named holds the named specifiers in source order.
	Named []ImportSpecifier

	// HasNamedClause is true when the declaration has braces, even empty ones.
	HasNamedClause bool
}

// SideEffectOnly reports whether the declaration binds nothing (`import 'x'`).
func (d ImportDecl) SideEffectOnly() bool {
	return d.Default == "" && d.Namespace == "" && !d.HasNamedClause
}

// Find returns the specifier with the given imported name.
func (d ImportDecl) Find(imported string) (ImportSpecifier, bool) {
	for _, s := range d.Named {
		if s.Imported == imported {
			return s, true
		}
	}
	return ImportSpecifier{}, false
}

// Render prints the declaration in the codemod's output style:
//
//	import type { a, b as c } from 'module';
func (d ImportDecl) Render() string {
	var b strings.Builder
	b.WriteString("import ")
	if d.TypeOnly {
		b.WriteString("type ")
	}
	var clauses []string
	if d.Default != "" {
		clauses = append(clauses, d.Default)
	}
	if d.Namespace != "" {
		clauses = append(clauses, "* as "+d.Namespace)
	}
	if len(d.Named) > 0 {
		names := make([]string, len(d.Named))
		for i, s := range d.Named {
			names[i] = s.String()
		}
		clauses = append(clauses, "{ "+strings.Join(names, ", ")+" }")
	}
	if len(clauses) > 0 {
		b.WriteString(strings.Join(clauses, ", "))
		b.WriteString(" from ")
	}
	b.WriteString(Quote(d.Source))
	b.WriteString(";")
	return b.String()
}

// Imports returns every top-level import declaration in document order.
func (d *Document) Imports() []ImportDecl {
	var out []ImportDecl
	root := d.Root()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child == nil || child.Type() != NodeImportStatement {
			continue
		}
		if decl, ok := d.ParseImport(child); ok {
			out = append(out, decl)
		}
	}
	return out
}

// ParseImport reads an import_statement node.
//
// Outputs:
//
//	ImportDecl - The parsed declaration.
//	bool - False if the node is not an ES import with a string source
//	       (e.g. `import x = require('y')`).
func (d *Document) ParseImport(node *sitter.Node) (ImportDecl, bool) {
	decl := ImportDecl{Node: node}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type":
			decl.TypeOnly = true
		case NodeImportClause:
			d.readImportClause(child, &decl)
		case NodeString:
			decl.SourceNode = child
		case "import_require_clause":
			return decl, false
		}
	}
	if decl.SourceNode == nil {
		decl.SourceNode = node.ChildByFieldName("source")
	}
	value, ok := d.StringValue(decl.SourceNode)
	if !ok {
		return decl, false
	}
	decl.Source = value
	return decl, true
}

func (d *Document) readImportClause(clause *sitter.Node, decl *ImportDecl) {
	for i := 0; i < int(clause.ChildCount()); i++ {
		child := clause.Child(i)
		switch child.Type() {
		case NodeIdentifier:
			decl.Default = d.Text(child)
		case NodeNamespaceImport:
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if gc := child.NamedChild(j); gc.Type() == NodeIdentifier {
					decl.Namespace = d.Text(gc)
				}
			}
		case NodeNamedImports:
			decl.HasNamedClause = true
			for j := 0; j < int(child.NamedChildCount()); j++ {
				gc := child.NamedChild(j)
				if gc.Type() == NodeImportSpecifier {
					decl.Named = append(decl.Named, d.readImportSpecifier(gc))
				}
			}
		}
	}
}

func (d *Document) readImportSpecifier(node *sitter.Node) ImportSpecifier {
	spec := ImportSpecifier{Node: node}
	if name := node.ChildByFieldName("name"); name != nil {
		spec.Imported = d.Text(name)
	}
	if alias := node.ChildByFieldName("alias"); alias != nil {
		spec.Local = d.Text(alias)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if !child.IsNamed() && child.Type() == "type" {
			spec.TypeOnly = true
		}
	}
	if spec.Imported == "" {
		// Grammars without field names: first identifier is the name, second the alias.
		var ids []string
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if child := node.NamedChild(i); child.Type() == NodeIdentifier {
				ids = append(ids, d.Text(child))
			}
		}
		if len(ids) > 0 {
			spec.Imported = ids[0]
		}
		if len(ids) > 1 {
			spec.Local = ids[1]
		}
	}
	if spec.Local == "" {
		spec.Local = spec.Imported
	}
	return spec
}

// LastImport returns the last top-level import statement, or nil.
func (d *Document) LastImport() *sitter.Node {
	var last *sitter.Node
	root := d.Root()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		if child := root.NamedChild(i); child != nil && child.Type() == NodeImportStatement {
			last = child
		}
	}
	return last
}

// InsertAfterImports queues inserting a block of code after the last import
// declaration, or at the top of the file when there is none.
//
// Inputs:
//
//	block - Code to insert, without surrounding newlines.
//	gap - Number of blank lines between the imports and the block.
func (d *Document) InsertAfterImports(block string, gap int) {
	if last := d.LastImport(); last != nil {
		d.Insert(last.EndByte(), strings.Repeat("\n", gap+1)+block)
		return
	}
	offset := d.PreambleEnd()
	if offset == 0 {
		d.Insert(0, block+strings.Repeat("\n", gap+1))
		return
	}
	d.Insert(offset, "\n"+block)
}

// PreambleEnd returns the offset after a leading hash-bang line and
// triple-slash directives, or 0.
func (d *Document) PreambleEnd() uint32 {
	root := d.Root()
	end := uint32(0)
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch {
		case child.Type() == "hash_bang_line":
			end = child.EndByte()
		case child.Type() == NodeComment && strings.HasPrefix(d.Text(child), "///"):
			end = child.EndByte()
		default:
			return end
		}
	}
	return end
}

// SetNamedImports queues rewriting the named specifiers of an import
// declaration.
//
// Description:
//
//	Only the braces are replaced, so the import kind, default binding and
//	source literal keep their original spelling. A multi-line clause stays
//	multi-line with one specifier per line. When named is empty the brace
//	clause is removed; if nothing else is bound the whole statement is
//	deleted.
func (d *Document) SetNamedImports(decl ImportDecl, named []ImportSpecifier) {
	if len(named) == 0 {
		if decl.Default == "" && decl.Namespace == "" {
			d.DeleteStatement(decl.Node)
			return
		}
		rebuilt := decl
		rebuilt.Named = nil
		d.Replace(decl.Node, rebuilt.Render())
		return
	}

	clause := namedImportsNode(decl.Node)
	if clause == nil {
		rebuilt := decl
		rebuilt.Named = named
		d.Replace(decl.Node, rebuilt.Render())
		return
	}

	names := make([]string, len(named))
	for i, s := range named {
		names[i] = s.String()
	}
	if !strings.Contains(d.Text(clause), "\n") {
		d.Replace(clause, "{ "+strings.Join(names, ", ")+" }")
		return
	}

	indent := d.Indent(decl.Node)
	inner := indent + "  "
	if existing := decl.Named; len(existing) > 0 && existing[0].Node != nil {
		if got := d.Indent(existing[0].Node); d.LineStart(existing[0].Node.StartByte()) != d.LineStart(clause.StartByte()) {
			inner = got
		}
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, n := range names {
		b.WriteString(inner)
		b.WriteString(n)
		b.WriteString(",\n")
	}
	b.WriteString(indent)
	b.WriteString("}")
	d.Replace(clause, b.String())
}

func namedImportsNode(stmt *sitter.Node) *sitter.Node {
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		child := stmt.NamedChild(i)
		if child.Type() != NodeImportClause {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			if gc := child.NamedChild(j); gc.Type() == NodeNamedImports {
				return gc
			}
		}
	}
	return nil
}
