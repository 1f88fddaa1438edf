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
	sitter "github.com/smacker/go-tree-sitter"
)

// Definition is a top-level binding of a function or constant.
type Definition struct {
	// Statement is the top-level statement: the export_statement when the
	// binding is exported inline, otherwise the declaration itself.
	Statement *sitter.Node

	// Declaration is the function_declaration or variable_declarator.
	Declaration *sitter.Node

	// Function is the function node bound to the name, or nil when the
	// binding is not initialized with a function.
	Function *sitter.Node

	// Exported is true for `export function` / `export const` forms.
	Exported bool
}

// IsVariable reports whether the binding is a const/let/var declarator.
func (def Definition) IsVariable() bool {
	return def.Declaration != nil && def.Declaration.Type() == NodeVariableDeclarator
}

// FindDefinitions returns the top-level definitions of name, exported or not.
func (d *Document) FindDefinitions(name string) []Definition {
	var out []Definition
	root := d.Root()
	for _, stmt := range NamedChildren(root) {
		decl := stmt
		exported := false
		if stmt.Type() == NodeExportStatement {
			decl = stmt.ChildByFieldName("declaration")
			exported = true
			if decl == nil {
				continue
			}
		}
		switch decl.Type() {
		case NodeFunctionDeclaration, "generator_function_declaration":
			if d.Text(decl.ChildByFieldName("name")) == name {
				out = append(out, Definition{Statement: stmt, Declaration: decl, Function: decl, Exported: exported})
			}
		case NodeLexicalDeclaration, NodeVariableDeclaration:
			for _, declarator := range NamedChildren(decl) {
				if declarator.Type() != NodeVariableDeclarator {
					continue
				}
				id := declarator.ChildByFieldName("name")
				if id == nil || id.Type() != NodeIdentifier || d.Text(id) != name {
					continue
				}
				def := Definition{Statement: stmt, Declaration: declarator, Exported: exported}
				if value := Unparen(declarator.ChildByFieldName("value")); IsFunction(value) {
					def.Function = value
				}
				out = append(out, def)
			}
		}
	}
	return out
}

// ExportedNames returns every name exported at the top level: inline
// declarations, export clauses and re-exports.
func (d *Document) ExportedNames() map[string]bool {
	names := make(map[string]bool)
	for _, stmt := range NamedChildren(d.Root()) {
		if stmt.Type() != NodeExportStatement {
			continue
		}
		if decl := stmt.ChildByFieldName("declaration"); decl != nil {
			switch decl.Type() {
			case NodeFunctionDeclaration, "generator_function_declaration", "class_declaration":
				if name := decl.ChildByFieldName("name"); name != nil {
					names[d.Text(name)] = true
				}
			case NodeLexicalDeclaration, NodeVariableDeclaration:
				for _, declarator := range NamedChildren(decl) {
					if id := declarator.ChildByFieldName("name"); id != nil && id.Type() == NodeIdentifier {
						names[d.Text(id)] = true
					}
				}
			}
			continue
		}
		for _, clause := range NamedChildren(stmt) {
			if clause.Type() != NodeExportClause {
				continue
			}
			for _, spec := range NamedChildren(clause) {
				if spec.Type() != NodeExportSpecifier {
					continue
				}
				exported := spec.ChildByFieldName("alias")
				if exported == nil {
					exported = spec.ChildByFieldName("name")
				}
				if exported != nil {
					names[d.Text(exported)] = true
				}
			}
		}
	}
	return names
}

// FirstParameter returns the first parameter node of a function, or nil.
//
// For TypeScript this is a required_parameter/optional_parameter; for
// JavaScript it is the pattern itself. A parenthesis-free arrow parameter
// is returned as the bare identifier.
func FirstParameter(fn *sitter.Node) *sitter.Node {
	if fn == nil {
		return nil
	}
	if params := fn.ChildByFieldName("parameters"); params != nil {
		return FirstNamed(params)
	}
	return fn.ChildByFieldName("parameter")
}
