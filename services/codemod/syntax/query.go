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

// Tree-sitter node types shared by the JavaScript, TypeScript and TSX grammars.
const (
	NodeProgram             = "program"
	NodeComment             = "comment"
	NodeImportStatement     = "import_statement"
	NodeImportClause        = "import_clause"
	NodeNamedImports        = "named_imports"
	NodeNamespaceImport     = "namespace_import"
	NodeImportSpecifier     = "import_specifier"
	NodeExportStatement     = "export_statement"
	NodeExportClause        = "export_clause"
	NodeExportSpecifier     = "export_specifier"
	NodeString              = "string"
	NodeStringFragment      = "string_fragment"
	NodeIdentifier          = "identifier"
	NodeTypeIdentifier      = "type_identifier"
	NodePropertyIdentifier  = "property_identifier"
	NodeShorthandProperty   = "shorthand_property_identifier"
	NodeFunctionDeclaration = "function_declaration"
	NodeFunctionExpression  = "function_expression"
	NodeFunctionLegacy      = "function"
	NodeArrowFunction       = "arrow_function"
	NodeLexicalDeclaration  = "lexical_declaration"
	NodeVariableDeclaration = "variable_declaration"
	NodeVariableDeclarator  = "variable_declarator"
	NodeCallExpression      = "call_expression"
	NodeNewExpression       = "new_expression"
	NodeMemberExpression    = "member_expression"
	NodeArguments           = "arguments"
	NodeObject              = "object"
	NodePair                = "pair"
	NodeSpreadElement       = "spread_element"
	NodeMethodDefinition    = "method_definition"
	NodeReturnStatement     = "return_statement"
	NodeStatementBlock      = "statement_block"
	NodeParenthesized       = "parenthesized_expression"
	NodeCatchClause         = "catch_clause"
	NodeFormalParameters    = "formal_parameters"
	NodeRequiredParameter   = "required_parameter"
	NodeOptionalParameter   = "optional_parameter"
	NodeTypeAnnotation      = "type_annotation"
	NodeGenericType         = "generic_type"
	NodeNestedTypeID        = "nested_type_identifier"
	NodeTypeArguments       = "type_arguments"
	NodeJSXOpening          = "jsx_opening_element"
	NodeJSXClosing          = "jsx_closing_element"
	NodeJSXSelfClosing      = "jsx_self_closing_element"
	NodeImport              = "import"
	NodeAmbientDeclaration  = "ambient_declaration"
	NodeModule              = "module"
	NodeInterfaceDecl       = "interface_declaration"
	NodeInterfaceBody       = "interface_body"
	NodeObjectType          = "object_type"
	NodePropertySignature   = "property_signature"
)

// Walk visits n and its descendants in document order.
//
// The visit function returns false to skip the children of the node it was
// given. Walk is iterative so deeply nested input cannot exhaust the stack.
func Walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	stack := []*sitter.Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(cur) {
			continue
		}
		for i := int(cur.ChildCount()) - 1; i >= 0; i-- {
			if child := cur.Child(i); child != nil {
				stack = append(stack, child)
			}
		}
	}
}

// Collect returns every descendant of n (n included) whose type is one of types,
// in document order.
func Collect(n *sitter.Node, types ...string) []*sitter.Node {
	var out []*sitter.Node
	Walk(n, func(cur *sitter.Node) bool {
		for _, t := range types {
			if cur.Type() == t {
				out = append(out, cur)
				break
			}
		}
		return true
	})
	return out
}

// Same reports whether two nodes cover the same range with the same type.
func Same(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// IsField reports whether child is the node stored under field on parent.
func IsField(parent *sitter.Node, field string, child *sitter.Node) bool {
	if parent == nil {
		return false
	}
	return Same(parent.ChildByFieldName(field), child)
}

// FirstNamed returns the first named child of n that is not a comment.
func FirstNamed(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child != nil && child.Type() != NodeComment {
			return child
		}
	}
	return nil
}

// NamedChildren returns the named, non-comment children of n.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child != nil && child.Type() != NodeComment {
			out = append(out, child)
		}
	}
	return out
}

// IsFunction reports whether n is any function-valued node.
func IsFunction(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case NodeFunctionDeclaration, NodeFunctionExpression, NodeFunctionLegacy, NodeArrowFunction:
		return true
	}
	return false
}

// Unparen strips any parenthesized_expression wrappers.
func Unparen(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == NodeParenthesized {
		n = FirstNamed(n)
	}
	return n
}

// StringValue returns the unquoted value of a string literal node.
//
// Outputs:
//
//	string - The literal value without quotes.
//	bool - False if n is not a plain string literal.
func (d *Document) StringValue(n *sitter.Node) (string, bool) {
	if n == nil || n.Type() != NodeString {
		return "", false
	}
	text := d.Text(n)
	if len(text) < 2 {
		return "", false
	}
	return text[1 : len(text)-1], true
}

// ReplaceStringValue queues rewriting the value of a string literal while
// keeping its original quote characters.
func (d *Document) ReplaceStringValue(n *sitter.Node, value string) {
	d.ReplaceRange(n.StartByte()+1, n.EndByte()-1, value)
}

// Quote renders s as a single-quoted JavaScript string literal.
func Quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// IsReference reports whether an identifier node reads a binding rather than
// declaring one or naming an import/export specifier.
//
// Object keys and member properties are separate node types
// (property_identifier) and never reach this check.
func IsReference(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case NodeImportSpecifier, NodeExportSpecifier, NodeNamespaceImport, NodeImportClause:
		return false
	case NodeFunctionDeclaration, NodeFunctionExpression, NodeFunctionLegacy,
		"class_declaration", "class", "generator_function_declaration",
		"interface_declaration", "type_alias_declaration", "enum_declaration":
		return !IsField(parent, "name", n)
	case NodeVariableDeclarator:
		return !IsField(parent, "name", n)
	case NodeRequiredParameter, NodeOptionalParameter:
		return !IsField(parent, "pattern", n)
	case NodeFormalParameters:
		return false
	case NodeNestedTypeID:
		return !IsField(parent, "name", n)
	case NodeArrowFunction:
		return !IsField(parent, "parameter", n)
	case "labeled_statement", "break_statement", "continue_statement":
		return false
	}
	return true
}

// RenameReferences queues renaming every reference to the binding old.
//
// Identifiers, type identifiers and JSX tag names are all covered; specifier
// and declaration positions are skipped (see IsReference). A shorthand
// object property keeps its key: { old } becomes { old: replacement }.
//
// Outputs:
//
//	int - Number of edits queued.
func (d *Document) RenameReferences(old, replacement string) int {
	if old == "" || old == replacement {
		return 0
	}
	count := 0
	Walk(d.Root(), func(n *sitter.Node) bool {
		switch n.Type() {
		case NodeIdentifier, NodeTypeIdentifier:
			if d.Text(n) == old && IsReference(n) {
				d.Replace(n, replacement)
				count++
			}
		case NodeShorthandProperty:
			if d.Text(n) == old {
				d.Replace(n, old+": "+replacement)
				count++
			}
		}
		return true
	})
	return count
}

// isLocalExportName reports whether n is the local name of an export
// specifier in a clause without a from source, i.e. export { n }.
func isLocalExportName(n *sitter.Node) bool {
	spec := n.Parent()
	if spec == nil || spec.Type() != NodeExportSpecifier || !IsField(spec, "name", n) {
		return false
	}
	clause := spec.Parent()
	if clause == nil {
		return false
	}
	stmt := clause.Parent()
	return stmt != nil && stmt.ChildByFieldName("source") == nil
}

// RenameLocalExports queues pointing local export specifiers for old at
// replacement without changing the exported name: export { old } becomes
// export { replacement as old }. Re-exports from another module are skipped.
func (d *Document) RenameLocalExports(old, replacement string) int {
	if old == "" || old == replacement {
		return 0
	}
	count := 0
	for _, spec := range Collect(d.Root(), NodeExportSpecifier) {
		name := spec.ChildByFieldName("name")
		if name == nil || d.Text(name) != old || !isLocalExportName(name) {
			continue
		}
		if spec.ChildByFieldName("alias") != nil {
			d.Replace(name, replacement)
		} else {
			d.Replace(name, replacement+" as "+old)
		}
		count++
	}
	return count
}

// HasReference reports whether any reference to name remains outside of
// import declarations.
func (d *Document) HasReference(name string) bool {
	found := false
	Walk(d.Root(), func(n *sitter.Node) bool {
		if found || n.Type() == NodeImportStatement {
			return false
		}
		switch n.Type() {
		case NodeIdentifier, NodeTypeIdentifier, NodeShorthandProperty:
			if d.Text(n) == name && (n.Type() == NodeShorthandProperty || IsReference(n) || isLocalExportName(n)) {
				found = true
			}
		}
		return !found
	})
	return found
}

// Declares reports whether name is bound anywhere in the document other than
// by an import: declarations, parameters and destructuring patterns.
func (d *Document) Declares(name string) bool {
	found := false
	Walk(d.Root(), func(n *sitter.Node) bool {
		if found || n.Type() == NodeImportStatement {
			return false
		}
		switch n.Type() {
		case NodeIdentifier:
			if d.Text(n) != name || IsReference(n) {
				return true
			}
			if p := n.Parent(); p != nil {
				switch p.Type() {
				case NodeExportSpecifier, "labeled_statement", "break_statement", "continue_statement":
					return true
				}
			}
			found = true
		case "shorthand_property_identifier_pattern":
			found = d.Text(n) == name
		}
		return !found
	})
	return found
}

// Comments returns every comment node in document order.
func (d *Document) Comments() []*sitter.Node {
	return Collect(d.Root(), NodeComment)
}

// LeadingComment returns the comment immediately preceding statement n, or
// nil. Only whitespace may separate the comment from the statement.
func (d *Document) LeadingComment(n *sitter.Node) *sitter.Node {
	prev := n.PrevSibling()
	if prev == nil || prev.Type() != NodeComment {
		return nil
	}
	between := d.src[prev.EndByte():n.StartByte()]
	if strings.TrimSpace(string(between)) != "" {
		return nil
	}
	return prev
}
