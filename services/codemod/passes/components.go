// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package passes

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/classify"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/langdetect"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/strategy"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/syntax"
)

// ComponentRenames maps the Remix entry components to their router names.
var ComponentRenames = map[string]string{
	"RemixServer":  "ServerRouter",
	"RemixBrowser": "HydratedRouter",
}

// ModuleRenames maps legacy adapter packages to their replacements. Applied
// to static imports, re-exports and dynamic import() arguments.
var ModuleRenames = map[string]string{
	"@shopify/remix-oxygen": "@shopify/hydrogen/oxygen",
}

// VirtualModuleRenames maps build-tool virtual modules to their router
// names. Applied to every string literal that matches exactly.
var VirtualModuleRenames = map[string]string{
	"virtual:remix/server-build": "virtual:react-router/server-build",
}

// CatchParameterType is the annotation given to untyped catch parameters in
// TypeScript projects. unknown is the only sound choice.
const CatchParameterType = "unknown"

// ComponentRename renames entry components, adapter modules and virtual
// modules, and annotates catch parameters in TypeScript projects.
type ComponentRename struct{}

// Name returns NameComponentRename.
func (ComponentRename) Name() string { return NameComponentRename }

// Run rewrites doc.
func (ComponentRename) Run(ctx context.Context, doc *syntax.Document, file classify.SourceFile, profile *langdetect.Profile) (bool, error) {
	var c changes

	renameComponents(doc)
	renameModuleStrings(doc)
	if err := c.commit(ctx, doc); err != nil {
		return c.any, err
	}

	if profile != nil && profile.IsTypeScript {
		s := strategy.WithCatchType(strategy.For(file.Language), CatchParameterType)
		if err := c.add(s.AddErrorTypeAnnotation(ctx, doc)); err != nil {
			return c.any, err
		}
	}
	return c.any, nil
}

// renameComponents queues component renames in import specifiers, JSX tags
// and value positions.
func renameComponents(doc *syntax.Document) {
	for _, imp := range doc.Imports() {
		for _, spec := range imp.Named {
			replacement, ok := ComponentRenames[spec.Imported]
			if !ok || spec.Node == nil {
				continue
			}
			if name := spec.Node.ChildByFieldName("name"); name != nil {
				doc.Replace(name, replacement)
			} else if first := syntax.FirstNamed(spec.Node); first != nil {
				doc.Replace(first, replacement)
			}
		}
	}

	syntax.Walk(doc.Root(), func(n *sitter.Node) bool {
		switch n.Type() {
		case syntax.NodeImportStatement:
			return false
		case syntax.NodeJSXOpening, syntax.NodeJSXClosing, syntax.NodeJSXSelfClosing:
			if name := n.ChildByFieldName("name"); name != nil && name.Type() == syntax.NodeIdentifier {
				if replacement, ok := ComponentRenames[doc.Text(name)]; ok {
					doc.Replace(name, replacement)
				}
			}
		case syntax.NodeIdentifier:
			if replacement, ok := ComponentRenames[doc.Text(n)]; ok && isValuePosition(n) {
				doc.Replace(n, replacement)
			}
		}
		return true
	})
}

// isValuePosition reports whether an identifier is used as a value: call
// target, constructor, member object, variable initializer or argument.
func isValuePosition(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case syntax.NodeCallExpression:
		return syntax.IsField(parent, "function", n)
	case syntax.NodeNewExpression:
		return syntax.IsField(parent, "constructor", n)
	case syntax.NodeMemberExpression:
		return syntax.IsField(parent, "object", n)
	case syntax.NodeVariableDeclarator:
		return syntax.IsField(parent, "value", n)
	case syntax.NodeArguments:
		return true
	}
	return false
}

// renameModuleStrings queues adapter module renames in import/export
// sources and dynamic imports, and virtual module renames in every exact
// string literal.
func renameModuleStrings(doc *syntax.Document) {
	syntax.Walk(doc.Root(), func(n *sitter.Node) bool {
		if n.Type() != syntax.NodeString {
			return true
		}
		value, ok := doc.StringValue(n)
		if !ok {
			return false
		}
		if replacement, ok := VirtualModuleRenames[value]; ok {
			doc.ReplaceStringValue(n, replacement)
			return false
		}
		if replacement, ok := ModuleRenames[value]; ok && isModuleSource(n) {
			doc.ReplaceStringValue(n, replacement)
		}
		return false
	})
}

// isModuleSource reports whether a string literal names a module: the
// source of an import or export declaration, or the argument of import().
func isModuleSource(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case syntax.NodeImportStatement, syntax.NodeExportStatement:
		return true
	case syntax.NodeArguments:
		call := parent.Parent()
		if call == nil || call.Type() != syntax.NodeCallExpression {
			return false
		}
		callee := call.ChildByFieldName("function")
		return callee != nil && callee.Type() == syntax.NodeImport
	}
	return false
}
