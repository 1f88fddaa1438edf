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
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/syntax"
)

// responseBuilders are the legacy response helpers rewritten by
// ResponseUtility.
var responseBuilders = map[string]bool{"json": true, "defer": true}

const maxResponseRounds = 8

// ResponseUtility unwraps legacy json()/defer() response builders.
//
// Description:
//
//	Only bindings imported from a module other than @shopify/hydrogen are
//	touched; Hydrogen's own exports are left byte-for-byte alone. A call
//	with one argument becomes that argument, so loaders return plain data.
//	A call with more arguments (status or headers) becomes data(...) with
//	the data import from react-router ensured. Once a legacy binding has
//	no references left its import specifier is dropped.
type ResponseUtility struct{}

// Name returns NameResponseUtility.
func (ResponseUtility) Name() string { return NameResponseUtility }

// Run rewrites the response builder calls of doc.
func (ResponseUtility) Run(ctx context.Context, doc *syntax.Document, _ classify.SourceFile, _ *langdetect.Profile) (bool, error) {
	builders := legacyBuilderLocals(doc)
	if len(builders) == 0 {
		return false, nil
	}

	var c changes
	dataLocal, _ := valueBinding(doc, RouterModule, "data", routerAlias("data"))
	needData := false
	// Unwrapping replaces a whole call, so a builder nested in an unwrapped
	// argument waits for the next round.
	for round := 0; round < maxResponseRounds; round++ {
		nested := false
		var unwrappedEnd uint32
		for _, call := range syntax.Collect(doc.Root(), syntax.NodeCallExpression) {
			callee := call.ChildByFieldName("function")
			if callee == nil || callee.Type() != syntax.NodeIdentifier || !builders[doc.Text(callee)] {
				continue
			}
			args := syntax.NamedChildren(call.ChildByFieldName("arguments"))
			switch {
			case len(args) == 0:
				continue
			case call.StartByte() < unwrappedEnd:
				nested = true
			case len(args) == 1 && args[0].Type() != syntax.NodeSpreadElement:
				doc.Replace(call, unwrapped(doc, call, args[0]))
				unwrappedEnd = call.EndByte()
			default:
				doc.Replace(callee, dataLocal)
				needData = true
			}
		}
		if err := c.commit(ctx, doc); err != nil {
			return c.any, err
		}
		if !nested {
			break
		}
	}

	if needData {
		ensureValueImport(doc, RouterModule, "data", dataLocal)
		if err := c.commit(ctx, doc); err != nil {
			return c.any, err
		}
	}

	dropUnreferenced(doc, func(imp syntax.ImportDecl, spec syntax.ImportSpecifier) bool {
		return imp.Source != HydrogenModule && !spec.TypeOnly && responseBuilders[spec.Imported]
	})
	if err := c.commit(ctx, doc); err != nil {
		return c.any, err
	}
	return c.any, nil
}

// legacyBuilderLocals returns the local names of json/defer bindings
// imported from modules other than Hydrogen.
func legacyBuilderLocals(doc *syntax.Document) map[string]bool {
	locals := make(map[string]bool)
	for _, imp := range doc.Imports() {
		if imp.Source == HydrogenModule || imp.TypeOnly {
			continue
		}
		for _, spec := range imp.Named {
			if !spec.TypeOnly && responseBuilders[spec.Imported] {
				locals[spec.Local] = true
			}
		}
	}
	return locals
}

// unwrapped returns the replacement text for a single-argument builder
// call. An object literal that becomes an arrow function body must be
// parenthesized or it would parse as a block.
func unwrapped(doc *syntax.Document, call, arg *sitter.Node) string {
	text := doc.Text(arg)
	if arg.Type() != syntax.NodeObject {
		return text
	}
	if parent := call.Parent(); parent != nil && parent.Type() == syntax.NodeArrowFunction && syntax.IsField(parent, "body", call) {
		return "(" + text + ")"
	}
	return text
}
