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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/classify"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/langdetect"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/strategy"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/syntax"
)

const (
	// LegacyContextFactory is the Remix-era load context factory.
	LegacyContextFactory = "createAppLoadContext"

	// ContextFactory is the React Router load context factory.
	ContextFactory = "createHydrogenRouterContext"

	// HydrogenContextFactory builds the base context that the factory spreads.
	HydrogenContextFactory = "createHydrogenContext"

	// DefaultBaseContext is the conventional name of the base context binding.
	DefaultBaseContext = "hydrogenContext"

	// AdditionalContextBinding holds the properties split off the base context.
	AdditionalContextBinding = "additionalContext"
)

// MaxMemberDepth bounds the walk down a member expression chain.
const MaxMemberDepth = 32

// ContextAPI migrates the load context.
//
// Description:
//
//	In context files the factory is renamed and, when its return value
//	spreads the Hydrogen base context next to extra properties, the extras
//	are split into an additionalContext binding, typed through the file's
//	strategy, and merged back with Object.assign (TypeScript) or a double
//	spread (JavaScript).
//
//	In every other file, storefront.i18n reads are redirected to
//	customerAccount.i18n.
type ContextAPI struct{}

// Name returns NameContextAPI.
func (ContextAPI) Name() string { return NameContextAPI }

// Run rewrites doc.
func (ContextAPI) Run(ctx context.Context, doc *syntax.Document, file classify.SourceFile, _ *langdetect.Profile) (bool, error) {
	var c changes
	if !file.IsContext {
		rewriteI18nAccess(doc)
		if err := c.commit(ctx, doc); err != nil {
			return c.any, err
		}
		return c.any, nil
	}

	renameFactory(doc)
	if err := c.commit(ctx, doc); err != nil {
		return c.any, err
	}

	for _, def := range doc.FindDefinitions(ContextFactory) {
		if def.Function == nil {
			continue
		}
		props, ok := splitAdditionalContext(doc, def.Function, file.Language)
		if !ok {
			continue
		}
		if err := c.commit(ctx, doc); err != nil {
			return c.any, err
		}
		s := strategy.For(file.Language)
		if err := c.add(s.AddContextTypes(ctx, doc, props)); err != nil {
			return c.any, err
		}
		break
	}
	return c.any, nil
}

// renameFactory queues renaming the legacy factory at its declaration, its
// references, and import/export specifiers naming it.
func renameFactory(doc *syntax.Document) {
	for _, def := range doc.FindDefinitions(LegacyContextFactory) {
		if def.Function == nil {
			continue
		}
		if name := def.Declaration.ChildByFieldName("name"); name != nil {
			doc.Replace(name, ContextFactory)
		}
	}

	imported := false
	for _, imp := range doc.Imports() {
		for _, spec := range imp.Named {
			if spec.Imported != LegacyContextFactory || spec.Node == nil {
				continue
			}
			imported = true
			if name := spec.Node.ChildByFieldName("name"); name != nil {
				doc.Replace(name, ContextFactory)
			}
		}
	}

	if !imported && len(doc.FindDefinitions(LegacyContextFactory)) == 0 {
		return
	}
	doc.RenameReferences(LegacyContextFactory, ContextFactory)
	for _, spec := range syntax.Collect(doc.Root(), syntax.NodeExportSpecifier) {
		if name := spec.ChildByFieldName("name"); name != nil && doc.Text(name) == LegacyContextFactory {
			doc.Replace(name, ContextFactory)
		}
	}
}

// contextProperty is one property of the returned context object.
type contextProperty struct {
	node *sitter.Node
	name string
}

// splitAdditionalContext queues the additionalContext split for a factory.
//
// Outputs:
//
//	[]string - Names of the additional properties, for type declarations.
//	bool - False when the factory needs no split: its return value is not
//	       an object spreading the base context, has no extra properties,
//	       or was already split.
func splitAdditionalContext(doc *syntax.Document, fn *sitter.Node, lang langdetect.Language) ([]string, bool) {
	body := fn.ChildByFieldName("body")
	if body == nil || body.Type() != syntax.NodeStatementBlock {
		return nil, false
	}
	for _, declarator := range syntax.Collect(body, syntax.NodeVariableDeclarator) {
		if doc.Text(declarator.ChildByFieldName("name")) == AdditionalContextBinding {
			return nil, false
		}
	}

	var ret *sitter.Node
	for _, stmt := range syntax.NamedChildren(body) {
		if stmt.Type() == syntax.NodeReturnStatement {
			ret = stmt
		}
	}
	if ret == nil {
		return nil, false
	}
	value := syntax.FirstNamed(ret)
	obj := syntax.Unparen(value)
	if obj == nil || obj.Type() != syntax.NodeObject {
		return nil, false
	}

	base := baseContextName(doc, body)
	hasBase := false
	var extras []contextProperty
	for _, prop := range syntax.NamedChildren(obj) {
		if prop.Type() == syntax.NodeSpreadElement {
			arg := syntax.FirstNamed(prop)
			if arg != nil && arg.Type() == syntax.NodeIdentifier {
				switch doc.Text(arg) {
				case base:
					hasBase = true
					continue
				case AdditionalContextBinding:
					continue
				}
			}
		}
		extras = append(extras, contextProperty{node: prop, name: propertyName(doc, prop)})
	}
	if !hasBase || len(extras) == 0 {
		return nil, false
	}

	indent := doc.Indent(ret)
	var b strings.Builder
	b.WriteString("const " + AdditionalContextBinding + " = {\n")
	for _, p := range extras {
		b.WriteString(indent + "  " + doc.Text(p.node) + ",\n")
	}
	b.WriteString(indent + "}")
	if lang == langdetect.TypeScript {
		b.WriteString(" as const")
	}
	b.WriteString(";\n\n" + indent)
	doc.Insert(ret.StartByte(), b.String())

	if lang == langdetect.TypeScript {
		doc.Replace(value, "Object.assign("+base+", "+AdditionalContextBinding+")")
	} else {
		doc.Replace(value, "{..."+base+", ..."+AdditionalContextBinding+"}")
	}

	var names []string
	for _, p := range extras {
		if p.name != "" {
			names = append(names, p.name)
		}
	}
	return names, true
}

// baseContextName returns the binding initialized from createHydrogenContext
// in the factory body, or the conventional name.
func baseContextName(doc *syntax.Document, body *sitter.Node) string {
	for _, declarator := range syntax.Collect(body, syntax.NodeVariableDeclarator) {
		value := syntax.Unparen(declarator.ChildByFieldName("value"))
		if value != nil && value.Type() == "await_expression" {
			value = syntax.Unparen(syntax.FirstNamed(value))
		}
		if value == nil || value.Type() != syntax.NodeCallExpression {
			continue
		}
		if doc.Text(value.ChildByFieldName("function")) != HydrogenContextFactory {
			continue
		}
		if name := declarator.ChildByFieldName("name"); name != nil && name.Type() == syntax.NodeIdentifier {
			return doc.Text(name)
		}
	}
	return DefaultBaseContext
}

// propertyName returns the declared name of an object member, or "" for
// spreads and computed keys.
func propertyName(doc *syntax.Document, prop *sitter.Node) string {
	switch prop.Type() {
	case syntax.NodeShorthandProperty:
		return doc.Text(prop)
	case syntax.NodePair, syntax.NodeMethodDefinition:
		key := prop.ChildByFieldName("key")
		if key == nil {
			key = prop.ChildByFieldName("name")
		}
		if key == nil || key.Type() == "computed_property_name" {
			return ""
		}
		return doc.Text(key)
	}
	return ""
}

// rewriteI18nAccess queues `storefront.i18n` -> `customerAccount.i18n` in
// every member chain.
//
// Only outermost member expressions start a walk; each walk follows the
// object side of the chain for at most MaxMemberDepth links and stops at
// the first node that is not a member expression.
func rewriteI18nAccess(doc *syntax.Document) {
	for _, outer := range syntax.Collect(doc.Root(), syntax.NodeMemberExpression) {
		if parent := outer.Parent(); parent != nil && parent.Type() == syntax.NodeMemberExpression && syntax.IsField(parent, "object", outer) {
			continue
		}
		cur := outer
		for depth := 0; depth < MaxMemberDepth && cur != nil && cur.Type() == syntax.NodeMemberExpression; depth++ {
			object := cur.ChildByFieldName("object")
			if doc.Text(cur.ChildByFieldName("property")) == "i18n" &&
				object != nil && object.Type() == syntax.NodeMemberExpression {
				if prop := object.ChildByFieldName("property"); prop != nil && doc.Text(prop) == "storefront" {
					doc.Replace(prop, "customerAccount")
				}
			}
			cur = object
		}
	}
}
