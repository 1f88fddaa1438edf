// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package strategy

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/langdetect"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/syntax"
)

// RouterModule is the module augmented with additional context members.
const RouterModule = "react-router"

// ContextInterface is the router interface that receives context members.
const ContextInterface = "AppLoadContext"

// Typed emits TypeScript type syntax.
type Typed struct {
	// CatchType is the annotation added to untyped catch parameters.
	// Empty means DefaultCatchType.
	CatchType string
}

var _ Strategy = Typed{}

// Language returns TypeScript.
func (Typed) Language() langdetect.Language { return langdetect.TypeScript }

// AddRouteTypeImport inserts `import type { Route } from './+types/<name>';`
// after the last import, unless the file already imports Route from there.
func (Typed) AddRouteTypeImport(ctx context.Context, doc *syntax.Document, routeName string) (bool, error) {
	source := RouteTypesModule(routeName)
	for _, imp := range doc.Imports() {
		if imp.Source != source {
			continue
		}
		if _, ok := imp.Find("Route"); ok {
			return false, nil
		}
	}
	decl := syntax.ImportDecl{
		Source:   source,
		TypeOnly: true,
		Named:    []syntax.ImportSpecifier{{Imported: "Route", Local: "Route"}},
	}
	gap := 0
	if doc.LastImport() == nil {
		gap = 1
	}
	doc.InsertAfterImports(decl.Render(), gap)
	return doc.Commit(ctx)
}

// TransformLoaderType rewrites LoaderFunctionArgs references to
// Route.LoaderArgs and annotates an untyped first parameter of the loader.
func (Typed) TransformLoaderType(ctx context.Context, doc *syntax.Document) (bool, error) {
	replaceTypeReferences(doc, LegacyLoaderArgs, RouteLoaderArgs)
	annotateFirstParameter(doc, "loader", RouteLoaderArgs)
	return doc.Commit(ctx)
}

// TransformActionType rewrites ActionFunctionArgs references to
// Route.ActionArgs and annotates an untyped first parameter of the action.
func (Typed) TransformActionType(ctx context.Context, doc *syntax.Document) (bool, error) {
	replaceTypeReferences(doc, LegacyActionArgs, RouteActionArgs)
	annotateFirstParameter(doc, "action", RouteActionArgs)
	return doc.Commit(ctx)
}

// TransformMetaType rewrites MetaFunction and MetaFunction<...> references
// to Route.MetaFunction.
//
// References nested inside a type argument list (for example
// `Parameters<MetaFunction>[0]`) are left alone: the generated type is not
// a drop-in replacement there.
func (Typed) TransformMetaType(ctx context.Context, doc *syntax.Document) (bool, error) {
	for _, id := range typeReferences(doc, LegacyMeta) {
		if insideTypeArguments(id) {
			continue
		}
		target := id
		if parent := id.Parent(); parent != nil && parent.Type() == syntax.NodeGenericType {
			target = parent
		}
		doc.Replace(target, RouteMeta)
	}
	return doc.Commit(ctx)
}

// AddErrorTypeAnnotation adds `: <CatchType>` to every untyped catch
// parameter.
func (t Typed) AddErrorTypeAnnotation(ctx context.Context, doc *syntax.Document) (bool, error) {
	typ := t.CatchType
	if typ == "" {
		typ = DefaultCatchType
	}
	for _, clause := range syntax.Collect(doc.Root(), syntax.NodeCatchClause) {
		param := catchParameter(clause)
		if param == nil || hasTypeAnnotation(clause) {
			continue
		}
		doc.Insert(param.EndByte(), ": "+typ)
	}
	return doc.Commit(ctx)
}

// AddContextTypes declares each property on the router's AppLoadContext:
//
//	declare module 'react-router' {
//	  interface AppLoadContext {
//	    customProp: any;
//	  }
//	}
//
// An existing augmentation gains only the members it lacks.
func (Typed) AddContextTypes(ctx context.Context, doc *syntax.Document, props []string) (bool, error) {
	if len(props) == 0 {
		return false, nil
	}
	if body := findContextInterface(doc); body != nil {
		have := make(map[string]bool)
		for _, member := range syntax.NamedChildren(body) {
			if name := member.ChildByFieldName("name"); name != nil {
				have[doc.Text(name)] = true
			}
		}
		var missing []string
		for _, p := range props {
			if !have[p] {
				missing = append(missing, p)
			}
		}
		if len(missing) == 0 {
			return false, nil
		}
		insertInterfaceMembers(doc, body, missing)
		return doc.Commit(ctx)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "declare module %s {\n", syntax.Quote(RouterModule))
	fmt.Fprintf(&b, "  interface %s {\n", ContextInterface)
	for _, p := range props {
		fmt.Fprintf(&b, "    %s: any;\n", p)
	}
	b.WriteString("  }\n}")
	doc.InsertAfterImports(b.String(), 1)
	return doc.Commit(ctx)
}

// typeReferences returns type_identifier nodes named name that are plain
// references, not the right-hand side of a qualified name like Route.X.
func typeReferences(doc *syntax.Document, name string) []*sitter.Node {
	var out []*sitter.Node
	for _, id := range syntax.Collect(doc.Root(), syntax.NodeTypeIdentifier) {
		if doc.Text(id) != name {
			continue
		}
		if parent := id.Parent(); parent != nil && parent.Type() == syntax.NodeNestedTypeID {
			continue
		}
		if !syntax.IsReference(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func replaceTypeReferences(doc *syntax.Document, name, replacement string) {
	for _, id := range typeReferences(doc, name) {
		doc.Replace(id, replacement)
	}
}

// insideTypeArguments reports whether n sits within a type argument list.
func insideTypeArguments(n *sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case syntax.NodeTypeArguments:
			return true
		case syntax.NodeTypeAnnotation, syntax.NodeProgram:
			return false
		}
	}
	return false
}

// annotateFirstParameter adds `: typ` to the first parameter of the exported
// function named name when it has none and the binding itself is untyped.
func annotateFirstParameter(doc *syntax.Document, name, typ string) {
	for _, def := range functionDefinitions(doc, name) {
		if !def.Exported {
			continue
		}
		if def.IsVariable() && def.Declaration.ChildByFieldName("type") != nil {
			continue
		}
		param := syntax.FirstParameter(def.Function)
		if param == nil {
			continue
		}
		switch param.Type() {
		case syntax.NodeRequiredParameter, syntax.NodeOptionalParameter:
			if param.ChildByFieldName("type") != nil {
				continue
			}
			pattern := param.ChildByFieldName("pattern")
			if pattern == nil {
				continue
			}
			doc.Insert(pattern.EndByte(), ": "+typ)
		}
	}
}

// findContextInterface returns the body of
// `declare module 'react-router' { interface AppLoadContext {...} }`.
func findContextInterface(doc *syntax.Document) *sitter.Node {
	for _, ambient := range syntax.Collect(doc.Root(), syntax.NodeAmbientDeclaration) {
		for _, mod := range syntax.NamedChildren(ambient) {
			if mod.Type() != syntax.NodeModule {
				continue
			}
			if name, ok := doc.StringValue(mod.ChildByFieldName("name")); !ok || name != RouterModule {
				continue
			}
			for _, iface := range syntax.Collect(mod, syntax.NodeInterfaceDecl) {
				if doc.Text(iface.ChildByFieldName("name")) != ContextInterface {
					continue
				}
				if body := iface.ChildByFieldName("body"); body != nil {
					return body
				}
			}
		}
	}
	return nil
}

// insertInterfaceMembers queues `name: any;` members before the closing
// brace of an interface body.
func insertInterfaceMembers(doc *syntax.Document, body *sitter.Node, names []string) {
	closing := body.EndByte() - 1
	lineStart := doc.LineStart(closing)
	src := doc.Source()
	ownLine := strings.TrimSpace(string(src[lineStart:closing])) == ""

	members := syntax.NamedChildren(body)
	indent := doc.Indent(body) + "  "
	if len(members) > 0 {
		indent = doc.Indent(members[0])
	}

	var b strings.Builder
	if ownLine {
		for _, n := range names {
			fmt.Fprintf(&b, "%s%s: any;\n", indent, n)
		}
		doc.Insert(lineStart, b.String())
		return
	}
	if len(members) > 0 {
		last := members[len(members)-1]
		if strings.TrimSpace(string(src[last.EndByte():closing])) == "" {
			b.WriteString(";")
		}
	}
	for _, n := range names {
		fmt.Fprintf(&b, " %s: any;", n)
	}
	b.WriteString(" ")
	doc.Insert(closing, b.String())
}
