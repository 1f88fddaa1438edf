// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package strategy emits route, parameter, error and context types either as
// TypeScript syntax or as JSDoc comments.
//
// # Variants
//
// Typed writes native type syntax (type-only imports, annotations, module
// augmentation). Untyped writes the equivalent JSDoc so plain JavaScript
// files get the same editor support without type syntax. The variant is
// chosen per file by For, from the file's own language.
//
// # Contract
//
// Every operation queues its edits on the document and commits them. The
// returned bool reports whether the source changed. Every operation is
// idempotent: running it on its own output reports no change.
package strategy

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/langdetect"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/syntax"
)

// Legacy framework type names replaced by generated route types.
const (
	LegacyLoaderArgs = "LoaderFunctionArgs"
	LegacyActionArgs = "ActionFunctionArgs"
	LegacyMeta       = "MetaFunction"
)

// Generated route type members.
const (
	RouteLoaderArgs = "Route.LoaderArgs"
	RouteActionArgs = "Route.ActionArgs"
	RouteMeta       = "Route.MetaFunction"
)

// DefaultCatchType is the annotation Typed adds to catch parameters.
const DefaultCatchType = "Error"

// Strategy is the language-specific half of the route and context rewrites.
//
// Thread Safety: Implementations are stateless values; the Document passed
// in is not safe for concurrent use.
type Strategy interface {
	// Language returns the language this strategy emits.
	Language() langdetect.Language

	// AddRouteTypeImport makes the generated Route type of routeName
	// available in the file.
	AddRouteTypeImport(ctx context.Context, doc *syntax.Document, routeName string) (bool, error)

	// TransformLoaderType types loader arguments as Route.LoaderArgs.
	TransformLoaderType(ctx context.Context, doc *syntax.Document) (bool, error)

	// TransformActionType types action arguments as Route.ActionArgs.
	TransformActionType(ctx context.Context, doc *syntax.Document) (bool, error)

	// TransformMetaType types the meta export as Route.MetaFunction.
	TransformMetaType(ctx context.Context, doc *syntax.Document) (bool, error)

	// AddErrorTypeAnnotation types untyped catch clause parameters.
	AddErrorTypeAnnotation(ctx context.Context, doc *syntax.Document) (bool, error)

	// AddContextTypes declares the additional load context properties.
	AddContextTypes(ctx context.Context, doc *syntax.Document, props []string) (bool, error)
}

// For returns the strategy for a file language. TypeScript gets Typed with
// the default catch type; everything else gets Untyped.
func For(lang langdetect.Language) Strategy {
	if lang == langdetect.TypeScript {
		return Typed{CatchType: DefaultCatchType}
	}
	return Untyped{CatchType: DefaultCatchType}
}

// WithCatchType returns s configured to annotate catch parameters with typ.
func WithCatchType(s Strategy, typ string) Strategy {
	switch v := s.(type) {
	case Typed:
		v.CatchType = typ
		return v
	case Untyped:
		v.CatchType = typ
		return v
	default:
		return s
	}
}

// RouteTypesModule returns the generated type module path of a route.
func RouteTypesModule(routeName string) string {
	return "./+types/" + routeName
}

// functionDefinitions returns the top-level definitions of name that bind a
// function.
func functionDefinitions(doc *syntax.Document, name string) []syntax.Definition {
	var out []syntax.Definition
	for _, def := range doc.FindDefinitions(name) {
		if def.Function != nil {
			out = append(out, def)
		}
	}
	return out
}

// hasJSDoc reports whether the statement is preceded by a /** block that
// documents it. File-level typedef blocks do not count.
func hasJSDoc(doc *syntax.Document, stmt *sitter.Node) bool {
	c := doc.LeadingComment(stmt)
	if c == nil {
		return false
	}
	text := doc.Text(c)
	return strings.HasPrefix(text, "/**") && !strings.Contains(text, "@typedef")
}

// insertBlockComment queues a JSDoc block before stmt, aligned to its indent.
func insertBlockComment(doc *syntax.Document, stmt *sitter.Node, lines []string) {
	indent := doc.Indent(stmt)
	var b strings.Builder
	if len(lines) == 1 {
		fmt.Fprintf(&b, "/** %s */\n%s", lines[0], indent)
	} else {
		b.WriteString("/**\n")
		for _, l := range lines {
			fmt.Fprintf(&b, "%s * %s\n", indent, l)
		}
		fmt.Fprintf(&b, "%s */\n%s", indent, indent)
	}
	doc.Insert(stmt.StartByte(), b.String())
}

// catchParameter returns the parameter of a catch clause, or nil for
// `catch {}`.
func catchParameter(clause *sitter.Node) *sitter.Node {
	if p := clause.ChildByFieldName("parameter"); p != nil {
		return p
	}
	for _, child := range syntax.NamedChildren(clause) {
		if child.Type() != syntax.NodeStatementBlock && child.Type() != syntax.NodeTypeAnnotation {
			return child
		}
	}
	return nil
}

// hasTypeAnnotation reports whether a catch clause already carries a type.
func hasTypeAnnotation(clause *sitter.Node) bool {
	if clause.ChildByFieldName("type") != nil {
		return true
	}
	for _, child := range syntax.NamedChildren(clause) {
		if child.Type() == syntax.NodeTypeAnnotation {
			return true
		}
	}
	return false
}
