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

// ContextTypedef is the JSDoc typedef name for additional context properties.
const ContextTypedef = "AdditionalContext"

// Untyped emits JSDoc comments for JavaScript files.
type Untyped struct {
	// CatchType is the type documented for catch parameters.
	// Empty means DefaultCatchType.
	CatchType string
}

var _ Strategy = Untyped{}

// Language returns JavaScript.
func (Untyped) Language() langdetect.Language { return langdetect.JavaScript }

// AddRouteTypeImport inserts
// `/** @typedef {import('./+types/<name>').Route} Route */` after the imports.
func (Untyped) AddRouteTypeImport(ctx context.Context, doc *syntax.Document, routeName string) (bool, error) {
	ref := "import(" + syntax.Quote(RouteTypesModule(routeName)) + ").Route"
	for _, c := range doc.Comments() {
		if strings.Contains(doc.Text(c), ref) {
			return false, nil
		}
	}
	doc.InsertAfterImports("/** @typedef {"+ref+"} Route */", 1)
	return doc.Commit(ctx)
}

// TransformLoaderType documents loader definitions:
//
//	/**
//	 * @param {Route.LoaderArgs} args
//	 * @returns {Promise<Response>}
//	 */
func (Untyped) TransformLoaderType(ctx context.Context, doc *syntax.Document) (bool, error) {
	documentFunctions(doc, "loader", []string{
		"@param {" + RouteLoaderArgs + "} args",
		"@returns {Promise<Response>}",
	})
	return doc.Commit(ctx)
}

// TransformActionType documents action definitions with Route.ActionArgs.
func (Untyped) TransformActionType(ctx context.Context, doc *syntax.Document) (bool, error) {
	documentFunctions(doc, "action", []string{
		"@param {" + RouteActionArgs + "} args",
		"@returns {Promise<Response>}",
	})
	return doc.Commit(ctx)
}

// TransformMetaType documents the meta export with
// `/** @type {Route.MetaFunction} */`.
func (Untyped) TransformMetaType(ctx context.Context, doc *syntax.Document) (bool, error) {
	documentFunctions(doc, "meta", []string{"@type {" + RouteMeta + "}"})
	return doc.Commit(ctx)
}

// AddErrorTypeAnnotation writes `// @type {<CatchType>} <param>` as the first
// line of every catch body whose parameter is undocumented.
func (u Untyped) AddErrorTypeAnnotation(ctx context.Context, doc *syntax.Document) (bool, error) {
	typ := u.CatchType
	if typ == "" {
		typ = DefaultCatchType
	}
	for _, clause := range syntax.Collect(doc.Root(), syntax.NodeCatchClause) {
		param := catchParameter(clause)
		body := clause.ChildByFieldName("body")
		if param == nil || body == nil || hasCatchComment(doc, body) {
			continue
		}
		insertCatchComment(doc, clause, body, fmt.Sprintf("// @type {%s} %s", typ, doc.Text(param)))
	}
	return doc.Commit(ctx)
}

// AddContextTypes writes or refreshes the AdditionalContext typedef:
//
//	/**
//	 * @typedef {Object} AdditionalContext
//	 * @property {*} customProp
//	 */
func (Untyped) AddContextTypes(ctx context.Context, doc *syntax.Document, props []string) (bool, error) {
	if len(props) == 0 {
		return false, nil
	}
	lines := []string{"/**", " * @typedef {Object} " + ContextTypedef}
	for _, p := range props {
		lines = append(lines, " * @property {*} "+p)
	}
	lines = append(lines, " */")
	block := strings.Join(lines, "\n")

	marker := "@typedef {Object} " + ContextTypedef
	for _, c := range doc.Comments() {
		text := doc.Text(c)
		if !strings.Contains(text, marker) {
			continue
		}
		if text == block {
			return false, nil
		}
		doc.Replace(c, block)
		return doc.Commit(ctx)
	}
	doc.InsertAfterImports(block, 1)
	return doc.Commit(ctx)
}

// documentFunctions queues a JSDoc block before each top-level function
// definition of name that has none.
func documentFunctions(doc *syntax.Document, name string, lines []string) {
	for _, def := range functionDefinitions(doc, name) {
		if hasJSDoc(doc, def.Statement) {
			continue
		}
		insertBlockComment(doc, def.Statement, lines)
	}
}

func hasCatchComment(doc *syntax.Document, body *sitter.Node) bool {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() != syntax.NodeComment {
			return false
		}
		if strings.HasPrefix(doc.Text(child), "// @type") {
			return true
		}
	}
	return false
}

// insertCatchComment queues comment as the first line inside body.
func insertCatchComment(doc *syntax.Document, clause, body *sitter.Node, comment string) {
	src := doc.Source()
	open := body.StartByte() + 1
	outer := doc.Indent(clause)
	inner := outer + "  "
	if first := body.NamedChild(0); first != nil && doc.LineStart(first.StartByte()) > doc.LineStart(open) {
		inner = doc.Indent(first)
	}

	i := open
	for int(i) < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	switch {
	case int(i) < len(src) && (src[i] == '\n' || src[i] == '\r'):
		doc.Insert(open, "\n"+inner+comment)
	case int(i) < len(src) && src[i] == '}':
		doc.Insert(open, "\n"+inner+comment+"\n"+outer)
	default:
		doc.Insert(open, "\n"+inner+comment+"\n"+inner)
	}
}
