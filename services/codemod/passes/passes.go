// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package passes implements the rewrite passes that migrate a Hydrogen
// storefront file from Remix to React Router 7.
//
// # Passes
//
//   - ImportRewrite: moves framework imports to react-router, renames and
//     removes legacy names.
//   - ResponseUtility: unwraps json()/defer() response builders.
//   - ComponentRename: renames server/browser entry components, the oxygen
//     adapter module and the virtual server build module.
//   - RouteTypes: injects generated Route types into route modules.
//   - ContextAPI: migrates the load context factory and i18n access.
//   - EnvTypes: references the router types from env.d.ts.
//
// Every pass is a total function over any syntactically valid document: a
// file without the constructs a pass targets yields no change, never an
// error. Errors only come from committing edits. Every pass is idempotent.
//
// Passes share nothing but the Document they are handed; order is decided
// by the transform package.
package passes

import (
	"context"

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/classify"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/langdetect"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/syntax"
)

// Pass names, used for logging and metrics attributes.
const (
	NameImportRewrite   = "import_rewrite"
	NameResponseUtility = "response_utility"
	NameComponentRename = "component_rename"
	NameRouteTypes      = "route_types"
	NameContextAPI      = "context_api"
	NameEnvTypes        = "env_types"
)

// Module names shared by several passes.
const (
	HydrogenModule = "@shopify/hydrogen"
	RouterModule   = "react-router"
)

// Pass is one rewrite over a document.
type Pass interface {
	// Name identifies the pass in logs and metrics.
	Name() string

	// Run rewrites doc in place and reports whether its source changed.
	Run(ctx context.Context, doc *syntax.Document, file classify.SourceFile, profile *langdetect.Profile) (bool, error)
}

// changes accumulates the changed flags of successive commits.
type changes struct {
	any bool
}

// commit commits doc and folds the result into c.
func (c *changes) commit(ctx context.Context, doc *syntax.Document) error {
	changed, err := doc.Commit(ctx)
	if err != nil {
		return err
	}
	c.any = c.any || changed
	return nil
}

// add folds a strategy or sub-step result into c.
func (c *changes) add(changed bool, err error) error {
	if err != nil {
		return err
	}
	c.any = c.any || changed
	return nil
}

// valueBinding returns the local name under which a value export of module
// is, or would be, imported.
//
// An existing value import of name from module wins. Otherwise the export's
// own name is used unless the file already declares that name, in which
// case fallback is used as an alias.
func valueBinding(doc *syntax.Document, module, name, fallback string) (local string, existing bool) {
	for _, imp := range doc.Imports() {
		if imp.Source != module || imp.TypeOnly {
			continue
		}
		if spec, ok := imp.Find(name); ok && !spec.TypeOnly {
			return spec.Local, true
		}
	}
	if doc.Declares(name) {
		return fallback, false
	}
	return name, false
}

// ensureValueImport queues adding `name as local` to the value import of
// module, creating the declaration after the last import when there is none.
//
// It reports whether an edit was queued.
func ensureValueImport(doc *syntax.Document, module, name, local string) bool {
	spec := syntax.ImportSpecifier{Imported: name, Local: local}
	for _, imp := range doc.Imports() {
		if imp.Source != module || imp.TypeOnly || imp.Namespace != "" {
			continue
		}
		if existing, ok := imp.Find(name); ok && !existing.TypeOnly {
			return false
		}
		doc.SetNamedImports(imp, append(append([]syntax.ImportSpecifier(nil), imp.Named...), spec))
		return true
	}
	decl := syntax.ImportDecl{Source: module, Named: []syntax.ImportSpecifier{spec}}
	doc.InsertAfterImports(decl.Render(), 0)
	return true
}

// dropUnreferenced queues removing, from every import declaration, the
// specifiers selected by drop whose local binding is no longer referenced.
func dropUnreferenced(doc *syntax.Document, drop func(imp syntax.ImportDecl, spec syntax.ImportSpecifier) bool) {
	for _, imp := range doc.Imports() {
		var keep []syntax.ImportSpecifier
		removed := false
		for _, spec := range imp.Named {
			if drop(imp, spec) && !doc.HasReference(spec.Local) {
				removed = true
				continue
			}
			keep = append(keep, spec)
		}
		if removed {
			doc.SetNamedImports(imp, keep)
		}
	}
}
