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

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/classify"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/langdetect"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/strategy"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/syntax"
)

// legacyRouteTypes are framework types superseded by the generated Route
// namespace.
var legacyRouteTypes = map[string]bool{
	strategy.LegacyLoaderArgs: true,
	strategy.LegacyActionArgs: true,
	strategy.LegacyMeta:       true,
}

// RouteExportSet records which route exports a module defines.
type RouteExportSet struct {
	Loader bool
	Action bool
	Meta   bool
}

// Any reports whether at least one route export is present.
func (s RouteExportSet) Any() bool { return s.Loader || s.Action || s.Meta }

// ScanRouteExports finds loader, action and meta exports in any form:
// function declaration, const declaration or re-export.
func ScanRouteExports(doc *syntax.Document) RouteExportSet {
	names := doc.ExportedNames()
	return RouteExportSet{
		Loader: names["loader"],
		Action: names["action"],
		Meta:   names["meta"],
	}
}

// RouteTypes injects generated route types into route modules.
//
// Description:
//
//	The strategy is chosen from the file's own extension, not the project
//	profile, so a .jsx route in a TypeScript project gets JSDoc. Modules
//	without a loader, action or meta export are left alone. After the
//	strategy has run, legacy type imports that are no longer referenced
//	are removed.
type RouteTypes struct{}

// Name returns NameRouteTypes.
func (RouteTypes) Name() string { return NameRouteTypes }

// Run rewrites doc.
func (RouteTypes) Run(ctx context.Context, doc *syntax.Document, file classify.SourceFile, _ *langdetect.Profile) (bool, error) {
	routeName, ok := classify.ExtractRouteName(file.Path)
	if !ok {
		return false, nil
	}
	if !ScanRouteExports(doc).Any() {
		return false, nil
	}

	s := strategy.For(langdetect.FileLanguage(file.Path))
	var c changes
	steps := []func() (bool, error){
		func() (bool, error) { return s.AddRouteTypeImport(ctx, doc, routeName) },
		func() (bool, error) { return s.TransformLoaderType(ctx, doc) },
		func() (bool, error) { return s.TransformActionType(ctx, doc) },
		func() (bool, error) { return s.TransformMetaType(ctx, doc) },
	}
	for _, step := range steps {
		if err := c.add(step()); err != nil {
			return c.any, err
		}
	}

	dropUnreferenced(doc, func(_ syntax.ImportDecl, spec syntax.ImportSpecifier) bool {
		return legacyRouteTypes[spec.Imported]
	})
	if err := c.commit(ctx, doc); err != nil {
		return c.any, err
	}
	return c.any, nil
}
