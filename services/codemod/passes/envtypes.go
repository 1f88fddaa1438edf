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

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/classify"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/langdetect"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/syntax"
)

// RouterTypesPackage provides the ambient router types for Hydrogen.
const RouterTypesPackage = "@shopify/hydrogen/react-router-types"

// RouterTypesDirective references RouterTypesPackage from env.d.ts.
const RouterTypesDirective = `/// <reference types="` + RouterTypesPackage + `" />`

// EnvTypes adds the router types reference to env.d.ts. It never touches
// any other file.
type EnvTypes struct{}

// Name returns NameEnvTypes.
func (EnvTypes) Name() string { return NameEnvTypes }

// Run rewrites doc.
func (EnvTypes) Run(ctx context.Context, doc *syntax.Document, file classify.SourceFile, _ *langdetect.Profile) (bool, error) {
	if !classify.IsEnvDeclaration(file.Path) {
		return false, nil
	}
	needle := `types="` + RouterTypesPackage + `"`
	for _, comment := range doc.Comments() {
		if strings.Contains(doc.Text(comment), needle) {
			return false, nil
		}
	}

	// Directives only take effect above the first statement.
	if end := doc.PreambleEnd(); end > 0 {
		doc.Insert(end, "\n"+RouterTypesDirective)
	} else {
		doc.Insert(0, RouterTypesDirective+"\n")
	}
	return doc.Commit(ctx)
}
