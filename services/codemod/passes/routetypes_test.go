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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanRouteExports(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want RouteExportSet
	}{
		{"function declaration", "export async function loader() {}\n", RouteExportSet{Loader: true}},
		{"const", "export const action = async () => null;\n", RouteExportSet{Action: true}},
		{"re-export", "const meta = () => [];\nexport { meta };\n", RouteExportSet{Meta: true}},
		{"aliased re-export", "const m = () => [];\nexport { m as meta };\n", RouteExportSet{Meta: true}},
		{"not exported", "function loader() {}\n", RouteExportSet{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScanRouteExports(parse(t, "app/routes/_index.ts", tt.src))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want != RouteExportSet{}, got.Any())
		})
	}
}

func TestRouteTypes_TypeScript(t *testing.T) {
	src := "import type { LoaderFunctionArgs } from 'react-router';\n\n" +
		"export async function loader({ params }: LoaderFunctionArgs) {\n  return { handle: params.handle };\n}\n"
	want := "import type { Route } from './+types/products.$handle';\n\n" +
		"export async function loader({ params }: Route.LoaderArgs) {\n  return { handle: params.handle };\n}\n"

	applyTwice(t, RouteTypes{}, "app/routes/products.$handle.tsx", src, want, tsProfile)
}

func TestRouteTypes_NestedBracketRoute(t *testing.T) {
	src := "import { type MetaFunction, Link } from 'react-router';\n\n" +
		"export const meta: MetaFunction = () => [];\nexport default function Product() {\n  return <Link to=\"/\" />;\n}\n"
	want := "import { Link } from 'react-router';\n" +
		"import type { Route } from './+types/products.$handle';\n\n" +
		"export const meta: Route.MetaFunction = () => [];\nexport default function Product() {\n  return <Link to=\"/\" />;\n}\n"

	applyTwice(t, RouteTypes{}, "app/routes/products/[handle].tsx", src, want, tsProfile)
}

func TestRouteTypes_JavaScriptFileInTypeScriptProject(t *testing.T) {
	src := "export async function loader({ context }) {\n  return context;\n}\n"
	want := "/** @typedef {import('./+types/_index').Route} Route */\n\n" +
		"/**\n * @param {Route.LoaderArgs} args\n * @returns {Promise<Response>}\n */\n" +
		"export async function loader({ context }) {\n  return context;\n}\n"

	applyTwice(t, RouteTypes{}, "app/routes/_index.jsx", src, want, tsProfile)
}

func TestRouteTypes_NoRouteExports(t *testing.T) {
	src := "import type { LoaderFunctionArgs } from 'react-router';\n\nexport default function Page() {\n  return null;\n}\n"
	applyNone(t, RouteTypes{}, "app/routes/_index.tsx", src, tsProfile)
}

func TestRouteTypes_NotARoute(t *testing.T) {
	src := "export async function loader() {\n  return null;\n}\n"
	applyNone(t, RouteTypes{}, "app/lib/loader.ts", src, tsProfile)
}
