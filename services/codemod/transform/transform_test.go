// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package transform

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/langdetect"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/passes"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/syntax"
)

var tsProfile = langdetect.ProfileFor(langdetect.TypeScript)

func newTransformer() *Transformer {
	return NewTransformer(Options{Language: langdetect.TypeScript}, nil, nil)
}

// transformTwice transforms src, then feeds the output back in and checks
// that nothing changes the second time.
func transformTwice(t *testing.T, path, src string) *Result {
	t.Helper()
	ctx := context.Background()
	tr := newTransformer()

	first, err := tr.Transform(ctx, path, []byte(src), tsProfile)
	require.NoError(t, err)
	require.True(t, first.Changed)

	second, err := tr.Transform(ctx, path, first.Source, tsProfile)
	require.NoError(t, err)
	assert.False(t, second.Changed, "second transform must be a no-op, passes: %v", second.Passes)
	assert.Nil(t, second.Source)
	return first
}

func TestTransform_HydrogenJSONRoute(t *testing.T) {
	src := "import { json, redirect } from '@shopify/hydrogen';\n\n" +
		"export async function loader() {\n  return json({hello:'world'});\n}\n"

	res := transformTwice(t, "app/routes/_index.tsx", src)
	out := string(res.Source)

	// Only the callee is renamed; the argument keeps its original spacing.
	assert.Equal(t,
		"import { data, redirect } from 'react-router';\n"+
			"import type { Route } from './+types/_index';\n\n"+
			"export async function loader() {\n  return data({hello:'world'});\n}\n",
		out)
	assert.NotContains(t, out, "@shopify/hydrogen")
	assert.NotContains(t, out, "json(")
	assert.Equal(t, []string{passes.NameImportRewrite, passes.NameRouteTypes}, res.Passes)
}

func TestTransform_ImportAndComponentTogether(t *testing.T) {
	src := strings.Join([]string{
		"import { json } from '@shopify/hydrogen';",
		"import { RemixBrowser } from 'react-router';",
		"",
		"export function loader() {",
		"  return json({ ok: true });",
		"}",
		"",
		"export default function Page() {",
		"  return <RemixBrowser />;",
		"}",
		"",
	}, "\n")

	res := transformTwice(t, "app/routes/_index.tsx", src)
	out := string(res.Source)

	assert.Contains(t, out, "import { HydratedRouter, data } from 'react-router';")
	assert.Contains(t, out, "return data({ ok: true });")
	assert.Contains(t, out, "<HydratedRouter />")
	assert.NotContains(t, out, "json")
	assert.NotContains(t, out, "RemixBrowser")
}

func TestTransform_NestedBracketRoute(t *testing.T) {
	src := "export async function loader({ params }: LoaderFunctionArgs) {\n  return params;\n}\n"

	res := transformTwice(t, "app/routes/products/[handle].tsx", src)
	assert.Contains(t, string(res.Source), "import type { Route } from './+types/products.$handle';")
	assert.Contains(t, string(res.Source), "{ params }: Route.LoaderArgs")
}

func TestTransform_ContextFactory(t *testing.T) {
	src := strings.Join([]string{
		"import { createHydrogenContext } from '@shopify/hydrogen';",
		"",
		"export async function createAppLoadContext(request: Request, env: Env) {",
		"  const hydrogenContext = createHydrogenContext({ env, request });",
		"  return {...hydrogenContext, customProp: 'value'};",
		"}",
		"",
	}, "\n")

	res := transformTwice(t, "app/lib/context.ts", src)
	out := string(res.Source)

	assert.Contains(t, out, "import { createHydrogenContext } from '@shopify/hydrogen';")
	assert.Contains(t, out, "export async function createHydrogenRouterContext(")
	assert.Contains(t, out, "const additionalContext = {\n    customProp: 'value',\n  } as const;")
	assert.Contains(t, out, "return Object.assign(hydrogenContext, additionalContext);")
	assert.Contains(t, out, "declare module 'react-router' {\n  interface AppLoadContext {\n    customProp: any;\n  }\n}")
	assert.NotContains(t, out, "createAppLoadContext")
	assert.Equal(t, []string{passes.NameContextAPI}, res.Passes)
}

func TestTransform_EnvDeclaration(t *testing.T) {
	res := transformTwice(t, "env.d.ts", "/// <reference types=\"vite/client\" />\n\ninterface Env {}\n")
	assert.Equal(t,
		"/// <reference types=\"vite/client\" />\n"+passes.RouterTypesDirective+"\n\ninterface Env {}\n",
		string(res.Source))
	assert.Equal(t, []string{passes.NameEnvTypes}, res.Passes)
}

func TestTransform_NoMatchingConstructs(t *testing.T) {
	res, err := newTransformer().Transform(context.Background(), "app/routes/_index.tsx",
		[]byte("export default function Component(){ return <div/>; }\n"), tsProfile)
	require.NoError(t, err)
	assert.True(t, res.Eligible)
	assert.False(t, res.Changed)
	assert.Nil(t, res.Source)
	assert.Empty(t, res.Passes)
}

func TestTransform_IneligibleFilesAreNotParsed(t *testing.T) {
	paths := []string{
		"node_modules/@shopify/hydrogen/dist/index.js",
		"app/routes/_index.test.tsx",
		"app/types.d.ts",
		"scripts/build.ts",
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			// Invalid syntax proves the file is never parsed.
			res, err := newTransformer().Transform(context.Background(), p, []byte("import {"), tsProfile)
			require.NoError(t, err)
			assert.False(t, res.Eligible)
			assert.False(t, res.Changed)
		})
	}
}

func TestTransform_JavaScriptFileInTypeScriptProject(t *testing.T) {
	src := "export async function loader({ context }) {\n  return context;\n}\n"
	res := transformTwice(t, "app/routes/_index.jsx", src)

	out := string(res.Source)
	assert.Contains(t, out, "/** @typedef {import('./+types/_index').Route} Route */")
	assert.Contains(t, out, "@param {Route.LoaderArgs} args")
	assert.NotContains(t, out, "import type")
}

func TestTransform_Errors(t *testing.T) {
	tr := newTransformer()

	var nilCtx context.Context
	_, err := tr.Transform(nilCtx, "app/root.tsx", nil, tsProfile)
	assert.ErrorIs(t, err, ErrNilContext)

	_, err = tr.Transform(context.Background(), "", nil, tsProfile)
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = tr.Transform(context.Background(), "app/root.tsx", []byte("export const = ;\n"), tsProfile)
	assert.ErrorIs(t, err, syntax.ErrSyntax)
}

func TestTransformer_Profile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"),
		[]byte(`{"devDependencies":{"typescript":"^5.4.0"}}`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app", "routes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app", "root.tsx"), nil, 0o644))

	detected, err := NewTransformer(Options{ProjectRoot: root}, nil, nil).Profile()
	require.NoError(t, err)
	assert.True(t, detected.IsTypeScript)
	assert.Equal(t, 1, detected.TypeScriptFiles)

	forced, err := NewTransformer(Options{ProjectRoot: root, Language: langdetect.JavaScript}, nil, nil).Profile()
	require.NoError(t, err)
	assert.False(t, forced.IsTypeScript)
}

func TestTransform_NilProfileUsesDetection(t *testing.T) {
	root := t.TempDir()
	tr := NewTransformer(Options{ProjectRoot: root}, nil, nil)

	// An empty project is JavaScript, so .ts files are not admitted.
	res, err := tr.Transform(context.Background(), "app/routes/_index.ts",
		[]byte("export const loader = () => null;\n"), nil)
	require.NoError(t, err)
	assert.False(t, res.Eligible)
}

func TestTransform_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	_, err := newTransformer().Transform(context.Background(), "env.d.ts", []byte("interface Env {}\n"), tsProfile)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["codemod_files_total"])
	assert.True(t, names["codemod_file_duration_seconds"])
	assert.True(t, names["codemod_pass_changes_total"])
}
