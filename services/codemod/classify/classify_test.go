// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/langdetect"
)

func TestExtractRouteName(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"app/routes/products/[handle].tsx", "products.$handle", true},
		{"app/routes/products-$handle.tsx", "products.$handle", true},
		{"app/routes/products.$handle.tsx", "products.$handle", true},
		{"app/routes/_index.tsx", "_index", true},
		{"app/routes/_layout.jsx", "_layout", true},
		{"app/routes/$.tsx", "$", true},
		{"app/routes/[sitemap.xml].tsx", "[sitemap.xml]", true},
		{"app/routes/[robots.txt].js", "[robots.txt]", true},
		{"app/routes/account/orders.tsx", "account.orders", true},
		{"app/routes/policies-index.tsx", "policies.index", true},
		{"app/routes/blogs/news/[article].tsx", "blogs.news.$article", true},
		{`app\routes\products\[handle].tsx`, "products.$handle", true},
		{"app/routes/styles.css", "", false},
		{"app/root.tsx", "", false},
		{"app/myroutes/a.tsx", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := ExtractRouteName(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractRouteName_EquivalentSpellingsAgree(t *testing.T) {
	spellings := []string{
		"app/routes/products/[handle].tsx",
		"app/routes/products-$handle.tsx",
		"app/routes/products.$handle.tsx",
	}
	for _, p := range spellings {
		name, ok := ExtractRouteName(p)
		assert.True(t, ok, p)
		assert.Equal(t, "products.$handle", name, p)
	}
}

func TestRouteRules_Order(t *testing.T) {
	names := make([]string, len(routeRules))
	for i, r := range routeRules {
		names[i] = r.name
	}
	assert.Equal(t, []string{"nested-bracket", "flat-dash-dollar", "index-or-layout", "generic"}, names)
}

func TestShouldTransform(t *testing.T) {
	ts := langdetect.ProfileFor(langdetect.TypeScript)
	js := langdetect.ProfileFor(langdetect.JavaScript)

	tests := []struct {
		name    string
		path    string
		profile *langdetect.Profile
		want    bool
	}{
		{"route tsx", "app/routes/_index.tsx", ts, true},
		{"route jsx in ts project", "app/routes/_index.jsx", ts, true},
		{"tsx in js project", "app/routes/_index.tsx", js, false},
		{"no profile", "app/routes/_index.tsx", nil, true},
		{"server entry", "server.ts", ts, true},
		{"entry client", "app/entry.client.jsx", js, true},
		{"lib", "src/lib/session.ts", ts, true},
		{"node_modules", "node_modules/@shopify/hydrogen/app/index.js", nil, false},
		{"build output", "build/server/index.js", nil, false},
		{"dist output", "app/dist/server.js", nil, false},
		{"rebuild dir is fine", "app/rebuild/a.ts", nil, true},
		{"declaration", "app/lib/types.d.ts", nil, false},
		{"test", "app/lib/context.test.ts", nil, false},
		{"spec", "app/routes/_index.spec.tsx", nil, false},
		{"tests dir", "app/__tests__/a.ts", nil, false},
		{"no marker", "scripts/seed.ts", nil, false},
		{"css", "app/styles/app.css", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldTransform(tt.path, tt.profile))
		})
	}
}

func TestClassify(t *testing.T) {
	f := Classify("app/routes/products/[handle].tsx", nil)
	assert.True(t, f.IsRoute)
	assert.Equal(t, "products.$handle", f.RouteName)
	assert.Equal(t, langdetect.TypeScript, f.Language)
	assert.True(t, f.ShouldTransform)
	assert.False(t, f.IsContext)

	f = Classify("app/lib/context.js", nil)
	assert.False(t, f.IsRoute)
	assert.Empty(t, f.RouteName)
	assert.True(t, f.IsContext)
	assert.Equal(t, langdetect.JavaScript, f.Language)

	assert.True(t, Classify("app/entry.server.tsx", nil).IsContext)
	assert.True(t, Classify("server.ts", nil).IsContext)
	assert.False(t, Classify("app/root.tsx", nil).IsContext)

	assert.True(t, Classify("vite.config.ts", nil).IsConfig)
	assert.True(t, Classify("env.d.ts", nil).IsConfig)
	assert.False(t, Classify("app/root.tsx", nil).IsConfig)
}

func TestIsEnvDeclaration(t *testing.T) {
	assert.True(t, IsEnvDeclaration("env.d.ts"))
	assert.True(t, IsEnvDeclaration("/projects/shop/env.d.ts"))
	assert.False(t, IsEnvDeclaration("remix.env.d.ts"))
	assert.False(t, IsEnvDeclaration("app/env.ts"))
}
