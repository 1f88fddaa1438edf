// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package langdetect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestMajority(t *testing.T) {
	tests := []struct {
		name   string
		ts, js int
		want   Language
	}{
		{"only ts", 3, 0, TypeScript},
		{"only js", 0, 1, JavaScript},
		{"none", 0, 0, Mixed},
		{"ts more than double", 7, 3, TypeScript},
		{"ts exactly double", 6, 3, Mixed},
		{"js more than double", 1, 3, JavaScript},
		{"close", 4, 5, Mixed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Majority(tt.ts, tt.js))
		})
	}
}

func TestDetect_TypeScriptProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"devDependencies":{"typescript":"^5.4.0"}}`)
	writeFile(t, root, "tsconfig.json", `{}`)
	writeFile(t, root, "app/root.tsx", "")
	writeFile(t, root, "app/routes/_index.tsx", "")
	writeFile(t, root, "app/lib/context.ts", "")
	writeFile(t, root, "app/entry.client.js", "")
	writeFile(t, root, "app/node_modules/x/index.js", "")
	writeFile(t, root, "app/.cache/a.js", "")

	p, err := NewDetector(nil).Detect(root)
	require.NoError(t, err)
	assert.True(t, p.IsTypeScript)
	assert.True(t, p.HasTypeScriptDependency)
	assert.True(t, p.HasTsConfig)
	assert.Equal(t, 3, p.TypeScriptFiles)
	assert.Equal(t, 1, p.JavaScriptFiles)
	assert.Equal(t, TypeScript, p.Majority)
	assert.Equal(t, Extensions{Primary: ".ts", Component: ".tsx"}, p.Extensions)
}

func TestDetect_JavaScriptProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"dependencies":{"react":"^18.0.0"}}`)
	writeFile(t, root, "app/root.jsx", "")

	p, err := NewDetector(nil).Detect(root)
	require.NoError(t, err)
	assert.False(t, p.IsTypeScript)
	assert.Equal(t, JavaScript, p.Majority)
	assert.Equal(t, ".jsx", p.Extensions.Component)
}

func TestDetect_TsConfigButMoreJavaScript(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tsconfig.json", `{}`)
	writeFile(t, root, "app/a.ts", "")
	writeFile(t, root, "app/b.js", "")
	writeFile(t, root, "app/c.js", "")

	p, err := NewDetector(nil).Detect(root)
	require.NoError(t, err)
	assert.False(t, p.IsTypeScript)
	assert.Equal(t, Mixed, p.Majority)
}

func TestDetect_MissingSourceDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tsconfig.json", `{}`)

	p, err := NewDetector(nil).Detect(root)
	require.NoError(t, err)
	assert.Zero(t, p.TypeScriptFiles)
	assert.Zero(t, p.JavaScriptFiles)
	assert.True(t, p.IsTypeScript, "0 >= 0 with a tsconfig")
}

func TestDetect_MalformedManifestIsIgnored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{not json`)
	writeFile(t, root, "app/root.jsx", "")

	p, err := NewDetector(nil).Detect(root)
	require.NoError(t, err)
	assert.False(t, p.HasTypeScriptDependency)
}

func TestProfile_Admits(t *testing.T) {
	var none *Profile
	ts := ProfileFor(TypeScript)
	js := ProfileFor(JavaScript)

	assert.True(t, none.Admits("app/root.tsx"))
	assert.True(t, ts.Admits("app/root.tsx"))
	assert.True(t, ts.Admits("app/root.jsx"))
	assert.False(t, js.Admits("app/root.tsx"))
	assert.True(t, js.Admits("app/root.js"))
	assert.False(t, ts.Admits("app/styles.css"))
}

func TestParseLanguage(t *testing.T) {
	lang, err := ParseLanguage("TS")
	require.NoError(t, err)
	assert.Equal(t, TypeScript, lang)

	lang, err = ParseLanguage("javascript")
	require.NoError(t, err)
	assert.Equal(t, JavaScript, lang)

	_, err = ParseLanguage("coffeescript")
	assert.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestFileLanguage(t *testing.T) {
	assert.Equal(t, TypeScript, FileLanguage("app/routes/a.tsx"))
	assert.Equal(t, JavaScript, FileLanguage("app/routes/a.jsx"))
	assert.Equal(t, JavaScript, FileLanguage("app/routes/a.mjs"))
}

func TestCache_DetectsOncePerRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/root.jsx", "")

	cache := NewCache(NewDetector(nil))
	first, err := cache.Get(root)
	require.NoError(t, err)

	writeFile(t, root, "app/a.tsx", "")
	writeFile(t, root, "tsconfig.json", `{}`)

	second, err := cache.Get(root + string(filepath.Separator))
	require.NoError(t, err)
	assert.Same(t, first, second)

	fresh, err := NewCache(NewDetector(nil)).Get(root)
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
	assert.True(t, fresh.IsTypeScript)
}
