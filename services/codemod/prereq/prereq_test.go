// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prereq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(content), 0o644))
	return root
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		opts     Options
		want     error
	}{
		{
			name:     "upgraded project passes",
			manifest: `{"dependencies":{"react-router":"^7.9.2","@shopify/hydrogen":"2025.5.0"}}`,
		},
		{
			name:     "dev dependencies count",
			manifest: `{"devDependencies":{"react-router":"~7.10.0"},"dependencies":{"@shopify/hydrogen":"^2025.7.0"}}`,
		},
		{
			name:     "malformed manifest",
			manifest: `{"dependencies":`,
			want:     ErrManifestMalformed,
		},
		{
			name:     "remix still installed",
			manifest: `{"dependencies":{"@remix-run/react":"^2.16.0","react-router":"7.9.0","@shopify/hydrogen":"2025.5.0"}}`,
			want:     ErrRemixDependencies,
		},
		{
			name:     "router missing",
			manifest: `{"dependencies":{"@shopify/hydrogen":"2025.5.0"}}`,
			want:     ErrRouterMissing,
		},
		{
			name:     "router too old",
			manifest: `{"dependencies":{"react-router":"^7.6.0","@shopify/hydrogen":"2025.5.0"}}`,
			want:     ErrRouterVersion,
		},
		{
			name:     "hydrogen missing",
			manifest: `{"dependencies":{"react-router":"7.9.0"}}`,
			want:     ErrHydrogenMissing,
		},
		{
			name:     "hydrogen too old",
			manifest: `{"dependencies":{"react-router":"7.9.0","@shopify/hydrogen":"2025.1.3"}}`,
			want:     ErrHydrogenVersion,
		},
		{
			name:     "skip dependency check",
			manifest: `{"dependencies":{"@remix-run/react":"^2.16.0"}}`,
			opts:     Options{SkipDependencyCheck: true},
		},
		{
			name:     "skip version check",
			manifest: `{"dependencies":{"react-router":"6.0.0","@shopify/hydrogen":"2024.1.0"}}`,
			opts:     Options{SkipVersionCheck: true},
		},
		{
			name:     "unpinned ranges pass",
			manifest: `{"dependencies":{"react-router":"latest","@shopify/hydrogen":"workspace:*"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(writeManifest(t, tt.manifest), tt.opts)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var gateErr *GateError
			require.ErrorAs(t, err, &gateErr)
			assert.Contains(t, err.Error(), Remediation)
		})
	}
}

func TestCheck_MissingManifest(t *testing.T) {
	err := Check(t.TempDir(), Options{})
	assert.ErrorIs(t, err, ErrManifestNotFound)
	assert.Contains(t, err.Error(), Remediation)
}

func TestCheck_RemixDetailListsPackages(t *testing.T) {
	root := writeManifest(t, `{"dependencies":{"@remix-run/react":"2","@remix-run/node":"2"}}`)
	err := Check(root, Options{})
	assert.Contains(t, err.Error(), "@remix-run/node, @remix-run/react")
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		declared string
		minimum  string
		want     bool
	}{
		{"7.9.0", "7.9.0", true},
		{"^7.9.1", "7.9.0", true},
		{">=7.9.0 <8", "7.9.0", true},
		{"~7.8.4", "7.9.0", false},
		{"v8", "7.9.0", true},
		{"2025.5", "2025.5.0", true},
		{"2025.4.1", "2025.5.0", false},
		{"*", "7.9.0", true},
		{"npm:react-router@6.0.0", "7.9.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			got, err := Satisfies(tt.declared, tt.minimum)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Satisfies("7.9.0", "not a version")
	assert.Error(t, err)
}
