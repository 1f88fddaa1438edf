// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package manifest reads the dependency sections of a project's package.json.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FileName is the project manifest file name.
const FileName = "package.json"

var (
	// ErrNotFound indicates that the project root has no package.json.
	ErrNotFound = errors.New("package.json not found")

	// ErrMalformed indicates that package.json is not valid JSON.
	ErrMalformed = errors.New("malformed package.json")
)

// Manifest holds the parts of package.json the codemod cares about.
type Manifest struct {
	Name            string            `json:"name"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Read loads <root>/package.json.
//
// Outputs:
//
//	*Manifest - The parsed manifest. Dependency maps are never nil.
//	error - ErrNotFound, ErrMalformed, or an I/O error.
func Read(root string) (*Manifest, error) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes package.json content.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if m.Dependencies == nil {
		m.Dependencies = map[string]string{}
	}
	if m.DevDependencies == nil {
		m.DevDependencies = map[string]string{}
	}
	return &m, nil
}

// Version returns the declared version range of a dependency from either
// section, dependencies first.
func (m *Manifest) Version(name string) (string, bool) {
	if v, ok := m.Dependencies[name]; ok {
		return v, true
	}
	v, ok := m.DevDependencies[name]
	return v, ok
}

// Has reports whether name is declared in either section.
func (m *Manifest) Has(name string) bool {
	_, ok := m.Version(name)
	return ok
}

// Matching returns the sorted dependency names, from both sections, for
// which match returns true.
func (m *Manifest) Matching(match func(name string) bool) []string {
	seen := map[string]bool{}
	var out []string
	for _, section := range []map[string]string{m.Dependencies, m.DevDependencies} {
		for name := range section {
			if !seen[name] && match(name) {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}
