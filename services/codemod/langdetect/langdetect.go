// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package langdetect decides whether a storefront project is written in
// TypeScript or JavaScript.
//
// A Profile is derived once per project root from package.json, the presence
// of tsconfig.json and a count of source file extensions under app/. It is
// immutable after creation. Cache memoises profiles for a single run.
package langdetect

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/manifest"
)

// Language is the language of a file or the majority language of a project.
type Language string

const (
	TypeScript Language = "typescript"
	JavaScript Language = "javascript"
	Mixed      Language = "mixed"
)

// ErrUnknownLanguage is returned by ParseLanguage for unrecognized names.
var ErrUnknownLanguage = errors.New("unknown language")

// ParseLanguage accepts "typescript"/"ts" and "javascript"/"js".
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "typescript", "ts":
		return TypeScript, nil
	case "javascript", "js":
		return JavaScript, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
	}
}

// FileLanguage returns the language implied by a file extension.
// Anything that is not .ts/.tsx/.mts/.cts is JavaScript.
func FileLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return TypeScript
	default:
		return JavaScript
	}
}

// Extensions is the primary/component file extension pair of a project.
type Extensions struct {
	Primary   string `json:"primary"`
	Component string `json:"component"`
}

// Profile describes the language of one project.
type Profile struct {
	IsTypeScript            bool       `json:"is_typescript"`
	HasTypeScriptDependency bool       `json:"has_typescript_dependency"`
	HasTsConfig             bool       `json:"has_tsconfig"`
	Extensions              Extensions `json:"extensions"`
	Majority                Language   `json:"majority_language"`
	TypeScriptFiles         int        `json:"typescript_files"`
	JavaScriptFiles         int        `json:"javascript_files"`
}

// Language returns TypeScript or JavaScript.
func (p *Profile) Language() Language {
	if p != nil && p.IsTypeScript {
		return TypeScript
	}
	return JavaScript
}

// Admits reports whether files with the extension of path are eligible
// under this profile. A nil profile admits every JS/TS extension.
func (p *Profile) Admits(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx":
		return true
	case ".ts", ".tsx":
		return p == nil || p.IsTypeScript
	default:
		return false
	}
}

// ProfileFor synthesizes a profile for a forced language, bypassing detection.
func ProfileFor(lang Language) *Profile {
	if lang == TypeScript {
		return &Profile{
			IsTypeScript:            true,
			HasTypeScriptDependency: true,
			HasTsConfig:             true,
			Extensions:              Extensions{Primary: ".ts", Component: ".tsx"},
			Majority:                TypeScript,
		}
	}
	return &Profile{
		Extensions: Extensions{Primary: ".js", Component: ".jsx"},
		Majority:   JavaScript,
	}
}

// Majority applies the majority rule to a pair of file counts.
//
// A language with files wins outright over one with none. Otherwise a
// language needs strictly more than double the other's count; anything
// closer is Mixed.
func Majority(ts, js int) Language {
	switch {
	case ts > 0 && js == 0:
		return TypeScript
	case js > 0 && ts == 0:
		return JavaScript
	case ts > 2*js:
		return TypeScript
	case js > 2*ts:
		return JavaScript
	default:
		return Mixed
	}
}

// DefaultSourceDir is the directory counted by the detector.
const DefaultSourceDir = "app"

// Detector inspects a project root.
type Detector struct {
	// SourceDir is the directory under the root whose files are counted.
	SourceDir string

	logger *slog.Logger
}

// NewDetector creates a detector that counts files under app/.
func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{SourceDir: DefaultSourceDir, logger: logger}
}

// Detect builds a profile for the project at root.
//
// Description:
//
//	Reads package.json for a typescript dependency, checks tsconfig.json,
//	and counts .ts/.tsx against .js/.jsx under the source directory,
//	skipping hidden directories and node_modules. A missing manifest or
//	source directory is not an error; the corresponding facts are false
//	or zero.
//
// Outputs:
//
//	*Profile - The detected profile.
//	error - Non-nil only for unexpected I/O failures.
func (d *Detector) Detect(root string) (*Profile, error) {
	p := &Profile{}

	m, err := manifest.Read(root)
	switch {
	case err == nil:
		p.HasTypeScriptDependency = m.Has("typescript")
	case errors.Is(err, manifest.ErrNotFound):
	case errors.Is(err, manifest.ErrMalformed):
		d.logger.Warn("ignoring malformed package.json", slog.String("root", root), slog.String("error", err.Error()))
	default:
		return nil, err
	}

	if _, err := os.Stat(filepath.Join(root, "tsconfig.json")); err == nil {
		p.HasTsConfig = true
	}

	ts, js, err := countSources(filepath.Join(root, d.SourceDir))
	if err != nil {
		return nil, fmt.Errorf("count sources in %s: %w", root, err)
	}
	p.TypeScriptFiles, p.JavaScriptFiles = ts, js
	p.Majority = Majority(ts, js)
	p.IsTypeScript = (p.HasTsConfig || p.HasTypeScriptDependency) && ts >= js
	if p.IsTypeScript {
		p.Extensions = Extensions{Primary: ".ts", Component: ".tsx"}
	} else {
		p.Extensions = Extensions{Primary: ".js", Component: ".jsx"}
	}

	d.logger.Debug("language profile detected",
		slog.String("root", root),
		slog.Bool("typescript", p.IsTypeScript),
		slog.String("majority", string(p.Majority)),
		slog.Int("ts_files", ts),
		slog.Int("js_files", js))
	return p, nil
}

func countSources(dir string) (ts, js int, err error) {
	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == dir && errors.Is(walkErr, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return walkErr
		}
		if entry.IsDir() {
			if path != dir && (strings.HasPrefix(entry.Name(), ".") || entry.Name() == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".ts", ".tsx":
			ts++
		case ".js", ".jsx":
			js++
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, 0, nil
	}
	return ts, js, err
}

// Cache memoises profiles per project root for one run.
//
// Thread Safety: Safe for concurrent use.
type Cache struct {
	detector *Detector

	mu       sync.Mutex
	profiles map[string]*Profile
}

// NewCache creates an empty cache backed by detector.
func NewCache(detector *Detector) *Cache {
	return &Cache{detector: detector, profiles: make(map[string]*Profile)}
}

// Get returns the cached profile for root, detecting it on first use.
func (c *Cache) Get(root string) (*Profile, error) {
	key := filepath.Clean(root)
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.profiles[key]; ok {
		return p, nil
	}
	p, err := c.detector.Detect(key)
	if err != nil {
		return nil, err
	}
	c.profiles[key] = p
	return p, nil
}
