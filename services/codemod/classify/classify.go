// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package classify derives the category of a storefront source file from its
// path alone.
package classify

import (
	"path"
	"regexp"
	"strings"

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/langdetect"
)

// SourceFile is the classification of one path.
//
// It is derived once per transform call and never mutated.
type SourceFile struct {
	// Path is the slash-normalized path that was classified.
	Path string `json:"path"`

	// Language is the file's own language, from its extension.
	Language langdetect.Language `json:"language"`

	// IsRoute is true for files under routes/ with an extractable route name.
	IsRoute bool `json:"is_route"`

	// RouteName is the dotted route identifier, empty unless IsRoute.
	RouteName string `json:"route_name,omitempty"`

	// IsContext is true for files that build the per-request load context.
	IsContext bool `json:"is_context"`

	// IsConfig is true for build-tool config, manifest and ambient type files.
	IsConfig bool `json:"is_config"`

	// ShouldTransform is the eligibility verdict.
	ShouldTransform bool `json:"should_transform"`
}

// excludedFragments disqualify a path regardless of extension.
var excludedFragments = []string{
	"node_modules/",
	".d.ts",
	".test.",
	".spec.",
	"__tests__/",
}

// excludedSegments disqualify a path when they appear as a whole directory.
var excludedSegments = []string{"build", "dist"}

// requiredMarkers: at least one must appear for a file to be eligible.
var requiredMarkers = []string{"app/", "routes/", "lib/", "server.", "entry."}

var configFiles = map[string]bool{
	"vite.config.ts":         true,
	"vite.config.js":         true,
	"react-router.config.ts": true,
	"react-router.config.js": true,
	"remix.config.js":        true,
	"package.json":           true,
	"tsconfig.json":          true,
	"jsconfig.json":          true,
	"env.d.ts":               true,
	"remix.env.d.ts":         true,
}

// EnvDeclarationFile is the ambient type declaration file that receives the
// router type reference directive.
const EnvDeclarationFile = "env.d.ts"

// Normalize converts path separators to forward slashes.
func Normalize(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// Classify derives every attribute of a SourceFile from its path.
//
// Inputs:
//
//	p - File path, absolute or project-relative.
//	profile - Project language profile. Nil admits every JS/TS extension.
//
// Outputs:
//
//	SourceFile - The classification. Never an error: unknown paths are
//	             simply ineligible.
func Classify(p string, profile *langdetect.Profile) SourceFile {
	p = Normalize(p)
	name, isRoute := ExtractRouteName(p)
	isRoute = isRoute && containsSegment(p, "routes/")
	if !isRoute {
		name = ""
	}
	return SourceFile{
		Path:            p,
		Language:        langdetect.FileLanguage(p),
		IsRoute:         isRoute,
		RouteName:       name,
		IsContext:       IsContext(p),
		IsConfig:        IsConfig(p),
		ShouldTransform: ShouldTransform(p, profile),
	}
}

// ShouldTransform reports whether a file is eligible for rewriting.
func ShouldTransform(p string, profile *langdetect.Profile) bool {
	p = Normalize(p)
	for _, frag := range excludedFragments {
		if strings.Contains(p, frag) {
			return false
		}
	}
	for _, seg := range excludedSegments {
		if containsSegment(p, seg+"/") {
			return false
		}
	}
	if !profile.Admits(p) {
		return false
	}
	for _, marker := range requiredMarkers {
		if strings.Contains(p, marker) {
			return true
		}
	}
	return false
}

// IsContext reports whether a file constructs the request load context.
func IsContext(p string) bool {
	p = Normalize(p)
	return strings.Contains(p, "lib/context") ||
		strings.Contains(p, "entry.server") ||
		strings.HasPrefix(path.Base(p), "server.")
}

// IsConfig reports whether the basename is a known config or manifest file.
func IsConfig(p string) bool {
	return configFiles[path.Base(Normalize(p))]
}

// IsEnvDeclaration reports whether p is the project's env.d.ts.
func IsEnvDeclaration(p string) bool {
	return path.Base(Normalize(p)) == EnvDeclarationFile
}

// containsSegment reports whether seg (ending in "/") starts a path segment.
func containsSegment(p, seg string) bool {
	return strings.HasPrefix(p, seg) || strings.Contains(p, "/"+seg)
}

// routeRule is one entry of the ordered route-name rule list.
type routeRule struct {
	name         string
	pattern      *regexp.Regexp
	canonicalize func(match []string) string
}

const routeExt = `\.(?:tsx|ts|jsx|js)$`

// routeRules are tried in order; the first matching rule names the route.
var routeRules = []routeRule{
	{
		name:    "nested-bracket",
		pattern: regexp.MustCompile(`(?:^|/)routes/(.+)/\[([^/\]]+)\]` + routeExt),
		canonicalize: func(m []string) string {
			return strings.ReplaceAll(m[1], "/", ".") + ".$" + m[2]
		},
	},
	{
		name:    "flat-dash-dollar",
		pattern: regexp.MustCompile(`(?:^|/)routes/([^/]+)-\$([^/]+)` + routeExt),
		canonicalize: func(m []string) string {
			return m[1] + ".$" + m[2]
		},
	},
	{
		name:    "index-or-layout",
		pattern: regexp.MustCompile(`(?:^|/)routes/(_index|_layout)` + routeExt),
		canonicalize: func(m []string) string {
			return m[1]
		},
	},
	{
		name:    "generic",
		pattern: regexp.MustCompile(`(?:^|/)routes/(.+?)` + routeExt),
		canonicalize: func(m []string) string {
			if isBracketedResource(m[1]) {
				return m[1]
			}
			return strings.NewReplacer("/", ".", "-", ".").Replace(m[1])
		},
	},
}

// isBracketedResource matches escaped resource route names such as
// "[sitemap.xml]" or "[robots.txt]".
func isBracketedResource(name string) bool {
	return strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") && !strings.Contains(name, "/")
}

// ExtractRouteName returns the dotted route identifier for a file under a
// routes directory.
//
// Description:
//
//	Applies the route rules in order, first match wins:
//
//	  routes/products/[handle].tsx  -> products.$handle
//	  routes/products-$handle.tsx   -> products.$handle
//	  routes/_index.tsx             -> _index
//	  routes/products.$handle.tsx   -> products.$handle
//	  routes/[sitemap.xml].tsx      -> [sitemap.xml]
//
// Outputs:
//
//	string - The route name.
//	bool - False if no rule matches.
func ExtractRouteName(p string) (string, bool) {
	p = Normalize(p)
	for _, rule := range routeRules {
		if m := rule.pattern.FindStringSubmatch(p); m != nil {
			return rule.canonicalize(m), true
		}
	}
	return "", false
}
