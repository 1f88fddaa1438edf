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
	"log/slog"
	"strings"

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/classify"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/langdetect"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/syntax"
)

// ImportMapping is a static rule moving named imports from a set of legacy
// modules to one destination module.
type ImportMapping struct {
	// Name identifies the rule in logs.
	Name string

	// From lists the legacy source modules.
	From []string

	// To is the destination module.
	To string

	// Renames maps legacy export names to their replacement names.
	Renames map[string]string

	// Removals maps names that are dropped entirely to the destination
	// export that replaces them at every reference.
	Removals map[string]string

	// Keep lists exports that stay on the original module. Only the
	// Hydrogen rule uses it.
	Keep map[string]bool
}

// handles reports whether source is one of the rule's legacy modules.
func (m ImportMapping) handles(source string) bool {
	for _, f := range m.From {
		if f == source {
			return true
		}
	}
	return false
}

// hydrogenOnlyExports are Hydrogen SDK exports that never move to the router.
var hydrogenOnlyExports = []string{
	// components
	"Analytics", "CartForm", "ExternalVideo", "Image", "MediaFile", "ModelViewer",
	"Money", "OptimisticInput", "Pagination", "RichText", "Script", "Seo",
	"ShopPayButton", "VariantSelector", "Video",
	// caching
	"CacheCustom", "CacheLong", "CacheNone", "CacheShort", "InMemoryCache", "createWithCache",
	// factories and helpers
	"createCartHandler", "createContentSecurityPolicy", "createCustomerAccountClient",
	"createHydrogenContext", "createStorefrontClient", "cartGetIdDefault", "cartSetIdDefault",
	"decodeEncodedVariant", "flattenConnection", "getAdjacentAndFirstAvailableVariants",
	"getPaginationVariables", "getProductOptions", "getSelectedProductOptions", "getSeoMeta",
	"getShopAnalytics", "getSitemap", "getSitemapIndex", "graphiqlLoader",
	"mapSelectedProductOptionToObject", "parseGid", "parseMetafield", "sendShopifyAnalytics",
	"storefrontRedirect",
	// hooks
	"useAnalytics", "useCustomerPrivacy", "useMoney", "useNonce", "useOptimisticCart",
	"useOptimisticVariant", "useSelectedOptionInUrlParam", "useShopifyCookies",
	// types
	"CachingStrategy", "CartActionInput", "CartLineInput", "CartLineUpdateInput",
	"CartQueryDataReturn", "CartQueryOptions", "CartReturn", "CustomerAccount",
	"HydrogenCart", "HydrogenCartCustom", "HydrogenContext", "HydrogenEnv",
	"HydrogenSession", "I18nBase", "OptimisticCart", "OptimisticCartLine",
	"SeoConfig", "SeoHandleFunction", "ShopAnalytics", "Storefront", "StorefrontClient",
	"VariantOption", "VariantOptionValue",
}

// HydrogenMapping moves router re-exports out of @shopify/hydrogen.
var HydrogenMapping = ImportMapping{
	Name:     "hydrogen",
	From:     []string{HydrogenModule},
	To:       RouterModule,
	Renames:  map[string]string{},
	Removals: map[string]string{"json": "data"},
	Keep:     toSet(hydrogenOnlyExports),
}

// RemixMapping moves every Remix runtime package to react-router.
var RemixMapping = ImportMapping{
	Name: "remix",
	From: []string{
		"@remix-run/react",
		"@remix-run/node",
		"@remix-run/server-runtime",
		"@remix-run/cloudflare",
		"@remix-run/testing",
		"react-router-dom",
	},
	To: RouterModule,
	Renames: map[string]string{
		"createRemixStub": "createRoutesStub",
		"unstable_data":   "data",
	},
	Removals: map[string]string{"json": "data"},
}

// DefaultMappings are the rules applied by ImportRewrite, in order.
var DefaultMappings = []ImportMapping{HydrogenMapping, RemixMapping}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// ImportRewrite moves imports from legacy modules to the destination module.
//
// Description:
//
//	For each import declaration from a legacy module, its named specifiers
//	are partitioned into three buckets:
//
//	  removed - names in the rule's removal set; their replacement export
//	            takes their place in the moved bucket and every reference
//	            to the removed binding is rewritten to it
//	  kept    - SDK-only exports, left on the original declaration
//	  moved   - everything else, renamed per the rule
//
//	The original declaration is rebuilt with the kept bucket (or deleted),
//	and the moved bucket is merged into an existing destination import of
//	the same kind or written as a new declaration in the original's place.
//	Declarations are processed one at a time with a commit in between, so
//	each step sees a fresh tree. A final cleanup merges duplicate imports
//	of the same module and kind.
//
// Thread Safety: ImportRewrite is immutable and safe for concurrent use.
type ImportRewrite struct {
	Mappings []ImportMapping

	logger *slog.Logger
}

// NewImportRewrite creates the pass with DefaultMappings.
func NewImportRewrite(logger *slog.Logger) *ImportRewrite {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportRewrite{Mappings: DefaultMappings, logger: logger}
}

// Name returns NameImportRewrite.
func (p *ImportRewrite) Name() string { return NameImportRewrite }

// Run rewrites the imports of doc.
func (p *ImportRewrite) Run(ctx context.Context, doc *syntax.Document, file classify.SourceFile, _ *langdetect.Profile) (bool, error) {
	var c changes
	// Each round retires one declaration, so the round count is bounded by
	// the number of imports in the file.
	for limit := len(doc.Imports()) + 1; limit > 0; limit-- {
		decl, mapping, ok := p.nextDeclaration(doc)
		if !ok {
			break
		}
		p.rewriteDeclaration(doc, decl, mapping)
		if err := c.commit(ctx, doc); err != nil {
			return c.any, err
		}
		p.logger.Debug("import rewritten",
			slog.String("file", file.Path),
			slog.String("mapping", mapping.Name),
			slog.String("source", decl.Source))
	}

	mergeDuplicateImports(doc)
	if err := c.commit(ctx, doc); err != nil {
		return c.any, err
	}
	return c.any, nil
}

// nextDeclaration finds the first legacy import that still has a
// specifier to move or remove.
func (p *ImportRewrite) nextDeclaration(doc *syntax.Document) (syntax.ImportDecl, ImportMapping, bool) {
	for _, imp := range doc.Imports() {
		for _, m := range p.Mappings {
			if !m.handles(imp.Source) {
				continue
			}
			for _, spec := range imp.Named {
				if !m.Keep[spec.Imported] {
					return imp, m, true
				}
			}
		}
	}
	return syntax.ImportDecl{}, ImportMapping{}, false
}

// rewriteDeclaration queues the edits for one legacy import declaration.
func (p *ImportRewrite) rewriteDeclaration(doc *syntax.Document, decl syntax.ImportDecl, m ImportMapping) {
	var kept, moved []syntax.ImportSpecifier
	seen := make(map[string]bool)
	addMoved := func(s syntax.ImportSpecifier) {
		if seen[s.Key()] {
			return
		}
		seen[s.Key()] = true
		moved = append(moved, s)
	}
	renames := make(map[string]string)

	for _, spec := range decl.Named {
		if replacement, ok := m.Removals[spec.Imported]; ok {
			local, _ := valueBinding(doc, m.To, replacement, routerAlias(replacement))
			addMoved(syntax.ImportSpecifier{Imported: replacement, Local: local, TypeOnly: spec.TypeOnly})
			renames[spec.Local] = local
			continue
		}
		if m.Keep[spec.Imported] {
			kept = append(kept, spec)
			continue
		}
		next := syntax.ImportSpecifier{Imported: spec.Imported, Local: spec.Local, TypeOnly: spec.TypeOnly}
		if renamed, ok := m.Renames[spec.Imported]; ok {
			next.Imported = renamed
			if !spec.Aliased() {
				next.Local = renamed
				renames[spec.Local] = renamed
			}
		}
		addMoved(next)
	}

	for old, replacement := range renames {
		doc.RenameReferences(old, replacement)
		doc.RenameLocalExports(old, replacement)
	}

	target, hasTarget := findMergeTarget(doc, m.To, decl)
	if hasTarget {
		merged := append([]syntax.ImportSpecifier(nil), target.Named...)
		for _, s := range moved {
			if _, ok := target.Find(s.Imported); !ok {
				merged = append(merged, s)
			}
		}
		if len(merged) != len(target.Named) {
			doc.SetNamedImports(target, merged)
		}
	}

	if len(kept) == 0 && decl.Default == "" && decl.Namespace == "" {
		if hasTarget || len(moved) == 0 {
			doc.DeleteStatement(decl.Node)
			return
		}
		source := decl.Node.ChildByFieldName("source")
		if source == nil {
			doc.Replace(decl.Node, syntax.ImportDecl{Source: m.To, TypeOnly: decl.TypeOnly, Named: moved}.Render())
			return
		}
		// Retarget in place so quotes and a multi-line clause survive.
		doc.ReplaceStringValue(source, m.To)
		doc.SetNamedImports(decl, moved)
		return
	}

	doc.SetNamedImports(decl, kept)
	if !hasTarget && len(moved) > 0 {
		created := syntax.ImportDecl{Source: m.To, TypeOnly: decl.TypeOnly, Named: moved}
		doc.Insert(decl.Node.EndByte(), "\n"+doc.Indent(decl.Node)+created.Render())
	}
}

// routerAlias is the local name used for a router export whose own name is
// already taken in the file, e.g. data -> routerData.
func routerAlias(name string) string {
	if name == "" {
		return name
	}
	return "router" + strings.ToUpper(name[:1]) + name[1:]
}

// findMergeTarget returns an import from module with the same type/value
// kind as decl that can take more named specifiers.
func findMergeTarget(doc *syntax.Document, module string, decl syntax.ImportDecl) (syntax.ImportDecl, bool) {
	for _, imp := range doc.Imports() {
		if imp.Source != module || imp.TypeOnly != decl.TypeOnly || imp.Namespace != "" {
			continue
		}
		if syntax.Same(imp.Node, decl.Node) {
			continue
		}
		return imp, true
	}
	return syntax.ImportDecl{}, false
}

// mergeDuplicateImports queues merging import declarations that share a
// (module, type/value kind) pair.
//
// Specifiers are de-duplicated by kind, imported name and alias, keeping
// the first occurrence. Namespace imports, side-effect imports and
// declarations with conflicting default bindings are left alone.
func mergeDuplicateImports(doc *syntax.Document) {
	type key struct {
		source   string
		typeOnly bool
	}
	groups := make(map[key][]syntax.ImportDecl)
	var order []key
	for _, imp := range doc.Imports() {
		if imp.Namespace != "" || imp.SideEffectOnly() {
			continue
		}
		k := key{imp.Source, imp.TypeOnly}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], imp)
	}

	for _, k := range order {
		group := groups[k]
		if len(group) < 2 {
			continue
		}
		first := group[0]
		defaultName := first.Default
		conflict := false
		for _, imp := range group[1:] {
			if imp.Default == "" {
				continue
			}
			if defaultName != "" && defaultName != imp.Default {
				conflict = true
				break
			}
			defaultName = imp.Default
		}
		if conflict {
			continue
		}

		seen := make(map[string]bool)
		var named []syntax.ImportSpecifier
		for _, imp := range group {
			for _, s := range imp.Named {
				if !seen[s.Key()] {
					seen[s.Key()] = true
					named = append(named, s)
				}
			}
		}

		if defaultName != first.Default {
			merged := first
			merged.Default = defaultName
			merged.Named = named
			doc.Replace(first.Node, merged.Render())
		} else {
			doc.SetNamedImports(first, named)
		}
		for _, imp := range group[1:] {
			doc.DeleteStatement(imp.Node)
		}
	}
}
