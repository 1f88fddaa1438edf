// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package transform runs the rewrite passes over one file.
//
// The Transformer owns the pass sequence and the project language profile.
// Each Transform call parses the file once, hands the same Document to every
// applicable pass in a fixed order, and returns the regenerated source only
// when something changed.
package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/classify"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/langdetect"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/passes"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/syntax"
)

var (
	// ErrNilContext is returned when Transform is called with a nil context.
	ErrNilContext = errors.New("context must not be nil")

	// ErrEmptyPath is returned when Transform is called without a file path.
	ErrEmptyPath = errors.New("file path must not be empty")
)

// Options configures a Transformer.
type Options struct {
	// ProjectRoot is where package.json and tsconfig.json are looked up
	// when the profile has to be detected.
	ProjectRoot string

	// Language forces the project language and bypasses detection.
	// Empty means detect.
	Language langdetect.Language
}

// Result is the outcome of one Transform call.
type Result struct {
	// Path is the slash-normalized file path.
	Path string

	// Eligible is false when the classifier excluded the file. Ineligible
	// files are never parsed.
	Eligible bool

	// Changed is false when the file needs no rewrite; Source is then nil.
	Changed bool

	// Source is the regenerated file content when Changed is true.
	Source []byte

	// Passes lists the names of the passes that changed the file, in order.
	Passes []string
}

// Transformer applies the pass sequence to individual files.
//
// Thread Safety: Safe for concurrent use. Each Transform call works on its
// own Document; the only shared state is the profile cache, which locks.
type Transformer struct {
	opts   Options
	cache  *langdetect.Cache
	logger *slog.Logger

	imports    passes.Pass
	response   passes.Pass
	components passes.Pass
	routeTypes passes.Pass
	contextAPI passes.Pass
	envTypes   passes.Pass
}

// NewTransformer creates a Transformer.
//
// Inputs:
//
//	opts - Project root and optional forced language.
//	cache - Profile cache shared across the run. Nil creates a private one.
//	logger - Logger for per-file diagnostics. Nil uses slog.Default().
func NewTransformer(opts Options, cache *langdetect.Cache, logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = langdetect.NewCache(langdetect.NewDetector(logger))
	}
	return &Transformer{
		opts:       opts,
		cache:      cache,
		logger:     logger,
		imports:    passes.NewImportRewrite(logger),
		response:   passes.ResponseUtility{},
		components: passes.ComponentRename{},
		routeTypes: passes.RouteTypes{},
		contextAPI: passes.ContextAPI{},
		envTypes:   passes.EnvTypes{},
	}
}

// Profile resolves the project language profile: a forced language wins,
// otherwise the profile is detected once per project root.
func (t *Transformer) Profile() (*langdetect.Profile, error) {
	if t.opts.Language != "" {
		return langdetect.ProfileFor(t.opts.Language), nil
	}
	root := t.opts.ProjectRoot
	if root == "" {
		root = "."
	}
	return t.cache.Get(root)
}

// Transform rewrites one file.
//
// Description:
//
//	The pass order is fixed: import rewriting, response utilities,
//	component renaming, route types (route files only), then the context
//	API (context and route files). Import rewriting must run first so the
//	later passes see canonical module names, and route types must run
//	after component renaming so that stale type imports are removed after
//	all other import edits. env.d.ts only gets the router types reference
//	and bypasses the eligibility check, which excludes .d.ts files.
//
// Inputs:
//
//	ctx - Context for cancellation and tracing. Must not be nil.
//	path - File path, used for classification only.
//	src - File content.
//	profile - Project language profile. Nil resolves it via Profile.
//
// Outputs:
//
//	*Result - Outcome; Result.Changed is false for untouched files.
//	error - Parse failures and edits that would break the file. Earlier
//	        passes' edits are discarded with the Document on error.
func (t *Transformer) Transform(ctx context.Context, path string, src []byte, profile *langdetect.Profile) (result *Result, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if path == "" {
		return nil, ErrEmptyPath
	}
	if profile == nil {
		profile, err = t.Profile()
		if err != nil {
			return nil, fmt.Errorf("resolve language profile: %w", err)
		}
	}

	start := time.Now()
	ctx, span := startFileSpan(ctx, path, len(src))
	defer span.End()
	lang := langdetect.FileLanguage(path)
	defer func() {
		changed := result != nil && result.Changed
		recordFileMetrics(ctx, string(lang), time.Since(start), changed, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	file := classify.Classify(path, profile)
	result = &Result{Path: file.Path}

	var sequence []passes.Pass
	switch {
	case classify.IsEnvDeclaration(path):
		sequence = []passes.Pass{t.envTypes}
	case !file.ShouldTransform:
		t.logger.Debug("file not eligible", slog.String("file", file.Path))
		return result, nil
	default:
		sequence = []passes.Pass{t.imports, t.response, t.components}
		if file.IsRoute {
			sequence = append(sequence, t.routeTypes)
		}
		if file.IsContext || file.IsRoute {
			sequence = append(sequence, t.contextAPI)
		}
	}
	result.Eligible = true

	doc, err := syntax.Parse(ctx, path, src)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	for _, p := range sequence {
		changed, err := t.runPass(ctx, p, doc, file, profile)
		if err != nil {
			return nil, fmt.Errorf("%s pass on %s: %w", p.Name(), file.Path, err)
		}
		if changed {
			result.Passes = append(result.Passes, p.Name())
			recordPassChange(ctx, p.Name())
		}
	}

	if len(result.Passes) > 0 {
		result.Changed = true
		result.Source = append([]byte(nil), doc.Source()...)
		t.logger.Debug("file transformed",
			slog.String("file", file.Path),
			slog.Any("passes", result.Passes))
	}
	return result, nil
}

func (t *Transformer) runPass(ctx context.Context, p passes.Pass, doc *syntax.Document, file classify.SourceFile, profile *langdetect.Profile) (bool, error) {
	ctx, span := startPassSpan(ctx, p.Name())
	defer span.End()
	changed, err := p.Run(ctx, doc, file, profile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return changed, err
}
