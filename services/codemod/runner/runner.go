// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package runner migrates a whole project: it gates on the manifest, finds
// source files, transforms them in parallel and writes or diffs the results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/langdetect"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/prereq"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/transform"
)

// DefaultConcurrency is the number of files transformed at once.
const DefaultConcurrency = 8

var (
	// ErrRootNotFound indicates that the project root does not exist or is
	// not a directory.
	ErrRootNotFound = errors.New("project root not found")

	// ErrInvalidPattern indicates a malformed include or exclude glob.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

// sourceExtensions are the files the runner hands to the transformer.
var sourceExtensions = map[string]bool{".ts": true, ".tsx": true, ".js": true, ".jsx": true}

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{"node_modules": true, "build": true, "dist": true}

// Options configures a run.
type Options struct {
	// Root is the project directory.
	Root string

	// Language forces the project language. Empty means detect.
	Language langdetect.Language

	// DryRun reports diffs instead of writing files.
	DryRun bool

	// Concurrency bounds parallel file transforms. Zero means
	// DefaultConcurrency.
	Concurrency int

	// Include restricts the run to root-relative paths matching any of
	// these doublestar globs. Empty includes everything.
	Include []string

	// Exclude drops root-relative paths matching any of these globs.
	Exclude []string

	// Gate relaxes the prerequisite checks.
	Gate prereq.Options

	// SkipGate disables the prerequisite gate entirely.
	SkipGate bool
}

// FileResult is the outcome for one file that changed or failed.
type FileResult struct {
	// Path is relative to the project root, slash-separated.
	Path string `json:"path"`

	// Passes lists the passes that changed the file.
	Passes []string `json:"passes,omitempty"`

	// Diff is the unified diff of the change. Only set on dry runs.
	Diff string `json:"diff,omitempty"`

	// Added and Deleted count diff lines.
	Added   int32 `json:"added"`
	Deleted int32 `json:"deleted"`

	// Size is the length of the rewritten file.
	Size int `json:"size"`

	// Err is the failure, if any.
	Err error `json:"-"`
}

// Summary describes a finished run.
type Summary struct {
	RunID    string              `json:"run_id"`
	Root     string              `json:"root"`
	DryRun   bool                `json:"dry_run"`
	Profile  *langdetect.Profile `json:"profile"`
	Scanned  int                 `json:"scanned"`
	Eligible int                 `json:"eligible"`
	Changed  int                 `json:"changed"`
	Failed   int                 `json:"failed"`
	Duration time.Duration       `json:"duration"`

	// Bytes is the total size of rewritten files. Zero on dry runs.
	Bytes uint64 `json:"bytes_written"`

	// PassChanges counts changed files per pass name.
	PassChanges map[string]int `json:"pass_changes"`

	// Files holds changed and failed files, sorted by path.
	Files []FileResult `json:"files"`
}

// Runner drives a project migration.
//
// Thread Safety: A Runner may be reused but Run calls must not overlap.
type Runner struct {
	opts        Options
	transformer *transform.Transformer
	logger      *slog.Logger
}

// New validates opts and creates a Runner.
//
// Outputs:
//
//	*Runner - The runner.
//	error - ErrRootNotFound or ErrInvalidPattern.
func New(opts Options, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	info, err := os.Stat(opts.Root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, opts.Root)
	}
	// doublestar syntax is a superset of path.Match, which checks the whole
	// pattern even when nothing matches.
	for _, p := range append(append([]string(nil), opts.Include...), opts.Exclude...) {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, p, err)
		}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	t := transform.NewTransformer(transform.Options{
		ProjectRoot: opts.Root,
		Language:    opts.Language,
	}, nil, logger)
	return &Runner{opts: opts, transformer: t, logger: logger}, nil
}

// Run migrates the project.
//
// Description:
//
//	Runs the prerequisite gate, resolves the language profile once, walks
//	the root for source files and transforms them with at most
//	Options.Concurrency files in flight. Per-file failures are recorded in
//	the summary and do not stop the run; only gate failures, walk errors
//	and cancellation abort it.
//
// Outputs:
//
//	*Summary - Run statistics. Non-nil whenever files were processed.
//	error - *prereq.GateError, walk errors, or the context error.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := r.logger.With(slog.String("run_id", runID))

	if !r.opts.SkipGate {
		if err := prereq.Check(r.opts.Root, r.opts.Gate); err != nil {
			return nil, err
		}
	}

	profile, err := r.transformer.Profile()
	if err != nil {
		return nil, fmt.Errorf("detect language: %w", err)
	}
	logger.Info("starting migration",
		slog.String("root", r.opts.Root),
		slog.Bool("typescript", profile.IsTypeScript),
		slog.Bool("dry_run", r.opts.DryRun))

	files, err := r.collect()
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:       runID,
		Root:        r.opts.Root,
		DryRun:      r.opts.DryRun,
		Profile:     profile,
		Scanned:     len(files),
		PassChanges: make(map[string]int),
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for _, rel := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			res, eligible := r.processFile(gCtx, rel, profile)

			mu.Lock()
			defer mu.Unlock()
			if eligible {
				summary.Eligible++
			}
			switch {
			case res == nil:
			case res.Err != nil:
				summary.Failed++
				summary.Files = append(summary.Files, *res)
				logger.Warn("file failed", slog.String("file", rel), slog.String("error", res.Err.Error()))
			default:
				summary.Changed++
				summary.Files = append(summary.Files, *res)
				if !r.opts.DryRun {
					summary.Bytes += uint64(res.Size)
				}
				for _, p := range res.Passes {
					summary.PassChanges[p]++
				}
			}
			return nil
		})
	}
	err = g.Wait()

	sort.Slice(summary.Files, func(i, j int) bool { return summary.Files[i].Path < summary.Files[j].Path })
	summary.Duration = time.Since(start)
	logger.Info("migration finished",
		slog.Int("scanned", summary.Scanned),
		slog.Int("changed", summary.Changed),
		slog.Int("failed", summary.Failed),
		slog.Duration("duration", summary.Duration))
	return summary, err
}

// processFile transforms one file and writes or diffs the result.
//
// Outputs:
//
//	*FileResult - Nil when the file was ineligible or unchanged.
//	bool - Whether the file was eligible.
func (r *Runner) processFile(ctx context.Context, rel string, profile *langdetect.Profile) (*FileResult, bool) {
	abs := filepath.Join(r.opts.Root, filepath.FromSlash(rel))
	src, err := os.ReadFile(abs)
	if err != nil {
		return &FileResult{Path: rel, Err: err}, true
	}

	res, err := r.transformer.Transform(ctx, rel, src, profile)
	if err != nil {
		return &FileResult{Path: rel, Err: err}, true
	}
	if !res.Changed {
		return nil, res.Eligible
	}

	out := &FileResult{Path: rel, Passes: res.Passes, Size: len(res.Source)}
	text, stat, err := UnifiedDiff(rel, src, res.Source)
	if err != nil {
		out.Err = err
		return out, true
	}
	out.Added, out.Deleted = stat.Added, stat.Deleted
	if r.opts.DryRun {
		out.Diff = text
		return out, true
	}
	if err := writePreservingMode(abs, res.Source); err != nil {
		out.Err = err
	}
	return out, true
}

// collect returns the root-relative slash paths of candidate source files in
// lexical order. Hidden directories and build output are skipped.
func (r *Runner) collect() ([]string, error) {
	var files []string
	err := filepath.WalkDir(r.opts.Root, func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(r.opts.Root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if entry.IsDir() {
			if rel != "." && (strings.HasPrefix(entry.Name(), ".") || skippedDirs[entry.Name()]) {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() || !sourceExtensions[strings.ToLower(filepath.Ext(rel))] {
			return nil
		}
		if r.selected(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", r.opts.Root, err)
	}
	return files, nil
}

// selected applies the include and exclude globs. Patterns were validated
// in New.
func (r *Runner) selected(rel string) bool {
	if len(r.opts.Include) > 0 {
		included := false
		for _, p := range r.opts.Include {
			if ok, _ := doublestar.Match(p, rel); ok {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}
	for _, p := range r.opts.Exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	return true
}

// writePreservingMode replaces file, keeping its permissions.
func writePreservingMode(file string, data []byte) error {
	info, err := os.Stat(file)
	if err != nil {
		return err
	}
	tmp := file + ".codemod.tmp"
	if err := os.WriteFile(tmp, data, info.Mode().Perm()); err != nil {
		return err
	}
	// WriteFile is subject to the umask.
	if err := os.Chmod(tmp, info.Mode().Perm()); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, file); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
