// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/hydrogen-codemod/pkg/ux"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/config"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/langdetect"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/prereq"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/runner"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/telemetry"
)

// errFilesFailed is returned when the run finished but some files could
// not be transformed.
var errFilesFailed = errors.New("some files could not be migrated")

type migrateOptions struct {
	configFile          string
	language            string
	dryRun              bool
	concurrency         int
	include             []string
	exclude             []string
	skipDependencyCheck bool
	skipVersionCheck    bool
	metricsFile         string
	traceExporter       string
}

func newMigrateCmd(g *globalOptions) *cobra.Command {
	o := &migrateOptions{}
	cmd := &cobra.Command{
		Use:   "migrate [dir]",
		Short: "Rewrite the storefront sources in place",
		Long: `Checks that the project's dependencies were upgraded, then rewrites every
eligible source file. Settings are read from hydrogen-codemod.yaml in the
project root when present; flags override the file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, g, o, rootArg(args))
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.configFile, "config", "", "configuration file (default: <dir>/"+config.FileName+")")
	f.StringVar(&o.language, "language", "", "force the project language: typescript or javascript")
	f.BoolVar(&o.dryRun, "dry-run", false, "print unified diffs instead of writing files")
	f.IntVar(&o.concurrency, "concurrency", runner.DefaultConcurrency, "files transformed in parallel")
	f.StringSliceVar(&o.include, "include", nil, "only migrate paths matching these globs")
	f.StringSliceVar(&o.exclude, "exclude", nil, "skip paths matching these globs")
	f.BoolVar(&o.skipDependencyCheck, "skip-dependency-check", false, "do not require the upgraded dependency set")
	f.BoolVar(&o.skipVersionCheck, "skip-version-check", false, "do not check minimum dependency versions")
	f.StringVar(&o.metricsFile, "metrics", "", "write Prometheus metrics to this textfile")
	f.StringVar(&o.traceExporter, "trace-exporter", "", "trace exporter: otlp, stdout or none")
	return cmd
}

// loadConfig reads the configuration file and applies changed flags on top.
func (o *migrateOptions) loadConfig(cmd *cobra.Command, root string) (config.Config, error) {
	var cfg config.Config
	var err error
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile)
	} else {
		cfg, _, err = config.Load(root)
	}
	if err != nil {
		return config.Config{}, err
	}

	changed := cmd.Flags().Changed
	if changed("language") {
		cfg.Language = o.language
	}
	if changed("dry-run") {
		cfg.DryRun = o.dryRun
	}
	if changed("concurrency") {
		cfg.Concurrency = o.concurrency
	}
	if changed("include") {
		cfg.Include = o.include
	}
	if changed("exclude") {
		cfg.Exclude = o.exclude
	}
	if changed("skip-dependency-check") {
		cfg.SkipDependencyCheck = o.skipDependencyCheck
	}
	if changed("skip-version-check") {
		cfg.SkipVersionCheck = o.skipVersionCheck
	}
	if changed("metrics") {
		cfg.Telemetry.MetricExporter = telemetry.ExporterPrometheus
		cfg.Telemetry.MetricsFile = o.metricsFile
	}
	if changed("trace-exporter") {
		cfg.Telemetry.TraceExporter = o.traceExporter
	}
	if changed("log-level") {
		cfg.LogLevel = cmd.Flags().Lookup("log-level").Value.String()
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runMigrate(cmd *cobra.Command, g *globalOptions, o *migrateOptions, root string) (err error) {
	cfg, err := o.loadConfig(cmd, root)
	if err != nil {
		return err
	}
	if err := g.buildLogger(cmd, cfg.LogLevel); err != nil {
		return err
	}
	logger := g.logger.Slog()

	var lang langdetect.Language
	if cfg.Language != "" {
		if lang, err = langdetect.ParseLanguage(cfg.Language); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	cfg.Telemetry.ServiceVersion = version
	if cfg.Telemetry.Writer == nil {
		cfg.Telemetry.Writer = cmd.ErrOrStderr()
	}
	shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := shutdown(flushCtx); serr != nil && err == nil {
			err = fmt.Errorf("flush telemetry: %w", serr)
		}
	}()

	r, err := runner.New(runner.Options{
		Root:        root,
		Language:    lang,
		DryRun:      cfg.DryRun,
		Concurrency: cfg.Concurrency,
		Include:     cfg.Include,
		Exclude:     cfg.Exclude,
		Gate: prereq.Options{
			SkipDependencyCheck: cfg.SkipDependencyCheck,
			SkipVersionCheck:    cfg.SkipVersionCheck,
		},
	}, logger)
	if err != nil {
		return err
	}

	summary, err := r.Run(ctx)
	var gateErr *prereq.GateError
	if errors.As(err, &gateErr) {
		if g.jsonOut {
			_ = writeJSON(cmd.OutOrStdout(), gateReport(gateErr))
		} else {
			printGateFailure(g.printer(cmd.OutOrStdout()), gateErr)
		}
		return err
	}
	if err != nil {
		return err
	}

	if g.jsonOut {
		if err := writeJSON(cmd.OutOrStdout(), newMigrateReport(summary)); err != nil {
			return err
		}
	} else {
		printSummary(g.printer(cmd.OutOrStdout()), summary)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d", errFilesFailed, summary.Failed)
	}
	return nil
}

type fileReport struct {
	runner.FileResult
	Error string `json:"error,omitempty"`
}

type migrateReport struct {
	*runner.Summary
	Files []fileReport `json:"files"`
}

func newMigrateReport(s *runner.Summary) migrateReport {
	files := make([]fileReport, 0, len(s.Files))
	for _, f := range s.Files {
		fr := fileReport{FileResult: f}
		if f.Err != nil {
			fr.Error = f.Err.Error()
		}
		files = append(files, fr)
	}
	return migrateReport{Summary: s, Files: files}
}

func printSummary(p *ux.Printer, s *runner.Summary) {
	if s.DryRun {
		for _, f := range s.Files {
			if f.Diff != "" {
				p.Diff(f.Diff)
			}
		}
	}

	lines := []string{
		fmt.Sprintf("Language: %s", s.Profile.Language()),
		fmt.Sprintf("Scanned:  %s (%d eligible)", ux.Count(s.Scanned, "file"), s.Eligible),
		fmt.Sprintf("Changed:  %s", ux.Count(s.Changed, "file")),
	}
	if s.Failed > 0 {
		lines = append(lines, fmt.Sprintf("Failed:   %s", ux.Count(s.Failed, "file")))
	}
	if !s.DryRun && s.Bytes > 0 {
		lines = append(lines, fmt.Sprintf("Written:  %s", ux.Bytes(s.Bytes)))
	}

	passNames := make([]string, 0, len(s.PassChanges))
	for name := range s.PassChanges {
		passNames = append(passNames, name)
	}
	sort.Strings(passNames)
	for _, name := range passNames {
		lines = append(lines, fmt.Sprintf("  %s %s", name, ux.Count(s.PassChanges[name], "file")))
	}
	lines = append(lines, fmt.Sprintf("Run %s in %s", s.RunID, s.Duration.Round(time.Millisecond)))

	title := "Migration summary"
	if s.DryRun {
		title += " (dry run)"
	}
	p.Box(title, lines, s.Failed > 0)

	for _, f := range s.Files {
		if f.Err != nil {
			p.Line(ux.IconError, "%s: %v", f.Path, f.Err)
		} else if !s.DryRun {
			p.Line(ux.IconSuccess, "%s", f.Path)
		}
	}
}

type gateJSON struct {
	OK          bool   `json:"ok"`
	Reason      string `json:"reason,omitempty"`
	Detail      string `json:"detail,omitempty"`
	Remediation string `json:"remediation,omitempty"`
}

func gateReport(err *prereq.GateError) gateJSON {
	if err == nil {
		return gateJSON{OK: true}
	}
	return gateJSON{Reason: err.Reason.Error(), Detail: err.Detail, Remediation: prereq.Remediation}
}

func printGateFailure(p *ux.Printer, err *prereq.GateError) {
	lines := []string{err.Reason.Error()}
	if err.Detail != "" {
		lines = append(lines, err.Detail)
	}
	lines = append(lines, "", prereq.Remediation)
	p.Box("Prerequisites not met", lines, true)
}
