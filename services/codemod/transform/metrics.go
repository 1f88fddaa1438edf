// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package transform

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for file transforms.
var (
	tracer = otel.Tracer("hydrogen-codemod.transform")
	meter  = otel.Meter("hydrogen-codemod.transform")
)

// Metrics for transform operations.
var (
	fileDuration metric.Float64Histogram
	filesTotal   metric.Int64Counter
	passChanges  metric.Int64Counter
	fileErrors   metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		fileDuration, err = meter.Float64Histogram(
			"codemod_file_duration_seconds",
			metric.WithDescription("Duration of a single file transform"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesTotal, err = meter.Int64Counter(
			"codemod_files_total",
			metric.WithDescription("Total number of files handed to the transformer"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		passChanges, err = meter.Int64Counter(
			"codemod_pass_changes_total",
			metric.WithDescription("Total number of files changed, per pass"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		fileErrors, err = meter.Int64Counter(
			"codemod_file_errors_total",
			metric.WithDescription("Total number of files that failed to transform"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordFileMetrics records the outcome of one Transform call.
//
// Parameters:
//   - ctx: Context for metric recording
//   - language: Language of the file ("typescript" or "javascript")
//   - duration: How long the transform took
//   - changed: Whether any pass changed the file
//   - err: The transform error, if any
func recordFileMetrics(ctx context.Context, language string, duration time.Duration, changed bool, err error) {
	if initErr := initMetrics(); initErr != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("language", language),
		attribute.Bool("changed", changed),
	)
	fileDuration.Record(ctx, duration.Seconds(), attrs)
	filesTotal.Add(ctx, 1, attrs)
	if err != nil {
		fileErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("language", language)))
	}
}

// recordPassChange counts one file changed by pass.
func recordPassChange(ctx context.Context, pass string) {
	if err := initMetrics(); err != nil {
		return
	}
	passChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("pass", pass)))
}

// startFileSpan creates a span for one file transform.
//
// Returns:
//   - ctx: Context with span
//   - span: The created span (caller must call span.End())
func startFileSpan(ctx context.Context, path string, size int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Transformer.Transform",
		trace.WithAttributes(
			attribute.String("codemod.file", path),
			attribute.Int("codemod.content_size", size),
		),
	)
}

func startPassSpan(ctx context.Context, pass string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Pass."+pass,
		trace.WithAttributes(attribute.String("codemod.pass", pass)),
	)
}
