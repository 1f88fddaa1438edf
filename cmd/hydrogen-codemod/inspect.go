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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/hydrogen-codemod/pkg/ux"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/classify"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/config"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/langdetect"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/prereq"
)

func newDetectCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detect [dir]",
		Short: "Print the detected project language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := langdetect.NewDetector(g.logger.Slog()).Detect(rootArg(args))
			if err != nil {
				return err
			}
			if g.jsonOut {
				return writeJSON(cmd.OutOrStdout(), profile)
			}
			p := g.printer(cmd.OutOrStdout())
			p.Box("Language: "+string(profile.Language()), []string{
				fmt.Sprintf("typescript dependency: %t", profile.HasTypeScriptDependency),
				fmt.Sprintf("tsconfig.json:         %t", profile.HasTsConfig),
				fmt.Sprintf("sources:               %d ts, %d js", profile.TypeScriptFiles, profile.JavaScriptFiles),
				fmt.Sprintf("new file extensions:   %s, %s", profile.Extensions.Primary, profile.Extensions.Component),
			}, false)
			return nil
		},
	}
}

func newClassifyCmd(g *globalOptions) *cobra.Command {
	var root, language string
	cmd := &cobra.Command{
		Use:   "classify <path>...",
		Short: "Show how the codemod sees each path",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var profile *langdetect.Profile
			if language != "" {
				lang, err := langdetect.ParseLanguage(language)
				if err != nil {
					return err
				}
				profile = langdetect.ProfileFor(lang)
			} else {
				detected, err := langdetect.NewDetector(g.logger.Slog()).Detect(root)
				if err != nil {
					return err
				}
				profile = detected
			}

			files := make([]classify.SourceFile, 0, len(args))
			for _, path := range args {
				files = append(files, classify.Classify(path, profile))
			}
			if g.jsonOut {
				return writeJSON(cmd.OutOrStdout(), files)
			}
			p := g.printer(cmd.OutOrStdout())
			for _, f := range files {
				icon := ux.IconSuccess
				if !f.ShouldTransform {
					icon = ux.IconWarning
				}
				p.Line(icon, "%s %s", f.Path, describe(f))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "project root used for language detection")
	cmd.Flags().StringVar(&language, "language", "", "force the project language instead of detecting it")
	return cmd
}

// describe renders the flags of a classification in one line.
func describe(f classify.SourceFile) string {
	s := "[" + string(f.Language)
	if f.IsRoute {
		s += ", route " + f.RouteName
	}
	if f.IsContext {
		s += ", context"
	}
	if f.IsConfig {
		s += ", config"
	}
	if !f.ShouldTransform {
		s += ", skipped"
	}
	return s + "]"
}

func newCheckCmd(g *globalOptions) *cobra.Command {
	var opts prereq.Options
	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Verify that the dependencies are ready for migration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := prereq.Check(rootArg(args), opts)
			var gateErr *prereq.GateError
			if err != nil && !errors.As(err, &gateErr) {
				return err
			}
			if g.jsonOut {
				if werr := writeJSON(cmd.OutOrStdout(), gateReport(gateErr)); werr != nil {
					return werr
				}
				return err
			}
			p := g.printer(cmd.OutOrStdout())
			if gateErr != nil {
				printGateFailure(p, gateErr)
				return err
			}
			p.Line(ux.IconSuccess, "Dependencies are ready for migration")
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.SkipDependencyCheck, "skip-dependency-check", false, "do not require the upgraded dependency set")
	cmd.Flags().BoolVar(&opts.SkipVersionCheck, "skip-version-check", false, "do not check minimum dependency versions")
	return cmd
}

func newConfigCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config [dir]",
		Short: "Print the effective configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, found, err := config.Load(rootArg(args))
			if err != nil {
				return err
			}
			if !found {
				g.logger.Debug("no configuration file, using defaults", "file", config.FileName)
			}
			if g.jsonOut {
				return writeJSON(cmd.OutOrStdout(), cfg)
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
