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
	"encoding/json"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/hydrogen-codemod/pkg/logging"
	"github.com/AleutianAI/hydrogen-codemod/pkg/ux"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	logLevel string
	jsonLogs bool
	logDir   string
	noColor  bool
	jsonOut  bool

	logger *logging.Logger
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "hydrogen-codemod",
		Short: "Migrate a Hydrogen storefront from Remix to React Router 7",
		Long: `hydrogen-codemod rewrites the sources of a Hydrogen storefront whose
dependencies were already upgraded to React Router 7: imports, response
helpers, renamed components, route type annotations and the load context API.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if g.logger != nil {
				return g.logger.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&g.jsonLogs, "json-logs", false, "write logs as JSON")
	flags.StringVar(&g.logDir, "log-dir", "", "also write JSON logs to a dated file in this directory")
	flags.BoolVar(&g.noColor, "no-color", false, "disable styled output")
	flags.BoolVar(&g.jsonOut, "json", false, "print machine-readable JSON instead of a report")

	root.AddCommand(
		newMigrateCmd(g),
		newDetectCmd(g),
		newClassifyCmd(g),
		newCheckCmd(g),
		newConfigCmd(g),
	)
	return root
}

// setup builds the logger. Commands that read a config file rebuild it
// once the file's log level is known.
func (g *globalOptions) setup(cmd *cobra.Command) error {
	return g.buildLogger(cmd, g.logLevel)
}

func (g *globalOptions) buildLogger(cmd *cobra.Command, level string) error {
	format := logging.FormatAuto
	if g.jsonLogs {
		format = logging.FormatJSON
	}
	logger, err := logging.New(logging.Config{
		Level:   level,
		Format:  format,
		Service: "hydrogen-codemod",
		LogDir:  g.logDir,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	if g.logger != nil {
		_ = g.logger.Close()
	}
	g.logger = logger
	return nil
}

// printer returns a styled printer for a terminal and a plain one otherwise.
func (g *globalOptions) printer(w io.Writer) *ux.Printer {
	plain := g.noColor || os.Getenv("NO_COLOR") != ""
	if f, ok := w.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		plain = true
	}
	return ux.NewPrinter(w, plain)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// rootArg returns the optional directory argument, defaulting to ".".
func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
