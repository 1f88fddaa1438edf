// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command hydrogen-codemod migrates a Hydrogen storefront from Remix
// conventions to React Router 7.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/prereq"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitPrereqs    = 2
	exitFileErrors = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	return exitCode(cmd.ExecuteContext(ctx))
}

func exitCode(err error) int {
	var gateErr *prereq.GateError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &gateErr):
		return exitPrereqs
	case errors.Is(err, errFilesFailed):
		return exitFileErrors
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitFailure
	}
}
