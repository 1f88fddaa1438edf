// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package prereq checks that a project's dependencies were upgraded before
// its sources are migrated.
package prereq

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/manifest"
)

// Remediation is appended to every gate failure.
const Remediation = `Run "npx shopify hydrogen upgrade" to update your project, then re-run this codemod.`

// Dependency names and minimum versions checked by the gate.
const (
	RouterPackage      = "react-router"
	HydrogenPackage    = "@shopify/hydrogen"
	RemixScope         = "@remix-run/"
	MinRouterVersion   = "7.9.0"
	MinHydrogenVersion = "2025.5.0"
)

// Gate failure reasons. Check wraps each in a *GateError.
var (
	ErrManifestNotFound  = errors.New("no package.json found in the project root")
	ErrManifestMalformed = errors.New("package.json could not be parsed")
	ErrRemixDependencies = errors.New("Remix dependencies are still installed")
	ErrRouterMissing     = errors.New("react-router is not a dependency")
	ErrRouterVersion     = errors.New("react-router is older than " + MinRouterVersion)
	ErrHydrogenMissing   = errors.New("@shopify/hydrogen is not a dependency")
	ErrHydrogenVersion   = errors.New("@shopify/hydrogen is older than " + MinHydrogenVersion)
)

// GateError is a failed prerequisite.
type GateError struct {
	// Reason is one of the Err* sentinels of this package.
	Reason error

	// Detail names the offending dependencies or versions, if any.
	Detail string
}

// Error returns the reason, the detail and the remediation.
func (e *GateError) Error() string {
	msg := e.Reason.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg + ". " + Remediation
}

// Unwrap returns Reason.
func (e *GateError) Unwrap() error { return e.Reason }

// Options relaxes the gate.
type Options struct {
	// SkipDependencyCheck disables the Remix and missing dependency checks.
	SkipDependencyCheck bool

	// SkipVersionCheck disables the minimum version checks.
	SkipVersionCheck bool
}

// Check validates the manifest at root.
//
// Description:
//
//	Checks run in a fixed order and the first failure is returned:
//	manifest present and parseable, no Remix dependencies, react-router
//	present and recent enough, @shopify/hydrogen present and recent
//	enough. A declared range is judged by its lower bound; a range with
//	no parseable lower bound (latest, workspace:*) passes.
//
// Outputs:
//
//	error - nil, a *GateError, or an unexpected I/O error.
func Check(root string, opts Options) error {
	m, err := manifest.Read(root)
	switch {
	case errors.Is(err, manifest.ErrNotFound):
		return &GateError{Reason: ErrManifestNotFound, Detail: root}
	case errors.Is(err, manifest.ErrMalformed):
		return &GateError{Reason: ErrManifestMalformed, Detail: err.Error()}
	case err != nil:
		return err
	}

	if !opts.SkipDependencyCheck {
		remix := m.Matching(func(name string) bool { return strings.HasPrefix(name, RemixScope) })
		if len(remix) > 0 {
			return &GateError{Reason: ErrRemixDependencies, Detail: strings.Join(remix, ", ")}
		}
	}

	deps := []struct {
		name    string
		minimum string
		missing error
		tooOld  error
	}{
		{RouterPackage, MinRouterVersion, ErrRouterMissing, ErrRouterVersion},
		{HydrogenPackage, MinHydrogenVersion, ErrHydrogenMissing, ErrHydrogenVersion},
	}
	for _, dep := range deps {
		declared, ok := m.Version(dep.name)
		if !ok {
			if opts.SkipDependencyCheck {
				continue
			}
			return &GateError{Reason: dep.missing}
		}
		if opts.SkipVersionCheck {
			continue
		}
		ok, err := Satisfies(declared, dep.minimum)
		if err != nil {
			return err
		}
		if !ok {
			return &GateError{Reason: dep.tooOld, Detail: fmt.Sprintf("found %s", declared)}
		}
	}
	return nil
}

// lowerBound matches the first version-looking token of a range.
var lowerBound = regexp.MustCompile(`v?\d+(?:\.\d+){0,2}(?:-[0-9A-Za-z.-]+)?`)

// Satisfies reports whether the lower bound of the declared range is at
// least minimum. Ranges without a version-looking token satisfy any
// minimum.
func Satisfies(declared, minimum string) (bool, error) {
	constraint, err := semver.NewConstraint(">= " + minimum)
	if err != nil {
		return false, fmt.Errorf("invalid minimum version %s: %w", minimum, err)
	}
	// npm aliases and protocols never carry a comparable version.
	if strings.Contains(declared, ":") {
		return true, nil
	}
	token := lowerBound.FindString(declared)
	if token == "" {
		return true, nil
	}
	v, err := semver.NewVersion(token)
	if err != nil {
		return true, nil
	}
	return constraint.Check(v), nil
}
