// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the optional per-project run configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/hydrogen-codemod/services/codemod/runner"
	"github.com/AleutianAI/hydrogen-codemod/services/codemod/telemetry"
)

// FileName is looked up in the project root.
const FileName = "hydrogen-codemod.yaml"

// ErrInvalid wraps validation failures.
var ErrInvalid = errors.New("invalid configuration")

// Config is the run configuration. Zero-valued fields in the file keep their
// defaults; CLI flags are applied on top by the caller.
type Config struct {
	// Language forces the project language: typescript, javascript, ts or js.
	Language string `yaml:"language" json:"language" validate:"omitempty,oneof=typescript javascript ts js"`

	// DryRun prints diffs instead of writing.
	DryRun bool `yaml:"dry_run" json:"dry_run"`

	// Concurrency bounds parallel file transforms.
	Concurrency int `yaml:"concurrency" json:"concurrency" validate:"gte=1,lte=64"`

	// Include and Exclude are root-relative doublestar globs.
	Include []string `yaml:"include" json:"include" validate:"dive,glob"`
	Exclude []string `yaml:"exclude" json:"exclude" validate:"dive,glob"`

	SkipDependencyCheck bool `yaml:"skip_dependency_check" json:"skip_dependency_check"`
	SkipVersionCheck    bool `yaml:"skip_version_check" json:"skip_version_check"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`

	Telemetry telemetry.Config `yaml:"telemetry" json:"telemetry"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("glob", validateGlob)
}

// validateGlob accepts patterns whose syntax path.Match understands, which
// covers every doublestar pattern.
func validateGlob(fl validator.FieldLevel) bool {
	_, err := path.Match(fl.Field().String(), "")
	return err == nil
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Concurrency: runner.DefaultConcurrency,
		LogLevel:    "info",
		Telemetry:   telemetry.DefaultConfig(),
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Load reads FileName from root. A missing file yields DefaultConfig.
//
// Outputs:
//
//	Config - Defaults overlaid with the file's values.
//	bool - Whether a file was found.
//	error - Read, parse or ErrInvalid failures.
func Load(root string) (Config, bool, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), false, nil
	}
	if err != nil {
		return Config{}, false, fmt.Errorf("read %s: %w", FileName, err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return Config{}, true, fmt.Errorf("%s: %w", FileName, err)
	}
	return cfg, true, nil
}

// LoadFile reads an explicit configuration file. Unlike Load, a missing
// file is an error.
func LoadFile(file string) (Config, error) {
	f, err := os.Open(file)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	cfg, err := Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", file, err)
	}
	return cfg, nil
}

// Parse decodes YAML over DefaultConfig and validates the result. Unknown
// keys are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
