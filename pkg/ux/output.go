// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal output styling for the codemod CLI.
package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Palette
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorTealDeep    = lipgloss.Color("#16858E")
	ColorSlate       = lipgloss.Color("#2C4A54")

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title    lipgloss.Style
	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Added    lipgloss.Style
	Removed  lipgloss.Style
	Hunk     lipgloss.Style
	Box      lipgloss.Style
	ErrorBox lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorSlate),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
	Added:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Removed: lipgloss.NewStyle().Foreground(ColorError),
	Hunk:    lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(0, 1),
}

// Icon is a status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
)

// Render returns the icon with its status color.
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// Printer writes styled output. A plain Printer writes no ANSI styling or
// boxes, for pipes and --no-color.
type Printer struct {
	w     io.Writer
	plain bool
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer, plain bool) *Printer {
	return &Printer{w: w, plain: plain}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if p.plain {
		return text
	}
	return s.Render(text)
}

// Title prints a heading line.
func (p *Printer) Title(text string) {
	fmt.Fprintln(p.w, p.style(Styles.Title, text))
}

// Line prints an icon and a message.
func (p *Printer) Line(icon Icon, format string, args ...any) {
	glyph := string(icon)
	if !p.plain {
		glyph = icon.Render()
	}
	fmt.Fprintf(p.w, "%s %s\n", glyph, fmt.Sprintf(format, args...))
}

// Box prints lines inside a rounded border, or indented when plain.
func (p *Printer) Box(title string, lines []string, isError bool) {
	body := append([]string{p.style(Styles.Bold, title)}, lines...)
	if p.plain {
		fmt.Fprintln(p.w, body[0])
		for _, l := range body[1:] {
			fmt.Fprintln(p.w, "  "+l)
		}
		return
	}
	style := Styles.Box
	if isError {
		style = Styles.ErrorBox
	}
	fmt.Fprintln(p.w, style.Render(strings.Join(body, "\n")))
}

// Diff prints a unified diff, coloring added, removed and hunk lines.
func (p *Printer) Diff(diff string) {
	if p.plain {
		fmt.Fprint(p.w, diff)
		return
	}
	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		text := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
			text = Styles.Bold.Render(text)
		case strings.HasPrefix(text, "@@"):
			text = Styles.Hunk.Render(text)
		case strings.HasPrefix(text, "+"):
			text = Styles.Added.Render(text)
		case strings.HasPrefix(text, "-"):
			text = Styles.Removed.Render(text)
		}
		fmt.Fprintln(p.w, text)
	}
}

// Count formats n with thousands separators and a pluralized noun.
func Count(n int, noun string) string {
	s := humanize.Comma(int64(n)) + " " + noun
	if n != 1 {
		s += "s"
	}
	return s
}

// Bytes formats a byte count, e.g. "12 kB".
func Bytes(n uint64) string {
	return humanize.Bytes(n)
}
