// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package render turns the selector's chosen fragments into the DiffContext
// output schema: a deterministically ordered list of lightweight fragment
// records plus a 150-character preview apiece. This plays the role
// services/code_buddy/format/formatter.go plays for Code Buddy's
// presentation layer, trimmed to the one schema the spec defines instead of
// that package's several interchangeable output formats.
package render

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

// maxPreviewChars bounds the whitespace-collapsed preview string.
const maxPreviewChars = 150

// maxSymbolChars truncates a section fragment's heading text when used as
// its symbol name.
const maxSymbolChars = 50

// FragmentOut is one rendered fragment entry.
type FragmentOut struct {
	Path    string `json:"path"`
	Lines   string `json:"lines"`
	Kind    string `json:"kind"`
	Symbol  string `json:"symbol,omitempty"`
	Content string `json:"content"`
	Preview string `json:"preview"`
}

// DiffContext is the complete rendered bundle, the type BuildDiffContext
// returns.
type DiffContext struct {
	Name          string        `json:"name"`
	Type          string        `json:"type"`
	FragmentCount int           `json:"fragment_count"`
	Fragments     []FragmentOut `json:"fragments"`
}

var (
	funcDefRe    = regexp.MustCompile(`\bdef\s+([A-Za-z_]\w*)\s*\(`)
	classDefRe   = regexp.MustCompile(`\bclass\s+([A-Za-z_][\w.]*)`)
	headingRe    = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+(.+)$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Render assembles the DiffContext for root's base directory name from the
// selected fragments, sorted by (relative path, start line). When
// noContent is true every fragment's content is blanked but every
// structural field, including preview, is still populated.
func Render(root string, frags []*fragment.Fragment, noContent bool) DiffContext {
	sorted := make([]*fragment.Fragment, len(frags))
	copy(sorted, frags)
	fragment.SortFragments(sorted)

	out := make([]FragmentOut, 0, len(sorted))
	for _, f := range sorted {
		out = append(out, renderOne(root, f, noContent))
	}

	return DiffContext{
		Name:          repoName(root),
		Type:          "diff_context",
		FragmentCount: len(out),
		Fragments:     out,
	}
}

func renderOne(root string, f *fragment.Fragment, noContent bool) FragmentOut {
	content := f.Content
	if noContent {
		content = ""
	}
	return FragmentOut{
		Path:    relSlash(root, f.Path()),
		Lines:   linesLabel(f),
		Kind:    string(f.Kind),
		Symbol:  symbolFor(f),
		Content: content,
		Preview: preview(f.Content),
	}
}

func linesLabel(f *fragment.Fragment) string {
	return strconv.Itoa(f.StartLine()) + "-" + strconv.Itoa(f.EndLine())
}

// symbolFor applies the per-kind heuristics the renderer uses to surface a
// fragment's human-readable name: the fragmenter's own SymbolName wins when
// present, otherwise a best-effort pattern match over the content.
func symbolFor(f *fragment.Fragment) string {
	if f.SymbolName != "" {
		return f.SymbolName
	}
	switch f.Kind {
	case fragment.KindFunction, fragment.KindDefinition:
		if m := funcDefRe.FindStringSubmatch(f.Content); m != nil {
			return m[1]
		}
	case fragment.KindClass, fragment.KindStruct, fragment.KindInterface:
		if m := classDefRe.FindStringSubmatch(f.Content); m != nil {
			return m[1]
		}
	case fragment.KindSection:
		if m := headingRe.FindStringSubmatch(f.Content); m != nil {
			return truncate(strings.TrimSpace(m[1]), maxSymbolChars)
		}
	}
	return ""
}

func preview(content string) string {
	collapsed := strings.TrimSpace(whitespaceRe.ReplaceAllString(content, " "))
	return truncateWithEllipsis(collapsed, maxPreviewChars)
}

// truncateWithEllipsis appends "..." when truncation actually drops
// characters, matching _preview's `text[:max_chars] + "..."`. Unlike
// truncate, the result can exceed n runes by the length of the suffix.
func truncateWithEllipsis(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

func repoName(root string) string {
	abs := filepath.Clean(root)
	return filepath.Base(abs)
}

