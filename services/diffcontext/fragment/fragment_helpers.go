// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fragment

import (
	"strings"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/identifier"
)

// newFragment builds a Fragment and computes its identifier set in the
// permissive (non-stopword-filtered) mode every fragment is indexed with.
func newFragment(path string, kind Kind, start, end int, content, symbol string) *Fragment {
	profile := identifier.ProfileForPath(path)
	idents := identifier.Extract(content, profile, false)
	return &Fragment{
		ID:          FragmentId{Path: path, StartLine: start, EndLine: end},
		Kind:        kind,
		Content:     content,
		Identifiers: idents,
		SymbolName:  symbol,
	}
}

// splitLines splits on "\n" and drops the empty element a trailing newline
// leaves, so 1-based line numbers line up with what git diff reports.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func joinRange(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}
