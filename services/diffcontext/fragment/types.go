// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fragment splits changed and candidate files into the spans that
// the rest of the diff-context pipeline reasons about.
//
// A Fragment is the atomic unit of selection: a contiguous line range inside
// one file, carrying enough identity (FragmentId) and content to be scored,
// linked into the dependency graph, and rendered. Strategies are tried in a
// fixed priority order per file (Registry.FragmentFile) and the first one
// that successfully splits the file wins.
package fragment

import (
	"fmt"
	"sort"
)

// Kind is the closed set of fragment kinds produced by any strategy.
type Kind string

const (
	KindFunction    Kind = "function"
	KindClass       Kind = "class"
	KindStruct      Kind = "struct"
	KindImpl        Kind = "impl"
	KindInterface   Kind = "interface"
	KindEnum        Kind = "enum"
	KindModule      Kind = "module"
	KindType        Kind = "type"
	KindVariable    Kind = "variable"
	KindProperty    Kind = "property"
	KindSection     Kind = "section"
	KindParagraph   Kind = "paragraph"
	KindBlock       Kind = "block"
	KindDocument    Kind = "document"
	KindDefinition  Kind = "definition"
	KindRecord      Kind = "record"
	KindDeclaration Kind = "declaration"
	KindConfig      Kind = "config"
	KindResource    Kind = "resource"
	KindChunk       Kind = "chunk"
)

// semanticKinds are kinds that represent a named program or document
// construct rather than a generic chunk of text. _find_core_for_hunk prefers
// the smallest semantic fragment covering a hunk over a generic block.
var semanticKinds = map[Kind]bool{
	KindFunction:    true,
	KindClass:       true,
	KindStruct:      true,
	KindImpl:        true,
	KindInterface:   true,
	KindEnum:        true,
	KindModule:      true,
	KindType:        true,
	KindVariable:    true,
	KindProperty:    true,
	KindDefinition:  true,
	KindSection:     true,
	KindRecord:      true,
	KindDeclaration: true,
	KindConfig:      true,
	KindResource:    true,
}

// KindPriority returns 0 for semantic kinds and 1 otherwise, used to prefer
// the more specific fragment when several fragments cover the same hunk.
func KindPriority(k Kind) int {
	if semanticKinds[k] {
		return 0
	}
	return 1
}

// FragmentId identifies a fragment by its file path and inclusive line
// range. Two fragments with the same path and range are the same fragment.
type FragmentId struct {
	Path      string
	StartLine int
	EndLine   int
}

func (id FragmentId) String() string {
	return fmt.Sprintf("%s:%d-%d", id.Path, id.StartLine, id.EndLine)
}

// Less orders FragmentIds lexicographically on (path, start, end), matching
// the deterministic ordering the selector and renderer rely on.
func (id FragmentId) Less(other FragmentId) bool {
	if id.Path != other.Path {
		return id.Path < other.Path
	}
	if id.StartLine != other.StartLine {
		return id.StartLine < other.StartLine
	}
	return id.EndLine < other.EndLine
}

// Fragment is one selectable unit of content.
type Fragment struct {
	ID          FragmentId
	Kind        Kind
	Content     string
	Identifiers map[string]struct{}
	TokenCount  int
	SymbolName  string
}

func (f *Fragment) Path() string      { return f.ID.Path }
func (f *Fragment) StartLine() int    { return f.ID.StartLine }
func (f *Fragment) EndLine() int      { return f.ID.EndLine }
func (f *Fragment) LineCount() int    { return f.ID.EndLine - f.ID.StartLine + 1 }
func (f *Fragment) HasIdentifier(s string) bool {
	_, ok := f.Identifiers[s]
	return ok
}

// DiffHunk is one contiguous changed region reported by the VCS adapter.
type DiffHunk struct {
	Path     string
	NewStart int
	NewLen   int
	OldStart int
	OldLen   int
}

func (h DiffHunk) EndLine() int {
	if h.NewLen == 0 {
		return h.NewStart
	}
	return h.NewStart + h.NewLen - 1
}

func (h DiffHunk) IsDeletion() bool { return h.NewLen == 0 && h.OldLen > 0 }
func (h DiffHunk) IsAddition() bool { return h.OldLen == 0 && h.NewLen > 0 }

// CoreSelectionRange returns the line range used to find the core fragment
// for this hunk. Pure deletions have no new-file lines, so the anchor
// collapses to the single line before which the deletion occurred.
func (h DiffHunk) CoreSelectionRange() (int, int) {
	if h.IsDeletion() {
		anchor := h.NewStart
		if anchor < 1 {
			anchor = 1
		}
		return anchor, anchor
	}
	return h.NewStart, h.EndLine()
}

// SortFragments orders fragments by (path, start_line) for deterministic
// rendering and full-mode selection.
func SortFragments(frags []*Fragment) {
	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].Path() != frags[j].Path() {
			return frags[i].Path() < frags[j].Path()
		}
		return frags[i].StartLine() < frags[j].StartLine()
	})
}

// EnclosingFragment returns the smallest fragment whose range contains line,
// or nil if none does.
func EnclosingFragment(frags []*Fragment, line int) *Fragment {
	var best *Fragment
	for _, f := range frags {
		if f.StartLine() <= line && line <= f.EndLine() {
			if best == nil || f.LineCount() < best.LineCount() {
				best = f
			}
		}
	}
	return best
}
