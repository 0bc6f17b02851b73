// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

func TestRender_SortsByPathThenLine(t *testing.T) {
	root := "/repo"
	b := &fragment.Fragment{ID: fragment.FragmentId{Path: "/repo/b.go", StartLine: 1, EndLine: 2}, Content: "b"}
	a2 := &fragment.Fragment{ID: fragment.FragmentId{Path: "/repo/a.go", StartLine: 10, EndLine: 12}, Content: "a2"}
	a1 := &fragment.Fragment{ID: fragment.FragmentId{Path: "/repo/a.go", StartLine: 1, EndLine: 3}, Content: "a1"}

	dc := Render(root, []*fragment.Fragment{b, a2, a1}, false)
	require.Len(t, dc.Fragments, 3)
	assert.Equal(t, "a.go", dc.Fragments[0].Path)
	assert.Equal(t, "1-3", dc.Fragments[0].Lines)
	assert.Equal(t, "a.go", dc.Fragments[1].Path)
	assert.Equal(t, "10-12", dc.Fragments[1].Lines)
	assert.Equal(t, "b.go", dc.Fragments[2].Path)
	assert.Equal(t, "diff_context", dc.Type)
	assert.Equal(t, 3, dc.FragmentCount)
}

func TestRender_NoContentBlanksContentButKeepsPreview(t *testing.T) {
	f := &fragment.Fragment{ID: fragment.FragmentId{Path: "/repo/a.go", StartLine: 1, EndLine: 1}, Content: "hello world"}
	dc := Render("/repo", []*fragment.Fragment{f}, true)
	require.Len(t, dc.Fragments, 1)
	assert.Empty(t, dc.Fragments[0].Content)
	assert.Equal(t, "hello world", dc.Fragments[0].Preview)
}

func TestSymbolFor_PrefersFragmentSymbolName(t *testing.T) {
	f := &fragment.Fragment{Kind: fragment.KindFunction, Content: "def other():", SymbolName: "explicit"}
	assert.Equal(t, "explicit", symbolFor(f))
}

func TestSymbolFor_FallsBackToContentHeuristics(t *testing.T) {
	f := &fragment.Fragment{Kind: fragment.KindFunction, Content: "def calculate_tax(amount):\n    return amount"}
	assert.Equal(t, "calculate_tax", symbolFor(f))

	cls := &fragment.Fragment{Kind: fragment.KindClass, Content: "class Widget:\n    pass"}
	assert.Equal(t, "Widget", symbolFor(cls))

	sec := &fragment.Fragment{Kind: fragment.KindSection, Content: "## Installation\nSteps follow."}
	assert.Equal(t, "Installation", symbolFor(sec))
}

func TestSymbolFor_UnmatchedKindReturnsEmpty(t *testing.T) {
	f := &fragment.Fragment{Kind: fragment.KindChunk, Content: "arbitrary text"}
	assert.Empty(t, symbolFor(f))
}

func TestPreview_TruncatesAndCollapsesWhitespace(t *testing.T) {
	content := strings.Repeat("a", 200) + "  \n\t  b"
	p := preview(content)
	assert.Len(t, []rune(p), maxPreviewChars+len("..."))
	assert.True(t, strings.HasSuffix(p, "..."))
	assert.NotContains(t, p, "\n")
}

func TestRelSlash_UsesForwardSlashesRelativeToRoot(t *testing.T) {
	assert.Equal(t, "pkg/util.go", relSlash("/repo", "/repo/pkg/util.go"))
}

func TestRepoName_UsesBaseOfRoot(t *testing.T) {
	assert.Equal(t, "myrepo", repoName("/home/user/myrepo"))
	assert.Equal(t, "myrepo", repoName("/home/user/myrepo/"))
}
