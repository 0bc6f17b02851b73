// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package selector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

func mkFrag(path string, start, end int, kind fragment.Kind, tokens int, symbol string, ids ...string) *fragment.Fragment {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return &fragment.Fragment{
		ID:          fragment.FragmentId{Path: path, StartLine: start, EndLine: end},
		Kind:        kind,
		TokenCount:  tokens,
		SymbolName:  symbol,
		Identifiers: set,
	}
}

func TestFindCoreForHunk_PrefersSmallestContaining(t *testing.T) {
	outer := mkFrag("a.go", 1, 50, fragment.KindBlock, 100, "")
	inner := mkFrag("a.go", 10, 20, fragment.KindFunction, 20, "doThing")
	hunk := fragment.DiffHunk{Path: "a.go", NewStart: 12, NewLen: 3}

	core := FindCoreForHunk([]*fragment.Fragment{outer, inner}, hunk)
	require.Len(t, core, 1)
	assert.Equal(t, inner.ID, core[0].ID)
}

func TestFindCoreForHunk_FallsBackToOverlapping(t *testing.T) {
	f1 := mkFrag("a.go", 1, 5, fragment.KindFunction, 10, "f1")
	f2 := mkFrag("a.go", 4, 8, fragment.KindFunction, 10, "f2")
	hunk := fragment.DiffHunk{Path: "a.go", NewStart: 3, NewLen: 4} // lines 3-6, contained by neither

	core := FindCoreForHunk([]*fragment.Fragment{f1, f2}, hunk)
	assert.Len(t, core, 2)
}

func TestFindCoreForHunk_FallsBackToNearest(t *testing.T) {
	before := mkFrag("a.go", 1, 5, fragment.KindFunction, 10, "before")
	after := mkFrag("a.go", 20, 25, fragment.KindFunction, 10, "after")
	hunk := fragment.DiffHunk{Path: "a.go", NewStart: 10, NewLen: 2}

	core := FindCoreForHunk([]*fragment.Fragment{before, after}, hunk)
	require.Len(t, core, 2)
}

func TestSelect_CoreAlwaysIncludedWhenBudgetAllows(t *testing.T) {
	core := mkFrag("a.go", 1, 10, fragment.KindFunction, 50, "coreFn", "widget")
	other := mkFrag("b.go", 1, 5, fragment.KindFunction, 20, "helper", "widget", "gadget")
	hunk := fragment.DiffHunk{Path: "a.go", NewStart: 2, NewLen: 1}

	relevance := map[fragment.FragmentId]float64{core.ID: 1.0, other.ID: 0.8}
	concepts := map[string]struct{}{"widget": {}, "gadget": {}}

	result := Select(context.Background(), []*fragment.Fragment{core, other}, []fragment.DiffHunk{hunk}, relevance, concepts, 0, DefaultTau)

	assert.True(t, result.CoreIDs[core.ID])
	found := false
	for _, f := range result.Selected {
		if f.ID == core.ID {
			found = true
		}
	}
	assert.True(t, found, "core fragment must always be present when it fits budget")
}

func TestSelect_BudgetExhaustedOnCore(t *testing.T) {
	c1 := mkFrag("a.go", 1, 3, fragment.KindFunction, 100, "f1")
	c2 := mkFrag("b.go", 1, 3, fragment.KindFunction, 100, "f2")
	c3 := mkFrag("c.go", 1, 3, fragment.KindFunction, 100, "f3")
	hunks := []fragment.DiffHunk{
		{Path: "a.go", NewStart: 2, NewLen: 1},
		{Path: "b.go", NewStart: 2, NewLen: 1},
		{Path: "c.go", NewStart: 2, NewLen: 1},
	}
	relevance := map[fragment.FragmentId]float64{}
	result := Select(context.Background(), []*fragment.Fragment{c1, c2, c3}, hunks, relevance, map[string]struct{}{}, 150, DefaultTau)

	assert.Equal(t, ReasonBudgetExhausted, result.Reason)
	assert.Len(t, result.Selected, 1)
}

func TestSelect_NoCandidatesWhenOnlyCoreFragmentsExist(t *testing.T) {
	core := mkFrag("a.go", 1, 10, fragment.KindFunction, 10, "coreFn")
	hunk := fragment.DiffHunk{Path: "a.go", NewStart: 2, NewLen: 1}

	result := Select(context.Background(), []*fragment.Fragment{core}, []fragment.DiffHunk{hunk}, nil, map[string]struct{}{}, 0, DefaultTau)
	assert.Equal(t, ReasonNoCandidates, result.Reason)
}

func TestSelect_GreedyPicksHighValueFragment(t *testing.T) {
	core := mkFrag("a.go", 1, 3, fragment.KindFunction, 5, "coreFn")
	rich := mkFrag("b.go", 1, 3, fragment.KindFunction, 10, "richFn", "widget", "gadget", "sprocket")
	hunk := fragment.DiffHunk{Path: "a.go", NewStart: 2, NewLen: 1}

	relevance := map[fragment.FragmentId]float64{core.ID: 1.0, rich.ID: 1.0}
	concepts := map[string]struct{}{"widget": {}, "gadget": {}, "sprocket": {}}

	result := Select(context.Background(), []*fragment.Fragment{core, rich}, []fragment.DiffHunk{hunk}, relevance, concepts, 1000, DefaultTau)

	found := false
	for _, f := range result.Selected {
		if f.ID == rich.ID {
			found = true
		}
	}
	assert.True(t, found)
}
