// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package depgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/graphedges"
)

func id(path string, start, end int) fragment.FragmentId {
	return fragment.FragmentId{Path: path, StartLine: start, EndLine: end}
}

func TestAddEdge_MaxMergeAndRejectsInvalid(t *testing.T) {
	g := New()
	a, b := id("a.go", 1, 10), id("b.go", 1, 10)

	g.AddEdge(a, b, 0.3)
	g.AddEdge(a, b, 0.7)
	assert.Equal(t, 0.7, g.Weight(a, b))

	g.AddEdge(a, b, 0.2) // lower weight must not overwrite
	assert.Equal(t, 0.7, g.Weight(a, b))

	g.AddEdge(a, a, 0.9) // self-edge rejected
	assert.Equal(t, 0.0, g.Weight(a, a))

	g.AddEdge(a, b, -1) // non-positive rejected
	assert.Equal(t, 0.7, g.Weight(a, b))

	g.AddEdge(a, b, 5) // clamped to 1
	assert.Equal(t, 1.0, g.Weight(a, b))
}

func TestBuild_UnionsAcrossCategories(t *testing.T) {
	a, b := id("a.go", 1, 5), id("b.go", 1, 5)
	frags := []*fragment.Fragment{
		{ID: a, Content: "a"},
		{ID: b, Content: "b"},
	}
	byCategory := map[graphedges.Category]graphedges.EdgeMap{
		graphedges.CategorySemantic: {
			{Src: a, Dst: b}: 0.4,
		},
		graphedges.CategoryStructural: {
			{Src: a, Dst: b}: 0.6,
		},
	}
	g := Build(context.Background(), frags, byCategory)
	require.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 0.6, g.Weight(a, b))
}

func TestSuppressHubs_DampsHighInDegreeDestinations(t *testing.T) {
	g := New()
	hub := id("hub.go", 1, 5)
	var sources []fragment.FragmentId
	// Forty leaf destinations of in-degree 1 put the 95th percentile at 1,
	// so the hub (in-degree 40) is the only destination above it.
	for i := 0; i < 40; i++ {
		src := id("src.go", i+1, i+1)
		sources = append(sources, src)
		g.AddEdge(src, hub, 0.5)
		g.AddEdge(src, id("leaf.go", i+1, i+1), 0.5)
	}
	g.suppressHubs()

	for _, src := range sources {
		w := g.Weight(src, hub)
		assert.Less(t, w, 0.5, "hub-destined edge should be damped below its raw weight")
	}
}

func TestNeighborsAndInDegree(t *testing.T) {
	g := New()
	a, b, c := id("a.go", 1, 1), id("b.go", 1, 1), id("c.go", 1, 1)
	g.AddEdge(a, b, 0.5)
	g.AddEdge(a, c, 0.3)
	g.AddEdge(b, c, 0.2)

	neighbors := g.Neighbors(a)
	assert.Len(t, neighbors, 2)
	assert.Equal(t, 2, g.InDegree(c))
	assert.Equal(t, 0, g.InDegree(a))
}
