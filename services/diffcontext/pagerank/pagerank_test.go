// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pagerank

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/depgraph"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

func frag(path string, n int) fragment.FragmentId {
	return fragment.FragmentId{Path: path, StartLine: n, EndLine: n}
}

func sumScores(r Result) float64 {
	var s float64
	for _, v := range r.Scores {
		s += v
	}
	return s
}

func TestCompute_EmptySeedsReturnsUniform(t *testing.T) {
	g := depgraph.New()
	a, b, c := frag("a", 1), frag("b", 1), frag("c", 1)
	g.AddEdge(a, b, 0.5)
	g.AddEdge(b, c, 0.5)

	result := Compute(context.Background(), g, nil, DefaultOptions())
	require.True(t, result.Converged)
	assert.Equal(t, 0, result.Iterations)
	for _, v := range result.Scores {
		assert.InDelta(t, 1.0/3.0, v, 1e-9)
	}
}

func TestCompute_ScoresFormDistribution(t *testing.T) {
	g := depgraph.New()
	a, b, c, d := frag("a", 1), frag("b", 1), frag("c", 1), frag("d", 1)
	g.AddEdge(a, b, 0.8)
	g.AddEdge(b, c, 0.6)
	g.AddEdge(c, a, 0.4)
	g.AddEdge(c, d, 0.2)

	result := Compute(context.Background(), g, []fragment.FragmentId{a}, DefaultOptions())
	assert.InDelta(t, 1.0, sumScores(result), 1e-6)
}

func TestCompute_SeedDominatesAtZeroDamping(t *testing.T) {
	g := depgraph.New()
	a, b := frag("a", 1), frag("b", 1)
	g.AddEdge(a, b, 0.9)

	// alpha near 0 concentrates mass on the seed itself, per §8's
	// "α=0 ⇒ PPR concentrates all mass on seeds".
	opts := Options{Alpha: 1e-6, Tolerance: 1e-8, MaxIterations: 50}
	result := Compute(context.Background(), g, []fragment.FragmentId{a}, opts)
	assert.Greater(t, result.Scores[a], result.Scores[b])
}

func TestCompute_UnreachableNodeGetsNegligibleMass(t *testing.T) {
	g := depgraph.New()
	a, b := frag("a", 1), frag("b", 1)
	unreachable := frag("isolated", 1)
	g.AddEdge(a, b, 0.5)
	g.AddNode(unreachable)

	result := Compute(context.Background(), g, []fragment.FragmentId{a}, DefaultOptions())
	assert.Less(t, result.Scores[unreachable], result.Scores[a])
}

func TestCompute_DanglingNodeDoesNotLeakMass(t *testing.T) {
	g := depgraph.New()
	a, sink := frag("a", 1), frag("sink", 1)
	g.AddEdge(a, sink, 0.9) // sink has no outgoing edges

	result := Compute(context.Background(), g, []fragment.FragmentId{a}, DefaultOptions())
	assert.False(t, math.IsNaN(result.Scores[sink]))
	assert.InDelta(t, 1.0, sumScores(result), 1e-6)
}
