// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package depgraph is the graph assembler: a pure data transformation that
// ingests every edge builder's output, inserts a node for each fragment,
// unions edges by maximum weight, and applies hub suppression. It mirrors
// services/code_buddy/graph/builder.go's node/edge map shape, stripped of
// that file's concurrent AST-collection phase since depgraph's inputs
// (edge maps keyed by FragmentId) are already fully computed by the time
// Build runs — there is nothing left to parallelize here.
package depgraph

import (
	"context"
	"math"
	"sort"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/graphedges"
)

// HubPercentile is the in-degree percentile above which hub suppression
// attenuates an edge's weight, per §4.3.
const HubPercentile = 0.95

// Graph is a directed, weighted graph over FragmentIds. Multi-edges
// between the same endpoints are collapsed to their maximum weight; every
// edge weight lies in (0, 1] and no node has a self-edge, enforced by
// graphedges.EdgeMap.Add before an edge ever reaches AddEdge.
type Graph struct {
	nodes map[fragment.FragmentId]struct{}
	edges map[graphedges.EdgeKey]float64
	// HubThreshold is the computed 95th-percentile in-degree that hub
	// suppression damped edges into, exposed (rather than just logged, as
	// the original does) so callers and tests can assert against it.
	HubThreshold int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[fragment.FragmentId]struct{}),
		edges: make(map[graphedges.EdgeKey]float64),
	}
}

// AddNode inserts a node with no edges if it isn't already present.
func (g *Graph) AddNode(id fragment.FragmentId) {
	g.nodes[id] = struct{}{}
}

// AddEdge merges a candidate edge by maximum weight, discarding non-finite
// or non-positive weights and self-edges silently (§3 invariants).
func (g *Graph) AddEdge(src, dst fragment.FragmentId, weight float64) {
	if src == dst {
		return
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return
	}
	if weight > 1 {
		weight = 1
	}
	g.AddNode(src)
	g.AddNode(dst)
	key := graphedges.EdgeKey{Src: src, Dst: dst}
	if cur, ok := g.edges[key]; !ok || weight > cur {
		g.edges[key] = weight
	}
}

// NodeCount returns the number of distinct nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct directed edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Nodes returns every node id, in no particular order; callers needing a
// deterministic order should sort the result themselves.
func (g *Graph) Nodes() []fragment.FragmentId {
	out := make([]fragment.FragmentId, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	return out
}

// HasNode reports whether id was added to the graph.
func (g *Graph) HasNode(id fragment.FragmentId) bool {
	_, ok := g.nodes[id]
	return ok
}

// Neighbors returns every node src has an outgoing edge to, mapped to that
// edge's weight, used by pagerank's power iteration.
func (g *Graph) Neighbors(src fragment.FragmentId) map[fragment.FragmentId]float64 {
	out := make(map[fragment.FragmentId]float64)
	for key, w := range g.edges {
		if key.Src == src {
			out[key.Dst] = w
		}
	}
	return out
}

// InDegree returns the number of distinct edges with dst as destination.
func (g *Graph) InDegree(dst fragment.FragmentId) int {
	n := 0
	for key := range g.edges {
		if key.Dst == dst {
			n++
		}
	}
	return n
}

// Weight returns the edge weight from src to dst, or 0 if none exists.
func (g *Graph) Weight(src, dst fragment.FragmentId) float64 {
	return g.edges[graphedges.EdgeKey{Src: src, Dst: dst}]
}

// Build assembles a graph from every fragment and the per-category edge
// maps graphedges.Build produced, then applies hub suppression. This is
// the depgraph half of the "edge builders extract, assembler merges" split
// described in package doc.
func Build(ctx context.Context, frags []*fragment.Fragment, byCategory map[graphedges.Category]graphedges.EdgeMap) *Graph {
	_, span := tracer.Start(ctx, "depgraph.Build")
	defer span.End()

	g := New()
	for _, f := range frags {
		g.AddNode(f.ID)
	}
	for _, edgeMap := range byCategory {
		for key, w := range edgeMap {
			g.AddEdge(key.Src, key.Dst, w)
		}
	}
	g.suppressHubs()

	recordGraphMetrics(ctx, g.NodeCount(), g.EdgeCount(), g.HubThreshold)
	return g
}

// suppressHubs damps every edge whose destination's in-degree exceeds the
// 95th percentile of all destination in-degrees by 1/ln(1+in_degree(dst)),
// attenuating universally-referenced hubs without removing them (§4.3).
func (g *Graph) suppressHubs() {
	if len(g.edges) == 0 {
		return
	}
	inDegree := make(map[fragment.FragmentId]int)
	for key := range g.edges {
		inDegree[key.Dst]++
	}
	degrees := make([]int, 0, len(inDegree))
	for _, d := range inDegree {
		degrees = append(degrees, d)
	}
	sort.Ints(degrees)
	threshold := percentile(degrees, HubPercentile)
	g.HubThreshold = threshold

	for key, w := range g.edges {
		if d := inDegree[key.Dst]; d > threshold {
			g.edges[key] = w / math.Log(1+float64(d))
		}
	}
}

// percentile returns the value at the given percentile (0, 1] of a sorted
// ascending slice using nearest-rank interpolation.
func percentile(sorted []int, p float64) int {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
