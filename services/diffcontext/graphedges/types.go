// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package graphedges is the family of independent analyzers that connect
// fragments into the relationship graph depgraph assembles. Each builder
// inspects the full fragment set and emits weighted directed edges in
// exactly one category (semantic, structural, config, document, similarity,
// or history); depgraph unions every builder's output by taking the
// maximum weight per endpoint pair, the same "phase extracts, caller
// merges" split services/code_buddy/graph/builder.go uses between symbol
// collection and edge extraction.
package graphedges

import (
	"context"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

// Category names the six edge families the spec distinguishes for
// expensive-skip control (similarity and history are the costly ones a
// caller may want to disable on a huge repository).
type Category string

const (
	CategorySemantic   Category = "semantic"
	CategoryStructural Category = "structural"
	CategoryConfig     Category = "config"
	CategoryDocument   Category = "document"
	CategorySimilarity Category = "similarity"
	CategoryHistory    Category = "history"
)

// EdgeKey identifies one directed edge by its endpoints.
type EdgeKey struct {
	Src, Dst fragment.FragmentId
}

// EdgeMap is a single builder's output. Weights are bounded to (0, 1] on
// insertion; a later insert for the same key wins only if strictly larger,
// matching the graph assembler's eventual max-weight union so a builder
// that calls Add twice for the same pair behaves exactly like two builders
// disagreeing about it.
type EdgeMap map[EdgeKey]float64

// Add records a candidate edge weight, discarding non-finite, non-positive,
// reflexive, or out-of-range values silently (the spec requires edge
// weights in the open range (0, 1] and forbids self-edges).
func (m EdgeMap) Add(src, dst fragment.FragmentId, weight float64) {
	if src == dst {
		return
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return
	}
	if weight > 1 {
		weight = 1
	}
	key := EdgeKey{Src: src, Dst: dst}
	if cur, ok := m[key]; !ok || weight > cur {
		m[key] = weight
	}
}

// Merge folds other into m by maximum, used by Build to union every
// builder's contribution before returning to the caller.
func (m EdgeMap) Merge(other EdgeMap) {
	for k, w := range other {
		if cur, ok := m[k]; !ok || w > cur {
			m[k] = w
		}
	}
}

// Builder is implemented by each edge-category analyzer.
type Builder interface {
	Name() string
	Category() Category
	BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error)
}

// RelatedFileDiscoverer is optionally implemented by a Builder to widen the
// universe (§4.6) before fragmentation ever runs: given the files the diff
// touched and the full repository file listing, it returns additional
// paths worth fragmenting (a file that defines what a changed file
// imports, or imports what changed).
type RelatedFileDiscoverer interface {
	DiscoverRelatedFiles(ctx context.Context, root string, changedFiles, allFiles []string) ([]string, error)
}

// DefaultBuilders returns the full builder chain in the order the spec
// lists edge categories in §4.3: one semantic builder per language family,
// then structural, config, document, similarity, and history.
func DefaultBuilders() []Builder {
	var bs []Builder
	for _, p := range languageProfiles {
		bs = append(bs, newSemanticBuilder(p))
	}
	bs = append(bs,
		NewContainmentBuilder(),
		NewTestPairingBuilder(),
		NewSiblingBuilder(),
		NewConfigCodeBuilder(),
		NewDockerBuilder(),
		NewTerraformBuilder(),
		NewHelmBuilder(),
		NewKubernetesBuilder(),
		NewCIBuilder(),
		NewMakeBuilder(),
		NewMarkdownHeadingBuilder(),
		NewAnchorLinkBuilder(),
		NewCitationBuilder(),
		NewSimilarityBuilder(),
		NewHistoryBuilder(),
	)
	return bs
}

// Build runs every builder over frags and unions the result per category;
// BuildDiffContext hands that map to depgraph.Build. A builder that returns
// an error is counted in the builder-error metric and skipped; Build itself
// never fails since every per-builder error is non-fatal (§7).
func Build(ctx context.Context, root string, frags []*fragment.Fragment, builders []Builder) map[Category]EdgeMap {
	out := make(map[Category]EdgeMap, 6)
	for _, b := range builders {
		edges, err := b.BuildEdges(ctx, root, frags)
		if err != nil {
			recordBuilderError(ctx, b.Name())
			continue
		}
		if out[b.Category()] == nil {
			out[b.Category()] = make(EdgeMap)
		}
		out[b.Category()].Merge(edges)
	}
	return out
}

// byFile groups fragments by their file path, preserving each file's
// fragments in ascending start-line order, the grouping almost every
// builder needs before it can reason about one file at a time.
func byFile(frags []*fragment.Fragment) map[string][]*fragment.Fragment {
	out := make(map[string][]*fragment.Fragment)
	for _, f := range frags {
		out[f.Path()] = append(out[f.Path()], f)
	}
	for _, fs := range out {
		sort.Slice(fs, func(i, j int) bool { return fs[i].StartLine() < fs[j].StartLine() })
	}
	return out
}

// sortedPaths returns the distinct file paths present in frags, sorted,
// used wherever a builder must iterate files in deterministic order.
func sortedPaths(byFileMap map[string][]*fragment.Fragment) []string {
	paths := make([]string, 0, len(byFileMap))
	for p := range byFileMap {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func baseNoExt(path string) string {
	b := filepath.Base(path)
	return strings.TrimSuffix(b, filepath.Ext(b))
}

func extOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
