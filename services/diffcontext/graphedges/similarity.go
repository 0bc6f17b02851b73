// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graphedges

import (
	"context"
	"math"
	"sort"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/identifier"
)

// SimilarityBuilder links lexically similar fragments by TF-IDF cosine
// similarity over their identifier sets, per §4.3's lexical category:
// kept only above a floor, clamped into a per-language band, and capped to
// each node's top-10 neighbors to bound graph density.
type SimilarityBuilder struct {
	MinSimilarity     float64
	DocFreqCapPercent float64
	IDFFloor          float64
	MaxPostings       int
	TopKPerNode       int
}

func NewSimilarityBuilder() *SimilarityBuilder {
	return &SimilarityBuilder{
		MinSimilarity:     0.10,
		DocFreqCapPercent: 0.20,
		IDFFloor:          1.6,
		MaxPostings:       200,
		TopKPerNode:       10,
	}
}

func (b *SimilarityBuilder) Name() string       { return "similarity:tfidf" }
func (b *SimilarityBuilder) Category() Category { return CategorySimilarity }

// lexBand returns the [min, max] weight clamp for a fragment's language,
// mirroring the spec's "per-language [lex_min, lex_max] band": prose gets
// a narrower band since identifier overlap in English text is noisier
// signal than identifier overlap in code.
func lexBand(path string) (float64, float64) {
	if identifier.ProfileForPath(path) == identifier.ProfileProse {
		return 0.10, 0.45
	}
	return 0.10, 0.85
}

func (b *SimilarityBuilder) BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error) {
	_, span := tracer.Start(ctx, "graphedges."+b.Name())
	defer span.End()

	edges := make(EdgeMap)
	n := len(frags)
	if n < 2 {
		return edges, nil
	}

	// Document frequency per term, capped postings.
	postings := make(map[string][]int) // term -> fragment indices
	for i, f := range frags {
		seen := make(map[string]bool, len(f.Identifiers))
		for term := range f.Identifiers {
			if seen[term] {
				continue
			}
			seen[term] = true
			postings[term] = append(postings[term], i)
		}
	}

	maxDF := int(float64(n) * b.DocFreqCapPercent)
	if maxDF < 1 {
		maxDF = 1
	}

	idf := make(map[string]float64, len(postings))
	for term, list := range postings {
		if len(list) > b.MaxPostings || len(list) > maxDF {
			continue // too common (or too expensive) to be informative
		}
		v := math.Log(float64(n) / float64(len(list)))
		if v < b.IDFFloor {
			v = b.IDFFloor
		}
		idf[term] = v
	}

	// TF-IDF weight vectors, L2-normalized for cosine similarity.
	vectors := make([]map[string]float64, n)
	norms := make([]float64, n)
	for i, f := range frags {
		vec := make(map[string]float64)
		for term := range f.Identifiers {
			w, ok := idf[term]
			if !ok {
				continue
			}
			vec[term] = w // binary presence weighted by idf; fragments are sets not multisets
		}
		var sumSq float64
		for _, w := range vec {
			sumSq += w * w
		}
		vectors[i] = vec
		norms[i] = math.Sqrt(sumSq)
	}

	// Only compare fragments that share at least one surviving term,
	// walking the postings lists instead of the full n^2 pairs.
	candidatePairs := make(map[[2]int]struct{})
	for term, list := range postings {
		if _, ok := idf[term]; !ok {
			continue
		}
		for a := 0; a < len(list); a++ {
			for c := a + 1; c < len(list); c++ {
				i, j := list[a], list[c]
				candidatePairs[[2]int{i, j}] = struct{}{}
			}
		}
	}

	type scored struct {
		j      int
		weight float64
	}
	neighborCandidates := make(map[int][]scored, n)

	for pair := range candidatePairs {
		i, j := pair[0], pair[1]
		if norms[i] == 0 || norms[j] == 0 {
			continue
		}
		var dot float64
		for term, wi := range vectors[i] {
			if wj, ok := vectors[j][term]; ok {
				dot += wi * wj
			}
		}
		sim := dot / (norms[i] * norms[j])
		if sim < b.MinSimilarity {
			continue
		}
		minW, maxW := lexBand(frags[i].Path())
		weight := clamp(sim, minW, maxW)
		neighborCandidates[i] = append(neighborCandidates[i], scored{j: j, weight: weight})
		neighborCandidates[j] = append(neighborCandidates[j], scored{j: i, weight: weight})
	}

	for i, cands := range neighborCandidates {
		sort.Slice(cands, func(a, c int) bool { return cands[a].weight > cands[c].weight })
		if len(cands) > b.TopKPerNode {
			cands = cands[:b.TopKPerNode]
		}
		for _, c := range cands {
			edges.Add(frags[i].ID, frags[c.j].ID, c.weight)
		}
	}

	recordEdges(ctx, b.Name(), len(edges))
	return edges, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
