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

	"github.com/nikolay-e/treemapper-sub002/pkg/logging"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/vcs"
)

// CoChangeCommits bounds how many recent commits the history builder mines
// for co-change pairs, matching the reference implementation's
// _COCHANGE_COMMITS constant (§9 Open Questions: the spec recommends
// standardizing on this single constant rather than the older duplicated
// all-inline path's different value).
const CoChangeCommits = 500

// coChangeCommitFileCap skips commits touching more files than this: a
// mass-rename or vendor-drop commit would otherwise flood every file pair
// in the repository with a spurious co-change edge.
const coChangeCommitFileCap = 30

const (
	coChangeMinCount = 2
	coChangeMaxWeight = 0.40
)

// CoChangeCounts mines the last n commits under root for pairs of files
// committed together, returned as counts keyed by an ordered pair (a <= b
// lexicographically) so each unordered pair is counted once. Exposed as a
// standalone, independently testable step rather than folded into the edge
// weight formula, since the original computes and logs these counts
// separately (§4 SUPPLEMENTED FEATURES).
func CoChangeCounts(root string, n int) (map[[2]string]int, error) {
	commits, err := vcs.CommitFileLists(root, n)
	if err != nil {
		return nil, err
	}
	counts := make(map[[2]string]int)
	for _, files := range commits {
		if len(files) > coChangeCommitFileCap {
			continue
		}
		for i := 0; i < len(files); i++ {
			for j := i + 1; j < len(files); j++ {
				a, b := files[i], files[j]
				if a == b {
					continue
				}
				if a > b {
					a, b = b, a
				}
				counts[[2]string{a, b}]++
			}
		}
	}
	return counts, nil
}

func coChangeWeight(count int) float64 {
	w := 0.1 * math.Log(1+float64(count))
	if w > coChangeMaxWeight {
		return coChangeMaxWeight
	}
	return w
}

// HistoryBuilder emits co-change edges between every pair of fragments
// belonging to files that were committed together at least twice across
// the last CoChangeCommits commits. Co-change mining failure (e.g. a
// shallow clone with no history) is non-fatal: the builder logs and simply
// contributes no edges for this category, per §4.3/§7.
type HistoryBuilder struct {
	CommitLimit int
}

func NewHistoryBuilder() *HistoryBuilder { return &HistoryBuilder{CommitLimit: CoChangeCommits} }

func (b *HistoryBuilder) Name() string       { return "history:co_change" }
func (b *HistoryBuilder) Category() Category { return CategoryHistory }

func (b *HistoryBuilder) BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error) {
	_, span := tracer.Start(ctx, "graphedges."+b.Name())
	defer span.End()

	edges := make(EdgeMap)
	counts, err := CoChangeCounts(root, b.CommitLimit)
	if err != nil {
		logging.Default().Debug("graphedges: co-change history unavailable, skipping", "error", err)
		return edges, nil
	}

	files := byFile(frags)
	for pair, count := range counts {
		if count < coChangeMinCount {
			continue
		}
		aFrags, aOK := files[pair[0]]
		bFrags, bOK := files[pair[1]]
		if !aOK || !bOK {
			continue
		}
		weight := coChangeWeight(count)
		for _, af := range aFrags {
			for _, bf := range bFrags {
				edges.Add(af.ID, bf.ID, weight)
				edges.Add(bf.ID, af.ID, weight)
			}
		}
	}
	recordEdges(ctx, b.Name(), len(edges))
	return edges, nil
}
