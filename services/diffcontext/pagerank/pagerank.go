// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pagerank computes a personalized PageRank over the fragment
// relationship graph, biased toward the diff's seed fragments. It adapts
// the power-iteration idiom of services/trace/graph/pagerank.go (sink
// handling, convergence tracking, an OpenTelemetry span per call) to a
// weighted graph with a non-uniform personalization vector instead of
// PageRank's plain "1/N to every sink" random-jump model.
package pagerank

import (
	"context"
	"math"

	"github.com/nikolay-e/treemapper-sub002/pkg/logging"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/depgraph"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

// Options configures one PPR computation.
type Options struct {
	// Alpha is the damping factor: the probability mass carried forward
	// along graph edges each iteration rather than reset to the
	// personalization vector. Must be in (0, 1).
	Alpha float64
	// Tolerance is the L1-distance convergence threshold.
	Tolerance float64
	// MaxIterations bounds the power iteration.
	MaxIterations int
}

// DefaultOptions matches the entry point's documented defaults (§6, §4.5).
func DefaultOptions() Options {
	return Options{Alpha: 0.60, Tolerance: 1e-4, MaxIterations: 50}
}

// Result is one PPR computation's output.
type Result struct {
	Scores     map[fragment.FragmentId]float64
	Iterations int
	Converged  bool
}

// Compute returns the personalized PageRank scores for every node in g,
// biased toward seeds. If no seed is present in g, the uniform
// distribution 1/N is returned directly without iterating (§4.5).
func Compute(ctx context.Context, g *depgraph.Graph, seeds []fragment.FragmentId, opts Options) Result {
	ctx, span := tracer.Start(ctx, "pagerank.Compute")
	defer span.End()

	nodes := g.Nodes()
	n := len(nodes)
	if n == 0 {
		return Result{Scores: map[fragment.FragmentId]float64{}, Converged: true}
	}

	validSeeds := make([]fragment.FragmentId, 0, len(seeds))
	for _, s := range seeds {
		if g.HasNode(s) {
			validSeeds = append(validSeeds, s)
		}
	}

	if len(validSeeds) == 0 {
		uniform := 1.0 / float64(n)
		scores := make(map[fragment.FragmentId]float64, n)
		for _, v := range nodes {
			scores[v] = uniform
		}
		recordPPRMetrics(ctx, n, 0, true)
		return Result{Scores: scores, Iterations: 0, Converged: true}
	}

	personalization := make(map[fragment.FragmentId]float64, len(validSeeds))
	seedMass := 1.0 / float64(len(validSeeds))
	for _, s := range validSeeds {
		personalization[s] = seedMass
	}

	outsum := make(map[fragment.FragmentId]float64, n)
	neighbors := make(map[fragment.FragmentId]map[fragment.FragmentId]float64, n)
	for _, u := range nodes {
		nb := g.Neighbors(u)
		neighbors[u] = nb
		var sum float64
		for _, w := range nb {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				continue
			}
			sum += w
		}
		outsum[u] = sum
	}

	alpha := opts.Alpha
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultOptions().Alpha
	}
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultOptions().Tolerance
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultOptions().MaxIterations
	}

	scores := make(map[fragment.FragmentId]float64, n)
	for _, v := range nodes {
		scores[v] = personalization[v]
	}

	var iterations int
	var converged bool

	for iter := 0; iter < maxIter; iter++ {
		var danglingMass float64
		for _, u := range nodes {
			if outsum[u] == 0 {
				danglingMass += scores[u]
			}
		}

		newScores := make(map[fragment.FragmentId]float64, n)
		for _, v := range nodes {
			newScores[v] = (1-alpha)*personalization[v] + alpha*danglingMass*personalization[v]
		}
		for _, u := range nodes {
			os := outsum[u]
			if os <= 0 {
				continue
			}
			su := scores[u]
			for v, w := range neighbors[u] {
				newScores[v] += alpha * su * w / os
			}
		}

		var l1 float64
		for _, v := range nodes {
			l1 += math.Abs(newScores[v] - scores[v])
		}
		scores = newScores
		iterations = iter + 1
		if l1 < tol {
			converged = true
			break
		}
	}

	if !converged {
		logging.Default().Warn("pagerank: did not converge within max_iter, using best-so-far scores",
			"max_iter", maxIter, "tolerance", tol)
	}

	normalizeL1(scores)
	recordPPRMetrics(ctx, n, iterations, converged)
	return Result{Scores: scores, Iterations: iterations, Converged: converged}
}

// normalizeL1 rescales scores in place so they sum to 1, matching §4.5's
// "PPR scores sum to 1" invariant even after early termination.
func normalizeL1(scores map[fragment.FragmentId]float64) {
	var sum float64
	for _, v := range scores {
		sum += v
	}
	if sum <= 0 {
		return
	}
	for k, v := range scores {
		scores[k] = v / sum
	}
}
