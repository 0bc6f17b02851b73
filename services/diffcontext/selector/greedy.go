// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package selector

import (
	"context"
	"sort"

	"github.com/nikolay-e/treemapper-sub002/pkg/logging"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/concept"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

type candidate struct {
	f     *fragment.Fragment
	bound float64
}

// Select runs the full lazy-greedy procedure (§4.8): core phase, then a
// budget-bounded submodular loop with upper-bound pruning and τ-stopping,
// then a final singleton-improvement check.
func Select(ctx context.Context, frags []*fragment.Fragment, hunks []fragment.DiffHunk, relevance map[fragment.FragmentId]float64, concepts map[string]struct{}, budgetTokens int, tau float64) Result {
	_, span := tracer.Start(ctx, "selector.Select")
	defer span.End()

	budget := unlimitedBudget
	if budgetTokens > 0 {
		budget = budgetTokens
	}

	core := CoreSet(frags, hunks)
	coreIDs := make(map[fragment.FragmentId]bool, len(core))
	for _, f := range core {
		coreIDs[f.ID] = true
	}

	state := concept.NewState()
	selectedRanges := make(map[string][]lineRange)
	var selected []*fragment.Fragment
	budgetExhaustedOnCore := false

	for _, f := range core {
		r := rangeOf(f)
		if isSubsetOfAny(selectedRanges[f.Path()], r) {
			continue
		}
		cost := f.TokenCount + OverheadPerFragment
		if cost > budget {
			logging.Default().Debug("selector: core fragment skipped, exceeds remaining budget", "path", f.Path(), "lines", f.LineCount())
			budgetExhaustedOnCore = true
			continue
		}
		concept.ApplyFragment(f, relevance[f.ID], concepts, state)
		selected = append(selected, f)
		selectedRanges[f.Path()] = append(selectedRanges[f.Path()], r)
		budget -= cost
	}

	postCoreState := state.Copy()

	var candidates []*candidate
	for _, f := range frags {
		if coreIDs[f.ID] {
			continue
		}
		if f.TokenCount <= 0 {
			continue
		}
		candidates = append(candidates, &candidate{f: f})
	}

	greedySelected, greedyState, reason := runGreedyLoop(candidates, state, relevance, concepts, &budget, selectedRanges, tau)
	if budgetExhaustedOnCore && reason == ReasonNoCandidates {
		reason = ReasonBudgetExhausted
	}

	singleton, singletonUtility := bestSingleton(candidates, postCoreState, relevance, concepts)
	greedyUtility := concept.Value(greedyState)

	var finalNonCore []*fragment.Fragment
	finalReason := reason
	if singleton != nil && singletonUtility > greedyUtility {
		finalNonCore = []*fragment.Fragment{singleton}
		finalReason = ReasonBestSingleton
	} else {
		finalNonCore = greedySelected
	}

	selected = append(selected, finalNonCore...)
	fragment.SortFragments(selected)

	recordSelectionMetrics(ctx, len(core), len(finalNonCore), string(finalReason))
	return Result{Selected: selected, CoreIDs: coreIDs, Reason: finalReason}
}

func isSubsetOfAny(existing []lineRange, r lineRange) bool {
	for _, e := range existing {
		if e.contains(r) {
			return true
		}
	}
	return false
}

func overlapsAny(existing []lineRange, r lineRange) bool {
	for _, e := range existing {
		if e.overlaps(r) {
			return true
		}
	}
	return false
}

// runGreedyLoop implements the baseline and lazy-greedy phases plus
// τ-stopping. It mutates neither the candidates slice's backing array's
// ownership nor selectedRanges outside of its own additions, and returns the
// state reached after every commit so the caller can compare it against the
// singleton-improvement alternative.
func runGreedyLoop(candidates []*candidate, state *concept.State, relevance map[fragment.FragmentId]float64, concepts map[string]struct{}, budget *int, selectedRanges map[string][]lineRange, tau float64) ([]*fragment.Fragment, *concept.State, TerminationReason) {
	if len(candidates) == 0 {
		return nil, state, ReasonNoCandidates
	}

	pool := make([]*candidate, len(candidates))
	copy(pool, candidates)
	for _, c := range pool {
		c.bound = concept.Density(c.f, relevance[c.f.ID], concepts, state)
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].bound > pool[j].bound })

	var selected []*fragment.Fragment
	var densities []float64
	threshold := 0.0
	haveThreshold := false
	committedAny := false
	droppedForBudget := false

	for len(pool) > 0 {
		top := pool[0]
		r := rangeOf(top.f)
		if overlapsAny(selectedRanges[top.f.Path()], r) {
			pool = pool[1:]
			continue
		}

		actual := concept.Density(top.f, relevance[top.f.ID], concepts, state)
		nextBound := 0.0
		if len(pool) > 1 {
			nextBound = pool[1].bound
		}
		if actual < nextBound {
			top.bound = actual
			sort.Slice(pool, func(i, j int) bool { return pool[i].bound > pool[j].bound })
			continue
		}

		if actual <= 0 {
			pool = pool[1:]
			continue
		}

		if haveThreshold && actual < threshold {
			return selected, state, ReasonStoppedByTau
		}

		cost := top.f.TokenCount + OverheadPerFragment
		if cost > *budget {
			pool = pool[1:]
			droppedForBudget = true
			continue
		}

		concept.ApplyFragment(top.f, relevance[top.f.ID], concepts, state)
		selected = append(selected, top.f)
		selectedRanges[top.f.Path()] = append(selectedRanges[top.f.Path()], r)
		*budget -= cost
		committedAny = true

		densities = append(densities, actual)
		if len(densities) == greedyWindow && !haveThreshold {
			threshold = tau * median(densities)
			haveThreshold = true
		}
		pool = pool[1:]
	}

	if committedAny {
		return selected, state, ReasonBudgetExhausted
	}
	if droppedForBudget {
		return selected, state, ReasonBudgetExhausted
	}
	return selected, state, ReasonNoUtility
}

// bestSingleton finds the single non-core fragment of highest marginal gain
// against postCoreState, and the total utility reached if it alone were
// added, for the final singleton-improvement comparison.
func bestSingleton(candidates []*candidate, postCoreState *concept.State, relevance map[fragment.FragmentId]float64, concepts map[string]struct{}) (*fragment.Fragment, float64) {
	var best *fragment.Fragment
	bestGain := -1.0
	for _, c := range candidates {
		gain := concept.MarginalGain(c.f, relevance[c.f.ID], concepts, postCoreState)
		if gain > bestGain {
			bestGain = gain
			best = c.f
		}
	}
	if best == nil {
		return nil, concept.Value(postCoreState)
	}
	trial := postCoreState.Copy()
	concept.ApplyFragment(best, relevance[best.ID], concepts, trial)
	return best, concept.Value(trial)
}

func median(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
