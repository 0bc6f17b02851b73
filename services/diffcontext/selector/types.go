// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package selector is the budget-bounded submodular maximizer that picks
// which fragments make the final bundle: the core fragments every hunk
// anchors to, then a lazy-greedy loop over everything else ranked by
// concept-coverage density per token. This is the diffcontext analogue of
// services/code_buddy/context/assembler.go's budget-bounded assembly loop,
// swapping its dollar-cost ledger for concept.State and its flat cost model
// for lazy-greedy upper-bound pruning.
package selector

import (
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

// TerminationReason records why the greedy loop stopped, one of the five
// outcomes the selector can report.
type TerminationReason string

const (
	ReasonBudgetExhausted TerminationReason = "budget_exhausted"
	ReasonStoppedByTau    TerminationReason = "stopped_by_tau"
	ReasonNoCandidates    TerminationReason = "no_candidates"
	ReasonNoUtility       TerminationReason = "no_utility"
	ReasonBestSingleton   TerminationReason = "best_singleton"
)

// DefaultTau is the stopping-rule multiplier applied to the median density
// of the first K non-core selections.
const DefaultTau = 0.08

// greedyWindow (K) is how many non-core selections establish the
// τ-stopping threshold.
const greedyWindow = 5

// OverheadPerFragment is the fixed token padding added to every selected
// fragment's measured token count, covering the render envelope (path,
// line range, kind label) the token counter's raw string count doesn't see.
const OverheadPerFragment = 8

// unlimitedBudget is the sentinel substituted when the caller supplies no
// token budget; τ-stopping alone then terminates the loop.
const unlimitedBudget = 1 << 30

// Result is the selector's output: which fragments were chosen, which of
// those were core, and why the loop stopped.
type Result struct {
	Selected []*fragment.Fragment
	CoreIDs  map[fragment.FragmentId]bool
	Reason   TerminationReason
}

// lineRange is an inclusive [start, end] interval used for the
// subset/overlap checks the core and greedy phases both need.
type lineRange struct {
	start, end int
}

func (r lineRange) contains(other lineRange) bool {
	return r.start <= other.start && other.end <= r.end
}

func (r lineRange) overlaps(other lineRange) bool {
	return !(r.end < other.start || other.end < r.start)
}

func rangeOf(f *fragment.Fragment) lineRange {
	return lineRange{start: f.StartLine(), end: f.EndLine()}
}
