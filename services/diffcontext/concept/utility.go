// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package concept implements the square-root marginal-utility model the
// selector maximizes: a fragment's value comes from how much it raises the
// best-known relevance of concepts it defines or uses that no
// already-selected fragment covered as well.
//
// This is the diffcontext analogue of services/code_buddy/context/cost.go:
// that file estimates dollar cost against a budget; this one estimates
// concept-coverage utility against a token budget. Same phased-estimator
// shape, different currency.
package concept

import (
	"math"
	"regexp"
	"strings"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

const (
	matchDefine = 1.0
	matchUse    = 0.5
)

var conceptRe = regexp.MustCompile(`[A-Za-z_]\w*`)

// codeStopwords filters out keywords common enough to appear in nearly
// every diff without being meaningful concepts.
var codeStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "this": {}, "that": {},
	"self": {}, "return": {}, "import": {}, "from": {}, "func": {}, "def": {},
	"class": {}, "type": {}, "var": {}, "let": {}, "const": {}, "true": {},
	"false": {}, "none": {}, "null": {}, "nil": {}, "error": {}, "err": {},
}

// extractChangedLines returns the content of every added or removed line in
// a unified diff, stripped of its +/- marker. Context lines and file
// headers are excluded.
func extractChangedLines(diffText string) []string {
	var out []string
	for _, line := range strings.Split(diffText, "\n") {
		isAdded := strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++")
		isRemoved := strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---")
		if isAdded || isRemoved {
			out = append(out, line[1:])
		}
	}
	return out
}

// ConceptsFromDiffText extracts the diff's concept set directly from its
// changed-line text: every identifier at least 3 characters long that isn't
// a stopword, lowercased. This is the glossary the rest of the pipeline
// measures coverage against.
func ConceptsFromDiffText(diffText string) map[string]struct{} {
	text := strings.Join(extractChangedLines(diffText), "\n")
	raw := conceptRe.FindAllString(text, -1)
	out := make(map[string]struct{})
	for _, id := range raw {
		if len(id) < 3 {
			continue
		}
		lower := strings.ToLower(id)
		if _, stop := codeStopwords[lower]; stop {
			continue
		}
		out[lower] = struct{}{}
	}
	return out
}

// matchStrength scores how strongly a fragment relates to a concept: a
// fragment that defines the concept (its SymbolName matches) scores higher
// than one that merely references it among its identifiers.
func matchStrength(f *fragment.Fragment, concept string) float64 {
	if f.SymbolName != "" && strings.ToLower(f.SymbolName) == concept {
		return matchDefine
	}
	if f.HasIdentifier(concept) {
		return matchUse
	}
	return 0.0
}

// State tracks, per concept, the best relevance-weighted match strength
// seen so far across every fragment committed with ApplyFragment. Utility is a
// pure function of this state, which is what makes the greedy selector's
// marginal-gain computation cheap: adding a fragment only changes the
// handful of concepts it actually touches.
type State struct {
	MaxRel map[string]float64
}

func NewState() *State {
	return &State{MaxRel: make(map[string]float64)}
}

// Copy returns an independent snapshot, used by the selector to compare the
// greedy loop's outcome against a pre-greedy baseline.
func (s *State) Copy() *State {
	cp := make(map[string]float64, len(s.MaxRel))
	for k, v := range s.MaxRel {
		cp[k] = v
	}
	return &State{MaxRel: cp}
}

func phi(x float64) float64 {
	if x > 0 {
		return math.Sqrt(x)
	}
	return 0.0
}

// effectiveConcepts returns concepts if non-empty, otherwise falls back to
// the fragment's own identifiers. This is the "emergency concept set": a
// diff whose changed lines produced no glossary (e.g. a pure whitespace or
// binary-adjacent change) still lets the selector discriminate between
// fragments using their own vocabulary instead of valuing everything at
// zero.
func effectiveConcepts(f *fragment.Fragment, concepts map[string]struct{}) map[string]struct{} {
	if len(concepts) > 0 {
		return concepts
	}
	return f.Identifiers
}

// MarginalGain returns how much selecting f would raise total utility given
// the current state, without mutating state.
func MarginalGain(f *fragment.Fragment, relScore float64, concepts map[string]struct{}, state *State) float64 {
	effective := effectiveConcepts(f, concepts)
	if len(effective) == 0 {
		return 0.0
	}

	gain := 0.0
	for c := range effective {
		m := matchStrength(f, c)
		if m <= 0.0 {
			continue
		}
		aFz := relScore * m
		oldMax := state.MaxRel[c]
		newMax := math.Max(oldMax, aFz)
		gain += phi(newMax) - phi(oldMax)
	}
	return gain
}

// ApplyFragment commits f's contribution to state, mutating MaxRel for
// every concept f touches.
func ApplyFragment(f *fragment.Fragment, relScore float64, concepts map[string]struct{}, state *State) {
	effective := effectiveConcepts(f, concepts)
	for c := range effective {
		m := matchStrength(f, c)
		if m <= 0.0 {
			continue
		}
		aFz := relScore * m
		oldMax := state.MaxRel[c]
		if aFz > oldMax {
			state.MaxRel[c] = aFz
		}
	}
}

// Density is marginal gain per token, the quantity the lazy-greedy
// selector ranks candidates by.
func Density(f *fragment.Fragment, relScore float64, concepts map[string]struct{}, state *State) float64 {
	if f.TokenCount <= 0 {
		return 0.0
	}
	return MarginalGain(f, relScore, concepts, state) / float64(f.TokenCount)
}

// Value returns the current total utility: the sum, over every concept
// touched so far, of phi applied to its best relevance-weighted match.
func Value(state *State) float64 {
	total := 0.0
	for _, v := range state.MaxRel {
		total += phi(v)
	}
	return total
}
