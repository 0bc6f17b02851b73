// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package concept

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

func TestConceptsFromDiffText_OnlyChangedLines(t *testing.T) {
	diff := "diff --git a/x.go b/x.go\n" +
		"--- a/x.go\n" +
		"+++ b/x.go\n" +
		"@@ -1,2 +1,2 @@\n" +
		"-func oldName() {}\n" +
		"+func calculateTax(amount float64) float64 {}\n" +
		" unchanged context line\n"
	concepts := ConceptsFromDiffText(diff)
	assert.Contains(t, concepts, "calculatetax")
	assert.Contains(t, concepts, "amount")
	assert.NotContains(t, concepts, "unchanged", "context lines must not contribute concepts")
	assert.NotContains(t, concepts, "func", "stopwords must be excluded")
}

func TestConceptsFromDiffText_DropsShortIdentifiers(t *testing.T) {
	diff := "+x = ab\n"
	concepts := ConceptsFromDiffText(diff)
	assert.NotContains(t, concepts, "ab")
}

func newFrag(symbol string, idents ...string) *fragment.Fragment {
	m := make(map[string]struct{}, len(idents))
	for _, id := range idents {
		m[id] = struct{}{}
	}
	return &fragment.Fragment{SymbolName: symbol, Identifiers: m, TokenCount: 10}
}

func TestMarginalGain_DefineScoresHigherThanUse(t *testing.T) {
	concepts := map[string]struct{}{"calculatetax": {}}
	definer := newFrag("calculateTax")
	user := newFrag("", "calculatetax")

	state := NewState()
	defineGain := MarginalGain(definer, 1.0, concepts, state)
	useGain := MarginalGain(user, 1.0, concepts, state)
	assert.Greater(t, defineGain, useGain)
}

func TestMarginalGain_DiminishesAfterApply(t *testing.T) {
	concepts := map[string]struct{}{"widget": {}}
	f := newFrag("Widget")
	state := NewState()

	first := MarginalGain(f, 1.0, concepts, state)
	assert.Greater(t, first, 0.0)
	ApplyFragment(f, 1.0, concepts, state)

	second := MarginalGain(f, 1.0, concepts, state)
	assert.Equal(t, 0.0, second, "re-covering the same concept at the same relevance yields no further gain")
}

func TestMarginalGain_EmptyConceptsFallsBackToIdentifiers(t *testing.T) {
	f := newFrag("", "helper")
	state := NewState()
	gain := MarginalGain(f, 1.0, map[string]struct{}{}, state)
	assert.Greater(t, gain, 0.0, "a fragment's own identifiers still count as a use-match when no diff concepts exist")
}

func TestMarginalGain_NoIdentifiersAndNoConceptsIsZero(t *testing.T) {
	f := newFrag("")
	state := NewState()
	gain := MarginalGain(f, 1.0, map[string]struct{}{}, state)
	assert.Equal(t, 0.0, gain)
}

func TestDensity_ZeroTokenCountIsZero(t *testing.T) {
	f := newFrag("Widget")
	f.TokenCount = 0
	concepts := map[string]struct{}{"widget": {}}
	assert.Equal(t, 0.0, Density(f, 1.0, concepts, NewState()))
}

func TestValue_SumsPhiOfBestMatches(t *testing.T) {
	state := NewState()
	state.MaxRel["a"] = 4.0
	state.MaxRel["b"] = 9.0
	assert.InDelta(t, math.Sqrt(4)+math.Sqrt(9), Value(state), 1e-9)
}

func TestState_CopyIsIndependent(t *testing.T) {
	state := NewState()
	state.MaxRel["a"] = 1.0
	cp := state.Copy()
	cp.MaxRel["a"] = 2.0
	assert.Equal(t, 1.0, state.MaxRel["a"])
}
