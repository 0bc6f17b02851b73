// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileForPath(t *testing.T) {
	assert.Equal(t, ProfileProse, ProfileForPath("docs/README.md"))
	assert.Equal(t, ProfileProse, ProfileForPath("NOTES.TXT"))
	assert.Equal(t, ProfileCode, ProfileForPath("pkg/util.go"))
	assert.Equal(t, ProfileCode, ProfileForPath("config.yaml"))
}

func TestExtract_CodeProfile_MinLengthTwo(t *testing.T) {
	ids := Extract("fn calculateTax(a, bb int) { return a }", ProfileCode, false)
	assert.Contains(t, ids, "bb")
	assert.NotContains(t, ids, "a")
	assert.Contains(t, ids, "calculatetax")
}

func TestExtract_CodeProfile_SkipStopwords(t *testing.T) {
	ids := Extract("func calculateTax() { return err }", ProfileCode, true)
	assert.NotContains(t, ids, "func")
	assert.NotContains(t, ids, "return")
	assert.NotContains(t, ids, "err")
	assert.Contains(t, ids, "calculatetax")
}

func TestExtract_ProseProfile_MinLengthThreeAndStopwords(t *testing.T) {
	ids := Extract("The Calculator is a useful and simple tool", ProfileProse, true)
	assert.NotContains(t, ids, "the")
	assert.NotContains(t, ids, "and")
	assert.Contains(t, ids, "calculator")
	assert.Contains(t, ids, "useful")
}

func TestExtract_Deduplicates(t *testing.T) {
	ids := Extract("calculateTax calculateTax CALCULATETAX", ProfileCode, false)
	assert.Len(t, ids, 1)
	assert.Contains(t, ids, "calculatetax")
}

func TestExtractList_PreservesRepeatsAndOrder(t *testing.T) {
	list := ExtractList("alpha beta alpha gamma", ProfileCode, false)
	assert.Equal(t, []string{"alpha", "beta", "alpha", "gamma"}, list)
}

func TestExtractList_SkipStopwords(t *testing.T) {
	list := ExtractList("func run return value", ProfileCode, true)
	assert.Equal(t, []string{"run", "value"}, list)
}

func TestExtract_EmptyInput(t *testing.T) {
	assert.Empty(t, Extract("", ProfileCode, true))
	assert.Empty(t, ExtractList("   \n\t  ", ProfileProse, true))
}
