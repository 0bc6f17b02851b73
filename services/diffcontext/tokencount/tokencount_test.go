// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tokencount

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount_Empty(t *testing.T) {
	n, exact, _ := Count("")
	assert.Equal(t, 0, n)
	assert.True(t, exact)
}

func TestCount_SmallTextIsExact(t *testing.T) {
	n, exact, encoding := Count("package main\n\nfunc main() {}\n")
	assert.Greater(t, n, 0)
	assert.True(t, exact)
	assert.NotEmpty(t, encoding)
}

func TestCount_LargeTextIsSampled(t *testing.T) {
	big := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 2000)
	n, exact, _ := Count(big)
	assert.Greater(t, n, 0)
	assert.False(t, exact)
}
