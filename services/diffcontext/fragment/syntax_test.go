// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fragment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeSitterStrategy_GapFragmentCoversUnclaimedLines(t *testing.T) {
	src := "import os\n\ndef greet(name):\n    return \"hi \" + name\n"
	frags, err := NewTreeSitterStrategy().Fragment("greet.py", src)
	require.NoError(t, err)

	var gap *Fragment
	for _, f := range frags {
		if f.Kind == KindChunk {
			gap = f
		}
	}
	require.NotNil(t, gap, "the import line must surface as a gap fragment")
	assert.Contains(t, gap.Content, "import os")
}

func TestTreeSitterStrategy_DecoratorLinesIncludedInFunctionStart(t *testing.T) {
	src := "@staticmethod\n@another.decorator\ndef handler():\n    return 1\n"
	frags, err := NewTreeSitterStrategy().Fragment("handler.py", src)
	require.NoError(t, err)

	var fn *Fragment
	for _, f := range frags {
		if f.Kind == KindFunction {
			fn = f
		}
	}
	require.NotNil(t, fn)
	assert.Equal(t, 1, fn.StartLine(), "start line must reach back to the first decorator")
	assert.Contains(t, fn.Content, "@staticmethod")
}

func TestTreeSitterStrategy_DecoratorLinesIncludedInClassStart(t *testing.T) {
	src := "@dataclass\nclass Point:\n    x: int\n    y: int\n"
	frags, err := NewTreeSitterStrategy().Fragment("point.py", src)
	require.NoError(t, err)

	var cls *Fragment
	for _, f := range frags {
		if f.Kind == KindClass {
			cls = f
		}
	}
	require.NotNil(t, cls)
	assert.Equal(t, 1, cls.StartLine())
}

func TestTreeSitterStrategy_DecoratedDefinitionNotDuplicated(t *testing.T) {
	src := "@staticmethod\ndef handler():\n    return 1\n"
	frags, err := NewTreeSitterStrategy().Fragment("handler.py", src)
	require.NoError(t, err)

	count := 0
	for _, f := range frags {
		if f.Kind == KindFunction {
			count++
		}
	}
	assert.Equal(t, 1, count, "the decorated function must produce exactly one fragment, not one per wrapper layer")
}
