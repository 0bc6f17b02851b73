// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fragment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFragmentFile_EmptyContentReturnsNoFragments(t *testing.T) {
	r := NewDefaultRegistry()
	frags, err := r.FragmentFile(context.Background(), "main.go", "")
	require.NoError(t, err)
	assert.Empty(t, frags)
}

func TestFragmentFile_GoSourceUsesTreeSitter(t *testing.T) {
	r := NewDefaultRegistry()
	src := "package main\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n"
	frags, err := r.FragmentFile(context.Background(), "main.go", src)
	require.NoError(t, err)
	require.NotEmpty(t, frags)
	assert.Equal(t, KindFunction, frags[0].Kind)
	assert.Equal(t, "Add", frags[0].SymbolName)
}

func TestFragmentFile_FallsBackToLineWindowForUnknownExtension(t *testing.T) {
	r := NewDefaultRegistry()
	src := "line one\nline two\nline three\n"
	frags, err := r.FragmentFile(context.Background(), "data.unknownext", src)
	require.NoError(t, err)
	require.NotEmpty(t, frags)
	assert.Equal(t, KindChunk, frags[0].Kind)
}

func TestFragmentFile_KubernetesManifestOverridesGenericStructured(t *testing.T) {
	r := NewDefaultRegistry()
	src := "kind: Deployment\nmetadata:\n  name: api\nspec:\n  replicas: 2\n"
	frags, err := r.FragmentFile(context.Background(), "deploy.yaml", src)
	require.NoError(t, err)
	require.NotEmpty(t, frags)
	assert.Equal(t, KindResource, frags[0].Kind)
	assert.Equal(t, "Deployment/api", frags[0].SymbolName)
}

func TestFragmentFile_PlainYAMLUsesGenericStructured(t *testing.T) {
	r := NewDefaultRegistry()
	src := "database:\n  host: localhost\n  port: 5432\ncache:\n  ttl: 60\n"
	frags, err := r.FragmentFile(context.Background(), "settings.yaml", src)
	require.NoError(t, err)
	require.NotEmpty(t, frags)
	for _, f := range frags {
		assert.Equal(t, KindConfig, f.Kind)
	}
}

func TestFragmentFile_RegistersStrategiesInPriorityOrder(t *testing.T) {
	r := NewDefaultRegistry()
	var names []string
	for _, s := range r.strategies {
		names = append(names, s.Name())
	}
	require.Equal(t, []string{
		"tree_sitter", "markdown", "html", "kubernetes",
		"generic_structured", "sentence", "paragraph",
	}, names)
}
