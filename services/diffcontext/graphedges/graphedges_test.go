// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graphedges

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

func frag(path string, start, end int, content, symbol string) *fragment.Fragment {
	return &fragment.Fragment{
		ID:          fragment.FragmentId{Path: path, StartLine: start, EndLine: end},
		Content:     content,
		Identifiers: map[string]struct{}{},
		SymbolName:  symbol,
	}
}

func TestContainmentBuilder_LinksEnclosingAndEnclosed(t *testing.T) {
	outer := frag("a.go", 1, 20, "class body", "Outer")
	inner := frag("a.go", 5, 10, "method body", "inner")
	other := frag("b.go", 1, 5, "unrelated", "")

	edges, err := NewContainmentBuilder().BuildEdges(context.Background(), "", []*fragment.Fragment{outer, inner, other})
	require.NoError(t, err)

	assert.Equal(t, containmentForward, edges[EdgeKey{Src: outer.ID, Dst: inner.ID}])
	assert.Equal(t, containmentReverse, edges[EdgeKey{Src: inner.ID, Dst: outer.ID}])
	assert.NotContains(t, edges, EdgeKey{Src: outer.ID, Dst: other.ID})
}

func TestContainmentBuilder_EqualRangesDoNotLink(t *testing.T) {
	a := frag("a.go", 1, 10, "", "")
	b := frag("a.go", 1, 10, "", "")
	edges, err := NewContainmentBuilder().BuildEdges(context.Background(), "", []*fragment.Fragment{a, b})
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestConfigCodeBuilder_LinksKeyToIdentifier(t *testing.T) {
	cfg := frag("config.yaml", 1, 3, "max_retry_count: 5\n", "")
	code := frag("client.go", 1, 5, "func dial() { useMaxRetryCount() }", "dial")
	code.Identifiers["max_retry_count"] = struct{}{}

	edges, err := NewConfigCodeBuilder().BuildEdges(context.Background(), "", []*fragment.Fragment{cfg, code})
	require.NoError(t, err)

	assert.Greater(t, edges[EdgeKey{Src: cfg.ID, Dst: code.ID}], 0.0)
	assert.Greater(t, edges[EdgeKey{Src: code.ID, Dst: cfg.ID}], 0.0)
}

func TestConfigCodeBuilder_StopwordKeyIsIgnored(t *testing.T) {
	cfg := frag("config.yaml", 1, 2, "name: widget\n", "")
	code := frag("main.go", 1, 2, "var name string", "")
	code.Identifiers["name"] = struct{}{}

	edges, err := NewConfigCodeBuilder().BuildEdges(context.Background(), "", []*fragment.Fragment{cfg, code})
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestDockerBuilder_LinksComposeToDockerfile(t *testing.T) {
	dockerfile := frag("services/api/Dockerfile", 1, 10, "FROM golang:1.21", "")
	compose := frag("docker-compose.yml", 1, 5, "services:\n  api:\n    dockerfile: Dockerfile\n", "")

	edges, err := NewDockerBuilder().BuildEdges(context.Background(), "", []*fragment.Fragment{dockerfile, compose})
	require.NoError(t, err)

	assert.Equal(t, dockerWeight, edges[EdgeKey{Src: compose.ID, Dst: dockerfile.ID}])
	assert.Equal(t, dockerWeight, edges[EdgeKey{Src: dockerfile.ID, Dst: compose.ID}])
}

func TestSiblingBuilder_CapsAtMaxDirInsteadOfSkippingDir(t *testing.T) {
	frags := make([]*fragment.Fragment, 0, siblingMaxDir+5)
	for i := 0; i < siblingMaxDir+5; i++ {
		frags = append(frags, frag(fmt.Sprintf("pkg/file%02d.go", i), 1, 1, "", ""))
	}

	edges, err := NewSiblingBuilder().BuildEdges(context.Background(), "", frags)
	require.NoError(t, err)
	assert.NotEmpty(t, edges, "a directory over the cap must still produce sibling edges among its first 20 files")

	sorted := make([]string, 0, len(frags))
	for _, f := range frags {
		sorted = append(sorted, f.Path())
	}
	sort.Strings(sorted)

	kept := sorted[:siblingMaxDir]
	dropped := sorted[siblingMaxDir:]

	a := byPath(frags, kept[0])
	b := byPath(frags, kept[1])
	assert.Equal(t, siblingWeight, edges[EdgeKey{Src: a.ID, Dst: b.ID}])

	excluded := byPath(frags, dropped[0])
	assert.NotContains(t, edges, EdgeKey{Src: a.ID, Dst: excluded.ID})
}

func byPath(frags []*fragment.Fragment, path string) *fragment.Fragment {
	for _, f := range frags {
		if f.Path() == path {
			return f
		}
	}
	return nil
}

func TestEdgeMap_AddClampsAndRejectsSelfEdges(t *testing.T) {
	m := make(EdgeMap)
	a := fragment.FragmentId{Path: "a.go", StartLine: 1, EndLine: 1}
	b := fragment.FragmentId{Path: "b.go", StartLine: 1, EndLine: 1}

	m.Add(a, a, 0.9)
	assert.Empty(t, m)

	m.Add(a, b, 5)
	assert.Equal(t, 1.0, m[EdgeKey{Src: a, Dst: b}])

	m.Add(a, b, 0.2)
	assert.Equal(t, 1.0, m[EdgeKey{Src: a, Dst: b}], "lower weight must not overwrite")
}

func TestBuild_SkipsErroringBuilderWithoutFailing(t *testing.T) {
	frags := []*fragment.Fragment{frag("a.go", 1, 5, "", "")}
	out := Build(context.Background(), "", frags, []Builder{&erroringBuilder{}, NewContainmentBuilder()})
	assert.NotNil(t, out)
}

type erroringBuilder struct{}

func (erroringBuilder) Name() string       { return "test:erroring" }
func (erroringBuilder) Category() Category { return CategoryStructural }
func (erroringBuilder) BuildEdges(context.Context, string, []*fragment.Fragment) (EdgeMap, error) {
	return nil, assert.AnError
}
