// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graphedges

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

// ContainmentBuilder links an enclosing fragment (a class or module) to
// every smaller fragment strictly inside its line range, per §4.3's
// structural category.
type ContainmentBuilder struct{}

func NewContainmentBuilder() *ContainmentBuilder { return &ContainmentBuilder{} }

func (b *ContainmentBuilder) Name() string      { return "structural:containment" }
func (b *ContainmentBuilder) Category() Category { return CategoryStructural }

const (
	containmentForward = 0.50
	containmentReverse = 0.70
)

func (b *ContainmentBuilder) BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error) {
	_, span := tracer.Start(ctx, "graphedges."+b.Name())
	defer span.End()

	edges := make(EdgeMap)
	for path, fs := range byFile(frags) {
		_ = path
		for _, outer := range fs {
			for _, inner := range fs {
				if outer.ID == inner.ID {
					continue
				}
				if strictlyContains(outer, inner) {
					// outer (parent) -> inner (child): reverse direction is
					// the stronger signal (a child strongly implies its
					// parent matters), matching the spec's .50/.70 split.
					edges.Add(outer.ID, inner.ID, containmentForward)
					edges.Add(inner.ID, outer.ID, containmentReverse)
				}
			}
		}
	}
	recordEdges(ctx, b.Name(), len(edges))
	return edges, nil
}

func strictlyContains(outer, inner *fragment.Fragment) bool {
	if outer.StartLine() > inner.StartLine() || outer.EndLine() < inner.EndLine() {
		return false
	}
	return outer.LineCount() > inner.LineCount()
}

// TestPairingBuilder links a source fragment to the fragments of its test
// file, identified by filename convention (test_X, X_test, X.test,
// X.spec, TestX/XTest). A direct import of the source module from the
// test file raises the weight from the default pairing weight to a
// confirmed one.
type TestPairingBuilder struct{}

func NewTestPairingBuilder() *TestPairingBuilder { return &TestPairingBuilder{} }

func (b *TestPairingBuilder) Name() string       { return "structural:test_pairing" }
func (b *TestPairingBuilder) Category() Category { return CategoryStructural }

const (
	testPairingDefault   = 0.45
	testPairingConfirmed = 0.80
	testPairingReverse   = 0.60
)

var (
	testPrefixRe = regexp.MustCompile(`^test_(.+)$`)
	testSuffixRe = regexp.MustCompile(`^(.+?)(?:_test|\.test|\.spec)$`)
)

// sourceBaseFromTestBase returns the source basename a test basename names,
// or "" if base doesn't look like a test file by any recognized convention.
func sourceBaseFromTestBase(base string) string {
	if m := testPrefixRe.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	if m := testSuffixRe.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	lower := strings.ToLower(base)
	if strings.HasPrefix(lower, "test") && len(base) > 4 {
		return base[4:]
	}
	if strings.HasSuffix(lower, "test") && len(base) > 4 {
		return base[:len(base)-4]
	}
	return ""
}

func (b *TestPairingBuilder) BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error) {
	_, span := tracer.Start(ctx, "graphedges."+b.Name())
	defer span.End()

	edges := make(EdgeMap)
	files := byFile(frags)
	bySourceBase := make(map[string][]string) // lowercased basename (no ext) -> paths
	for path := range files {
		bySourceBase[strings.ToLower(baseNoExt(path))] = append(bySourceBase[strings.ToLower(baseNoExt(path))], path)
	}

	for testPath, testFrags := range files {
		testBase := baseNoExt(testPath)
		srcBase := sourceBaseFromTestBase(testBase)
		if srcBase == "" {
			continue
		}
		candidates := bySourceBase[strings.ToLower(srcBase)]
		for _, srcPath := range candidates {
			if srcPath == testPath {
				continue
			}
			weight := testPairingDefault
			if testImportsSource(testFrags, srcPath) {
				weight = testPairingConfirmed
			}
			for _, tf := range testFrags {
				for _, sf := range files[srcPath] {
					edges.Add(tf.ID, sf.ID, weight)
					edges.Add(sf.ID, tf.ID, testPairingReverse)
				}
			}
		}
	}
	recordEdges(ctx, b.Name(), len(edges))
	return edges, nil
}

func testImportsSource(testFrags []*fragment.Fragment, srcPath string) bool {
	base := strings.ToLower(baseNoExt(srcPath))
	for _, f := range testFrags {
		if f.HasIdentifier(base) {
			return true
		}
	}
	return false
}

// SiblingBuilder links fragments in the same directory at low weight,
// capped at 20 files per directory with one representative fragment per
// file, matching §4.3's "sibling" edge.
type SiblingBuilder struct{}

func NewSiblingBuilder() *SiblingBuilder { return &SiblingBuilder{} }

func (b *SiblingBuilder) Name() string       { return "structural:sibling" }
func (b *SiblingBuilder) Category() Category { return CategoryStructural }

const (
	siblingWeight  = 0.05
	siblingMaxDir  = 20
)

func (b *SiblingBuilder) BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error) {
	_, span := tracer.Start(ctx, "graphedges."+b.Name())
	defer span.End()

	edges := make(EdgeMap)
	files := byFile(frags)
	dirFiles := make(map[string][]string)
	for path := range files {
		dir := filepath.Dir(path)
		dirFiles[dir] = append(dirFiles[dir], path)
	}
	for _, paths := range dirFiles {
		sort.Strings(paths)
		if len(paths) > siblingMaxDir {
			paths = paths[:siblingMaxDir]
		}
		if len(paths) < 2 {
			continue
		}
		reps := make([]*fragment.Fragment, 0, len(paths))
		for _, p := range paths {
			reps = append(reps, files[p][0])
		}
		for i := range reps {
			for j := range reps {
				if i == j {
					continue
				}
				edges.Add(reps[i].ID, reps[j].ID, siblingWeight)
			}
		}
	}
	recordEdges(ctx, b.Name(), len(edges))
	return edges, nil
}
