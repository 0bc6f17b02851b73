// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package diffcontext is the public entry point of the diff-context
// bundler: given a repository and a version-control range, BuildDiffContext
// runs the full pipeline (fragment → build graph → personalized PageRank →
// lazy-greedy select → render) and returns a bounded, token-budgeted bundle
// of fragments a downstream reader needs to understand the change.
//
// The phase order mirrors services/code_buddy/graph.Builder.Build's
// collect → extract → finalize shape: resolve range, fragment changed and
// discovered files, build the relationship graph, score it against the
// diff's seed fragments, select under budget, render.
package diffcontext

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/concept"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/depgraph"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/graphedges"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/pagerank"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/render"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/selector"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/universe"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/vcs"
)

// DiffContext re-exports the renderer's output schema so callers don't need
// to import the render package directly.
type DiffContext = render.DiffContext

// BuildDiffContext runs the full diff-context pipeline for the version
// control range diffRange inside the repository at root.
//
// Preconditions (§6): root must be a version-control repository and every
// numeric option must be in range; violations return a *ConfigError or
// vcs.ErrNotGitRepository. A failed git call while resolving the range
// (changed files, hunks, diff text) returns its *vcs.Error. Every other
// failure mode (an unreadable file, a fragmenter strategy that panics at
// parse time, PPR non-convergence) is absorbed and logged, and a
// well-formed DiffContext is returned.
func BuildDiffContext(ctx context.Context, root, diffRange string, opts ...BuildOption) (DiffContext, error) {
	start := time.Now()

	o := DefaultBuildOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return DiffContext{}, err
	}

	if !vcs.IsRepository(root) {
		return DiffContext{}, vcs.ErrNotGitRepository
	}

	ctx, span := tracer.Start(ctx, "diffcontext.BuildDiffContext")
	defer span.End()

	changedFiles, err := vcs.ChangedFiles(ctx, root, diffRange)
	if err != nil {
		return DiffContext{}, err
	}
	if len(changedFiles) == 0 {
		return render.Render(root, nil, o.NoContent), nil
	}

	hunks, err := vcs.ParseDiff(ctx, root, diffRange)
	if err != nil {
		return DiffContext{}, err
	}

	diffText, err := vcs.DiffText(ctx, root, diffRange)
	if err != nil {
		return DiffContext{}, err
	}

	_, head := vcs.SplitRange(diffRange)
	registry := fragment.NewDefaultRegistry()

	changedFrags := fragmentPaths(ctx, root, head, changedFiles, registry, &o)

	if o.Full {
		fragment.SortFragments(changedFrags)
		result := render.Render(root, changedFrags, o.NoContent)
		recordBuildMetrics(ctx, result.FragmentCount, true, time.Since(start).Seconds())
		return result, nil
	}

	builders := graphedges.DefaultBuilders()
	uni := universe.Expand(ctx, root, changedFiles, diffText, builders)
	extraPaths := filterIgnored(uni.Files(), o.ShouldIgnore)
	extraFrags := fragmentPaths(ctx, root, head, extraPaths, registry, &o)

	allFrags := make([]*fragment.Fragment, 0, len(changedFrags)+len(extraFrags))
	allFrags = append(allFrags, changedFrags...)
	allFrags = append(allFrags, extraFrags...)

	byCategory := graphedges.Build(ctx, root, allFrags, builders)
	graph := depgraph.Build(ctx, allFrags, byCategory)

	core := selector.CoreSet(allFrags, hunks)
	seeds := make([]fragment.FragmentId, 0, len(core))
	for _, f := range core {
		seeds = append(seeds, f.ID)
	}

	pprOpts := pagerank.DefaultOptions()
	pprOpts.Alpha = o.Alpha
	pprResult := pagerank.Compute(ctx, graph, seeds, pprOpts)
	if !pprResult.Converged {
		o.Logger.Warn("diffcontext: PPR did not converge within max iterations, using best-so-far scores",
			"iterations", pprResult.Iterations)
	}

	concepts := concept.ConceptsFromDiffText(diffText)

	selResult := selector.Select(ctx, allFrags, hunks, pprResult.Scores, concepts, o.BudgetTokens, o.Tau)
	o.Logger.Debug("diffcontext: selection complete",
		"selected", len(selResult.Selected), "termination_reason", selResult.Reason)

	result := render.Render(root, selResult.Selected, o.NoContent)
	recordBuildMetrics(ctx, result.FragmentCount, false, time.Since(start).Seconds())
	return result, nil
}

// filterIgnored drops every path the ignore-rule collaborator rejects.
func filterIgnored(paths []string, shouldIgnore IgnoreFunc) []string {
	if shouldIgnore == nil {
		return paths
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !shouldIgnore(p) {
			out = append(out, p)
		}
	}
	return out
}

// fragmentPaths reads and fragments every path, skipping ignored, binary,
// unreadable, or empty files without failing the build (§7 IoError). Each
// resulting fragment's TokenCount is filled in via the configured token
// counter, the one quantity the fragmenter strategies don't compute
// themselves.
func fragmentPaths(ctx context.Context, root, head string, paths []string, registry *fragment.Registry, o *BuildOptions) []*fragment.Fragment {
	var out []*fragment.Fragment
	for _, relPath := range paths {
		if o.ShouldIgnore(relPath) {
			continue
		}
		content, ok := readFileContent(ctx, root, head, relPath)
		if !ok || content == "" || looksBinary(relPath, content) {
			continue
		}
		frags, err := registry.FragmentFile(ctx, relPath, content)
		if err != nil {
			o.Logger.Debug("diffcontext: fragmentation failed, skipping file", "path", relPath, "error", err)
			continue
		}
		for _, f := range frags {
			count, _, _ := o.CountTokens(f.Content)
			f.TokenCount = count
			out = append(out, f)
		}
	}
	return out
}

// readFileContent resolves a file's content at head if a head revision was
// named, falling back to the working tree on any failure (§4.1).
func readFileContent(ctx context.Context, root, head, relPath string) (string, bool) {
	if head != "" {
		if content, err := vcs.FileAtRevision(ctx, root, head, relPath); err == nil {
			return content, true
		}
	}
	data, err := os.ReadFile(filepath.Join(root, relPath))
	if err != nil {
		return "", false
	}
	return string(data), true
}

var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".pdf": true, ".zip": true, ".gz": true, ".tar": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true,
	".class": true, ".jar": true, ".woff": true, ".woff2": true, ".ttf": true,
	".eot": true, ".mp3": true, ".mp4": true, ".mov": true, ".avi": true,
}

// looksBinary applies the spec's two binary-detection rules (§8): a known
// binary extension, or a null byte in the first 8KB of content.
func looksBinary(path, content string) bool {
	if binaryExtensions[strings.ToLower(filepath.Ext(path))] {
		return true
	}
	limit := len(content)
	if limit > 8192 {
		limit = 8192
	}
	for i := 0; i < limit; i++ {
		if content[i] == 0 {
			return true
		}
	}
	return false
}
