// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package universe widens the selector's candidate set beyond the diff's
// changed files (§4.6), by two independent mechanisms: edge-driven related
// file discovery (each edge builder that knows how to do so) and a
// rare-identifier inverted index built by scanning a bounded sample of the
// repository. It repurposes the multi-map secondary-indexing idiom of
// services/code_buddy/index/symbol_index.go — a term maps to the set of
// documents containing it — for posting lists over file paths instead of
// symbol definitions.
package universe

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/nikolay-e/treemapper-sub002/pkg/logging"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/concept"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/graphedges"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/identifier"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/vcs"
)

const (
	// RareThreshold is the maximum posting-list size (_RARE_THRESHOLD in
	// the reference implementation) a concept's file list may have and
	// still count as "rare" enough to pull its files into the universe.
	RareThreshold = 6
	// MaxExpansionFiles caps how many new files rare-identifier expansion
	// may add (_MAX_EXPANSION_FILES).
	MaxExpansionFiles = 50
	// maxScanFiles bounds how many repository files the inverted index is
	// built over, so expansion stays cheap on a very large repository.
	maxScanFiles = 2000
	// minConceptLen is the minimum concept length eligible for rare-identifier
	// expansion; shorter concepts are too common to be informative.
	minConceptLen = 4
)

// Result is the set of additional candidate files universe expansion
// discovered, split by mechanism for observability; callers simply
// fragment the union of both.
type Result struct {
	RelatedFiles  []string
	ExpandedFiles []string
}

// Files returns the deduplicated, sorted union of both expansion mechanisms.
func (r Result) Files() []string {
	seen := make(map[string]struct{}, len(r.RelatedFiles)+len(r.ExpandedFiles))
	var out []string
	for _, list := range [][]string{r.RelatedFiles, r.ExpandedFiles} {
		for _, f := range list {
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// Expand runs both expansion mechanisms and returns their combined result.
// Neither mechanism can fail the overall build: a missing repository file
// listing, an unreadable candidate file, or a builder without discovery
// support simply contributes nothing (§7).
func Expand(ctx context.Context, root string, changedFiles []string, diffText string, builders []graphedges.Builder) Result {
	ctx, span := tracer.Start(ctx, "universe.Expand")
	defer span.End()

	allFiles, err := vcs.ListAllFiles(root)
	if err != nil {
		logging.Default().Debug("universe: failed to list repository files, skipping expansion", "error", err)
		return Result{}
	}

	excluded := toSet(changedFiles)
	related := discoverRelated(ctx, root, changedFiles, allFiles, builders, excluded)
	for _, r := range related {
		excluded[r] = struct{}{}
	}
	expanded := expandRareIdentifiers(ctx, diffText, root, allFiles, excluded)

	recordExpansionMetrics(ctx, len(related), len(expanded))
	return Result{RelatedFiles: related, ExpandedFiles: expanded}
}

func discoverRelated(ctx context.Context, root string, changedFiles, allFiles []string, builders []graphedges.Builder, excluded map[string]struct{}) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, b := range builders {
		discoverer, ok := b.(graphedges.RelatedFileDiscoverer)
		if !ok {
			continue
		}
		found, err := discoverer.DiscoverRelatedFiles(ctx, root, changedFiles, allFiles)
		if err != nil {
			continue
		}
		for _, f := range found {
			if _, already := excluded[f]; already {
				continue
			}
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

func expandRareIdentifiers(ctx context.Context, diffText, root string, allFiles []string, excluded map[string]struct{}) []string {
	concepts := concept.ConceptsFromDiffText(diffText)
	var wantedList []string
	for c := range concepts {
		if len(c) >= minConceptLen {
			wantedList = append(wantedList, c)
		}
	}
	sort.Strings(wantedList) // deterministic iteration for the fixed-cap add loop below
	if len(wantedList) == 0 {
		return nil
	}
	wanted := toSet(wantedList)

	scanFiles := allFiles
	if len(scanFiles) > maxScanFiles {
		scanFiles = scanFiles[:maxScanFiles]
	}

	postings := make(map[string][]string)
	for _, path := range scanFiles {
		if _, skip := excluded[path]; skip {
			continue
		}
		content, err := os.ReadFile(filepath.Join(root, path))
		if err != nil || looksBinary(content) {
			continue
		}
		ids := identifier.Extract(string(content), identifier.ProfileForPath(path), true)
		for term := range ids {
			if _, want := wanted[term]; want {
				postings[term] = append(postings[term], path)
			}
		}
	}

	added := make(map[string]struct{})
	var out []string
	for _, term := range wantedList {
		if len(out) >= MaxExpansionFiles {
			break
		}
		list := postings[term]
		if len(list) == 0 || len(list) > RareThreshold {
			continue
		}
		sort.Strings(list)
		for _, f := range list {
			if len(out) >= MaxExpansionFiles {
				break
			}
			if _, dup := added[f]; dup {
				continue
			}
			added[f] = struct{}{}
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

func toSet(files []string) map[string]struct{} {
	out := make(map[string]struct{}, len(files))
	for _, f := range files {
		out[f] = struct{}{}
	}
	return out
}

func looksBinary(content []byte) bool {
	limit := len(content)
	if limit > 8192 {
		limit = 8192
	}
	for _, b := range content[:limit] {
		if b == 0 {
			return true
		}
	}
	return false
}
