// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package selector

import (
	"sort"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

// FindCoreForHunk picks the fragment(s) a single diff hunk anchors to:
//
//  1. Among the fragments that fully contain the hunk's selection range, a
//     semantic fragment (function, class, ...) ahead of any generic block,
//     whatever their sizes, and the smallest by line count within that
//     preference.
//  2. If none contains it, every fragment overlapping the range at all.
//  3. Failing that, the nearest fragment ending before the range and the
//     nearest fragment starting after it.
func FindCoreForHunk(frags []*fragment.Fragment, hunk fragment.DiffHunk) []*fragment.Fragment {
	start, end := hunk.CoreSelectionRange()
	want := lineRange{start: start, end: end}

	var inFile []*fragment.Fragment
	for _, f := range frags {
		if f.Path() == hunk.Path {
			inFile = append(inFile, f)
		}
	}

	var containing []*fragment.Fragment
	for _, f := range inFile {
		if rangeOf(f).contains(want) {
			containing = append(containing, f)
		}
	}
	if len(containing) > 0 {
		sort.Slice(containing, func(i, j int) bool {
			pi, pj := fragment.KindPriority(containing[i].Kind), fragment.KindPriority(containing[j].Kind)
			if pi != pj {
				return pi < pj
			}
			return containing[i].LineCount() < containing[j].LineCount()
		})
		return containing[:1]
	}

	var overlapping []*fragment.Fragment
	for _, f := range inFile {
		if rangeOf(f).overlaps(want) {
			overlapping = append(overlapping, f)
		}
	}
	if len(overlapping) > 0 {
		return overlapping
	}

	var before, after *fragment.Fragment
	for _, f := range inFile {
		if f.EndLine() < start {
			if before == nil || f.EndLine() > before.EndLine() {
				before = f
			}
		}
		if f.StartLine() > end {
			if after == nil || f.StartLine() < after.StartLine() {
				after = f
			}
		}
	}
	var out []*fragment.Fragment
	if before != nil {
		out = append(out, before)
	}
	if after != nil {
		out = append(out, after)
	}
	return out
}

// CoreSet collects the deduplicated union of FindCoreForHunk's result over
// every hunk in the diff, keyed by fragment id so the same fragment
// anchoring two hunks only appears once.
func CoreSet(frags []*fragment.Fragment, hunks []fragment.DiffHunk) []*fragment.Fragment {
	seen := make(map[fragment.FragmentId]*fragment.Fragment)
	for _, h := range hunks {
		for _, f := range FindCoreForHunk(frags, h) {
			seen[f.ID] = f
		}
	}
	out := make([]*fragment.Fragment, 0, len(seen))
	for _, f := range seen {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TokenCount != out[j].TokenCount {
			return out[i].TokenCount < out[j].TokenCount
		}
		if out[i].LineCount() != out[j].LineCount() {
			return out[i].LineCount() < out[j].LineCount()
		}
		return out[i].StartLine() < out[j].StartLine()
	})
	return out
}
