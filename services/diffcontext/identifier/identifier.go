// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package identifier extracts lowercase identifier multisets from fragment
// and diff content. It is the shared vocabulary every concept-matching and
// lexical-similarity computation in the pipeline is built on.
package identifier

import (
	_ "embed"
	"regexp"
	"strings"
)

var identRe = regexp.MustCompile(`[A-Za-z_]\w*`)

// Profile selects the minimum identifier length and stopword set applied
// during extraction. "code" profiles are permissive (min length 2); "prose"
// profiles used for Markdown/plain-text fragments require longer tokens and
// filter common English words so headings don't flood the concept set.
type Profile string

const (
	ProfileCode  Profile = "code"
	ProfileProse Profile = "prose"
)

//go:embed stopwords_en.txt
var englishStopwordData string

var englishStopwords = loadStopwords(englishStopwordData)

func loadStopwords(data string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(data, "\n") {
		w := strings.TrimSpace(strings.ToLower(line))
		if w != "" && !strings.HasPrefix(w, "#") {
			set[w] = struct{}{}
		}
	}
	return set
}

// codeStopwords filters the handful of near-universal keywords and builtins
// that would otherwise dominate every concept set extracted from a diff.
var codeStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "this": {}, "that": {},
	"self": {}, "return": {}, "import": {}, "from": {}, "func": {}, "def": {},
	"class": {}, "type": {}, "var": {}, "let": {}, "const": {}, "true": {},
	"false": {}, "none": {}, "null": {}, "nil": {}, "error": {}, "err": {},
}

func minLen(p Profile) int {
	if p == ProfileProse {
		return 3
	}
	return 2
}

func stopwordsFor(p Profile) map[string]struct{} {
	if p == ProfileProse {
		return englishStopwords
	}
	return codeStopwords
}

// ProfileForPath chooses a profile from a file extension: Markdown, reST,
// and plain text get the prose profile, everything else gets the code
// profile.
func ProfileForPath(path string) Profile {
	lower := strings.ToLower(path)
	for _, suffix := range []string{".md", ".rst", ".txt", ".adoc"} {
		if strings.HasSuffix(lower, suffix) {
			return ProfileProse
		}
	}
	return ProfileCode
}

// Extract returns the deduplicated, lowercased identifier set in text. When
// skipStopwords is false every identifier at or above the profile's minimum
// length is kept, matching the permissive mode used to build fragment
// identifier sets (so later concept matching isn't blind to common words a
// diff might specifically be about).
func Extract(text string, profile Profile, skipStopwords bool) map[string]struct{} {
	raw := identRe.FindAllString(text, -1)
	min := minLen(profile)
	out := make(map[string]struct{}, len(raw))
	if skipStopwords {
		stop := stopwordsFor(profile)
		for _, id := range raw {
			if len(id) < min {
				continue
			}
			lower := strings.ToLower(id)
			if _, skip := stop[lower]; skip {
				continue
			}
			out[lower] = struct{}{}
		}
		return out
	}
	for _, id := range raw {
		if len(id) >= min {
			out[strings.ToLower(id)] = struct{}{}
		}
	}
	return out
}

// ExtractList is Extract's ordered counterpart, keeping every occurrence in
// order (a set would collapse repeats). The similarity builder does not use
// it; it works on each fragment's identifier set.
func ExtractList(text string, profile Profile, skipStopwords bool) []string {
	raw := identRe.FindAllString(text, -1)
	min := minLen(profile)
	stop := stopwordsFor(profile)
	out := make([]string, 0, len(raw))
	for _, id := range raw {
		if len(id) < min {
			continue
		}
		lower := strings.ToLower(id)
		if skipStopwords {
			if _, skip := stop[lower]; skip {
				continue
			}
		}
		out = append(out, lower)
	}
	return out
}
