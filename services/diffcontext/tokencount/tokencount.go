// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tokencount estimates a fragment's token cost for the lazy-greedy
// selector, the one collaborator contract the spec names explicitly (§6):
// Count returns (count, isExact, encoding). It wraps pkoukk/tiktoken-go
// exactly the way services/code_buddy/context/pinned.go's doc comment
// anticipates ("Use this to integrate with tiktoken or model-specific
// counters"), with a process-local lazily-initialized codec instead of a
// per-call one since BPE table construction is comparatively expensive.
package tokencount

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/nikolay-e/treemapper-sub002/pkg/logging"
)

// Encoding is the tiktoken encoding the counter uses.
const Encoding = "cl100k_base"

// sampleThreshold is the content length above which Count samples a prefix
// instead of encoding the whole string, matching the collaborator
// contract's "large inputs may sample" clause.
const sampleThreshold = 50_000
const sampleSize = 20_000

var (
	once    sync.Once
	encoder *tiktoken.Tiktoken
	initErr error
)

func codec() (*tiktoken.Tiktoken, error) {
	once.Do(func() {
		encoder, initErr = tiktoken.GetEncoding(Encoding)
		if initErr != nil {
			logging.Default().Warn("tokencount: failed to load tiktoken encoding, falling back to heuristic", "error", initErr)
		}
	})
	return encoder, initErr
}

// Count returns an estimated token count for text, whether the count is
// exact (false when text was sampled or the BPE codec was unavailable),
// and the encoding name used.
func Count(text string) (count int, isExact bool, encoding string) {
	if text == "" {
		return 0, true, Encoding
	}

	enc, err := codec()
	if err != nil {
		return heuristicCount(text), false, "heuristic"
	}

	if len(text) <= sampleThreshold {
		return len(enc.Encode(text, nil, nil)), true, Encoding
	}

	sample := text[:sampleSize]
	sampleTokens := len(enc.Encode(sample, nil, nil))
	ratio := float64(sampleTokens) / float64(len(sample))
	return int(ratio * float64(len(text))), false, Encoding
}

// heuristicCount approximates tokens as roughly one per four characters,
// the common rule of thumb for BPE encodings over English-ish text, used
// only if the tiktoken codec failed to load.
func heuristicCount(text string) int {
	n := len(text) / 4
	if n == 0 && text != "" {
		n = 1
	}
	return n
}
