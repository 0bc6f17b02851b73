// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fragment

import (
	"regexp"
	"strings"
)

// ParagraphStrategy splits plain text on blank lines. It is registered
// after the sentence strategy, so it only sees files that strategy
// declined; it declines (returns nil) on single-paragraph files, leaving
// them to the line-window fallback.
type ParagraphStrategy struct{}

func NewParagraphStrategy() *ParagraphStrategy { return &ParagraphStrategy{} }

func (s *ParagraphStrategy) Name() string { return "paragraph" }

func (s *ParagraphStrategy) Matches(path string) bool {
	switch extOf(path) {
	case ".txt", ".rst", ".adoc":
		return true
	}
	return false
}

func (s *ParagraphStrategy) Fragment(path, content string) ([]*Fragment, error) {
	lines := splitLines(content)
	var frags []*Fragment
	start := -1
	for i, line := range lines {
		blank := strings.TrimSpace(line) == ""
		if !blank && start == -1 {
			start = i + 1
		}
		if blank && start != -1 {
			frags = append(frags, newFragment(path, KindParagraph, start, i, joinRange(lines, start, i), ""))
			start = -1
		}
	}
	if start != -1 {
		frags = append(frags, newFragment(path, KindParagraph, start, len(lines), joinRange(lines, start, len(lines)), ""))
	}
	if len(frags) < 2 {
		return nil, nil
	}
	return frags, nil
}

var sentenceBoundaryRe = regexp.MustCompile(`[.!?](\s|$)`)

// SentenceStrategy groups runs of sentenceGroupSize sentence-ending lines
// into a fragment. It is registered ahead of the paragraph strategy and
// handles every prose file of two or more lines.
type SentenceStrategy struct {
	sentenceGroupSize int
}

func NewSentenceStrategy() *SentenceStrategy { return &SentenceStrategy{sentenceGroupSize: 5} }

func (s *SentenceStrategy) Name() string { return "sentence" }

func (s *SentenceStrategy) Matches(path string) bool {
	switch extOf(path) {
	case ".txt", ".rst", ".adoc":
		return true
	}
	return false
}

func (s *SentenceStrategy) Fragment(path, content string) ([]*Fragment, error) {
	lines := splitLines(content)
	if len(lines) < 2 {
		return nil, nil
	}

	var sentenceEndLines []int
	for i, line := range lines {
		if sentenceBoundaryRe.MatchString(line) || i == len(lines)-1 {
			sentenceEndLines = append(sentenceEndLines, i+1)
		}
	}
	if len(sentenceEndLines) == 0 {
		return nil, nil
	}

	var frags []*Fragment
	start := 1
	count := 0
	for _, end := range sentenceEndLines {
		count++
		if count >= s.sentenceGroupSize || end == len(lines) {
			frags = append(frags, newFragment(path, KindParagraph, start, end, joinRange(lines, start, end), ""))
			start = end + 1
			count = 0
		}
	}
	return frags, nil
}

// LineWindowStrategy is the fallback every file eventually reaches: a flat
// split into fixed-size, non-overlapping line windows. It never declines,
// guaranteeing the registry always has fragments to return.
type LineWindowStrategy struct {
	windowSize int
}

func NewLineWindowStrategy(windowSize int) *LineWindowStrategy {
	if windowSize <= 0 {
		windowSize = 200
	}
	return &LineWindowStrategy{windowSize: windowSize}
}

func (s *LineWindowStrategy) Name() string       { return "line_window" }
func (s *LineWindowStrategy) Matches(string) bool { return true }

func (s *LineWindowStrategy) Fragment(path, content string) ([]*Fragment, error) {
	lines := splitLines(content)
	if len(lines) == 0 {
		return nil, nil
	}
	var frags []*Fragment
	for start := 1; start <= len(lines); start += s.windowSize {
		end := start + s.windowSize - 1
		if end > len(lines) {
			end = len(lines)
		}
		frags = append(frags, newFragment(path, KindChunk, start, end, joinRange(lines, start, end), ""))
	}
	return frags, nil
}
