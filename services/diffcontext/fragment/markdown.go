// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fragment

import "regexp"

var mdHeadingRe = regexp.MustCompile(`^(#{1,6})\s+(\S.*)$`)

// MarkdownStrategy splits a Markdown document into sections delimited by
// ATX headings (# through ######). Content before the first heading, if
// any, becomes a section of its own so front matter and intro paragraphs
// aren't lost.
type MarkdownStrategy struct{}

func NewMarkdownStrategy() *MarkdownStrategy { return &MarkdownStrategy{} }

func (s *MarkdownStrategy) Name() string { return "markdown" }

func (s *MarkdownStrategy) Matches(path string) bool {
	switch extOf(path) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func (s *MarkdownStrategy) Fragment(path, content string) ([]*Fragment, error) {
	lines := splitLines(content)
	if len(lines) == 0 {
		return nil, nil
	}

	type heading struct {
		line  int
		level int
		title string
	}
	var headings []heading
	for i, line := range lines {
		if m := mdHeadingRe.FindStringSubmatch(line); m != nil {
			headings = append(headings, heading{line: i + 1, level: len(m[1]), title: m[2]})
		}
	}
	if len(headings) == 0 {
		return nil, nil
	}

	var frags []*Fragment
	if headings[0].line > 1 {
		frags = append(frags, newFragment(path, KindSection, 1, headings[0].line-1, joinRange(lines, 1, headings[0].line-1), ""))
	}
	// Each heading starts a section running until the next heading whose
	// level is equal or shallower, so a "##" nests inside the preceding "#"
	// instead of closing it.
	for i, h := range headings {
		end := len(lines)
		for _, next := range headings[i+1:] {
			if next.level <= h.level {
				end = next.line - 1
				break
			}
		}
		frags = append(frags, newFragment(path, KindSection, h.line, end, joinRange(lines, h.line, end), h.title))
	}
	return frags, nil
}
