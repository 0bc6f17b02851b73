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

var semanticTags = []string{"section", "article", "main", "div", "p", "h1", "h2", "h3", "h4", "h5", "h6"}

var htmlOpenTagRe = regexp.MustCompile(`(?i)<(` + strings.Join(semanticTags, "|") + `)\b[^>]*>`)

// HTMLStrategy splits an HTML document along its semantic sectioning tags.
// It keeps a stack of open tags and emits one fragment for every element
// whose close tag matches the innermost open tag, so nested elements get
// fragments of their own alongside their parents; an element closed out of
// order is dropped without a fragment.
type HTMLStrategy struct{}

func NewHTMLStrategy() *HTMLStrategy { return &HTMLStrategy{} }

func (s *HTMLStrategy) Name() string { return "html" }

func (s *HTMLStrategy) Matches(path string) bool {
	switch extOf(path) {
	case ".html", ".htm":
		return true
	}
	return false
}

func (s *HTMLStrategy) Fragment(path, content string) ([]*Fragment, error) {
	lines := splitLines(content)
	var frags []*Fragment

	type openTag struct {
		tag   string
		start int
	}
	var stack []openTag

	closeRe := regexp.MustCompile(`(?i)</(\w+)\s*>`)

	for i, line := range lines {
		lineNum := i + 1
		for _, m := range htmlOpenTagRe.FindAllStringSubmatch(line, -1) {
			stack = append(stack, openTag{tag: strings.ToLower(m[1]), start: lineNum})
		}
		for _, m := range closeRe.FindAllStringSubmatch(line, -1) {
			tag := strings.ToLower(m[1])
			for j := len(stack) - 1; j >= 0; j-- {
				if stack[j].tag == tag {
					if j == len(stack)-1 {
						open := stack[j]
						frags = append(frags, newFragment(path, KindBlock, open.start, lineNum,
							joinRange(lines, open.start, lineNum), open.tag))
					}
					stack = append(stack[:j], stack[j+1:]...)
					break
				}
			}
		}
	}
	return frags, nil
}
