// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fragment

import (
	"context"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// declRule maps a tree-sitter grammar node type name to the Kind it
// should produce. Each language walks its own
// grammar's top-level declaration nodes; nested declarations (methods
// inside a class, for instance) are picked up by recursing into the
// matched node's children so a class and its methods both become
// fragments, matching the containment relationship the structural edge
// builder expects to find later.
type declRule struct {
	nodeType string
	kind     Kind
}

var goDecls = []declRule{
	{"function_declaration", KindFunction},
	{"method_declaration", KindFunction},
	{"type_declaration", KindType},
	{"var_declaration", KindDeclaration},
	{"const_declaration", KindDeclaration},
}

var pythonDecls = []declRule{
	{"function_definition", KindFunction},
	{"class_definition", KindClass},
}

var tsDecls = []declRule{
	{"function_declaration", KindFunction},
	{"class_declaration", KindClass},
	{"interface_declaration", KindInterface},
	{"method_definition", KindFunction},
	{"enum_declaration", KindEnum},
	{"type_alias_declaration", KindRecord},
	{"lexical_declaration", KindDeclaration},
	{"variable_declaration", KindDeclaration},
}

// TreeSitterStrategy fragments source files along syntax-tree boundaries
// using per-call parser instances, matching ast.GoParser's approach to
// thread safety: tree-sitter parsers are not safe to share across
// goroutines, so a fresh *sitter.Parser is created for every file instead
// of pooling one.
type TreeSitterStrategy struct {
	maxFileSize int
	timeout     time.Duration
}

func NewTreeSitterStrategy() *TreeSitterStrategy {
	return &TreeSitterStrategy{maxFileSize: 2 << 20, timeout: 5 * time.Second}
}

func (s *TreeSitterStrategy) Name() string { return "tree_sitter" }

func (s *TreeSitterStrategy) Matches(path string) bool {
	switch extOf(path) {
	case ".go", ".py", ".pyi", ".ts", ".tsx", ".mts":
		return true
	}
	return false
}

func (s *TreeSitterStrategy) langFor(path string) (*sitter.Language, []declRule) {
	switch extOf(path) {
	case ".go":
		return golang.GetLanguage(), goDecls
	case ".py", ".pyi":
		return python.GetLanguage(), pythonDecls
	case ".tsx":
		return tsx.GetLanguage(), tsDecls
	default:
		return typescript.GetLanguage(), tsDecls
	}
}

func (s *TreeSitterStrategy) Fragment(path, content string) ([]*Fragment, error) {
	if len(content) > s.maxFileSize {
		return nil, ErrFileTooLarge
	}

	lang, decls := s.langFor(path)
	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	src := []byte(content)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	root := tree.RootNode()
	if root.HasError() {
		// A syntax error doesn't make the tree useless, but it means our
		// declaration walk may miss or misplace spans; fall through to the
		// next strategy rather than emit fragments we can't trust.
		return nil, nil
	}

	declTypes := make(map[string]Kind, len(decls))
	for _, d := range decls {
		declTypes[d.nodeType] = d.kind
	}

	lines := splitLines(content)
	var frags []*Fragment
	var covered [][2]int
	seen := make(map[Kind]map[int]bool)

	// addOnce records (kind, end) and reports whether it was new, matching
	// _extract_definitions's added_ends guard: a decorated_definition and
	// the inner definition it wraps share an end line, so the inner one is
	// swallowed here instead of producing a duplicate fragment.
	addOnce := func(kind Kind, end int) bool {
		ends := seen[kind]
		if ends == nil {
			ends = make(map[int]bool)
			seen[kind] = ends
		}
		if ends[end] {
			return false
		}
		ends[end] = true
		return true
	}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		childCount := int(n.ChildCount())

		kind, ok := declTypes[n.Type()]
		if !ok && n.Type() == "decorated_definition" {
			kind, ok = decoratedKind(n)
		}
		if ok {
			// A decorated_definition node's own span already starts at its
			// first decorator line, so start needs no adjustment here.
			start := int(n.StartPoint().Row) + 1
			end := int(n.EndPoint().Row) + 1
			if addOnce(kind, end) {
				name := symbolNameOf(n, src)
				frags = append(frags, newFragment(path, kind, start, end, joinRange(lines, start, end), name))
				covered = append(covered, [2]int{start, end})
			}
		}

		for i := 0; i < childCount; i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	frags = append(frags, gapFragments(path, lines, covered)...)

	return frags, nil
}

// decoratedKind reports the fragment Kind for a Python decorated_definition
// node by inspecting which definition it wraps, matching
// _decorated_definition_kind's function/class lookup.
func decoratedKind(n *sitter.Node) (Kind, bool) {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		switch n.Child(i).Type() {
		case "function_definition", "async_function_definition":
			return KindFunction, true
		case "class_definition":
			return KindClass, true
		}
	}
	return KindFunction, true
}

// gapFragments fills every line range the declaration walk didn't claim with
// a KindChunk fragment, matching create_code_gap_fragments: lines are
// grouped into maximal uncovered runs, trimmed of leading/trailing blank
// lines, and dropped entirely if nothing but blank lines remains.
func gapFragments(path string, lines []string, covered [][2]int) []*Fragment {
	if len(lines) == 0 {
		return nil
	}

	coveredSet := make(map[int]bool)
	for _, c := range covered {
		for ln := c[0]; ln <= c[1]; ln++ {
			coveredSet[ln] = true
		}
	}

	var gaps [][2]int
	gapStart, gapEnd := 0, 0
	inGap := false
	for ln := 1; ln <= len(lines); ln++ {
		if coveredSet[ln] {
			if inGap {
				gaps = append(gaps, [2]int{gapStart, gapEnd})
				inGap = false
			}
			continue
		}
		if !inGap {
			gapStart = ln
			inGap = true
		}
		gapEnd = ln
	}
	if inGap {
		gaps = append(gaps, [2]int{gapStart, gapEnd})
	}

	var frags []*Fragment
	for _, g := range gaps {
		start, end := g[0], g[1]
		for start <= end && strings.TrimSpace(lines[start-1]) == "" {
			start++
		}
		for end >= start && strings.TrimSpace(lines[end-1]) == "" {
			end--
		}
		if start > end {
			continue
		}
		snippet := joinRange(lines, start, end)
		if strings.TrimSpace(snippet) == "" {
			continue
		}
		frags = append(frags, newFragment(path, KindChunk, start, end, snippet, ""))
	}
	return frags
}

// symbolNameOf looks for a direct child field tree-sitter grammars commonly
// name "name" or "identifier"; if none is found the declaration still gets
// a fragment, just without a SymbolName (test-edge naming and render's
// symbol extraction both treat that as acceptable).
func symbolNameOf(n *sitter.Node, src []byte) string {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return nameNode.Content(src)
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c.Type() == "identifier" || c.Type() == "type_identifier" || c.Type() == "property_identifier" {
			return c.Content(src)
		}
	}
	return ""
}
