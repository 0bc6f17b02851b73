// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graphedges

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

// languageProfile describes one "per-language family" semantic builder: a
// regex-based import/call/type-ref extractor, the weights the spec assigns
// to that family's edges, and whether the family is statically typed
// (typed languages weight type-refs higher than dynamic ones, per §4.3).
type languageProfile struct {
	name          string
	extensions    []string
	importRe      *regexp.Regexp // capture group 1 is the imported module/path/name
	callRe        *regexp.Regexp // capture group 1 is the called name
	typeRefRe     *regexp.Regexp // capture group 1 is the referenced type name
	typed         bool
	callWeight    float64
	typeWeight    float64
	refWeight     float64
	reverseFactor float64
	samePkgWeight float64
}

func (p languageProfile) matches(path string) bool {
	ext := extOf(path)
	for _, e := range p.extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// languageProfiles covers the eleven families §4.3 names. Each regex is
// deliberately forgiving (it trades false positives for simplicity, same
// tradeoff services/code_buddy/ast's regex-fallback parsers make when no
// tree-sitter grammar is wired for a language) since edge weights, not
// parse precision, are what downstream PPR and selection consume.
var languageProfiles = []languageProfile{
	{
		name:          "python",
		extensions:    []string{".py"},
		importRe:      regexp.MustCompile(`(?m)^\s*(?:from\s+([.\w]+)\s+import|import\s+([.\w]+))`),
		callRe:        regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`),
		typeRefRe:     regexp.MustCompile(`:\s*([A-Z]\w*)\b`),
		typed:         false,
		callWeight:    0.60, typeWeight: 0.35, refWeight: 0.25, reverseFactor: 0.5, samePkgWeight: 0.12,
	},
	{
		name:          "javascript",
		extensions:    []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"},
		importRe:      regexp.MustCompile(`(?m)(?:import\s+.*?\s+from\s+['"]([^'"]+)['"]|require\(\s*['"]([^'"]+)['"]\s*\))`),
		callRe:        regexp.MustCompile(`\b([A-Za-z_$]\w*)\s*\(`),
		typeRefRe:     regexp.MustCompile(`:\s*([A-Z]\w*)\b`),
		typed:         true,
		callWeight:    0.60, typeWeight: 0.55, refWeight: 0.25, reverseFactor: 0.5, samePkgWeight: 0.12,
	},
	{
		name:          "go",
		extensions:    []string{".go"},
		importRe:      regexp.MustCompile(`(?m)^\s*(?:_\s+)?"([\w./-]+)"`),
		callRe:        regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`),
		typeRefRe:     regexp.MustCompile(`\b([A-Z]\w*)\s*{`),
		typed:         true,
		callWeight:    0.60, typeWeight: 0.60, refWeight: 0.25, reverseFactor: 0.5, samePkgWeight: 0.15,
	},
	{
		name:          "rust",
		extensions:    []string{".rs"},
		importRe:      regexp.MustCompile(`(?m)^\s*use\s+([\w:]+)`),
		callRe:        regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`),
		typeRefRe:     regexp.MustCompile(`:\s*&?([A-Z]\w*)\b`),
		typed:         true,
		callWeight:    0.60, typeWeight: 0.60, refWeight: 0.25, reverseFactor: 0.5, samePkgWeight: 0.15,
	},
	{
		name:          "jvm",
		extensions:    []string{".java", ".kt", ".scala"},
		importRe:      regexp.MustCompile(`(?m)^\s*import\s+([\w.]+)`),
		callRe:        regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`),
		typeRefRe:     regexp.MustCompile(`:\s*([A-Z]\w*)\b|\bnew\s+([A-Z]\w*)\b`),
		typed:         true,
		callWeight:    0.60, typeWeight: 0.60, refWeight: 0.25, reverseFactor: 0.5, samePkgWeight: 0.12,
	},
	{
		name:          "c_cpp",
		extensions:    []string{".c", ".h", ".cc", ".cpp", ".hpp", ".cxx"},
		importRe:      regexp.MustCompile(`(?m)^\s*#include\s*[<"]([^>"]+)[>"]`),
		callRe:        regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`),
		typeRefRe:     regexp.MustCompile(`\b(?:struct|class)\s+([A-Za-z_]\w*)`),
		typed:         true,
		callWeight:    0.55, typeWeight: 0.55, refWeight: 0.25, reverseFactor: 0.5, samePkgWeight: 0.12,
	},
	{
		name:          "dotnet",
		extensions:    []string{".cs", ".fs"},
		importRe:      regexp.MustCompile(`(?m)^\s*(?:using|open)\s+([\w.]+)`),
		callRe:        regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`),
		typeRefRe:     regexp.MustCompile(`:\s*([A-Z]\w*)\b|\bnew\s+([A-Z]\w*)\b`),
		typed:         true,
		callWeight:    0.60, typeWeight: 0.60, refWeight: 0.25, reverseFactor: 0.5, samePkgWeight: 0.12,
	},
	{
		name:          "ruby",
		extensions:    []string{".rb"},
		importRe:      regexp.MustCompile(`(?m)^\s*require(?:_relative)?\s+['"]([^'"]+)['"]`),
		callRe:        regexp.MustCompile(`\b([A-Za-z_]\w*[?!]?)\s*\(`),
		typed:         false,
		callWeight:    0.55, typeWeight: 0, refWeight: 0.25, reverseFactor: 0.5, samePkgWeight: 0.12,
	},
	{
		name:          "php",
		extensions:    []string{".php"},
		importRe:      regexp.MustCompile(`(?m)(?:require|include)(?:_once)?\s*\(?\s*['"]([^'"]+)['"]|use\s+([\w\\]+)\s*;`),
		callRe:        regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`),
		typeRefRe:     regexp.MustCompile(`:\s*\??([A-Z]\w*)\b`),
		typed:         true,
		callWeight:    0.55, typeWeight: 0.45, refWeight: 0.25, reverseFactor: 0.5, samePkgWeight: 0.12,
	},
	{
		name:          "swift",
		extensions:    []string{".swift"},
		importRe:      regexp.MustCompile(`(?m)^\s*import\s+([\w.]+)`),
		callRe:        regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`),
		typeRefRe:     regexp.MustCompile(`:\s*([A-Z]\w*)\b`),
		typed:         true,
		callWeight:    0.60, typeWeight: 0.55, refWeight: 0.25, reverseFactor: 0.5, samePkgWeight: 0.12,
	},
	{
		name:          "shell",
		extensions:    []string{".sh", ".bash", ".zsh"},
		importRe:      regexp.MustCompile(`(?m)^\s*(?:source|\.)\s+['"]?([\w./-]+)`),
		callRe:        regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(\s*\)`),
		typed:         false,
		callWeight:    0.45, typeWeight: 0, refWeight: 0.20, reverseFactor: 0.5, samePkgWeight: 0.10,
	},
}

// semanticBuilder is the generic engine every languageProfile plugs into:
// extract imports/defines/references per file, then link a referencing
// fragment to the fragment(s) that define what it references.
type semanticBuilder struct {
	profile languageProfile
}

func newSemanticBuilder(p languageProfile) *semanticBuilder {
	return &semanticBuilder{profile: p}
}

func (b *semanticBuilder) Name() string        { return "semantic:" + b.profile.name }
func (b *semanticBuilder) Category() Category   { return CategorySemantic }

func (b *semanticBuilder) BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error) {
	_, span := tracer.Start(ctx, "graphedges."+b.Name())
	defer span.End()

	edges := make(EdgeMap)
	files := byFile(frags)

	var relevant []*fragment.Fragment
	for _, f := range frags {
		if b.profile.matches(f.Path()) {
			relevant = append(relevant, f)
		}
	}
	if len(relevant) == 0 {
		return edges, nil
	}

	// definers: lowercase symbol name -> fragments that define it.
	definers := make(map[string][]*fragment.Fragment)
	for _, f := range relevant {
		if f.SymbolName != "" {
			name := strings.ToLower(f.SymbolName)
			definers[name] = append(definers[name], f)
		}
	}

	for _, f := range relevant {
		calls := extractNames(b.profile.callRe, f.Content)
		var typeRefs map[string]struct{}
		if b.profile.typeRefRe != nil {
			typeRefs = extractNames(b.profile.typeRefRe, f.Content)
		}

		for name, targets := range definers {
			for _, target := range targets {
				if target.ID == f.ID {
					continue
				}
				if _, isCall := calls[name]; isCall {
					edges.Add(f.ID, target.ID, b.profile.callWeight)
					edges.Add(target.ID, f.ID, b.profile.callWeight*b.profile.reverseFactor)
					continue
				}
				if b.profile.typed {
					if _, isType := typeRefs[name]; isType {
						edges.Add(f.ID, target.ID, b.profile.typeWeight)
						edges.Add(target.ID, f.ID, b.profile.typeWeight*b.profile.reverseFactor)
						continue
					}
				}
				if f.HasIdentifier(name) {
					edges.Add(f.ID, target.ID, b.profile.refWeight)
					edges.Add(target.ID, f.ID, b.profile.refWeight*b.profile.reverseFactor)
				}
			}
		}
	}

	// same-package/same-module: fragments in the same directory, low weight,
	// only between distinct files so it doesn't duplicate containment edges.
	dirs := make(map[string][]string)
	for path := range files {
		if !b.profile.matches(path) {
			continue
		}
		dirs[filepath.Dir(path)] = append(dirs[filepath.Dir(path)], path)
	}
	for _, paths := range dirs {
		if len(paths) < 2 {
			continue
		}
		for i := range paths {
			for j := range paths {
				if i == j {
					continue
				}
				for _, a := range files[paths[i]] {
					for _, c := range files[paths[j]] {
						edges.Add(a.ID, c.ID, b.profile.samePkgWeight)
					}
				}
			}
		}
	}

	recordEdges(ctx, b.Name(), len(edges))
	return edges, nil
}

func extractNames(re *regexp.Regexp, content string) map[string]struct{} {
	out := make(map[string]struct{})
	if re == nil {
		return out
	}
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		for _, g := range m[1:] {
			if g != "" {
				out[strings.ToLower(g)] = struct{}{}
			}
		}
	}
	return out
}

// DiscoverRelatedFiles widens the universe (§4.6.1) by finding, for each
// changed file this family recognizes, the files that either define a
// module it imports or import a module it defines. It reads working-tree
// content directly rather than relying on fragments, since discovery runs
// before the candidate set (and hence fragmentation) is finalized.
func (b *semanticBuilder) DiscoverRelatedFiles(ctx context.Context, root string, changedFiles, allFiles []string) ([]string, error) {
	imported := make(map[string]struct{})
	changedBases := make(map[string]struct{})
	for _, path := range changedFiles {
		if !b.profile.matches(path) {
			continue
		}
		changedBases[strings.ToLower(baseNoExt(path))] = struct{}{}
		content, err := os.ReadFile(filepath.Join(root, path))
		if err != nil {
			continue
		}
		for name := range extractNames(b.profile.importRe, string(content)) {
			imported[lastComponent(name)] = struct{}{}
		}
	}
	if len(imported) == 0 && len(changedBases) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var out []string
	const scanCap = 1500
	scanned := 0
	for _, f := range allFiles {
		if !b.profile.matches(f) {
			continue
		}
		base := strings.ToLower(baseNoExt(f))
		if _, already := changedBases[base]; already {
			continue
		}
		// Files that define what a changed file imports.
		if _, ok := imported[base]; ok {
			if _, dup := seen[f]; !dup {
				seen[f] = struct{}{}
				out = append(out, f)
			}
			continue
		}
		// Files that import what changed: bounded content scan.
		if scanned >= scanCap {
			continue
		}
		scanned++
		content, err := os.ReadFile(filepath.Join(root, f))
		if err != nil {
			continue
		}
		for name := range extractNames(b.profile.importRe, string(content)) {
			if _, wasChanged := changedBases[lastComponent(name)]; wasChanged {
				if _, dup := seen[f]; !dup {
					seen[f] = struct{}{}
					out = append(out, f)
				}
				break
			}
		}
	}
	return out, nil
}

func lastComponent(modulePath string) string {
	modulePath = strings.ReplaceAll(modulePath, "\\", "/")
	modulePath = strings.ReplaceAll(modulePath, "::", "/")
	modulePath = strings.ReplaceAll(modulePath, ".", "/")
	parts := strings.Split(modulePath, "/")
	return parts[len(parts)-1]
}
