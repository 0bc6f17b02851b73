// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graphedges

import (
	"context"
	"regexp"
	"strings"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

func isMarkdown(path string) bool {
	ext := extOf(path)
	return ext == ".md" || ext == ".markdown" || ext == ".mdx"
}

var headingRe = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

func slugify(heading string) string {
	heading = strings.ToLower(strings.TrimSpace(heading))
	var b strings.Builder
	lastDash := false
	for _, r := range heading {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-' || r == '_':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// MarkdownHeadingBuilder links adjacent heading-delimited sections of the
// same Markdown file in document order, matching the spec's "document
// heading sequence" edge: a fragment and the fragment for the section that
// immediately follows it.
type MarkdownHeadingBuilder struct{}

func NewMarkdownHeadingBuilder() *MarkdownHeadingBuilder { return &MarkdownHeadingBuilder{} }

func (b *MarkdownHeadingBuilder) Name() string       { return "document:heading_sequence" }
func (b *MarkdownHeadingBuilder) Category() Category { return CategoryDocument }

const headingSequenceWeight = 0.30

func (b *MarkdownHeadingBuilder) BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error) {
	_, span := tracer.Start(ctx, "graphedges."+b.Name())
	defer span.End()

	edges := make(EdgeMap)
	for path, fs := range byFile(frags) {
		if !isMarkdown(path) {
			continue
		}
		var sections []*fragment.Fragment
		for _, f := range fs {
			if f.Kind == fragment.KindSection {
				sections = append(sections, f)
			}
		}
		for i := 0; i+1 < len(sections); i++ {
			edges.Add(sections[i].ID, sections[i+1].ID, headingSequenceWeight)
			edges.Add(sections[i+1].ID, sections[i].ID, headingSequenceWeight)
		}
	}
	recordEdges(ctx, b.Name(), len(edges))
	return edges, nil
}

// AnchorLinkBuilder links a `[text](#slug)` reference to the section
// fragment whose slugified heading matches slug.
type AnchorLinkBuilder struct{}

func NewAnchorLinkBuilder() *AnchorLinkBuilder { return &AnchorLinkBuilder{} }

func (b *AnchorLinkBuilder) Name() string       { return "document:anchor_link" }
func (b *AnchorLinkBuilder) Category() Category { return CategoryDocument }

const anchorLinkWeight = 0.55

var anchorLinkRe = regexp.MustCompile(`\[[^\]]*\]\(#([\w-]+)\)`)

func (b *AnchorLinkBuilder) BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error) {
	_, span := tracer.Start(ctx, "graphedges."+b.Name())
	defer span.End()

	edges := make(EdgeMap)
	for path, fs := range byFile(frags) {
		if !isMarkdown(path) {
			continue
		}
		slugTo := make(map[string]*fragment.Fragment)
		for _, f := range fs {
			if f.Kind != fragment.KindSection || f.SymbolName == "" {
				continue
			}
			slugTo[slugify(f.SymbolName)] = f
		}
		for _, f := range fs {
			for _, m := range anchorLinkRe.FindAllStringSubmatch(f.Content, -1) {
				target, ok := slugTo[m[1]]
				if !ok || target.ID == f.ID {
					continue
				}
				edges.Add(f.ID, target.ID, anchorLinkWeight)
				edges.Add(target.ID, f.ID, anchorLinkWeight*0.5)
			}
		}
	}
	recordEdges(ctx, b.Name(), len(edges))
	return edges, nil
}

// CitationBuilder links fragments across the document set that share a
// `[@key]` citation key.
type CitationBuilder struct{}

func NewCitationBuilder() *CitationBuilder { return &CitationBuilder{} }

func (b *CitationBuilder) Name() string       { return "document:citation" }
func (b *CitationBuilder) Category() Category { return CategoryDocument }

const citationWeight = 0.35

var citationRe = regexp.MustCompile(`\[@([\w-]+)\]`)

func (b *CitationBuilder) BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error) {
	_, span := tracer.Start(ctx, "graphedges."+b.Name())
	defer span.End()

	edges := make(EdgeMap)
	byKey := make(map[string][]*fragment.Fragment)
	for _, f := range frags {
		if !isMarkdown(f.Path()) {
			continue
		}
		for _, m := range citationRe.FindAllStringSubmatch(f.Content, -1) {
			byKey[m[1]] = append(byKey[m[1]], f)
		}
	}
	for _, holders := range byKey {
		for i := range holders {
			for j := range holders {
				if i == j || holders[i].ID == holders[j].ID {
					continue
				}
				edges.Add(holders[i].ID, holders[j].ID, citationWeight)
			}
		}
	}
	recordEdges(ctx, b.Name(), len(edges))
	return edges, nil
}
