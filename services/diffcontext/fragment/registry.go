// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fragment

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/nikolay-e/treemapper-sub002/pkg/logging"
)

// Strategy splits one file's content into fragments. Matches is checked
// against the file's path before Fragment is ever called; Fragment itself
// may still decline by returning (nil, nil), in which case the registry
// falls through to the next matching strategy.
type Strategy interface {
	Name() string
	Matches(path string) bool
	Fragment(path, content string) ([]*Fragment, error)
}

// Registry holds the ordered strategy chain. The order strategies are
// registered in is the priority order they are tried in: the first strategy
// that both matches and successfully returns a non-empty fragment list wins.
type Registry struct {
	strategies []Strategy
	fallback   Strategy
}

// NewDefaultRegistry returns the registry used by the rest of the pipeline,
// wired in the priority order described by the fragmenter: syntax-tree
// strategies first (most semantically precise), then markup-aware
// strategies, then structured-data strategies, then plain-text strategies,
// with the line-window strategy as the catch-all fallback.
func NewDefaultRegistry() *Registry {
	r := &Registry{fallback: NewLineWindowStrategy(200)}
	r.Register(NewTreeSitterStrategy())
	r.Register(NewMarkdownStrategy())
	r.Register(NewHTMLStrategy())
	r.Register(NewKubernetesStrategy())
	r.Register(NewGenericStructuredStrategy())
	r.Register(NewSentenceStrategy())
	r.Register(NewParagraphStrategy())
	return r
}

func (r *Registry) Register(s Strategy) {
	r.strategies = append(r.strategies, s)
}

// FragmentFile runs the priority chain for one file and always returns at
// least one fragment (from the line-window fallback, if no strategy
// produced any) if content is non-empty.
func (r *Registry) FragmentFile(ctx context.Context, path, content string) ([]*Fragment, error) {
	ctx, span := startFragmentSpan(ctx, path)
	defer span.End()

	if content == "" {
		return nil, nil
	}

	for _, s := range r.strategies {
		if !s.Matches(path) {
			continue
		}
		frags, err := s.Fragment(path, content)
		if err != nil {
			logging.Default().Warn("fragment: strategy failed, trying next",
				"strategy", s.Name(), "path", path, "error", err)
			continue
		}
		if len(frags) > 0 {
			recordFragmentMetrics(ctx, s.Name(), len(frags))
			return frags, nil
		}
	}

	frags, err := r.fallback.Fragment(path, content)
	if err != nil {
		return nil, err
	}
	recordFragmentMetrics(ctx, r.fallback.Name(), len(frags))
	return frags, nil
}

func extOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func baseOf(path string) string {
	return strings.ToLower(filepath.Base(path))
}
