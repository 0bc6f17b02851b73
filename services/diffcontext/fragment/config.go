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

	"github.com/BurntSushi/toml"
)

var yamlDocSepRe = regexp.MustCompile(`^---\s*$`)
var yamlTopKeyRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)\s*:`)
var k8sKindRe = regexp.MustCompile(`(?m)^kind:\s*(\S+)`)
var k8sNameRe = regexp.MustCompile(`(?m)^\s{2,}name:\s*(\S+)`)

// KubernetesStrategy splits a multi-document Kubernetes manifest on "---"
// document separators and labels each document with its kind/name, so a
// change to one Deployment doesn't pull the whole manifest file in as a
// single fragment.
type KubernetesStrategy struct{}

func NewKubernetesStrategy() *KubernetesStrategy { return &KubernetesStrategy{} }

func (s *KubernetesStrategy) Name() string { return "kubernetes" }

func (s *KubernetesStrategy) Matches(path string) bool {
	ext := extOf(path)
	if ext != ".yaml" && ext != ".yml" {
		return false
	}
	return true
}

func (s *KubernetesStrategy) Fragment(path, content string) ([]*Fragment, error) {
	if !k8sKindRe.MatchString(content) {
		return nil, nil
	}

	lines := splitLines(content)
	var bounds []int
	for i, line := range lines {
		if yamlDocSepRe.MatchString(line) {
			bounds = append(bounds, i+1)
		}
	}
	if len(bounds) == 0 {
		bounds = []int{1}
	} else if bounds[0] != 1 {
		bounds = append([]int{1}, bounds...)
	}

	var frags []*Fragment
	for i, start := range bounds {
		end := len(lines)
		if i+1 < len(bounds) {
			end = bounds[i+1] - 1
		}
		body := joinRange(lines, start, end)
		if strings.TrimSpace(body) == "" {
			continue
		}
		kind := ""
		if m := k8sKindRe.FindStringSubmatch(body); m != nil {
			kind = m[1]
		}
		name := ""
		if m := k8sNameRe.FindStringSubmatch(body); m != nil {
			name = m[1]
		}
		symbol := strings.TrimSpace(kind + "/" + name)
		if kind == "" {
			continue
		}
		frags = append(frags, newFragment(path, KindResource, start, end, body, symbol))
	}
	return frags, nil
}

// GenericStructuredStrategy splits plain (non-Kubernetes) YAML and TOML
// documents along their top-level keys or tables, producing one fragment
// per top-level section. It is the config-to-code edge builder's primary
// source of config fragments. JSON files are claimed but not split: a top
// key must start an unindented line with a bare (unquoted) name, which
// JSON keys never do, so the strategy declines them.
type GenericStructuredStrategy struct{}

func NewGenericStructuredStrategy() *GenericStructuredStrategy { return &GenericStructuredStrategy{} }

func (s *GenericStructuredStrategy) Name() string { return "generic_structured" }

func (s *GenericStructuredStrategy) Matches(path string) bool {
	switch extOf(path) {
	case ".yaml", ".yml", ".json", ".toml":
		return true
	}
	return false
}

func (s *GenericStructuredStrategy) Fragment(path, content string) ([]*Fragment, error) {
	if extOf(path) == ".toml" {
		return s.fragmentTOML(path, content)
	}
	return s.fragmentYAMLLike(path, content)
}

func (s *GenericStructuredStrategy) fragmentYAMLLike(path, content string) ([]*Fragment, error) {
	lines := splitLines(content)
	var topKeyLines []int
	for i, line := range lines {
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		if yamlTopKeyRe.MatchString(line) {
			topKeyLines = append(topKeyLines, i+1)
		}
	}
	if len(topKeyLines) == 0 {
		return nil, nil
	}

	var frags []*Fragment
	for i, start := range topKeyLines {
		end := len(lines)
		if i+1 < len(topKeyLines) {
			end = topKeyLines[i+1] - 1
		}
		key := yamlTopKeyRe.FindStringSubmatch(lines[start-1])[1]
		frags = append(frags, newFragment(path, KindConfig, start, end, joinRange(lines, start, end), key))
	}
	return frags, nil
}

// fragmentTOML uses BurntSushi/toml only to check that the document parses;
// the table headers are found, and the spans split, on raw text lines so
// byte-for-byte content (including comments) is preserved.
func (s *GenericStructuredStrategy) fragmentTOML(path, content string) ([]*Fragment, error) {
	var doc map[string]interface{}
	if _, err := toml.Decode(content, &doc); err != nil {
		return nil, nil
	}

	lines := splitLines(content)
	tableHeaderRe := regexp.MustCompile(`^\[([A-Za-z0-9_.-]+)\]`)
	var tableLines []int
	for i, line := range lines {
		if tableHeaderRe.MatchString(line) {
			tableLines = append(tableLines, i+1)
		}
	}
	if len(tableLines) == 0 {
		return nil, nil
	}

	var frags []*Fragment
	if tableLines[0] > 1 {
		frags = append(frags, newFragment(path, KindConfig, 1, tableLines[0]-1, joinRange(lines, 1, tableLines[0]-1), ""))
	}
	for i, start := range tableLines {
		end := len(lines)
		if i+1 < len(tableLines) {
			end = tableLines[i+1] - 1
		}
		name := tableHeaderRe.FindStringSubmatch(lines[start-1])[1]
		frags = append(frags, newFragment(path, KindConfig, start, end, joinRange(lines, start, end), name))
	}
	return frags, nil
}
