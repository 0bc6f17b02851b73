// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graphedges

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

// configStopwords excludes key names generic enough that matching them
// against every identifier in the fragment set would produce noise instead
// of signal (id, name, type, ... appear in nearly every config and nearly
// every source file).
var configStopwords = map[string]struct{}{
	"id": {}, "name": {}, "type": {}, "value": {}, "key": {}, "data": {},
	"config": {}, "path": {}, "file": {}, "url": {}, "host": {}, "port": {},
	"version": {}, "description": {}, "default": {}, "enabled": {},
}

// extractConfigKeys parses a YAML/JSON/TOML document and returns every key
// encountered, flattened, used by ConfigCodeBuilder's key-matching pass.
// extractConfigKeys tolerates parse failure (returns nil) since malformed
// or partial fragments of a larger file are common when the fragmenter
// chunked a config document.
func extractConfigKeys(path, content string) []string {
	ext := extOf(path)
	switch ext {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
			return nil
		}
		return flattenKeys(doc)
	case ".toml":
		var doc map[string]any
		if err := toml.Unmarshal([]byte(content), &doc); err != nil {
			return nil
		}
		return flattenKeys(doc)
	case ".json":
		return regexKeys(content)
	case ".env":
		return envKeys(content)
	case ".ini", ".cfg", ".conf":
		return regexKeys(content)
	}
	return nil
}

func flattenKeys(v any) []string {
	var out []string
	switch m := v.(type) {
	case map[string]any:
		for k, val := range m {
			out = append(out, k)
			out = append(out, flattenKeys(val)...)
		}
	case map[any]any:
		for k, val := range m {
			if ks, ok := k.(string); ok {
				out = append(out, ks)
			}
			out = append(out, flattenKeys(val)...)
		}
	case []any:
		for _, item := range m {
			out = append(out, flattenKeys(item)...)
		}
	}
	return out
}

var jsonKeyRe = regexp.MustCompile(`"([A-Za-z_][\w.-]*)"\s*:`)

func regexKeys(content string) []string {
	var out []string
	for _, m := range jsonKeyRe.FindAllStringSubmatch(content, -1) {
		out = append(out, m[1])
	}
	return out
}

var envKeyRe = regexp.MustCompile(`(?m)^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=`)

func envKeys(content string) []string {
	var out []string
	for _, m := range envKeyRe.FindAllStringSubmatch(content, -1) {
		out = append(out, m[1])
	}
	return out
}

// ConfigCodeBuilder is the generic config<->code key-matching builder: it
// extracts keys from every config-shaped fragment and links them, by word
// boundary and case-insensitively, to code fragments that reference the
// same name. Weight scales by 1/matches so a key used everywhere (and
// therefore uninformative) contributes less per edge than a rare one.
type ConfigCodeBuilder struct{}

func NewConfigCodeBuilder() *ConfigCodeBuilder { return &ConfigCodeBuilder{} }

func (b *ConfigCodeBuilder) Name() string       { return "config:key_match" }
func (b *ConfigCodeBuilder) Category() Category { return CategoryConfig }

const configCodeBaseWeight = 0.40

func (b *ConfigCodeBuilder) BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error) {
	_, span := tracer.Start(ctx, "graphedges."+b.Name())
	defer span.End()

	edges := make(EdgeMap)

	type configHit struct {
		frag *fragment.Fragment
		key  string
	}
	var hits []configHit
	for _, f := range frags {
		for _, key := range extractConfigKeys(f.Path(), f.Content) {
			lower := strings.ToLower(key)
			if len(lower) < 3 {
				continue
			}
			if _, stop := configStopwords[lower]; stop {
				continue
			}
			hits = append(hits, configHit{frag: f, key: lower})
		}
	}
	if len(hits) == 0 {
		return edges, nil
	}

	for _, h := range hits {
		var matchers []*fragment.Fragment
		for _, f := range frags {
			if f.Path() == h.frag.Path() {
				continue
			}
			if f.HasIdentifier(h.key) {
				matchers = append(matchers, f)
			}
		}
		if len(matchers) == 0 {
			continue
		}
		weight := configCodeBaseWeight / float64(len(matchers))
		if weight > 1 {
			weight = 1
		}
		for _, m := range matchers {
			edges.Add(h.frag.ID, m.ID, weight)
			edges.Add(m.ID, h.frag.ID, weight)
		}
	}
	recordEdges(ctx, b.Name(), len(edges))
	return edges, nil
}

// DockerBuilder links a docker-compose fragment, both ways, to every
// fragment of the Dockerfile it names via a "dockerfile:" key (matched by
// base name). A "build:" context without a "dockerfile:" key is not
// followed.
type DockerBuilder struct{}

func NewDockerBuilder() *DockerBuilder { return &DockerBuilder{} }

func (b *DockerBuilder) Name() string       { return "config:docker" }
func (b *DockerBuilder) Category() Category { return CategoryConfig }

const dockerWeight = 0.50

var dockerfileRefRe = regexp.MustCompile(`(?m)dockerfile:\s*([\w./-]+)`)

func (b *DockerBuilder) BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error) {
	_, span := tracer.Start(ctx, "graphedges."+b.Name())
	defer span.End()

	edges := make(EdgeMap)
	files := byFile(frags)
	dockerfiles := make(map[string][]*fragment.Fragment)
	for path, fs := range files {
		if strings.Contains(strings.ToLower(filepath.Base(path)), "dockerfile") {
			dockerfiles[path] = fs
		}
	}
	for path, fs := range files {
		base := strings.ToLower(filepath.Base(path))
		if !strings.Contains(base, "compose") {
			continue
		}
		for _, f := range fs {
			for _, m := range dockerfileRefRe.FindAllStringSubmatch(f.Content, -1) {
				ref := filepath.Base(m[1])
				for dPath, dFrags := range dockerfiles {
					if filepath.Base(dPath) == ref {
						for _, df := range dFrags {
							edges.Add(f.ID, df.ID, dockerWeight)
							edges.Add(df.ID, f.ID, dockerWeight)
						}
					}
				}
			}
		}
	}
	recordEdges(ctx, b.Name(), len(edges))
	return edges, nil
}

// TerraformBuilder links a `var.x`, `local.x` or `module.x` reference in
// one .tf fragment to every .tf fragment declaring the name x as a
// variable, module, resource or data block (for resource and data blocks,
// x is the second label). `locals` blocks declare no names here, and
// resource/data address references and `source = "..."` paths are not
// followed.
type TerraformBuilder struct{}

func NewTerraformBuilder() *TerraformBuilder { return &TerraformBuilder{} }

func (b *TerraformBuilder) Name() string       { return "config:terraform" }
func (b *TerraformBuilder) Category() Category { return CategoryConfig }

const terraformWeight = 0.55

var (
	tfDeclRe = regexp.MustCompile(`(?m)^\s*(variable|locals|resource|data|module)\s+"?([\w.-]+)"?\s*"?([\w.-]*)"?`)
	tfRefRe  = regexp.MustCompile(`\b(var|local|module)\.([\w-]+)`)
)

func (b *TerraformBuilder) BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error) {
	_, span := tracer.Start(ctx, "graphedges."+b.Name())
	defer span.End()

	edges := make(EdgeMap)
	var tfFrags []*fragment.Fragment
	for _, f := range frags {
		if extOf(f.Path()) == ".tf" {
			tfFrags = append(tfFrags, f)
		}
	}
	if len(tfFrags) == 0 {
		return edges, nil
	}

	declarers := make(map[string][]*fragment.Fragment)
	for _, f := range tfFrags {
		for _, m := range tfDeclRe.FindAllStringSubmatch(f.Content, -1) {
			kind, first, second := m[1], m[2], m[3]
			name := first
			if (kind == "resource" || kind == "data") && second != "" {
				name = second
			}
			declarers[strings.ToLower(name)] = append(declarers[strings.ToLower(name)], f)
		}
	}

	for _, f := range tfFrags {
		for _, m := range tfRefRe.FindAllStringSubmatch(f.Content, -1) {
			name := strings.ToLower(m[2])
			for _, d := range declarers[name] {
				if d.ID == f.ID {
					continue
				}
				edges.Add(f.ID, d.ID, terraformWeight)
				edges.Add(d.ID, f.ID, terraformWeight*0.5)
			}
		}
	}
	recordEdges(ctx, b.Name(), len(edges))
	return edges, nil
}

// HelmBuilder links a template referencing `.Values.x` or `{{ include
// "chart.sub" }}` to the values.yaml fragment declaring x, or the
// Chart.yaml/_helpers.tpl fragment defining the include target.
type HelmBuilder struct{}

func NewHelmBuilder() *HelmBuilder { return &HelmBuilder{} }

func (b *HelmBuilder) Name() string       { return "config:helm" }
func (b *HelmBuilder) Category() Category { return CategoryConfig }

const helmWeight = 0.45

var (
	helmValuesRefRe  = regexp.MustCompile(`\.Values\.([\w.]+)`)
	helmIncludeRe    = regexp.MustCompile(`\{\{-?\s*(?:template|include)\s+"([\w.-]+)"`)
	helmDefineRe     = regexp.MustCompile(`\{\{-?\s*define\s+"([\w.-]+)"`)
)

func (b *HelmBuilder) BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error) {
	_, span := tracer.Start(ctx, "graphedges."+b.Name())
	defer span.End()

	edges := make(EdgeMap)
	var valuesFrags []*fragment.Fragment
	var templateFrags []*fragment.Fragment
	definers := make(map[string][]*fragment.Fragment)
	for _, f := range frags {
		base := strings.ToLower(filepath.Base(f.Path()))
		if base == "values.yaml" || base == "values.yml" {
			valuesFrags = append(valuesFrags, f)
		}
		if extOf(f.Path()) == ".tpl" || strings.HasSuffix(f.Path(), ".yaml") || strings.HasSuffix(f.Path(), ".yml") {
			templateFrags = append(templateFrags, f)
			for _, m := range helmDefineRe.FindAllStringSubmatch(f.Content, -1) {
				definers[m[1]] = append(definers[m[1]], f)
			}
		}
	}

	for _, f := range templateFrags {
		for _, m := range helmValuesRefRe.FindAllStringSubmatch(f.Content, -1) {
			top := strings.SplitN(m[1], ".", 2)[0]
			for _, vf := range valuesFrags {
				if vf.HasIdentifier(strings.ToLower(top)) {
					edges.Add(f.ID, vf.ID, helmWeight)
					edges.Add(vf.ID, f.ID, helmWeight*0.5)
				}
			}
		}
		for _, m := range helmIncludeRe.FindAllStringSubmatch(f.Content, -1) {
			for _, d := range definers[m[1]] {
				if d.ID == f.ID {
					continue
				}
				edges.Add(f.ID, d.ID, helmWeight)
				edges.Add(d.ID, f.ID, helmWeight*0.5)
			}
		}
	}
	recordEdges(ctx, b.Name(), len(edges))
	return edges, nil
}

// KubernetesBuilder links a Pod/Deployment spec referencing a ConfigMap or
// Secret by name to the manifest fragment defining it. Service selectors
// are not matched against Pod labels.
type KubernetesBuilder struct{}

func NewKubernetesBuilder() *KubernetesBuilder { return &KubernetesBuilder{} }

func (b *KubernetesBuilder) Name() string       { return "config:kubernetes" }
func (b *KubernetesBuilder) Category() Category { return CategoryConfig }

const k8sWeight = 0.50

var (
	k8sRefNameRe  = regexp.MustCompile(`(?:configMapKeyRef|secretKeyRef|configMapRef|secretRef)\s*:\s*\n?\s*name:\s*([\w-]+)`)
	k8sKindLineRe = regexp.MustCompile(`(?m)^kind:\s*(\S+)`)
	k8sNameLineRe = regexp.MustCompile(`(?m)name:\s*([\w-]+)`)
)

func (b *KubernetesBuilder) BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error) {
	_, span := tracer.Start(ctx, "graphedges."+b.Name())
	defer span.End()

	edges := make(EdgeMap)
	var manifests []*fragment.Fragment
	for _, f := range frags {
		ext := extOf(f.Path())
		if ext == ".yaml" || ext == ".yml" {
			if k8sKindLineRe.MatchString(f.Content) {
				manifests = append(manifests, f)
			}
		}
	}
	if len(manifests) == 0 {
		return edges, nil
	}

	byKindName := make(map[string][]*fragment.Fragment)
	for _, f := range manifests {
		kind := ""
		if m := k8sKindLineRe.FindStringSubmatch(f.Content); m != nil {
			kind = strings.ToLower(m[1])
		}
		if m := k8sNameLineRe.FindStringSubmatch(f.Content); m != nil {
			byKindName[kind+"/"+m[1]] = append(byKindName[kind+"/"+m[1]], f)
		}
	}

	for _, f := range manifests {
		for _, m := range k8sRefNameRe.FindAllStringSubmatch(f.Content, -1) {
			name := m[1]
			for _, kind := range []string{"configmap", "secret"} {
				for _, target := range byKindName[kind+"/"+name] {
					if target.ID == f.ID {
						continue
					}
					edges.Add(f.ID, target.ID, k8sWeight)
					edges.Add(target.ID, f.ID, k8sWeight*0.5)
				}
			}
		}
	}
	recordEdges(ctx, b.Name(), len(edges))
	return edges, nil
}

// CIBuilder links a CI/CD pipeline fragment (GitHub Actions, GitLab CI,
// Jenkinsfile, CircleCI, Travis, Azure Pipelines) to the script or
// Makefile target it invokes by name.
type CIBuilder struct{}

func NewCIBuilder() *CIBuilder { return &CIBuilder{} }

func (b *CIBuilder) Name() string       { return "config:ci" }
func (b *CIBuilder) Category() Category { return CategoryConfig }

const ciWeight = 0.35

func isCIPath(path string) bool {
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, ".github/workflows/"):
		return true
	case strings.HasSuffix(lower, ".gitlab-ci.yml"):
		return true
	case strings.HasSuffix(lower, "jenkinsfile"):
		return true
	case strings.Contains(lower, ".circleci/"):
		return true
	case strings.HasSuffix(lower, ".travis.yml"):
		return true
	case strings.Contains(lower, "azure-pipelines"):
		return true
	}
	return false
}

var ciScriptRefRe = regexp.MustCompile(`(?:run|script):\s*\.?/?([\w./-]+\.sh)|make\s+([\w-]+)`)

func (b *CIBuilder) BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error) {
	_, span := tracer.Start(ctx, "graphedges."+b.Name())
	defer span.End()

	edges := make(EdgeMap)
	files := byFile(frags)
	var ciFrags []*fragment.Fragment
	for path, fs := range files {
		if isCIPath(path) {
			ciFrags = append(ciFrags, fs...)
		}
	}
	if len(ciFrags) == 0 {
		return edges, nil
	}

	for _, f := range ciFrags {
		for _, m := range ciScriptRefRe.FindAllStringSubmatch(f.Content, -1) {
			ref := m[1]
			target := m[2]
			if ref != "" {
				for path, fs := range files {
					if filepath.Base(path) == filepath.Base(ref) {
						for _, tf := range fs {
							edges.Add(f.ID, tf.ID, ciWeight)
						}
					}
				}
			}
			if target != "" {
				for _, fs := range files {
					for _, tf := range fs {
						if tf.SymbolName == target {
							edges.Add(f.ID, tf.ID, ciWeight)
						}
					}
				}
			}
		}
	}
	recordEdges(ctx, b.Name(), len(edges))
	return edges, nil
}

// MakeBuilder links a Makefile/CMakeLists.txt target to the source files
// named in its prerequisite list (the text after "target:" on the same
// line) or its `add_executable`/`add_library` call.
type MakeBuilder struct{}

func NewMakeBuilder() *MakeBuilder { return &MakeBuilder{} }

func (b *MakeBuilder) Name() string       { return "config:make" }
func (b *MakeBuilder) Category() Category { return CategoryConfig }

const makeWeight = 0.40

var (
	makeTargetRe = regexp.MustCompile(`(?m)^([\w.-]+):\s*(.*)$`)
	cmakeSrcRe   = regexp.MustCompile(`add_(?:executable|library)\s*\(\s*[\w-]+\s+([^)]+)\)`)
)

func (b *MakeBuilder) BuildEdges(ctx context.Context, root string, frags []*fragment.Fragment) (EdgeMap, error) {
	_, span := tracer.Start(ctx, "graphedges."+b.Name())
	defer span.End()

	edges := make(EdgeMap)
	files := byFile(frags)
	for path, fs := range files {
		base := strings.ToLower(filepath.Base(path))
		isMake := base == "makefile" || strings.HasSuffix(base, ".mk")
		isCMake := base == "cmakelists.txt"
		if !isMake && !isCMake {
			continue
		}
		for _, f := range fs {
			var refs []string
			if isMake {
				for _, m := range makeTargetRe.FindAllStringSubmatch(f.Content, -1) {
					for _, tok := range strings.Fields(m[2]) {
						refs = append(refs, tok)
					}
				}
			}
			if isCMake {
				for _, m := range cmakeSrcRe.FindAllStringSubmatch(f.Content, -1) {
					refs = append(refs, strings.Fields(m[1])...)
				}
			}
			for _, ref := range refs {
				ref = filepath.Base(ref)
				for srcPath, srcFrags := range files {
					if filepath.Base(srcPath) == ref {
						for _, sf := range srcFrags {
							edges.Add(f.ID, sf.ID, makeWeight)
						}
					}
				}
			}
		}
	}
	recordEdges(ctx, b.Name(), len(edges))
	return edges, nil
}
