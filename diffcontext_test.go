// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package diffcontext

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoErrorf(t, err, "git %v: %s", args, out)
}

// initRepoWithChange lays down a base commit defining calculateTax and a
// caller, then a second commit that modifies calculateTax, mirroring the
// spec's first end-to-end scenario (§8 scenario 1).
func initRepoWithChange(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	runGit(t, root, "init")

	utils := "package utils\n\nfunc calculateTax(amount float64) float64 {\n\treturn amount * 0.1\n}\n"
	caller := "package reports\n\nimport \"example.com/utils\"\n\nfunc Generate(amount float64) float64 {\n\treturn utils.CalculateTax(amount)\n}\n"
	require.NoError(t, os.MkdirAll(filepath.Join(root, "reports"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "utils.go"), []byte(utils), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "reports", "generator.go"), []byte(caller), 0o644))
	runGit(t, root, "add", "-A")
	runGit(t, root, "commit", "-m", "base")

	updated := "package utils\n\nfunc calculateTax(amount float64) float64 {\n\treturn amount * 0.15\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "utils.go"), []byte(updated), 0o644))
	runGit(t, root, "add", "-A")
	runGit(t, root, "commit", "-m", "bump tax rate")

	return root
}

func TestBuildDiffContext_EmptyRange(t *testing.T) {
	root := initRepoWithChange(t)
	dc, err := BuildDiffContext(context.Background(), root, "HEAD..HEAD")
	require.NoError(t, err)
	assert.Equal(t, 0, dc.FragmentCount)
	assert.Empty(t, dc.Fragments)
	assert.Equal(t, "diff_context", dc.Type)
}

func TestBuildDiffContext_ModifiedFunction(t *testing.T) {
	root := initRepoWithChange(t)
	dc, err := BuildDiffContext(context.Background(), root, "HEAD~1..HEAD", WithBudgetTokens(10_000))
	require.NoError(t, err)

	assert.Equal(t, "diff_context", dc.Type)
	assert.NotEmpty(t, dc.Fragments)

	var sawUtils bool
	for _, f := range dc.Fragments {
		if f.Path == "utils.go" {
			sawUtils = true
		}
	}
	assert.True(t, sawUtils, "expected utils.go (the modified file) to be present in %+v", dc.Fragments)
}

func TestBuildDiffContext_NoContent(t *testing.T) {
	root := initRepoWithChange(t)
	dc, err := BuildDiffContext(context.Background(), root, "HEAD~1..HEAD", WithNoContent(true))
	require.NoError(t, err)
	for _, f := range dc.Fragments {
		assert.Empty(t, f.Content)
	}
}

func TestBuildDiffContext_Full(t *testing.T) {
	root := initRepoWithChange(t)
	dc, err := BuildDiffContext(context.Background(), root, "HEAD~1..HEAD", WithFull(true))
	require.NoError(t, err)
	for _, f := range dc.Fragments {
		assert.Equal(t, "utils.go", f.Path, "full mode must only cover changed files")
	}
}

func TestBuildDiffContext_InvalidAlpha(t *testing.T) {
	root := initRepoWithChange(t)
	_, err := BuildDiffContext(context.Background(), root, "HEAD~1..HEAD", WithAlpha(0))
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "alpha", cfgErr.Field)
}

func TestBuildDiffContext_InvalidBudget(t *testing.T) {
	root := initRepoWithChange(t)
	_, err := BuildDiffContext(context.Background(), root, "HEAD~1..HEAD", WithBudgetTokens(-1))
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "budget_tokens", cfgErr.Field)
}

func TestBuildDiffContext_NotARepository(t *testing.T) {
	_, err := BuildDiffContext(context.Background(), t.TempDir(), "HEAD~1..HEAD")
	assert.Error(t, err)
}
