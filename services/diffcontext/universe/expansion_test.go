// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package universe

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T, root string) {
	t.Helper()
	cmd := exec.Command("git", "init")
	cmd.Dir = root
	require.NoError(t, cmd.Run())
	cmd = exec.Command("git", "add", "-A")
	cmd.Dir = root
	require.NoError(t, cmd.Run())
}

func TestExpand_RareIdentifierDiscoversMatchingFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "changed.go"), []byte("package main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "other.go"), []byte("package main\n\nfunc quirkyWidgetFactory() {}\n"), 0o644))
	initRepo(t, root)

	diffText := "+func quirkyWidgetFactory() int { return 1 }\n"
	result := Expand(context.Background(), root, []string{"changed.go"}, diffText, nil)

	assert.Contains(t, result.ExpandedFiles, "other.go")
	assert.Contains(t, result.Files(), "other.go")
}

func TestExpand_NoConceptsAddsNothing(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "changed.go"), []byte("package main\n"), 0o644))
	initRepo(t, root)

	result := Expand(context.Background(), root, []string{"changed.go"}, "", nil)
	assert.Empty(t, result.ExpandedFiles)
	assert.Empty(t, result.RelatedFiles)
}

func TestResult_FilesDeduplicatesAndSorts(t *testing.T) {
	r := Result{RelatedFiles: []string{"b.go", "a.go"}, ExpandedFiles: []string{"a.go", "c.go"}}
	assert.Equal(t, []string{"a.go", "b.go", "c.go"}, r.Files())
}
