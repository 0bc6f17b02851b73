// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package vcs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runGitCmd(t *testing.T, dir string, args ...string) {
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

func initRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	runGitCmd(t, root, "init")
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n\nfunc F() int { return 1 }\n"), 0o644))
	runGitCmd(t, root, "add", "-A")
	runGitCmd(t, root, "commit", "-m", "base")

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n\nfunc F() int { return 2 }\n"), 0o644))
	runGitCmd(t, root, "add", "-A")
	runGitCmd(t, root, "commit", "-m", "change")
	return root
}

func TestIsRepository(t *testing.T) {
	root := initRepo(t)
	assert.True(t, IsRepository(root))
	assert.False(t, IsRepository(t.TempDir()))
}

func TestChangedFiles(t *testing.T) {
	root := initRepo(t)
	files, err := ChangedFiles(context.Background(), root, "HEAD~1..HEAD")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go"}, files)
}

func TestChangedFiles_EmptyRange(t *testing.T) {
	root := initRepo(t)
	files, err := ChangedFiles(context.Background(), root, "HEAD..HEAD")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestParseDiff(t *testing.T) {
	root := initRepo(t)
	hunks, err := ParseDiff(context.Background(), root, "HEAD~1..HEAD")
	require.NoError(t, err)
	require.Len(t, hunks, 1)
	assert.Equal(t, "a.go", hunks[0].Path)
	assert.False(t, hunks[0].IsDeletion())
}

func TestFileAtRevision(t *testing.T) {
	root := initRepo(t)
	content, err := FileAtRevision(context.Background(), root, "HEAD~1", "a.go")
	require.NoError(t, err)
	assert.Contains(t, content, "return 1")
}

func TestListAllFiles(t *testing.T) {
	root := initRepo(t)
	files, err := ListAllFiles(root)
	require.NoError(t, err)
	assert.Contains(t, files, "a.go")
}

func TestCommitFileLists(t *testing.T) {
	root := initRepo(t)
	commits, err := CommitFileLists(root, 10)
	require.NoError(t, err)
	assert.Len(t, commits, 2)
}

func TestSplitRange(t *testing.T) {
	base, head := SplitRange("main...HEAD")
	assert.Equal(t, "main", base)
	assert.Equal(t, "HEAD", head)

	base, head = SplitRange("..HEAD")
	assert.Equal(t, "", base)
	assert.Equal(t, "HEAD", head)

	base, head = SplitRange("not-a-range")
	assert.Equal(t, "", base)
	assert.Equal(t, "", head)
}

func TestDiffText(t *testing.T) {
	root := initRepo(t)
	text, err := DiffText(context.Background(), root, "HEAD~1..HEAD")
	require.NoError(t, err)
	assert.Contains(t, text, "a.go")
}
