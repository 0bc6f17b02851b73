// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package vcs adapts the diff-context pipeline to a git working tree: it
// resolves a diff range into per-file hunks and raw diff text, lists
// changed and candidate files, and reads file content at a given revision.
//
// Every subprocess invocation goes through runGit, which mirrors
// services/code_buddy/git/classifier.go's shape (a single choke point that
// shells out to the system git binary with an explicit working directory
// and, where the caller asks for one, a context deadline).
package vcs

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	godiff "github.com/sourcegraph/go-diff/diff"

	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/fragment"
)

// CandidateListTimeout bounds the "git ls-files" call universe expansion
// uses to enumerate every file in the repository.
const CandidateListTimeout = 30 * time.Second

// CoChangeTimeout bounds the "git log --name-only" call the history edge
// builder uses to mine co-change counts.
const CoChangeTimeout = 10 * time.Second

func runGit(ctx context.Context, root string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", root}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &Error{Args: fullArgs, Err: ctx.Err()}
		}
		return "", &Error{Args: fullArgs, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.String(), nil
}

// IsRepository reports whether root is inside a git working tree.
func IsRepository(root string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := runGit(ctx, root, "rev-parse", "--git-dir")
	return err == nil
}

// DiffText returns the raw "git diff" output for diffRange, used as the
// source text for concept extraction.
func DiffText(ctx context.Context, root, diffRange string) (string, error) {
	return runGit(ctx, root, "diff", diffRange)
}

// ChangedFiles returns every file path touched by diffRange, relative to
// root, in the order git reports them.
func ChangedFiles(ctx context.Context, root, diffRange string) ([]string, error) {
	out, err := runGit(ctx, root, "diff", "--name-only", diffRange)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// ParseDiff resolves diffRange into DiffHunks using a zero-context unified
// diff so every hunk boundary is exactly the changed lines, then hands the
// unified diff text to go-diff's multi-file parser for hunk-header
// arithmetic instead of re-deriving it by hand.
func ParseDiff(ctx context.Context, root, diffRange string) ([]fragment.DiffHunk, error) {
	ctx, span := tracer.Start(ctx, "vcs.ParseDiff")
	defer span.End()

	out, err := runGit(ctx, root, "diff", "--unified=0", diffRange)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out) == "" {
		return nil, nil
	}

	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(out))
	if err != nil {
		return nil, err
	}

	var hunks []fragment.DiffHunk
	for _, fd := range fileDiffs {
		path := diffPath(fd)
		if path == "" {
			continue
		}
		for _, h := range fd.Hunks {
			hunks = append(hunks, fragment.DiffHunk{
				Path:     path,
				NewStart: int(h.NewStartLine),
				NewLen:   int(h.NewLines),
				OldStart: int(h.OrigStartLine),
				OldLen:   int(h.OrigLines),
			})
		}
	}
	return hunks, nil
}

// diffPath prefers the new-file path (the post-change name) and falls back
// to the old-file path for pure deletions, matching the original adapter's
// "current_path = new_path if new_path else old_path" rule.
func diffPath(fd *godiff.FileDiff) string {
	if fd.NewName != "" && fd.NewName != "/dev/null" {
		return cleanDiffPath(fd.NewName)
	}
	if fd.OrigName != "" && fd.OrigName != "/dev/null" {
		return cleanDiffPath(fd.OrigName)
	}
	return ""
}

func cleanDiffPath(p string) string {
	p = strings.TrimPrefix(p, "a/")
	p = strings.TrimPrefix(p, "b/")
	return p
}

var rangeRe = regexp.MustCompile(`^\s*(\S*?)(\.\.\.?)(\S*?)\s*$`)

// SplitRange extracts the base and head revisions from a "base..head" or
// "base...head" diff range. Either side may be empty (e.g. "..HEAD"); a
// range with no ".." separator at all returns two empty strings.
func SplitRange(diffRange string) (base, head string) {
	m := rangeRe.FindStringSubmatch(diffRange)
	if m == nil {
		return "", ""
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[3])
}

// FileAtRevision reads a file's content as of rev via "git show rev:path".
func FileAtRevision(ctx context.Context, root, rev, relPath string) (string, error) {
	spec := rev + ":" + filepath.ToSlash(relPath)
	return runGit(ctx, root, "show", spec)
}

// ListAllFiles enumerates every tracked file via "git ls-files -z", which
// is NUL-delimited so it tolerates filenames containing newlines.
func ListAllFiles(root string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), CandidateListTimeout)
	defer cancel()
	out, err := runGit(ctx, root, "ls-files", "-z")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, f := range strings.Split(out, "\x00") {
		if f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

// CommitFileLists returns the changed-file list for each of the last n
// commits, newest first, used by the co-change history edge builder.
func CommitFileLists(root string, n int) ([][]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), CoChangeTimeout)
	defer cancel()
	out, err := runGit(ctx, root, "log", "--name-only", "--format=", "-n"+strconv.Itoa(n))
	if err != nil {
		return nil, err
	}
	var commits [][]string
	for _, block := range strings.Split(out, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		commits = append(commits, strings.Split(block, "\n"))
	}
	return commits, nil
}
