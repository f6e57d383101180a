// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package git provides typed access to the git CLI. The dependency
// installer uses it to fetch single commits of the toolchain sources
// (Chromium tools, libc++, buildtools) that the LLVM step needs. All
// commands target a specific repository directory via the -C flag,
// which every Repository method injects.
package git

import (
	"context"
	"fmt"
	"os"

	"github.com/bureau-foundation/sora-sdk/lib/toolexec"
)

// Repository represents a git repository at a specific directory. All
// operations target this directory via "git -C <dir>". There is no
// default directory; callers must always specify which repository
// they mean.
type Repository struct {
	dir    string
	runner toolexec.Runner
}

// NewRepository returns a Repository targeting dir. A nil runner uses
// the real git binary.
func NewRepository(dir string, runner toolexec.Runner) *Repository {
	if runner == nil {
		runner = &toolexec.Exec{}
	}
	return &Repository{dir: dir, runner: runner}
}

// Run executes a git command targeting this repository and returns
// stdout. Failures are *toolexec.CommandError values carrying stderr.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)
	return r.runner.Run(ctx, "", "git", fullArgs...)
}

// ShallowClone materializes exactly one commit of url into dir without
// history: init, add the remote, fetch the commit at depth 1, and reset
// the work tree to it. Anything already at dir is removed first. The
// server must allow fetching the commit by hash, which every major host
// does for reachable commits.
func ShallowClone(ctx context.Context, runner toolexec.Runner, url, commit, dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing clone directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating clone directory %s: %w", dir, err)
	}
	repository := NewRepository(dir, runner)
	for _, args := range [][]string{
		{"init", "--quiet"},
		{"remote", "add", "origin", url},
		{"fetch", "--quiet", "--depth=1", "origin", commit},
		{"reset", "--quiet", "--hard", "FETCH_HEAD"},
	} {
		if _, err := repository.Run(ctx, args...); err != nil {
			return fmt.Errorf("shallow clone of %s at %s: %w", url, commit, err)
		}
	}
	return nil
}
