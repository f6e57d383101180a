// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package git

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/sora-sdk/lib/toolexec"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git not available: %v", err)
	}
}

// gitCommand runs git with a fixed identity so commits work on machines
// without a global git config.
func gitCommand(t *testing.T, args ...string) string {
	t.Helper()
	command := exec.Command("git", args...)
	command.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test",
		"GIT_AUTHOR_EMAIL=test@test.local",
		"GIT_COMMITTER_NAME=Test",
		"GIT_COMMITTER_EMAIL=test@test.local",
	)
	output, err := command.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, output)
	}
	return strings.TrimSpace(string(output))
}

// initSourceRepo creates a repository with two commits and returns its
// path and the hash of the first commit.
func initSourceRepo(t *testing.T) (string, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "source")
	gitCommand(t, "init", "--quiet", dir)
	gitCommand(t, "-C", dir, "config", "uploadpack.allowAnySHA1InWant", "true")

	if err := os.WriteFile(filepath.Join(dir, "update.py"), []byte("first\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	gitCommand(t, "-C", dir, "add", "update.py")
	gitCommand(t, "-C", dir, "commit", "--quiet", "-m", "first")
	first := gitCommand(t, "-C", dir, "rev-parse", "HEAD")

	if err := os.WriteFile(filepath.Join(dir, "update.py"), []byte("second\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	gitCommand(t, "-C", dir, "commit", "--quiet", "-am", "second")

	return dir, first
}

func TestShallowClone(t *testing.T) {
	t.Parallel()
	requireGit(t)

	source, first := initSourceRepo(t)
	destination := filepath.Join(t.TempDir(), "tools")

	if err := ShallowClone(context.Background(), nil, "file://"+source, first, destination); err != nil {
		t.Fatalf("ShallowClone: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(destination, "update.py"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "first\n" {
		t.Errorf("update.py = %q, want the pinned commit's content", content)
	}

	if head := gitCommand(t, "-C", destination, "rev-parse", "HEAD"); head != first {
		t.Errorf("HEAD = %s, want %s", head, first)
	}

	count := gitCommand(t, "-C", destination, "rev-list", "--count", "HEAD")
	if count != "1" {
		t.Errorf("history length = %s, want 1", count)
	}
}

func TestShallowClone_ReplacesExistingDirectory(t *testing.T) {
	t.Parallel()
	requireGit(t)

	source, first := initSourceRepo(t)
	destination := filepath.Join(t.TempDir(), "tools")
	ctx := context.Background()
	if err := ShallowClone(ctx, nil, "file://"+source, first, destination); err != nil {
		t.Fatalf("first ShallowClone: %v", err)
	}
	if err := os.WriteFile(filepath.Join(destination, "stale"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ShallowClone(ctx, nil, "file://"+source, first, destination); err != nil {
		t.Fatalf("second ShallowClone into a used directory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(destination, "stale")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("stale file survived the reclone: %v", err)
	}
}

func TestShallowClone_UnknownCommit(t *testing.T) {
	t.Parallel()
	requireGit(t)

	source, _ := initSourceRepo(t)
	err := ShallowClone(context.Background(), nil, "file://"+source,
		"0123456789abcdef0123456789abcdef01234567", filepath.Join(t.TempDir(), "tools"))
	var commandError *toolexec.CommandError
	if !errors.As(err, &commandError) {
		t.Fatalf("err = %v, want *toolexec.CommandError", err)
	}
	if !strings.Contains(err.Error(), "fetch") {
		t.Errorf("error = %v, want the failing fetch command", err)
	}
}

func TestRepository_Run_InvalidSubcommand(t *testing.T) {
	t.Parallel()
	requireGit(t)

	dir := t.TempDir()
	gitCommand(t, "init", "--quiet", dir)
	repo := NewRepository(dir, nil)

	_, err := repo.Run(context.Background(), "not-a-real-command")
	if err == nil {
		t.Fatal("expected error for invalid git subcommand")
	}
	if !strings.Contains(err.Error(), dir) {
		t.Errorf("error = %v, want to contain repository dir %q", err, dir)
	}
}

// recordingRunner captures invocations instead of executing them.
type recordingRunner struct {
	calls [][]string
}

func (r *recordingRunner) Run(_ context.Context, dir, name string, args ...string) (string, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return "", nil
}

func TestShallowClone_CommandSequence(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{}
	dir := filepath.Join(t.TempDir(), "libcxx")
	if err := ShallowClone(context.Background(), runner, "https://example.com/libcxx.git", "abc123", dir); err != nil {
		t.Fatal(err)
	}

	want := [][]string{
		{"git", "-C", dir, "init", "--quiet"},
		{"git", "-C", dir, "remote", "add", "origin", "https://example.com/libcxx.git"},
		{"git", "-C", dir, "fetch", "--quiet", "--depth=1", "origin", "abc123"},
		{"git", "-C", dir, "reset", "--quiet", "--hard", "FETCH_HEAD"},
	}
	if len(runner.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", runner.calls, want)
	}
	for index := range want {
		if strings.Join(runner.calls[index], " ") != strings.Join(want[index], " ") {
			t.Errorf("call %d = %v, want %v", index, runner.calls[index], want[index])
		}
	}
}
