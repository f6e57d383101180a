// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package toolexec

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test uses /bin/sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skipf("sh not available: %v", err)
	}
}

func TestFindBinary_NonexistentBinary(t *testing.T) {
	t.Parallel()

	_, err := FindBinary("toolexec-definitely-does-not-exist-abcxyz")
	if err == nil {
		t.Fatal("expected error for nonexistent binary")
	}
	if !strings.Contains(err.Error(), "not found on PATH") {
		t.Errorf("error = %v, want error containing 'not found on PATH'", err)
	}
}

func TestFindBinary_FallbackDirectory(t *testing.T) {
	t.Parallel()

	directory := t.TempDir()
	name := "toolexec-fallback-abcxyz"
	binary := filepath.Join(directory, name)
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	path, err := FindBinary(name, filepath.Join(directory, "missing"), directory)
	if err != nil {
		t.Fatalf("FindBinary: %v", err)
	}
	if path != binary {
		t.Errorf("FindBinary = %q, want %q", path, binary)
	}
}

func TestExecRun_Stdout(t *testing.T) {
	t.Parallel()
	requireShell(t)

	directory := t.TempDir()
	var output bytes.Buffer
	runner := &Exec{Output: &output}
	stdout, err := runner.Run(context.Background(), directory, "sh", "-c", "pwd; echo progress >&2")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	resolved, err := filepath.EvalSymlinks(directory)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(stdout); got != directory && got != resolved {
		t.Errorf("stdout = %q, want working directory %q", got, directory)
	}
	if !strings.Contains(output.String(), "progress") {
		t.Errorf("streamed output = %q, want stderr copy", output.String())
	}
}

func TestExecRun_FailureCarriesStderr(t *testing.T) {
	t.Parallel()
	requireShell(t)

	_, err := (&Exec{}).Run(context.Background(), "", "sh", "-c", "echo 'configure failed' >&2; exit 3")
	var commandError *CommandError
	if !errors.As(err, &commandError) {
		t.Fatalf("err = %v, want *CommandError", err)
	}
	if commandError.Stderr != "configure failed" {
		t.Errorf("Stderr = %q, want %q", commandError.Stderr, "configure failed")
	}
	var exitError *exec.ExitError
	if !errors.As(err, &exitError) || exitError.ExitCode() != 3 {
		t.Errorf("err = %v, want wrapped exit status 3", err)
	}
	if !strings.Contains(err.Error(), "configure failed") {
		t.Errorf("Error() = %q, want stderr text", err.Error())
	}
}

func TestExecRun_MissingBinary(t *testing.T) {
	t.Parallel()

	_, err := (&Exec{}).Run(context.Background(), "", "toolexec-definitely-does-not-exist-abcxyz")
	var commandError *CommandError
	if !errors.As(err, &commandError) {
		t.Fatalf("err = %v, want *CommandError", err)
	}
}

func TestExecRun_StreamsBothOutputsToOneWriter(t *testing.T) {
	t.Parallel()
	requireShell(t)

	var output bytes.Buffer
	runner := &Exec{Output: &output}
	script := `i=0; while [ $i -lt 500 ]; do echo out-$i; echo err-$i >&2; i=$((i+1)); done`
	stdout, err := runner.Run(context.Background(), "", "sh", "-c", script)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.Count(stdout, "out-"); got != 500 {
		t.Errorf("captured %d stdout lines, want 500", got)
	}
	streamed := output.String()
	if got := strings.Count(streamed, "out-"); got != 500 {
		t.Errorf("streamed %d stdout lines, want 500", got)
	}
	if got := strings.Count(streamed, "err-"); got != 500 {
		t.Errorf("streamed %d stderr lines, want 500", got)
	}
}

func TestExecRun_KeepsStderrTail(t *testing.T) {
	t.Parallel()
	requireShell(t)

	script := `i=0; while [ $i -lt 20000 ]; do echo progress-$i >&2; i=$((i+1)); done; echo 'final error' >&2; exit 1`
	_, err := (&Exec{}).Run(context.Background(), "", "sh", "-c", script)
	var commandError *CommandError
	if !errors.As(err, &commandError) {
		t.Fatalf("err = %v, want *CommandError", err)
	}
	if len(commandError.Stderr) > MaxCapture {
		t.Errorf("captured %d bytes of stderr, want at most %d", len(commandError.Stderr), MaxCapture)
	}
	if !strings.HasSuffix(commandError.Stderr, "final error") {
		t.Errorf("stderr does not end with the last line: ...%q", commandError.Stderr[max(0, len(commandError.Stderr)-40):])
	}
}

func TestExecRun_FallbackDirs(t *testing.T) {
	t.Parallel()
	requireShell(t)

	directory := t.TempDir()
	name := "toolexec-fallback-run-abcxyz"
	if err := os.WriteFile(filepath.Join(directory, name), []byte("#!/bin/sh\necho from fallback\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	stdout, err := (&Exec{FallbackDirs: []string{directory}}).Run(context.Background(), "", name)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(stdout) != "from fallback" {
		t.Errorf("stdout = %q, want %q", stdout, "from fallback")
	}
}

func TestTailBuffer(t *testing.T) {
	t.Parallel()

	buffer := &tailBuffer{limit: 8}
	for _, chunk := range []string{"abc", "defg", "hij"} {
		if n, err := buffer.Write([]byte(chunk)); err != nil || n != len(chunk) {
			t.Fatalf("Write(%q) = %d, %v", chunk, n, err)
		}
	}
	if got := buffer.String(); got != "cdefghij" {
		t.Errorf("after overflow = %q, want %q", got, "cdefghij")
	}
	buffer.Write([]byte("0123456789"))
	if got := buffer.String(); got != "23456789" {
		t.Errorf("after oversized write = %q, want %q", got, "23456789")
	}
}
