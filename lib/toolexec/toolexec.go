// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package toolexec runs the external build tools the dependency
// installer and builder drive: python3 for the LLVM toolchain script,
// cmake for the native build, and xcrun for the macOS SDK path.
//
// Binaries are resolved on PATH first and then in caller-supplied
// fallback directories. Failures carry the captured stderr in a
// [CommandError] since these tools report the actual problem there.
package toolexec

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// Runner executes a named binary in a working directory and returns its
// stdout. The installer and builder depend on this interface so tests
// can substitute a recorder.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// CommandError reports a command that could not start or exited
// non-zero.
type CommandError struct {
	// Command is the binary name followed by its arguments.
	Command string
	// Dir is the working directory, empty for the current directory.
	Dir string
	// Stderr is the trimmed standard error output.
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	location := ""
	if e.Dir != "" {
		location = " in " + e.Dir
	}
	if e.Stderr != "" {
		return fmt.Sprintf("%s%s: %s", e.Command, location, e.Stderr)
	}
	return fmt.Sprintf("%s%s: %v", e.Command, location, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// FindBinary resolves name on PATH, then in each fallback directory in
// order. Returns the absolute path to the binary.
func FindBinary(name string, fallbackDirs ...string) (string, error) {
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	for _, directory := range fallbackDirs {
		candidate := filepath.Join(directory, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	if len(fallbackDirs) == 0 {
		return "", fmt.Errorf("%s not found on PATH", name)
	}
	return "", fmt.Errorf("%s not found on PATH or in %s", name, strings.Join(fallbackDirs, ", "))
}

// MaxCapture bounds how much of a command's stdout and stderr Exec keeps
// in memory: 64 KiB. When more is written, the tail is kept, since tools
// report failures last.
const MaxCapture = 64 << 10

// Exec is the Runner backed by os/exec.
type Exec struct {
	// Output, when set, receives a live copy of the command's stdout and
	// stderr. Long cmake builds stream their progress through it.
	Output io.Writer

	// FallbackDirs are searched after PATH when resolving binaries.
	FallbackDirs []string

	Logger *slog.Logger
}

// Run resolves name, executes it in dir, and returns stdout. Only the
// last MaxCapture bytes of stdout and stderr are retained.
func (e *Exec) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	commandString := strings.TrimSpace(name + " " + strings.Join(args, " "))

	binaryPath, err := FindBinary(name, e.FallbackDirs...)
	if err != nil {
		return "", &CommandError{Command: commandString, Dir: dir, Err: err}
	}
	if e.Logger != nil {
		e.Logger.Debug("running command", "command", commandString, "dir", dir, "binary", binaryPath)
	}

	stdout := &tailBuffer{limit: MaxCapture}
	stderr := &tailBuffer{limit: MaxCapture}
	command := exec.CommandContext(ctx, binaryPath, args...)
	command.Dir = dir
	command.Stdout = stdout
	command.Stderr = stderr
	if e.Output != nil {
		// os/exec copies stdout and stderr on separate goroutines.
		output := &lockedWriter{writer: e.Output}
		command.Stdout = io.MultiWriter(stdout, output)
		command.Stderr = io.MultiWriter(stderr, output)
	}

	if err := command.Run(); err != nil {
		return "", &CommandError{
			Command: commandString,
			Dir:     dir,
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return stdout.String(), nil
}

// lockedWriter serializes writes to a shared writer.
type lockedWriter struct {
	mu     sync.Mutex
	writer io.Writer
}

func (w *lockedWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writer.Write(data)
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	data  []byte
}

func (b *tailBuffer) Write(data []byte) (int, error) {
	written := len(data)
	if len(data) >= b.limit {
		b.data = append(b.data[:0], data[len(data)-b.limit:]...)
		return written, nil
	}
	if overflow := len(b.data) + len(data) - b.limit; overflow > 0 {
		b.data = append(b.data[:0], b.data[overflow:]...)
	}
	b.data = append(b.data, data...)
	return written, nil
}

func (b *tailBuffer) String() string { return string(b.data) }
