// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package marker skips expensive installation steps whose result is
// already present at the requested version.
//
// A marker is a plain-text file holding the exact version string of the
// last successful run. [Guard.Run] compares it (whitespace-trimmed) to
// the requested version: equal means the step is skipped; anything else
// (missing marker, different version) runs the step and, only when it
// succeeds, records the new version. The marker is replaced atomically
// so a crash never leaves a half-written version behind.
//
// Guards do not lock. Two processes sharing one install directory can
// race on the same step.
package marker

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Guard gates one step on the version recorded at Path.
type Guard struct {
	// Path is the marker file location.
	Path string

	// IgnoreMarker deletes any existing marker before checking, forcing
	// the step to run.
	IgnoreMarker bool

	// Logger receives skip/run decisions. Nil discards them.
	Logger *slog.Logger
}

// Run calls step(version) unless the marker already records version.
// It reports whether step ran.
func (g Guard) Run(version string, step func(version string) error) (bool, error) {
	_, ran, err := Do(g, version, func(version string) (struct{}, error) {
		return struct{}{}, step(version)
	})
	return ran, err
}

// Do is Run for steps that produce a result. When the step is skipped
// the zero value of R is returned with ran == false.
func Do[R any](g Guard, version string, step func(version string) (R, error)) (result R, ran bool, err error) {
	logger := g.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if g.IgnoreMarker {
		if err := os.Remove(g.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return result, false, fmt.Errorf("removing version marker %s: %w", g.Path, err)
		}
	}

	recorded, present, err := Read(g.Path)
	if err != nil {
		return result, false, err
	}
	if present && recorded == strings.TrimSpace(version) {
		logger.Debug("version marker matches, skipping", "marker", g.Path, "version", recorded)
		return result, false, nil
	}
	if present {
		logger.Info("version changed", "marker", g.Path, "recorded", recorded, "requested", version)
	}

	result, err = step(version)
	if err != nil {
		return result, true, err
	}
	if err := Write(g.Path, version); err != nil {
		return result, true, err
	}
	return result, true, nil
}

// Read returns the trimmed version recorded at path. A missing marker
// returns ("", false, nil).
func Read(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading version marker %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// Write records version at path exactly as given, via a temporary file
// in the same directory and a rename.
func Write(path, version string) error {
	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("creating marker directory %s: %w", directory, err)
	}

	temporary, err := os.CreateTemp(directory, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary marker: %w", err)
	}
	temporaryPath := temporary.Name()
	if _, err := temporary.WriteString(version); err != nil {
		temporary.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing version marker: %w", err)
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("writing version marker: %w", err)
	}
	if err := os.Chmod(temporaryPath, 0o644); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("writing version marker: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("installing version marker %s: %w", path, err)
	}
	return nil
}
