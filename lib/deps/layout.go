// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deps

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvDepsDir names the environment variable that selects a persistent
// deps directory.
const EnvDepsDir = "SORA_SDK_DEPS_DIR"

// Kind names one installed dependency. It is also the name of the
// dependency's directory under the install root and the stem of its
// version marker.
type Kind string

const (
	KindWebRTC Kind = "webrtc"
	KindLLVM   Kind = "llvm"
	KindBoost  Kind = "boost"
	KindLyra   Kind = "lyra"
	KindSora   Kind = "sora"
)

// Kinds lists every dependency in installation order.
var Kinds = []Kind{KindWebRTC, KindLLVM, KindBoost, KindLyra, KindSora}

// Layout is the directory structure under one deps directory.
type Layout struct {
	// Root is the deps directory itself.
	Root string
	// Source caches downloaded archives.
	Source string
	// Build holds intermediate native build output.
	Build string
	// Install holds one extracted directory and one version marker per
	// dependency.
	Install string
}

// NewLayout returns the layout rooted at root without touching the
// filesystem.
func NewLayout(root string) Layout {
	return Layout{
		Root:    root,
		Source:  filepath.Join(root, "_source"),
		Build:   filepath.Join(root, "_build"),
		Install: filepath.Join(root, "_install"),
	}
}

// Create makes the three layout directories.
func (l Layout) Create() error {
	for _, directory := range []string{l.Source, l.Build, l.Install} {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", directory, err)
		}
	}
	return nil
}

// InstallPath is the directory a dependency is installed into.
func (l Layout) InstallPath(kind Kind) string {
	return filepath.Join(l.Install, string(kind))
}

// MarkerPath is the version marker of a dependency.
func (l Layout) MarkerPath(kind Kind) string {
	return filepath.Join(l.Install, string(kind)+".version")
}

// AcquireDir returns the deps directory to use and a release function
// the caller must defer. A non-empty configured directory is returned
// as is with a no-op release. Otherwise a fresh temporary directory is
// created and release removes it, whether or not the work succeeded.
func AcquireDir(configured string) (string, func(), error) {
	if configured != "" {
		return configured, func() {}, nil
	}
	directory, err := os.MkdirTemp("", "sora-python-sdk-")
	if err != nil {
		return "", nil, fmt.Errorf("creating temporary deps directory: %w", err)
	}
	return directory, func() { os.RemoveAll(directory) }, nil
}
