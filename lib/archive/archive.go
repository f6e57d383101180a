// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies an archive format.
type Kind string

const (
	// KindTarGzip is a gzip-compressed tar archive (.tar.gz).
	KindTarGzip Kind = "gzip"
	// KindZip is a zip archive (.zip).
	KindZip Kind = "zip"
)

// ErrUnknownKind is returned when no kind was given and the archive
// extension is neither .tar.gz nor .zip.
var ErrUnknownKind = errors.New("archive must end with .tar.gz or .zip")

// ParseKind converts a kind name into a Kind. The empty string is
// accepted and means "infer from the extension".
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case "", KindTarGzip, KindZip:
		return Kind(name), nil
	}
	return "", fmt.Errorf("unknown archive kind %q (want %q or %q)", name, KindTarGzip, KindZip)
}

// DetectKind returns kind when it is set, otherwise the kind implied by
// the path's extension.
func DetectKind(path string, kind Kind) (Kind, error) {
	if kind != "" {
		return ParseKind(string(kind))
	}
	switch {
	case strings.HasSuffix(path, ".tar.gz"):
		return KindTarGzip, nil
	case strings.HasSuffix(path, ".zip"):
		return KindZip, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnknownKind)
}

// Entry is one archive member, independent of the archive format.
type Entry struct {
	// Name is the slash-separated member path. Directory names from zip
	// archives keep their trailing slash; tar names may not have one.
	Name string
	// IsDir reports whether the member is a directory.
	IsDir bool
	// Mode holds the raw stored mode: permission bits for tar members,
	// the upper 16 bits of the external attributes for zip members
	// (file type and permission bits, zero when the creator stored none).
	Mode uint32
	// LinkTarget is the symlink target recorded in a tar header. Zip
	// symlink targets live in the member content and are not known
	// until extraction.
	LinkTarget string
}

// SingleDirectory reports the top-level directory shared by every
// entry. It returns false when entries live under more than one
// top-level name, when any non-directory sits directly at the root, or
// when there are no entries at all.
func SingleDirectory(entries []Entry) (string, bool) {
	directory := ""
	for _, entry := range entries {
		trimmed := strings.TrimRight(entry.Name, "/")
		var top string
		if index := strings.IndexByte(trimmed, '/'); index == -1 {
			// A lone file at the root never counts as a wrapper directory.
			if !entry.IsDir {
				return "", false
			}
			top = trimmed
		} else {
			top = trimmed[:index]
		}
		if directory != "" && directory != top {
			return "", false
		}
		directory = top
	}
	return directory, directory != ""
}

// format is the per-kind adapter behind Extract.
type format interface {
	entries() []Entry
	// extractAll writes every member under root, which already exists.
	extractAll(root string) error
	close() error
}

func openFormat(path string, kind Kind) (format, error) {
	switch kind {
	case KindTarGzip:
		return openTarGzip(path)
	case KindZip:
		return openZip(path)
	}
	return nil, fmt.Errorf("%s: %w", path, ErrUnknownKind)
}

// Extractor unpacks archives, logging each step.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor returns an Extractor that logs to logger (discarded when nil).
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{logger: logger}
}

// Extract unpacks archivePath into outputDir/outputName without
// logging. See [Extractor.Extract].
func Extract(archivePath, outputDir, outputName string, kind Kind) error {
	return NewExtractor(nil).Extract(archivePath, outputDir, outputName, kind)
}

// Extract unpacks archivePath into outputDir/outputName. An empty kind
// infers the format from the extension.
func (e *Extractor) Extract(archivePath, outputDir, outputName string, kind Kind) error {
	kind, err := DetectKind(archivePath, kind)
	if err != nil {
		return err
	}

	target := filepath.Join(outputDir, outputName)
	e.logger.Info("extracting archive", "archive", archivePath, "destination", target, "kind", kind)

	archive, err := openFormat(archivePath, kind)
	if err != nil {
		return err
	}
	defer archive.close()

	if err := RemoveAll(target); err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outputDir, err)
	}

	directory, single := SingleDirectory(archive.entries())
	if !single {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", target, err)
		}
		if err := archive.extractAll(target); err != nil {
			return fmt.Errorf("extracting %s: %w", archivePath, err)
		}
		return nil
	}

	e.logger.Debug("stripping top-level directory", "directory", directory)
	staged := filepath.Join(outputDir, directory)
	if err := RemoveAll(staged); err != nil {
		return err
	}
	if err := archive.extractAll(outputDir); err != nil {
		return fmt.Errorf("extracting %s: %w", archivePath, err)
	}
	if staged != target {
		if err := os.Rename(staged, target); err != nil {
			return fmt.Errorf("renaming %s to %s: %w", staged, target, err)
		}
	}
	return nil
}

// RemoveAll deletes path whether it is a file, symlink, or directory
// tree. A missing path is not an error.
func RemoveAll(path string) error {
	if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// memberPath resolves an archive member name under root, rejecting
// absolute names, names that climb out of root, and names whose parent
// directories pass through a symlink already extracted under root.
func memberPath(root, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || filepath.VolumeName(cleaned) != "" ||
		cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("member %q escapes the extraction directory", name)
	}

	current := root
	components := strings.Split(cleaned, string(filepath.Separator))
	for _, component := range components[:len(components)-1] {
		current = filepath.Join(current, component)
		info, err := os.Lstat(current)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return "", err
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return "", fmt.Errorf("member %q is inside symlink %q", name, current)
		}
	}
	return filepath.Join(root, cleaned), nil
}

// normalizeName strips "./" prefixes that tar writes when an archive is
// created from ".". The bare root entry normalizes to "".
func normalizeName(name string) string {
	for strings.HasPrefix(name, "./") {
		name = name[2:]
	}
	if name == "." {
		return ""
	}
	return name
}
