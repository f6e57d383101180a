// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/klauspost/compress/zip"
)

const (
	// modeTypeMask and modeSymlink are the S_IFMT and S_IFLNK bits as
	// stored in the upper half of a zip entry's external attributes.
	modeTypeMask = 0o170000
	modeSymlink  = 0o120000
)

// restorePOSIXAttributes controls the zip attribute pass. Windows has
// no use for POSIX modes and cannot reliably create symlinks.
var restorePOSIXAttributes = runtime.GOOS != "windows"

type zipArchive struct {
	reader  *zip.ReadCloser
	members []Entry
}

func openZip(path string) (*zipArchive, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	archive := &zipArchive{reader: reader}
	for _, file := range reader.File {
		archive.members = append(archive.members, Entry{
			Name:  file.Name,
			IsDir: file.FileInfo().IsDir(),
			Mode:  file.ExternalAttrs >> 16,
		})
	}
	return archive, nil
}

func (a *zipArchive) entries() []Entry { return a.members }

func (a *zipArchive) close() error { return a.reader.Close() }

func (a *zipArchive) extractAll(root string) error {
	for _, file := range a.reader.File {
		if err := extractZipFile(root, file); err != nil {
			return err
		}
	}
	if !restorePOSIXAttributes {
		return nil
	}
	for _, file := range a.reader.File {
		if err := restoreZipAttributes(root, file); err != nil {
			return err
		}
	}
	return nil
}

// extractZipFile writes one member as a plain directory or file. Symlink
// members are written as files holding the link target; the attribute
// pass turns them into links.
func extractZipFile(root string, file *zip.File) error {
	path, err := memberPath(root, file.Name)
	if err != nil {
		return err
	}
	if file.FileInfo().IsDir() {
		return os.MkdirAll(path, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	content, err := file.Open()
	if err != nil {
		return fmt.Errorf("opening member %s: %w", file.Name, err)
	}
	defer content.Close()
	return writeFile(path, content, 0o644)
}

func restoreZipAttributes(root string, file *zip.File) error {
	if file.FileInfo().IsDir() {
		return nil
	}
	mode := file.ExternalAttrs >> 16
	// Archives created on systems without POSIX modes store nothing here.
	if mode == 0 {
		return nil
	}
	path, err := memberPath(root, file.Name)
	if err != nil {
		return err
	}

	if mode&modeTypeMask == modeSymlink {
		return restoreZipSymlink(path)
	}
	return os.Chmod(path, fs.FileMode(mode&0o777))
}

// restoreZipSymlink replaces the placeholder file at path with a symlink
// to the target it contains, but only when that target exists. A
// dangling link is removed and not recreated.
func restoreZipSymlink(path string) error {
	target, err := readLinkPlaceholder(path)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	resolved := target
	if !filepath.IsAbs(target) {
		resolved = filepath.Join(filepath.Dir(path), target)
	}
	if _, err := os.Stat(resolved); err != nil {
		return nil
	}
	return os.Symlink(target, path)
}

func readLinkPlaceholder(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	// A link target longer than PATH_MAX is not a link target.
	content, err := io.ReadAll(io.LimitReader(file, 4096))
	if err != nil {
		return "", fmt.Errorf("reading link placeholder %s: %w", path, err)
	}
	return string(content), nil
}
