// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// tarGzip reads a .tar.gz archive. The entry list is collected on open;
// extraction streams the archive a second time since tar has no index.
type tarGzip struct {
	path    string
	members []Entry
}

func openTarGzip(path string) (*tarGzip, error) {
	archive := &tarGzip{path: path}
	err := archive.walk(func(header *tar.Header, name string, _ io.Reader) error {
		entry := Entry{
			Name:  name,
			IsDir: header.Typeflag == tar.TypeDir,
			Mode:  uint32(header.Mode) & 0o7777,
		}
		if header.Typeflag == tar.TypeSymlink {
			entry.LinkTarget = header.Linkname
		}
		archive.members = append(archive.members, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return archive, nil
}

func (a *tarGzip) entries() []Entry { return a.members }

func (a *tarGzip) close() error { return nil }

// walk calls visit for every member with a normalized, non-empty name.
func (a *tarGzip) walk(visit func(header *tar.Header, name string, content io.Reader) error) error {
	file, err := os.Open(a.path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", a.path, err)
	}
	defer file.Close()

	decompressor, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("reading gzip header of %s: %w", a.path, err)
	}
	defer decompressor.Close()

	reader := tar.NewReader(decompressor)
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", a.path, err)
		}
		name := normalizeName(header.Name)
		if name == "" {
			continue
		}
		if err := visit(header, name, reader); err != nil {
			return err
		}
	}
}

func (a *tarGzip) extractAll(root string) error {
	type directoryMode struct {
		path string
		mode fs.FileMode
	}
	// Directory modes are applied last so a read-only directory does not
	// block extraction of its children.
	var directories []directoryMode

	err := a.walk(func(header *tar.Header, name string, content io.Reader) error {
		path, err := memberPath(root, name)
		if err != nil {
			return err
		}
		mode := fs.FileMode(header.Mode).Perm()

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(path, 0o755); err != nil {
				return err
			}
			if mode != 0 {
				directories = append(directories, directoryMode{path: path, mode: mode})
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			// Writing through an earlier symlink member would land
			// outside root.
			if info, err := os.Lstat(path); err == nil && info.Mode()&fs.ModeSymlink != 0 {
				if err := os.Remove(path); err != nil {
					return err
				}
			}
			if err := writeFile(path, content, mode); err != nil {
				return err
			}

		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := RemoveAll(path); err != nil {
				return err
			}
			if err := os.Symlink(header.Linkname, path); err != nil {
				return err
			}

		case tar.TypeLink:
			source, err := memberPath(root, normalizeName(header.Linkname))
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := RemoveAll(path); err != nil {
				return err
			}
			if err := os.Link(source, path); err != nil {
				return err
			}

		default:
			// Device nodes and FIFOs have no place in a dependency archive.
		}
		return nil
	})
	if err != nil {
		return err
	}

	for index := len(directories) - 1; index >= 0; index-- {
		if err := os.Chmod(directories[index].path, directories[index].mode); err != nil {
			return err
		}
	}
	return nil
}

// writeFile creates path with content and sets mode explicitly so the
// process umask does not strip stored permission bits. A zero mode
// means the archive recorded none.
func writeFile(path string, content io.Reader, mode fs.FileMode) error {
	if mode == 0 {
		mode = 0o644
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Chmod(path, mode)
}
