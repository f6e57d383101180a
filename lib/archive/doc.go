// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive unpacks prebuilt dependency archives into a stable,
// caller-chosen directory name.
//
// Release archives usually wrap their content in one versioned top-level
// directory (libsora-1.23/...). [Extractor.Extract] strips that wrapper
// so the result always lands at outputDir/outputName regardless of how
// the archive was packed:
//
//	libsora-1.23/file1, libsora-1.23/file2  → out/libsora/file1, out/libsora/file2
//	libsora-1.23/file1, LICENSE             → out/libsora/libsora-1.23/file1, out/libsora/LICENSE
//
// Two archive kinds are supported: gzip-compressed tar ([KindTarGzip])
// and zip ([KindZip]). Both are read through format adapters that
// produce the same [Entry] list, so single-directory detection
// ([SingleDirectory]) and stripping are format-agnostic.
//
// Tar extraction restores permission bits, symbolic links, and hard
// links from the headers. Zip extraction first writes every member as a
// plain file and then, except on Windows, reapplies the POSIX mode
// stored in the external attributes. A zip symlink is stored as a file
// whose content is the link target; it becomes a real symlink only when
// that target exists after extraction. Dangling links are dropped
// without error.
//
// Extraction is destructive: whatever exists at outputDir/outputName is
// removed first. Entries whose paths would escape the extraction root
// are rejected.
package archive
