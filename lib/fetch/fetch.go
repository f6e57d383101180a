// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fetch downloads release artifacts into a local cache directory.
//
// [Fetcher.Fetch] is idempotent on the destination path: when a file
// already exists there it is returned without any network request and
// without validating its content. Staleness is the caller's concern
// (the installer deletes the cached archive before fetching a new
// version). A failed transfer never leaves a partial file behind.
//
// Every completed download is streamed through a BLAKE3 hasher and
// logged with its size and digest so a run's log identifies exactly
// which bytes were installed.
package fetch

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/sora-sdk/lib/netutil"
)

// Fetcher downloads artifacts over HTTP.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// New returns a Fetcher using client (http.DefaultClient when nil).
func New(client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fetcher{client: client, logger: logger}
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// Fetch downloads rawURL into destinationDir and returns the local path.
// An empty filename means the last segment of the URL path. An empty
// destinationDir means the current directory.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, destinationDir, filename string) (string, error) {
	if filename == "" {
		var err error
		filename, err = FilenameFromURL(rawURL)
		if err != nil {
			return "", err
		}
	}
	destination := filepath.Join(destinationDir, filename)

	if _, err := os.Stat(destination); err == nil {
		f.logger.Debug("artifact already downloaded", "path", destination)
		return destination, nil
	}

	if err := f.download(ctx, rawURL, destination); err != nil {
		if removeErr := os.Remove(destination); removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
			f.logger.Warn("removing partial download failed", "path", destination, "error", removeErr)
		}
		return "", fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	return destination, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL, destination string) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	f.logger.Info("downloading artifact", "url", rawURL, "path", destination)
	response, err := f.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return &StatusError{
			URL:        rawURL,
			StatusCode: response.StatusCode,
			Body:       netutil.ErrorBody(response.Body),
		}
	}

	file, err := os.Create(destination)
	if err != nil {
		return err
	}

	hasher := blake3.New()
	written, copyErr := io.Copy(io.MultiWriter(file, hasher), response.Body)
	closeErr := file.Close()
	if copyErr != nil {
		return copyErr
	}
	if closeErr != nil {
		return closeErr
	}

	f.logger.Info("artifact downloaded",
		"path", destination,
		"size", humanize.Bytes(uint64(written)),
		"blake3", hex.EncodeToString(hasher.Sum(nil)),
	)
	return nil
}

// FilenameFromURL returns the final segment of the URL path.
func FilenameFromURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("URL %q has no filename", rawURL)
	}
	return name, nil
}
