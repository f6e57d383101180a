// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package keyvalue parses the line-oriented KEY=value descriptor format
// shared by the project VERSION file, the VERSIONS file shipped inside
// the prebuilt WebRTC archive, and /etc/os-release.
//
// Blank lines and lines whose first non-space character is '#' are
// ignored. Everything before the first '=' is the key, everything after
// it is the value; both are trimmed, and a value wrapped in double or
// single quotes is unquoted:
//
//	# pinned versions
//	SORA_CPP_SDK_VERSION=2023.1.0
//	PRETTY_NAME="Ubuntu 22.04.2 LTS"
//
// A non-comment line without '=' is an error reported with its line
// number. Later duplicates of a key replace earlier ones.
package keyvalue

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parse reads KEY=value lines from r.
func Parse(r io.Reader) (map[string]string, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("line %d: expected KEY=VALUE, got %q", lineNumber, line)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("line %d: empty key", lineNumber)
		}
		values[key] = unquote(strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// ReadFile parses the descriptor file at path.
func ReadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	values, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return values, nil
}

// Require returns the values for keys, failing with a single error that
// names every missing key.
func Require(values map[string]string, keys ...string) ([]string, error) {
	result := make([]string, len(keys))
	var missing []string
	for i, key := range keys {
		value, ok := values[key]
		if !ok || value == "" {
			missing = append(missing, key)
			continue
		}
		result[i] = value
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required keys: %s", strings.Join(missing, ", "))
	}
	return result, nil
}

func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' || first == '\'') && first == last {
			return value[1 : len(value)-1]
		}
	}
	return value
}
