// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sora-sdk/cmd/sora-deps/cli"
	"github.com/bureau-foundation/sora-sdk/lib/archive"
	"github.com/bureau-foundation/sora-sdk/lib/fetch"
)

func platformCommand(stdout io.Writer) *cli.Command {
	var target string
	return &cli.Command{
		Name:    "platform",
		Summary: "Print the artifact package name for this host",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("platform", pflag.ContinueOnError)
			flagSet.StringVar(&target, "target", "", "describe this package name instead of the host")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			resolved, err := resolveTarget(target)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "package:   %s\n", resolved.PackageName())
			fmt.Fprintf(stdout, "os:        %s\n", resolved.OS)
			if resolved.OSVersion != "" {
				fmt.Fprintf(stdout, "version:   %s\n", resolved.OSVersion)
			}
			fmt.Fprintf(stdout, "arch:      %s\n", resolved.Arch)
			fmt.Fprintf(stdout, "extension: %s\n", resolved.ArchiveExtension())
			return nil
		},
	}
}

func fetchCommand(stdout io.Writer) *cli.Command {
	var outputDir, filename string
	var timeout time.Duration
	var verbose bool
	return &cli.Command{
		Name:    "fetch",
		Summary: "Download a URL into a directory unless already present",
		Usage:   "sora-deps fetch <url> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
			flagSet.StringVarP(&outputDir, "output-dir", "o", ".", "destination directory")
			flagSet.StringVar(&filename, "filename", "", "local file name (default: last URL path segment)")
			flagSet.DurationVar(&timeout, "timeout", 30*time.Minute, "download timeout")
			flagSet.BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one URL, got %d arguments", len(args))
			}
			fetcher := fetch.New(&http.Client{Timeout: timeout}, cli.NewCommandLogger(verbose))
			path, err := fetcher.Fetch(ctx, args[0], outputDir, filename)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, path)
			return nil
		},
	}
}

func extractCommand(stdout io.Writer) *cli.Command {
	var kind string
	var verbose bool
	return &cli.Command{
		Name:    "extract",
		Summary: "Unpack an archive to <output-dir>/<name>",
		Description: `Unpack a .tar.gz or .zip archive to <output-dir>/<name>, replacing
anything already there. An archive whose members all live under one
top-level directory has that directory stripped.`,
		Usage: "sora-deps extract <archive> <output-dir> <name> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("extract", pflag.ContinueOnError)
			flagSet.StringVar(&kind, "kind", "", "archive kind, gzip or zip (default: from the file name)")
			flagSet.BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Unpack Boost into the install tree", Command: "sora-deps extract boost.tar.gz _deps/install boost"},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 3 {
				return fmt.Errorf("expected <archive> <output-dir> <name>, got %d arguments", len(args))
			}
			archiveKind, err := archive.ParseKind(kind)
			if err != nil {
				return err
			}
			extractor := archive.NewExtractor(cli.NewCommandLogger(verbose))
			if err := extractor.Extract(args[0], args[1], args[2], archiveKind); err != nil {
				return err
			}
			fmt.Fprintln(stdout, filepath.Join(args[1], args[2]))
			return nil
		},
	}
}
