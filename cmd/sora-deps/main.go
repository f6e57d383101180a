// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/sora-sdk/cmd/sora-deps/cli"
	"github.com/bureau-foundation/sora-sdk/lib/process"
	"github.com/bureau-foundation/sora-sdk/lib/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	process.Exit(err)
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 1 {
		switch args[0] {
		case "--version":
			fmt.Fprintf(stdout, "sora-deps %s\n", version.Info())
			return nil
		case "version":
			fmt.Fprintf(stdout, "sora-deps %s\n", version.Full())
			return nil
		}
	}
	return rootCommand(stdout).Execute(ctx, args)
}

func rootCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "sora-deps",
		Summary: "Prepare native dependencies for the Sora Python SDK",
		Description: `Prepare native dependencies for the Sora Python SDK.

Downloads pinned libwebrtc, Boost, Lyra and Sora C++ SDK releases for
this platform, skips anything whose version marker is current, and
drives the cmake build of the extension.`,
		Subcommands: []*cli.Command{
			installCommand(stdout),
			buildCommand(stdout),
			statusCommand(stdout),
			platformCommand(stdout),
			fetchCommand(stdout),
			extractCommand(stdout),
		},
	}
}
