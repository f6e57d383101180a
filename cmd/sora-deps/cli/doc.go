// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command-line framework shared by the sora-deps
// and sora-recvonly binaries.
//
// A [Command] has a name, a [pflag.FlagSet] factory, and either a Run
// function or nested Subcommands. [Command.Execute] parses flags,
// routes to subcommands and prints help with examples. Unknown
// subcommands and flags get a "did you mean" suggestion when one is
// within Levenshtein distance 3 (suggest.go).
//
// [NewCommandLogger] builds the binaries' slog logger, and [ExitError]
// carries a handled non-zero exit status back to main.
package cli
