// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitCoder is implemented by errors that carry their own exit code.
type ExitCoder interface {
	ExitCode() int
}

// ExitCode maps err to a process exit status: 0 for nil, 130 for an
// interrupted run (context.Canceled, as after SIGINT), the code of an
// ExitCoder anywhere in the chain, and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

// Report writes "error: err" to w unless err is nil or carries its own
// exit code (those errors have already been reported).
func Report(w io.Writer, err error) {
	if err == nil {
		return
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}

// Exit reports err and terminates with its ExitCode.
func Exit(err error) {
	Report(os.Stderr, err)
	os.Exit(ExitCode(err))
}
