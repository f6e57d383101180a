// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package platform

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// machine returns the hardware name reported by uname(2), which
// describes the running kernel rather than the architecture this binary
// was compiled for.
func machine() string {
	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err != nil {
		return runtime.GOARCH
	}
	return unix.ByteSliceToString(utsname.Machine[:])
}
