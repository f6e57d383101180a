// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import "runtime"

// machine maps GOARCH to the PROCESSOR_ARCHITECTURE spelling Windows
// reports.
func machine() string {
	switch runtime.GOARCH {
	case "amd64":
		return "AMD64"
	case "arm64":
		return "arm64"
	}
	return runtime.GOARCH
}
