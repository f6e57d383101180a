// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared channel helpers for tests.
//
// [RequireReceive], [RequireNoReceive], and [RequireClosed] wrap the
// select-with-timeout pattern so individual tests never call time.After
// themselves. The timeout is a hang guard only: tests that exercise
// timing use lib/clock's fake clock, and these helpers are the one
// place real wall-clock time appears in the test suite.
//
// All helpers call t.Fatalf on failure.
package testutil
