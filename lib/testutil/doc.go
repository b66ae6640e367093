// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for TicTic packages.
//
// [RequireReceive] and [RequireClosed] wrap the timeout safety valve
// (select with a time.After fallback) for tests that wait on a
// goroutine. They are the only place tests wait on the wall clock;
// poll delays themselves run on [clock.FakeClock].
//
// Helpers call t.Fatalf on failure rather than returning errors.
//
// This package has no TicTic-internal dependencies.
package testutil
