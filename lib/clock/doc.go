// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction so that polling
// code can be tested without wall-clock delay.
//
// Production code holds a Clock instead of calling time.Now, time.After,
// or time.Sleep directly. Real() provides the standard library behavior.
// Fake() provides a deterministic clock that advances only when Advance
// is called.
//
// # Wiring Pattern
//
//	type Poller struct {
//	    clock clock.Clock
//	}
//
//	// production
//	p := &Poller{clock: clock.Real()}
//
//	// tests
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	p := &Poller{clock: c}
//	go p.Run(ctx)
//	c.WaitForTimers(1)         // wait for the poller to start sleeping
//	c.Advance(2 * time.Second) // wake it deterministically
//
// [Sleep] is the context-aware sleep used by every poll loop: it returns
// early with ctx.Err() when the context is cancelled.
package clock
