// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the time abstraction used by fnhost's polling
// loops. The supervisor waits on a spawned host with Sleep and checks
// its deadline with Now; tests substitute [Fake] so that timeouts fire
// deterministically instead of depending on wall-clock delays.
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go supervisor.Connect(ctx, 2*time.Second)
//	c.WaitForTimers(1)
//	c.Advance(500 * time.Millisecond)
package clock
