// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFake_NowStandsStill(t *testing.T) {
	c := Fake(epoch)
	if !c.Now().Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", c.Now(), epoch)
	}
	c.Advance(3 * time.Second)
	if want := epoch.Add(3 * time.Second); !c.Now().Equal(want) {
		t.Errorf("Now() after Advance = %v, want %v", c.Now(), want)
	}
}

func TestFake_SleepReleasedByAdvance(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		c.Sleep(500 * time.Millisecond)
		close(done)
	}()

	c.WaitForTimers(1)
	c.Advance(499 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("Sleep returned before its deadline")
	default:
	}

	c.Advance(time.Millisecond)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Sleep did not return after deadline")
	}
	if c.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d, want 0", c.PendingCount())
	}
}

func TestFake_AfterNonPositiveFiresImmediately(t *testing.T) {
	c := Fake(epoch)
	select {
	case got := <-c.After(0):
		if !got.Equal(epoch) {
			t.Errorf("After(0) delivered %v, want %v", got, epoch)
		}
	default:
		t.Fatal("After(0) did not fire immediately")
	}
}
