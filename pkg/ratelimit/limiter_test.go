package ratelimit

import (
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter()
	defer l.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4", 3, time.Minute) {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4", 3, time.Minute) {
		t.Error("fourth attempt should be blocked")
	}
	if !l.Allow("5.6.7.8", 3, time.Minute) {
		t.Error("other keys are independent")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("1.2.3.4", 3, time.Minute) {
		t.Error("window should have slid past old attempts")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := NewLimiter()
	defer l.Stop()

	l.Allow("k", 1, time.Hour)
	if l.Allow("k", 1, time.Hour) {
		t.Fatal("second attempt should be blocked")
	}
	l.Reset("k")
	if !l.Allow("k", 1, time.Hour) {
		t.Error("Reset should clear attempts")
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	l := NewLimiter()
	l.Stop()
	l.Stop()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.Allow("old", 5, time.Hour)

	now = now.Add(25 * time.Hour)
	l.cleanup()

	if _, ok := l.attempts["old"]; ok {
		t.Error("stale key should be removed")
	}
}
