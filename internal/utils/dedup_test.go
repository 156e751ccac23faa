package utils

import (
	"testing"
	"time"
)

func TestDeduplicator(t *testing.T) {
	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	d := NewDeduplicator(5 * time.Minute)
	d.now = func() time.Time { return clock }

	if d.IsDuplicate("") {
		t.Fatal("empty key must never be a duplicate")
	}
	if d.IsDuplicate("a") {
		t.Fatal("first submission reported as duplicate")
	}
	if !d.IsDuplicate("a") {
		t.Fatal("second submission within window not detected")
	}

	clock = clock.Add(6 * time.Minute)
	if d.IsDuplicate("a") {
		t.Fatal("key should expire after the window")
	}

	d.Forget("a")
	if d.IsDuplicate("a") {
		t.Fatal("forgotten key reported as duplicate")
	}
}

func TestDeduplicator_Cleanup(t *testing.T) {
	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	d := NewDeduplicator(time.Minute)
	d.limit = 2
	d.now = func() time.Time { return clock }

	d.IsDuplicate("a")
	d.IsDuplicate("b")
	clock = clock.Add(2 * time.Minute)
	d.IsDuplicate("c")

	if len(d.seen) != 1 {
		t.Fatalf("expected expired keys to be dropped, have %d", len(d.seen))
	}
}
