package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIdempotencyKey_Deterministic(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 5, 0, 0, time.UTC)
	end := start.Add(5 * time.Minute)

	k1 := IdempotencyKey("internal", "alpha", start, end)
	k2 := IdempotencyKey("internal", "alpha", start, end)
	if k1 != k2 {
		t.Fatalf("same identity produced different keys: %q vs %q", k1, k2)
	}
	if _, err := uuid.Parse(k1); err != nil {
		t.Errorf("key %q is not a valid UUID: %v", k1, err)
	}
}

func TestIdempotencyKey_TimezoneIndependent(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 5, 0, 0, time.UTC)
	end := start.Add(5 * time.Minute)
	zone := time.FixedZone("plus3", 3*60*60)

	utcKey := IdempotencyKey("internal", "alpha", start, end)
	zonedKey := IdempotencyKey("internal", "alpha", start.In(zone), end.In(zone))
	if utcKey != zonedKey {
		t.Errorf("the same instant in different zones must yield one key: %q vs %q", utcKey, zonedKey)
	}
}

func TestIdempotencyKey_DistinctPerComponent(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 5, 0, 0, time.UTC)
	end := start.Add(5 * time.Minute)
	base := IdempotencyKey("internal", "alpha", start, end)

	variants := map[string]string{
		"different mode":  IdempotencyKey("external", "alpha", start, end),
		"different key":   IdempotencyKey("internal", "beta", start, end),
		"different start": IdempotencyKey("internal", "alpha", start.Add(time.Millisecond), end),
		"different end":   IdempotencyKey("internal", "alpha", start, end.Add(time.Millisecond)),
	}
	for name, got := range variants {
		if got == base {
			t.Errorf("%s should change the key", name)
		}
	}
}

func TestIdempotencyKey_ZeroWidthSegment(t *testing.T) {
	// A single-event segment has start == end; still a valid, stable identity.
	ts := time.Date(2026, 3, 2, 10, 20, 0, 0, time.UTC)
	k1 := IdempotencyKey("internal", "alpha", ts, ts)
	k2 := IdempotencyKey("internal", "alpha", ts, ts)
	if k1 != k2 {
		t.Error("zero-width segment keys must be stable")
	}
}
