package rng

import "testing"

func TestDeterministicWithSeed(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("sources with the same seed diverged at draw %d", i)
		}
	}
}

func TestBetweenBounds(t *testing.T) {
	s := New(7)
	for i := 0; i < 1000; i++ {
		v := s.Between(0.9, 1.1)
		if v < 0.9 || v >= 1.1 {
			t.Fatalf("Between(0.9, 1.1) returned %f", v)
		}
	}
}

func TestRangeInclusive(t *testing.T) {
	s := New(7)
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		v := s.Range(1, 2)
		if v < 1 || v > 2 {
			t.Fatalf("Range(1, 2) returned %d", v)
		}
		seen[v] = true
	}
	if !seen[1] || !seen[2] {
		t.Fatalf("Range(1, 2) never produced both endpoints: %v", seen)
	}
	if got := s.Range(5, 5); got != 5 {
		t.Fatalf("Range(5, 5) = %d, want 5", got)
	}
}
