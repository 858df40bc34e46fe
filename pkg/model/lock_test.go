package model

import "testing"

func TestLockSetIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b LockSet
		want bool
	}{
		{"disjoint", NewLockSet("G1"), NewLockSet("G3"), false},
		{"overlap", NewLockSet("G1", "G2"), NewLockSet("G2"), true},
		{"empty", NewLockSet(), NewLockSet("G1"), false},
		{"sentinel", NewLockSet(LockDefault), NewLockSet(LockDefault), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersects(tt.b); got != tt.want {
				t.Errorf("Intersects = %v, want %v", got, tt.want)
			}
			if got := tt.b.Intersects(tt.a); got != tt.want {
				t.Errorf("Intersects (reversed) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLockSetSorted(t *testing.T) {
	s := NewLockSet("b", "a", "c")
	got := s.Sorted()
	want := []LockKey{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Sorted() returned %d keys, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sorted()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
