package sequencestore

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sequence.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNextOrderID_StartsFromOneOnFreshStore(t *testing.T) {
	s := openTestStore(t)

	if got := s.NextOrderID(); got != "2" {
		t.Fatalf("first NextOrderID: got %q, want %q", got, "2")
	}
	if got := s.CurrentOrderID(); got != "2" {
		t.Fatalf("CurrentOrderID: got %q, want %q", got, "2")
	}
}

func TestNextOrderID_MonotonicAcrossCalls(t *testing.T) {
	s := openTestStore(t)

	want := []string{"2", "3", "4", "5", "6"}
	for i, w := range want {
		got := s.NextOrderID()
		if got != w {
			t.Fatalf("call %d: got %q, want %q", i, got, w)
		}
	}
}

// TestNextOrderID_SurvivesRestart verifies scenario S6: restarting the
// process after issuing 5 ids must resume from 7, not reset to 1.
func TestNextOrderID_SurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequence.db")

	s1, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 5; i++ {
		s1.NextOrderID()
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	if got := s2.NextOrderID(); got != "7" {
		t.Fatalf("after restart: got %q, want %q", got, "7")
	}
}

func TestNextRequestID_ResetsEachProcess(t *testing.T) {
	s := openTestStore(t)

	if got := s.NextRequestID(); got != "1" {
		t.Fatalf("first request id: got %q, want %q", got, "1")
	}
	if got := s.NextRequestID(); got != "2" {
		t.Fatalf("second request id: got %q, want %q", got, "2")
	}
}

func TestBumpOutbound_StrictlyIncreasing(t *testing.T) {
	s := openTestStore(t)

	var seen []int
	for i := 0; i < 4; i++ {
		seen = append(seen, s.bumpOutbound(RoleOrder))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] != seen[i-1]+1 {
			t.Fatalf("sequence not strictly increasing by 1: %v", seen)
		}
	}
}

func TestBumpOutbound_IndependentPerRole(t *testing.T) {
	s := openTestStore(t)

	s.bumpOutbound(RoleMarket)
	s.bumpOutbound(RoleMarket)
	s.bumpOutbound(RoleOrder)

	if got := s.OutboundLast(RoleMarket); got != 2 {
		t.Fatalf("market role: got %d, want 2", got)
	}
	if got := s.OutboundLast(RoleOrder); got != 1 {
		t.Fatalf("order role: got %d, want 1", got)
	}
}

func TestResetInbound_RollsExpectedSequence(t *testing.T) {
	s := openTestStore(t)

	s.bumpInbound(RoleMarket)
	s.bumpInbound(RoleMarket)
	s.resetInbound(RoleMarket, 1)

	if got := s.expectedInbound(RoleMarket); got != 1 {
		t.Fatalf("after reset: got %d, want 1", got)
	}
}
