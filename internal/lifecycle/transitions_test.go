package lifecycle

import (
	"testing"

	"github.com/freightline/freightline-backend/pkg/enums"
)

func TestCanTransitionFollowsLinearPath(t *testing.T) {
	path := []enums.JobStatus{
		enums.JobStatusAllocated,
		enums.JobStatusOnWayToPickup,
		enums.JobStatusAtPickup,
		enums.JobStatusPickedUp,
		enums.JobStatusOnWayToDelivery,
		enums.JobStatusAtDelivery,
		enums.JobStatusDelivered,
	}

	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be allowed", path[i], path[i+1])
		}
	}

	// Skipping a step is never allowed.
	for i := 0; i < len(path)-2; i++ {
		if CanTransition(path[i], path[i+2]) {
			t.Fatalf("expected %s -> %s to be rejected", path[i], path[i+2])
		}
	}

	// Moving backwards is never allowed.
	for i := 1; i < len(path); i++ {
		if CanTransition(path[i], path[i-1]) {
			t.Fatalf("expected %s -> %s to be rejected", path[i], path[i-1])
		}
	}
}

func TestCanTransitionCancellation(t *testing.T) {
	nonTerminal := []enums.JobStatus{
		enums.JobStatusAllocated,
		enums.JobStatusOnWayToPickup,
		enums.JobStatusAtPickup,
		enums.JobStatusPickedUp,
		enums.JobStatusOnWayToDelivery,
		enums.JobStatusAtDelivery,
	}
	for _, from := range nonTerminal {
		if !CanTransition(from, enums.JobStatusCancelled) {
			t.Fatalf("expected cancellation from %s to be allowed", from)
		}
	}

	if CanTransition(enums.JobStatusDelivered, enums.JobStatusCancelled) {
		t.Fatal("expected cancellation from delivered to be rejected")
	}
	if CanTransition(enums.JobStatusCancelled, enums.JobStatusOnWayToPickup) {
		t.Fatal("expected transitions out of cancelled to be rejected")
	}
}

func TestAllowedNext(t *testing.T) {
	next := AllowedNext(enums.JobStatusAtDelivery)
	if len(next) != 2 || next[0] != enums.JobStatusDelivered || next[1] != enums.JobStatusCancelled {
		t.Fatalf("unexpected allowed set %v", next)
	}

	if got := AllowedNext(enums.JobStatusDelivered); got != nil {
		t.Fatalf("expected nil allowed set for terminal status, got %v", got)
	}
}
