package lifecycle

import "github.com/freightline/freightline-backend/pkg/enums"

// allowedNext is the linear forward path of the delivery lifecycle. Each
// non-terminal status has exactly one forward successor; cancellation is an
// escape hatch handled separately.
var allowedNext = map[enums.JobStatus]enums.JobStatus{
	enums.JobStatusAllocated:       enums.JobStatusOnWayToPickup,
	enums.JobStatusOnWayToPickup:   enums.JobStatusAtPickup,
	enums.JobStatusAtPickup:        enums.JobStatusPickedUp,
	enums.JobStatusPickedUp:        enums.JobStatusOnWayToDelivery,
	enums.JobStatusOnWayToDelivery: enums.JobStatusAtDelivery,
	enums.JobStatusAtDelivery:      enums.JobStatusDelivered,
}

// CanTransition reports whether a job currently in from may move to to.
func CanTransition(from, to enums.JobStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == enums.JobStatusCancelled {
		return true
	}
	return allowedNext[from] == to
}

// AllowedNext returns the statuses reachable from from. Used to build
// actionable error details when a transition is rejected.
func AllowedNext(from enums.JobStatus) []enums.JobStatus {
	if from.IsTerminal() {
		return nil
	}
	next := []enums.JobStatus{}
	if successor, ok := allowedNext[from]; ok {
		next = append(next, successor)
	}
	return append(next, enums.JobStatusCancelled)
}
