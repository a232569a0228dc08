package evidence

import "github.com/freightline/freightline-backend/pkg/enums"

// phaseOpenFrom lists the statuses during which each phase accepts
// evidence. The in_transit phase is absent: it has no status restriction.
var phaseOpenFrom = map[enums.EvidencePhase][]enums.JobStatus{
	enums.EvidencePhasePickup: {
		enums.JobStatusAtPickup,
		enums.JobStatusPickedUp,
		enums.JobStatusOnWayToDelivery,
		enums.JobStatusAtDelivery,
		enums.JobStatusDelivered,
	},
	enums.EvidencePhaseDelivery: {
		enums.JobStatusAtDelivery,
		enums.JobStatusDelivered,
	},
}

// PhaseOpen reports whether a job in the given status accepts evidence for
// the given phase.
func PhaseOpen(status enums.JobStatus, phase enums.EvidencePhase) bool {
	open, restricted := phaseOpenFrom[phase]
	if !restricted {
		return true
	}
	for _, candidate := range open {
		if candidate == status {
			return true
		}
	}
	return false
}
