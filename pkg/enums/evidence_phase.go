package enums

import "fmt"

// EvidencePhase tags which leg of the delivery an evidence item belongs to.
type EvidencePhase string

const (
	EvidencePhasePickup    EvidencePhase = "pickup"
	EvidencePhaseDelivery  EvidencePhase = "delivery"
	EvidencePhaseInTransit EvidencePhase = "in_transit"
)

var validEvidencePhases = []EvidencePhase{
	EvidencePhasePickup,
	EvidencePhaseDelivery,
	EvidencePhaseInTransit,
}

// String implements fmt.Stringer.
func (e EvidencePhase) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EvidencePhase.
func (e EvidencePhase) IsValid() bool {
	for _, candidate := range validEvidencePhases {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEvidencePhase converts raw input into an EvidencePhase.
func ParseEvidencePhase(value string) (EvidencePhase, error) {
	for _, candidate := range validEvidencePhases {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid evidence phase %q", value)
}
