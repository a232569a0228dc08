package enums

import "fmt"

// EvidenceKind classifies an uploaded evidence item.
type EvidenceKind string

const (
	EvidenceKindPhoto     EvidenceKind = "photo"
	EvidenceKindSignature EvidenceKind = "signature"
	EvidenceKindDocument  EvidenceKind = "document"
	EvidenceKindNote      EvidenceKind = "note"
)

var validEvidenceKinds = []EvidenceKind{
	EvidenceKindPhoto,
	EvidenceKindSignature,
	EvidenceKindDocument,
	EvidenceKindNote,
}

// String implements fmt.Stringer.
func (e EvidenceKind) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EvidenceKind.
func (e EvidenceKind) IsValid() bool {
	for _, candidate := range validEvidenceKinds {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEvidenceKind converts raw input into an EvidenceKind.
func ParseEvidenceKind(value string) (EvidenceKind, error) {
	for _, candidate := range validEvidenceKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid evidence kind %q", value)
}
