package enums

import "fmt"

// GuardedAction names the job-scoped operations the authorization guard
// resolves. Every component routes through the same resolver.
type GuardedAction string

const (
	ActionTransition     GuardedAction = "transition"
	ActionUploadEvidence GuardedAction = "upload_evidence"
	ActionDeleteEvidence GuardedAction = "delete_evidence"
	ActionGeneratePOD    GuardedAction = "generate_pod"
	ActionDownloadPOD    GuardedAction = "download_pod"
)

var validGuardedActions = []GuardedAction{
	ActionTransition,
	ActionUploadEvidence,
	ActionDeleteEvidence,
	ActionGeneratePOD,
	ActionDownloadPOD,
}

// String implements fmt.Stringer.
func (g GuardedAction) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GuardedAction.
func (g GuardedAction) IsValid() bool {
	for _, candidate := range validGuardedActions {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGuardedAction converts raw input into a GuardedAction.
func ParseGuardedAction(value string) (GuardedAction, error) {
	for _, candidate := range validGuardedActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid guarded action %q", value)
}
