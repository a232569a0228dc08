package enums

import "fmt"

// JobStatus tracks the delivery lifecycle of a job.
type JobStatus string

const (
	JobStatusAllocated       JobStatus = "allocated"
	JobStatusOnWayToPickup   JobStatus = "on_way_to_pickup"
	JobStatusAtPickup        JobStatus = "at_pickup"
	JobStatusPickedUp        JobStatus = "picked_up"
	JobStatusOnWayToDelivery JobStatus = "on_way_to_delivery"
	JobStatusAtDelivery      JobStatus = "at_delivery"
	JobStatusDelivered       JobStatus = "delivered"
	JobStatusCancelled       JobStatus = "cancelled"
)

var validJobStatuses = []JobStatus{
	JobStatusAllocated,
	JobStatusOnWayToPickup,
	JobStatusAtPickup,
	JobStatusPickedUp,
	JobStatusOnWayToDelivery,
	JobStatusAtDelivery,
	JobStatusDelivered,
	JobStatusCancelled,
}

// String implements fmt.Stringer.
func (j JobStatus) String() string {
	return string(j)
}

// IsValid reports whether the value is a known JobStatus.
func (j JobStatus) IsValid() bool {
	for _, candidate := range validJobStatuses {
		if candidate == j {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave this status.
func (j JobStatus) IsTerminal() bool {
	return j == JobStatusDelivered || j == JobStatusCancelled
}

// ParseJobStatus converts raw input into a JobStatus.
func ParseJobStatus(value string) (JobStatus, error) {
	for _, candidate := range validJobStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid job status %q", value)
}
