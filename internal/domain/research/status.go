package research

import "fmt"

// Status is the clustering lifecycle state of a research record.
type Status string

// Clustering status values. StatusNone marks records written before the field existed.
const (
	StatusNone       Status = ""
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ParseStatus validates a persisted or user-provided status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusNone, StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("unknown clustering status %q", s)
	}
}

// CanTrigger reports whether a clustering request may claim a record in this state.
func (s Status) CanTrigger() bool {
	return s == StatusNone || s == StatusPending || s == StatusFailed
}

// Terminal reports whether a clustering run has finished in this state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Effective maps the absent status to pending.
func (s Status) Effective() Status {
	if s == StatusNone {
		return StatusPending
	}
	return s
}

// TriggerableStatuses lists the states a clustering claim may move from.
func TriggerableStatuses() []Status {
	return []Status{StatusNone, StatusPending, StatusFailed}
}
