// SPDX-License-Identifier: Apache-2.0

package models

import "fmt"

// Status is the lifecycle state of a phase. PENDING is the implicit state of
// any phase without a status record yet.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusDeveloping Status = "DEVELOPING"
	StatusForReview  Status = "FOR_REVIEW"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
	StatusFixing     Status = "FIXING"
	StatusDone       Status = "DONE"
	StatusEscalated  Status = "ESCALATED"
)

// AllStatuses lists every valid status in lifecycle order.
var AllStatuses = []Status{
	StatusPending,
	StatusDeveloping,
	StatusForReview,
	StatusApproved,
	StatusRejected,
	StatusFixing,
	StatusDone,
	StatusEscalated,
}

// validTransitions is the lifecycle state machine. The status store records
// whatever it is told; enforcing these is the orchestration loop's job.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusDeveloping},
	StatusDeveloping: {StatusForReview},
	StatusForReview:  {StatusApproved, StatusRejected},
	StatusApproved:   {StatusDone},
	StatusRejected:   {StatusFixing, StatusEscalated},
	StatusFixing:     {StatusForReview},
	StatusDone:       {},
	StatusEscalated:  {},
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the status is a final state (success or failure).
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusEscalated
}

// CanTransitionTo reports whether the lifecycle state machine allows moving
// from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InvalidStatusError is returned for a status string outside the closed set.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status %q (valid: %v)", e.Value, AllStatuses)
}

// ParseStatus converts a string to a Status, rejecting anything outside the
// closed set.
func ParseStatus(s string) (Status, error) {
	for _, status := range AllStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", &InvalidStatusError{Value: s}
}
