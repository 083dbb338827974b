package models

import "time"

// Application statuses.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusInReview  = "in_review"
	StatusNeedsInfo = "needs_info"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
)

// validTransitions encodes the application lifecycle:
//
//	draft → submitted → in_review → needs_info → in_review → approved|rejected
var validTransitions = map[string][]string{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusInReview},
	StatusInReview:  {StatusNeedsInfo, StatusApproved, StatusRejected},
	StatusNeedsInfo: {StatusInReview},
}

// ValidTransition reports whether an application may move from one status to
// another.
func ValidTransition(from, to string) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TerminalStatus reports whether the status ends the lifecycle.
func TerminalStatus(s string) bool {
	return s == StatusApproved || s == StatusRejected
}

// Application is a board package: one prospective purchase or lease under
// review for a specific building unit.
type Application struct {
	ID          string
	Building    string
	Unit        string
	Status      string
	ApplicantID string
	// BrokerID is empty when no broker represents the applicant.
	BrokerID    string
	CreatedBy   string
	SubmittedAt *time.Time
	DecidedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
