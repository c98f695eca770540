package models

import "time"

// ApprovalStatus is the closed set of workflow states shared by every
// reviewable entity.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// Valid reports whether s is one of the known states.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s ApprovalStatus) Terminal() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

// CanTransitionTo allows PENDING -> APPROVED and PENDING -> REJECTED only.
func (s ApprovalStatus) CanTransitionTo(next ApprovalStatus) bool {
	return s == ApprovalPending && next.Terminal()
}

// Decision is what a reviewer may choose. Pending is not representable.
type Decision string

const (
	DecisionApprove Decision = "APPROVED"
	DecisionReject  Decision = "REJECTED"
)

// ParseDecision accepts APPROVED/REJECTED as well as the verbs approve/reject.
func ParseDecision(raw string) (Decision, bool) {
	switch raw {
	case "APPROVED", "approved", "APPROVE", "approve":
		return DecisionApprove, true
	case "REJECTED", "rejected", "REJECT", "reject":
		return DecisionReject, true
	}
	return "", false
}

// Status maps the decision onto the terminal state it produces.
func (d Decision) Status() ApprovalStatus {
	switch d {
	case DecisionApprove:
		return ApprovalApproved
	case DecisionReject:
		return ApprovalRejected
	}
	return ""
}

// EntityKind names a reviewable entity type.
type EntityKind string

const (
	EntityJob            EntityKind = "job"
	EntityProfileRequest EntityKind = "profile_request"
	EntityAccount        EntityKind = "account"
)

// ReviewRecord is written atomically with the status change.
type ReviewRecord struct {
	EntityID   string
	Status     ApprovalStatus
	ReviewerID string
	ReviewedAt time.Time
	Note       *string
}
