package models

import "time"

// ApprovalEventType names the lifecycle point that produced an event.
type ApprovalEventType string

const (
	EventSubmitted ApprovalEventType = "submitted"
	EventDecided   ApprovalEventType = "decided"
	EventApplied   ApprovalEventType = "applied"
	EventDeleted   ApprovalEventType = "deleted"
	EventRestored  ApprovalEventType = "restored"
)

// ApprovalEvent is emitted after a workflow change has been committed.
type ApprovalEvent struct {
	ID         string            `json:"id"`
	Type       ApprovalEventType `json:"type"`
	Entity     EntityKind        `json:"entity"`
	EntityID   string            `json:"entity_id"`
	ActorID    string            `json:"actor_id"`
	OwnerID    string            `json:"owner_id,omitempty"`
	Status     ApprovalStatus    `json:"status,omitempty"`
	Note       *string           `json:"note,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// RoutingKey suffix used when publishing, e.g. "job.decided".
func (e ApprovalEvent) RoutingKey() string {
	return string(e.Entity) + "." + string(e.Type)
}

// AuditAction maps the event type onto the audit log action.
func (e ApprovalEvent) AuditAction() string {
	switch e.Type {
	case EventSubmitted:
		return AuditActionSubmit
	case EventDecided:
		return AuditActionDecide
	case EventApplied:
		return AuditActionApply
	case EventDeleted:
		return AuditActionDelete
	case EventRestored:
		return AuditActionRestore
	}
	return string(e.Type)
}
