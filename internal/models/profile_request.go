package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// ProfileChanges maps a profile column to a value. Stored as a JSON object.
type ProfileChanges map[string]string

// Value implements driver.Valuer.
func (p ProfileChanges) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string(p))
}

// Scan implements sql.Scanner.
func (p *ProfileChanges) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = ProfileChanges{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("profile changes: unsupported type %T", src)
	}
	out := map[string]string{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*p = out
	return nil
}

// Fields returns the changed columns in a stable order.
func (p ProfileChanges) Fields() []string {
	fields := make([]string, 0, len(p))
	for k := range p {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// ProfileUpdateRequest proposes changes to the requester's own profile.
type ProfileUpdateRequest struct {
	ID              string         `db:"id" json:"id"`
	RequestedBy     string         `db:"requested_by" json:"requested_by"`
	ProposedChanges ProfileChanges `db:"proposed_changes" json:"proposed_changes"`
	CurrentValues   ProfileChanges `db:"current_values" json:"current_values"`
	Reason          *string        `db:"reason" json:"reason,omitempty"`
	Status          ApprovalStatus `db:"status" json:"status"`
	DecidedBy       *string        `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt       *time.Time     `db:"decided_at" json:"decided_at,omitempty"`
	DecisionNote    *string        `db:"decision_note" json:"decision_note,omitempty"`
	AppliedAt       *time.Time     `db:"applied_at" json:"applied_at,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}

// Applied reports whether the changes already reached the user row.
func (r *ProfileUpdateRequest) Applied() bool {
	return r.AppliedAt != nil
}

// ProfileRequestFilter constrains listings.
type ProfileRequestFilter struct {
	Status      *ApprovalStatus
	RequestedBy string
	Page        int
	PageSize    int
}
