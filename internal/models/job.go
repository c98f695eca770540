package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Attachments is a list of opaque attachment references stored as JSON.
type Attachments []string

// Value implements driver.Valuer.
func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(a))
}

// Scan implements sql.Scanner.
func (a *Attachments) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = Attachments{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("attachments: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*a = out
	return nil
}

// Job is a job drop submitted by the marketing team.
type Job struct {
	ID               string         `db:"id" json:"id"`
	SystemID         string         `db:"system_id" json:"system_id"`
	CustomerJobID    string         `db:"customer_job_id" json:"customer_job_id"`
	Title            *string        `db:"title" json:"title,omitempty"`
	Instruction      string         `db:"instruction" json:"instruction"`
	Attachments      Attachments    `db:"attachments" json:"attachments"`
	Amount           float64        `db:"amount" json:"amount"`
	ExpectedDeadline time.Time      `db:"expected_deadline" json:"expected_deadline"`
	StrictDeadline   time.Time      `db:"strict_deadline" json:"strict_deadline"`
	Status           ApprovalStatus `db:"status" json:"status"`
	CreatedBy        string         `db:"created_by" json:"created_by"`
	ReviewedBy       *string        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNote       *string        `db:"review_note" json:"review_note,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	DeletedAt        *time.Time     `db:"deleted_at" json:"deleted_at,omitempty"`
	DeletedBy        *string        `db:"deleted_by" json:"deleted_by,omitempty"`
	DeletionNote     *string        `db:"deletion_note" json:"deletion_note,omitempty"`
}

// Deleted reports whether the job is soft deleted.
func (j *Job) Deleted() bool {
	return j.DeletedAt != nil
}

// SystemIDFor formats the generated job identifier for t.
func SystemIDFor(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("JN-%s%06d", t.Format("20060102150405"), t.Nanosecond()/1000)
}

// JobFilter constrains job listings.
type JobFilter struct {
	Status         *ApprovalStatus
	CreatedBy      string
	Search         string
	IncludeDeleted bool
	Page           int
	PageSize       int
}
