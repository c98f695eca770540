package models

import "time"

// StatusCounts tallies entities by workflow state.
type StatusCounts struct {
	Pending  int `db:"pending" json:"pending"`
	Approved int `db:"approved" json:"approved"`
	Rejected int `db:"rejected" json:"rejected"`
}

// Total sums all states.
func (c StatusCounts) Total() int {
	return c.Pending + c.Approved + c.Rejected
}

// JobTotals adds the job amount sum to the counts.
type JobTotals struct {
	StatusCounts
	TotalAmount float64 `db:"total_amount" json:"total_amount"`
}

// QueueSummary is the review queue overview.
type QueueSummary struct {
	Scope           string       `json:"scope"`
	Jobs            JobTotals    `json:"jobs"`
	ProfileRequests StatusCounts `json:"profile_requests"`
	Accounts        StatusCounts `json:"accounts"`
	GeneratedAt     time.Time    `json:"generated_at"`
}
