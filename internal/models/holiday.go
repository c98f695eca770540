package models

import "time"

// Holiday is a date on which no job deadline may fall.
type Holiday struct {
	ID          string    `db:"id" json:"id"`
	Date        time.Time `db:"date" json:"date"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// HolidayFilter constrains holiday listings.
type HolidayFilter struct {
	From *time.Time
	To   *time.Time
}
