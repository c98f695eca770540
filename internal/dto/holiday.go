package dto

import "time"

// CreateHolidayRequest adds a non-working day.
type CreateHolidayRequest struct {
	Date        *time.Time `json:"date" validate:"required"`
	Description string     `json:"description" validate:"required,max=255"`
}
