package dto

// SubmitProfileRequest proposes new values for the caller's profile fields.
type SubmitProfileRequest struct {
	Changes map[string]string `json:"changes" validate:"required,min=1"`
	Reason  string            `json:"reason" validate:"omitempty,max=2000"`
}
