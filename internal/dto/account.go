package dto

// RegisterRequest is the self-service sign-up payload.
type RegisterRequest struct {
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=8"`
	FirstName         string `json:"first_name" validate:"required,max=100"`
	LastName          string `json:"last_name" validate:"required,max=100"`
	Phone             string `json:"phone" validate:"omitempty,max=32"`
	WhatsappNumber    string `json:"whatsapp_number" validate:"omitempty,max=32"`
	LastQualification string `json:"last_qualification" validate:"omitempty,max=255"`
}
