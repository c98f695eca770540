package models

import (
	"fmt"
	"strings"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleMarketing  UserRole = "MARKETING"
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
)

// CanReview reports whether the role holds the approval capability.
func (r UserRole) CanReview() bool {
	return r == RoleSuperAdmin
}

// AccountStatus tracks admission of a newly registered account.
type AccountStatus string

const (
	AccountPendingApproval AccountStatus = "PENDING_APPROVAL"
	AccountApproved        AccountStatus = "APPROVED"
	AccountRejected        AccountStatus = "REJECTED"
)

// ApprovalStatus maps the account status onto the shared workflow states.
func (s AccountStatus) ApprovalStatus() ApprovalStatus {
	switch s {
	case AccountPendingApproval:
		return ApprovalPending
	case AccountApproved:
		return ApprovalApproved
	case AccountRejected:
		return ApprovalRejected
	}
	return ""
}

// AccountStatusFor is the inverse of AccountStatus.ApprovalStatus.
func AccountStatusFor(s ApprovalStatus) AccountStatus {
	switch s {
	case ApprovalApproved:
		return AccountApproved
	case ApprovalRejected:
		return AccountRejected
	}
	return AccountPendingApproval
}

// Profile holds the user fields that change only through an applied
// profile update request.
type Profile struct {
	FirstName         string `db:"first_name" json:"first_name"`
	LastName          string `db:"last_name" json:"last_name"`
	Phone             string `db:"phone" json:"phone"`
	WhatsappNumber    string `db:"whatsapp_number" json:"whatsapp_number"`
	LastQualification string `db:"last_qualification" json:"last_qualification"`
	ProfilePicture    string `db:"profile_picture" json:"profile_picture"`
}

// ProfileFields lists the column names a profile update request may touch.
var ProfileFields = []string{
	"first_name",
	"last_name",
	"phone",
	"whatsapp_number",
	"last_qualification",
	"profile_picture",
}

// IsProfileField reports whether name is an updatable profile column.
func IsProfileField(name string) bool {
	for _, f := range ProfileFields {
		if f == name {
			return true
		}
	}
	return false
}

// Value returns the current value of a profile column.
func (p Profile) Value(field string) string {
	switch field {
	case "first_name":
		return p.FirstName
	case "last_name":
		return p.LastName
	case "phone":
		return p.Phone
	case "whatsapp_number":
		return p.WhatsappNumber
	case "last_qualification":
		return p.LastQualification
	case "profile_picture":
		return p.ProfilePicture
	}
	return ""
}

// FullName joins first and last name.
func (p Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// User represents an application user stored in the users table.
type User struct {
	ID                string        `db:"id" json:"id"`
	Email             string        `db:"email" json:"email"`
	PasswordHash      string        `db:"password_hash" json:"-"`
	Role              UserRole      `db:"role" json:"role"`
	ApprovalStatus    AccountStatus `db:"approval_status" json:"approval_status"`
	EmployeeID        *string       `db:"employee_id" json:"employee_id,omitempty"`
	ApprovalDecidedBy *string       `db:"approval_decided_by" json:"approval_decided_by,omitempty"`
	ApprovalDecidedAt *time.Time    `db:"approval_decided_at" json:"approval_decided_at,omitempty"`
	LastLogin         *time.Time    `db:"last_login" json:"last_login,omitempty"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
	Profile
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Status   *AccountStatus
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// EmployeeIDFor builds <FirstInitial><MM><LastInitial><YY><serial> using the
// first serial after len(existing) that is not already taken.
func EmployeeIDFor(p Profile, joined time.Time, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		taken[id] = struct{}{}
	}
	prefix := fmt.Sprintf("%s%s%s%s", initial(p.FirstName), joined.Format("01"), initial(p.LastName), joined.Format("06"))
	serial := len(taken) + 1
	for {
		id := fmt.Sprintf("%s%03d", prefix, serial)
		if _, ok := taken[id]; !ok {
			return id
		}
		serial++
	}
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "X"
	}
	return strings.ToUpper(string([]rune(name)[0]))
}
