package domain

import "time"

// UserType distinguishes DFSP staff from hub operators. Hub users bypass the
// tenant check entirely.
type UserType string

const (
	UserTypeDFSP UserType = "dfsp"
	UserTypeHub  UserType = "hub"
)

// PortalUser is a back-office user acting as maker or checker.
type PortalUser struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose
	UserType     UserType  `json:"user_type"`
	DFSPID       *int64    `json:"dfsp_id,omitempty"` // nil for hub users
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsHub returns true for hub operators.
func (u *PortalUser) IsHub() bool {
	return u.UserType == UserTypeHub
}
