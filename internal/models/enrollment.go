package models

import "time"

type Enrollment struct {
	ID        string    `json:"id"`
	ProgramID string    `json:"program_id"`
	MemberID  string    `json:"member_id"`
	IsNew     bool      `json:"is_new"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EnrollmentFilter narrows a member listing.
type EnrollmentFilter string

const (
	EnrollmentFilterAll EnrollmentFilter = "ALL"
	EnrollmentFilterNew EnrollmentFilter = "NEW"
)

// Member is an enrolled user as seen from the program side.
type Member struct {
	EnrollmentID string    `json:"enrollment_id"`
	UserID       string    `json:"user_id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	IsNew        bool      `json:"is_new"`
	EnrolledAt   time.Time `json:"enrolled_at"`
}
