package models

import "time"

// ParticipantType is the role a user plays in a session.
type ParticipantType string

const (
	ParticipantMember ParticipantType = "member"
	ParticipantCoach  ParticipantType = "coach"
)

// SessionParticipant ties a user to a session through the enrollment they
// take part with. Coaches take part through their self-enrollment.
type SessionParticipant struct {
	ID           string          `json:"id"`
	SessionID    string          `json:"session_id"`
	EnrollmentID string          `json:"enrollment_id"`
	UserID       string          `json:"user_id"`
	UserType     ParticipantType `json:"user_type"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SessionNote is a participant's note on a session. Private notes are only
// listed for their author.
type SessionNote struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"session_id"`
	CreatedByID string     `json:"created_by_id"`
	Description string     `json:"description"`
	RemindAt    *time.Time `json:"remind_at,omitempty"`
	IsPrivate   bool       `json:"is_private"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SessionDetail is a session together with the people taking part in it.
type SessionDetail struct {
	Session
	Participants []SessionParticipant `json:"participants"`
}
