package models

import (
	"time"

	"github.com/saeid-a/CoachProgramBack/pkg/utils"
)

type SessionStatus string

const (
	SessionPlanned   SessionStatus = "PLANNED"
	SessionOverdue   SessionStatus = "OVERDUE"
	SessionReady     SessionStatus = "READY"
	SessionProgress  SessionStatus = "PROGRESS"
	SessionDone      SessionStatus = "DONE"
	SessionCancelled SessionStatus = "CANCELLED"
)

// SessionType distinguishes a one-to-one meeting from a conference.
type SessionType string

const (
	SessionTypeMono  SessionType = "mono"
	SessionTypeMulti SessionType = "multi"
)

func (t SessionType) Valid() bool {
	switch t {
	case SessionTypeMono, SessionTypeMulti:
		return true
	default:
		return false
	}
}

type Session struct {
	ID           string      `json:"id"`
	EnrollmentID string      `json:"enrollment_id"`
	ProgramID    string      `json:"program_id"`
	ConferenceID *string     `json:"conference_id,omitempty"`
	SessionType  SessionType `json:"session_type"`
	Name         string      `json:"name"`
	Description  *string     `json:"description,omitempty"`
	Duration     int         `json:"duration"`
	Schedule                 `json:"schedule"`
	IsReady      bool        `json:"is_ready"`
	ActualStart  *time.Time  `json:"actual_start_date,omitempty"`
	ActualEnd    *time.Time  `json:"actual_end_date,omitempty"`
	CancelledAt  *time.Time  `json:"cancelled_at,omitempty"`
	ClosingNotes *string     `json:"closing_notes,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (s Session) Status() SessionStatus {
	return s.StatusAt(time.Now().UTC())
}

func (s Session) StatusAt(now time.Time) SessionStatus {
	switch {
	case s.CancelledAt != nil:
		return SessionCancelled
	case s.ActualEnd != nil:
		return SessionDone
	case s.ActualStart != nil:
		return SessionProgress
	case s.IsReady:
		return SessionReady
	case utils.IsPast(s.EffectiveStart(), now):
		return SessionOverdue
	default:
		return SessionPlanned
	}
}

func (s Session) IsConference() bool {
	return s.SessionType == SessionTypeMulti
}

func (s Session) CanDelete() bool {
	return s.CancelledAt == nil && s.ActualStart == nil && !s.IsReady
}

func (s Session) CanReady() bool {
	return !s.IsReady && s.ActualStart == nil && s.ActualEnd == nil && s.CancelledAt == nil
}

func (s Session) CanStart() bool {
	return s.ActualStart == nil && s.ActualEnd == nil && s.CancelledAt == nil
}

func (s Session) CanClose() bool {
	return s.ActualStart != nil && s.ActualEnd == nil && s.CancelledAt == nil
}

func (s Session) CanCancel() bool {
	return s.ActualEnd == nil && s.CancelledAt == nil
}

type SessionTransition string

const (
	SessionMarkReady SessionTransition = "READY"
	SessionStart     SessionTransition = "START"
	SessionClose     SessionTransition = "DONE"
	SessionCancel    SessionTransition = "CANCEL"
)

func (s Session) Allows(transition SessionTransition) bool {
	switch transition {
	case SessionMarkReady:
		return s.CanReady()
	case SessionStart:
		return s.CanStart()
	case SessionClose:
		return s.CanClose()
	case SessionCancel:
		return s.CanCancel()
	default:
		return false
	}
}

// Apply returns the session with the transition recorded at now. Closing
// notes are only stored when closing.
func (s Session) Apply(transition SessionTransition, now time.Time, closingNotes string) (Session, bool) {
	if !s.Allows(transition) {
		return s, false
	}
	next := s
	switch transition {
	case SessionMarkReady:
		next.IsReady = true
	case SessionStart:
		next.ActualStart = &now
	case SessionClose:
		next.ActualEnd = &now
		next.ClosingNotes = &closingNotes
	case SessionCancel:
		next.CancelledAt = &now
	default:
		return s, false
	}
	next.UpdatedAt = now
	return next, true
}
