package models

import (
	"time"

	"github.com/saeid-a/CoachProgramBack/pkg/utils"
)

type ObjectiveStatus string

const (
	ObjectivePlanned  ObjectiveStatus = "PLANNED"
	ObjectiveDue      ObjectiveStatus = "DUE"
	ObjectiveDelay    ObjectiveStatus = "DELAY"
	ObjectiveProgress ObjectiveStatus = "PROGRESS"
	ObjectiveDone     ObjectiveStatus = "DONE"
)

type Objective struct {
	ID           string     `json:"id"`
	EnrollmentID string     `json:"enrollment_id"`
	Duration     int        `json:"duration"`
	Schedule                `json:"schedule"`
	ActualStart  *time.Time `json:"actual_start_date,omitempty"`
	ActualEnd    *time.Time `json:"actual_end_date,omitempty"`
	Description  *string    `json:"description,omitempty"`
	ClosingNotes *string    `json:"closing_notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (o Objective) Status() ObjectiveStatus {
	return o.StatusAt(time.Now().UTC())
}

// StatusAt checks a due start before a delayed end, so an objective whose
// whole window has passed without being started reports DUE.
func (o Objective) StatusAt(now time.Time) ObjectiveStatus {
	switch {
	case o.ActualEnd != nil:
		return ObjectiveDone
	case o.ActualStart != nil:
		return ObjectiveProgress
	case utils.IsPast(o.EffectiveStart(), now):
		return ObjectiveDue
	case utils.IsPast(o.EffectiveEnd(), now):
		return ObjectiveDelay
	default:
		return ObjectivePlanned
	}
}
