package models

import (
	"time"

	"github.com/saeid-a/CoachProgramBack/pkg/utils"
)

type TaskStatus string

const (
	TaskPlanned   TaskStatus = "PLANNED"
	TaskCancelled TaskStatus = "CANCELLED"
	TaskDue       TaskStatus = "DUE"
	TaskDelay     TaskStatus = "DELAY"
	TaskProgress  TaskStatus = "PROGRESS"
	TaskResponded TaskStatus = "RESPONDED"
	TaskDone      TaskStatus = "DONE"
)

// Task is a unit of work assigned to an actor within an enrollment.
type Task struct {
	ID           string     `json:"id"`
	EnrollmentID string     `json:"enrollment_id"`
	ActorID      string     `json:"actor_id"`
	Name         string     `json:"name"`
	Description  *string    `json:"description,omitempty"`
	Duration     int        `json:"duration"`
	Schedule                `json:"schedule"`
	ActualStart  *time.Time `json:"actual_start_date,omitempty"`
	ActualEnd    *time.Time `json:"actual_end_date,omitempty"`
	Response     *string    `json:"response,omitempty"`
	RespondedAt  *time.Time `json:"responded_date,omitempty"`
	ClosingNotes *string    `json:"closing_notes,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (t Task) Status() TaskStatus {
	return t.StatusAt(time.Now().UTC())
}

// StatusAt evaluates the task states in strict precedence; the first match
// wins.
func (t Task) StatusAt(now time.Time) TaskStatus {
	switch {
	case t.CancelledAt != nil:
		return TaskCancelled
	case t.ActualEnd != nil:
		return TaskDone
	case t.RespondedAt != nil:
		return TaskResponded
	case utils.IsPast(t.EffectiveEnd(), now):
		return TaskDelay
	case t.ActualStart != nil:
		return TaskProgress
	case utils.IsPast(t.EffectiveStart(), now):
		return TaskDue
	default:
		return TaskPlanned
	}
}

func (t Task) CanStart() bool {
	return t.ActualStart == nil && t.RespondedAt == nil && t.CancelledAt == nil && t.ActualEnd == nil
}

func (t Task) CanRespond() bool {
	return t.ActualStart != nil && t.CancelledAt == nil && t.ActualEnd == nil && t.RespondedAt == nil
}

func (t Task) CanFinish() bool {
	return t.ActualStart != nil && t.Response != nil && t.CancelledAt == nil && t.RespondedAt == nil
}

func (t Task) CanComplete() bool {
	return t.ActualEnd == nil && t.CancelledAt == nil && t.RespondedAt != nil
}

func (t Task) CanCancel() bool {
	return t.ActualEnd == nil && t.CancelledAt == nil
}

func (t Task) CanReopen() bool {
	return t.RespondedAt != nil
}

// CanEdit guards plain field edits (name, description, schedule).
func (t Task) CanEdit() bool {
	return t.RespondedAt == nil && t.CancelledAt == nil && t.ActualEnd == nil
}

// TaskTransition names one lifecycle mutation of a task.
type TaskTransition string

const (
	TaskStart    TaskTransition = "START"
	TaskRespond  TaskTransition = "RESPOND"
	TaskFinish   TaskTransition = "FINISH"
	TaskComplete TaskTransition = "DONE"
	TaskCancel   TaskTransition = "CANCEL"
	TaskReopen   TaskTransition = "REOPEN"
)

// Allows reports whether the guard for transition holds.
func (t Task) Allows(transition TaskTransition) bool {
	switch transition {
	case TaskStart:
		return t.CanStart()
	case TaskRespond:
		return t.CanRespond()
	case TaskFinish:
		return t.CanFinish()
	case TaskComplete:
		return t.CanComplete()
	case TaskCancel:
		return t.CanCancel()
	case TaskReopen:
		return t.CanReopen()
	default:
		return false
	}
}

// Apply returns a copy of the task with the transition recorded at now. The
// receiver is never modified; ok is false when the guard rejects the move.
func (t Task) Apply(transition TaskTransition, now time.Time, response string) (Task, bool) {
	if !t.Allows(transition) {
		return t, false
	}
	next := t
	switch transition {
	case TaskStart:
		next.ActualStart = &now
	case TaskRespond:
		next.Response = &response
	case TaskFinish:
		next.RespondedAt = &now
	case TaskComplete:
		approved := now
		next.ActualEnd = &now
		next.ApprovedAt = &approved
	case TaskCancel:
		next.CancelledAt = &now
	case TaskReopen:
		// Response text is kept as history; the member starts over.
		next.RespondedAt = nil
		next.ActualStart = nil
	default:
		return t, false
	}
	next.UpdatedAt = now
	return next, true
}
