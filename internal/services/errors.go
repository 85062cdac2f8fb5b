package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

var (
	ErrCoachNotFound          = errors.New("coach not found")
	ErrInvalidCoach           = errors.New("invalid coach")
	ErrInvalidProgram         = errors.New("invalid program")
	ErrProgramNotFound        = errors.New("program not found")
	ErrMemberNotFound         = errors.New("member not found")
	ErrEnrollmentNotFound     = errors.New("enrollment not found")
	ErrTaskNotFound           = errors.New("task not found")
	ErrSessionNotFound        = errors.New("session not found")
	ErrObjectiveNotFound      = errors.New("objective not found")
	ErrCoachWasMember         = errors.New("coach was a member of this program family")
	ErrCoachAlreadyAssociated = errors.New("coach is already associated with this program family")
	ErrNotARootProgram        = errors.New("program is not a root program")
	ErrAlreadyInState         = errors.New("program is already in the target state")
	ErrAlreadyEnrolled        = errors.New("member is already enrolled in this program family")
	ErrMemberIsPeerCoach      = errors.New("member coaches a program in this family")
	ErrNotProgramOwner        = errors.New("program is not owned by this coach")
	ErrIllegalStateTransition = errors.New("illegal state transition")
	ErrSessionNotDeletable    = errors.New("session cannot be deleted")
	ErrActorNotFound          = errors.New("actor not found")
	ErrNotSessionParticipant  = errors.New("user is not a participant of this session")
	ErrAlreadyParticipant     = errors.New("user already participates in this session")
	ErrSessionNotConference   = errors.New("only conference sessions accept extra participants")
	ErrForeignEnrollment      = errors.New("enrollment belongs to another program family")
)

// ValidationError reports one malformed request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every field problem of a request.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, item := range v {
		parts = append(parts, item.Field+": "+item.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationErrors) add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

func (v ValidationErrors) err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// PersistenceError wraps a storage failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// wrap passes business and validation errors through unchanged and wraps
// anything else as a persistence failure.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var validation ValidationErrors
	var persistence *PersistenceError
	if errors.As(err, &validation) || errors.As(err, &persistence) || isBusiness(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func isBusiness(err error) bool {
	for _, target := range []error{
		ErrCoachNotFound, ErrInvalidCoach, ErrInvalidProgram, ErrProgramNotFound,
		ErrMemberNotFound, ErrEnrollmentNotFound, ErrTaskNotFound, ErrSessionNotFound,
		ErrObjectiveNotFound, ErrCoachWasMember, ErrCoachAlreadyAssociated,
		ErrNotARootProgram, ErrAlreadyInState, ErrAlreadyEnrolled, ErrMemberIsPeerCoach,
		ErrNotProgramOwner, ErrIllegalStateTransition, ErrSessionNotDeletable,
		ErrActorNotFound, ErrNotSessionParticipant, ErrAlreadyParticipant,
		ErrSessionNotConference, ErrForeignEnrollment,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// notFound maps pgx.ErrNoRows to the given business error.
func notFound(err, target error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return target
	}
	return err
}
