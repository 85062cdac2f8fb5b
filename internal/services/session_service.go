package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/saeid-a/CoachProgramBack/internal/models"
	"github.com/saeid-a/CoachProgramBack/internal/repository"
	"github.com/saeid-a/CoachProgramBack/pkg/utils"
)

type SessionService struct {
	repos Repositories
	tx    Transactor
	log   zerolog.Logger
	now   func() time.Time
}

type CreateSessionInput struct {
	EnrollmentID string
	Name         string
	Description  string
	StartTime    string
	Duration     int
	SessionType  models.SessionType
	ConferenceID *string
}

type CreateSessionNoteInput struct {
	SessionID   string
	ActorID     string
	Description string
	RemindAt    string
	IsPrivate   bool
}

func NewSessionService(repos Repositories, tx Transactor, logger zerolog.Logger) *SessionService {
	return &SessionService{
		repos: repos,
		tx:    tx,
		log:   logger.With().Str("component", "sessions").Logger(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession stores the session together with its participants: the
// member of the enrollment and the program coach, who takes part through
// the coach self-enrollment.
func (s *SessionService) CreateSession(ctx context.Context, input CreateSessionInput) (*models.SessionDetail, error) {
	if input.SessionType == "" {
		input.SessionType = models.SessionTypeMono
	}

	var problems ValidationErrors
	problems.required("enrollment_id", input.EnrollmentID)
	problems.required("name", input.Name)
	problems.required("description", input.Description)
	start := problems.futureDate("start_time", input.StartTime, s.now())
	problems.minDuration("duration", input.Duration)
	if !input.SessionType.Valid() {
		problems.add("session_type", "must be mono or multi")
	}
	if input.SessionType == models.SessionTypeMulti &&
		(input.ConferenceID == nil || strings.TrimSpace(*input.ConferenceID) == "") {
		problems.add("conference_id", "is required for multi sessions")
	}
	if err := problems.err(); err != nil {
		return nil, err
	}

	var conferenceID *string
	if input.SessionType == models.SessionTypeMulti {
		conferenceID = trimmedPtr(input.ConferenceID)
	}

	var detail *models.SessionDetail
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		enrollment, err := repos.Enrollments.GetByID(ctx, input.EnrollmentID)
		if err != nil {
			return notFound(err, ErrEnrollmentNotFound)
		}
		program, err := repos.Programs.GetByID(ctx, enrollment.ProgramID)
		if err != nil {
			return notFound(err, ErrProgramNotFound)
		}
		coachEnrollment, err := coachSelfEnrollment(ctx, repos, program)
		if err != nil {
			return err
		}

		session := &models.Session{
			ID:           uuid.NewString(),
			EnrollmentID: enrollment.ID,
			ProgramID:    enrollment.ProgramID,
			ConferenceID: conferenceID,
			SessionType:  input.SessionType,
			Name:         strings.TrimSpace(input.Name),
			Description:  trimmedPtr(&input.Description),
			Duration:     input.Duration,
			Schedule: models.Schedule{
				OriginalStart: start,
				OriginalEnd:   utils.EndAfterHours(start, input.Duration),
			},
		}
		if err := repos.Sessions.Create(ctx, session); err != nil {
			return err
		}

		participants := []models.SessionParticipant{{
			EnrollmentID: coachEnrollment.ID,
			UserID:       program.CoachID,
			UserType:     models.ParticipantCoach,
		}}
		if enrollment.MemberID != program.CoachID {
			participants = append(participants, models.SessionParticipant{
				EnrollmentID: enrollment.ID,
				UserID:       enrollment.MemberID,
				UserType:     models.ParticipantMember,
			})
		}
		for _, participant := range participants {
			participant.ID = uuid.NewString()
			participant.SessionID = session.ID
			if err := repos.Participants.Add(ctx, &participant); err != nil {
				return err
			}
		}

		detail, err = loadDetail(ctx, repos, session.ID)
		return err
	})
	if err != nil {
		return nil, wrap("create session", err)
	}
	return detail, nil
}

// AddSessionParticipant enrolls another member of the program family into a
// conference session.
func (s *SessionService) AddSessionParticipant(
	ctx context.Context,
	sessionID, enrollmentID string,
) (*models.SessionDetail, error) {
	var problems ValidationErrors
	problems.required("id", sessionID)
	problems.required("enrollment_id", enrollmentID)
	if err := problems.err(); err != nil {
		return nil, err
	}

	var detail *models.SessionDetail
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		session, err := repos.Sessions.GetForUpdate(ctx, sessionID)
		if err != nil {
			return notFound(err, ErrSessionNotFound)
		}
		if !session.IsConference() {
			return ErrSessionNotConference
		}
		if !session.CanCancel() {
			return ErrIllegalStateTransition
		}

		host, err := repos.Programs.GetByID(ctx, session.ProgramID)
		if err != nil {
			return err
		}
		enrollment, err := repos.Enrollments.GetByID(ctx, enrollmentID)
		if err != nil {
			return notFound(err, ErrEnrollmentNotFound)
		}
		program, err := repos.Programs.GetByID(ctx, enrollment.ProgramID)
		if err != nil {
			return err
		}
		if program.CoalesceParentID() != host.CoalesceParentID() {
			return ErrForeignEnrollment
		}

		participant := &models.SessionParticipant{
			ID:           uuid.NewString(),
			SessionID:    session.ID,
			EnrollmentID: enrollment.ID,
			UserID:       enrollment.MemberID,
			UserType:     models.ParticipantMember,
		}
		if enrollment.MemberID == program.CoachID {
			participant.UserType = models.ParticipantCoach
		}
		if err := repos.Participants.Add(ctx, participant); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyParticipant
			}
			return err
		}

		detail, err = loadDetail(ctx, repos, session.ID)
		return err
	})
	if err != nil {
		return nil, wrap("add session participant", err)
	}

	s.log.Debug().Str("session_id", sessionID).Str("enrollment_id", enrollmentID).Msg("participant added")
	return detail, nil
}

// ChangeSessionState applies READY, START, DONE or CANCEL. Closing notes are
// only kept for DONE.
func (s *SessionService) ChangeSessionState(
	ctx context.Context,
	sessionID string,
	target models.SessionTransition,
	closingNotes string,
) (*models.Session, error) {
	var problems ValidationErrors
	problems.required("id", sessionID)
	switch target {
	case models.SessionMarkReady, models.SessionStart, models.SessionCancel:
	case models.SessionClose:
		problems.required("closing_notes", closingNotes)
	default:
		problems.add("target_state", "must be READY, START, DONE or CANCEL")
	}
	if err := problems.err(); err != nil {
		return nil, err
	}

	var updated *models.Session
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		session, err := repos.Sessions.GetForUpdate(ctx, sessionID)
		if err != nil {
			return notFound(err, ErrSessionNotFound)
		}
		next, ok := session.Apply(target, s.now(), strings.TrimSpace(closingNotes))
		if !ok {
			return ErrIllegalStateTransition
		}
		if err := repos.Sessions.Update(ctx, &next); err != nil {
			return err
		}
		updated, err = repos.Sessions.GetByID(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, wrap("update session state", err)
	}

	s.log.Debug().Str("session_id", sessionID).Str("transition", string(target)).Msg("session transitioned")
	return updated, nil
}

// DeleteSession removes an untouched single-party session.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	var rows int64
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		session, err := repos.Sessions.GetForUpdate(ctx, sessionID)
		if err != nil {
			return notFound(err, ErrSessionNotFound)
		}
		if session.IsConference() || !session.CanDelete() {
			return ErrSessionNotDeletable
		}
		rows, err = repos.Sessions.Delete(ctx, sessionID)
		return err
	})
	if err != nil {
		return 0, wrap("delete session", err)
	}
	return rows, nil
}

// GetSession returns the session with its participants, coaches first.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.SessionDetail, error) {
	detail, err := loadDetail(ctx, s.repos, sessionID)
	if err != nil {
		return nil, wrap("find session", err)
	}
	return detail, nil
}

func (s *SessionService) ListSessions(ctx context.Context, enrollmentID string) ([]models.Session, error) {
	if _, err := s.repos.Enrollments.GetByID(ctx, enrollmentID); err != nil {
		return nil, wrap("find enrollment", notFound(err, ErrEnrollmentNotFound))
	}
	sessions, err := s.repos.Sessions.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, wrap("list sessions", err)
	}
	return sessions, nil
}

// CreateSessionNote stores a note written by one of the session's
// participants.
func (s *SessionService) CreateSessionNote(ctx context.Context, input CreateSessionNoteInput) (*models.SessionNote, error) {
	var problems ValidationErrors
	problems.required("session_id", input.SessionID)
	problems.required("actor_id", input.ActorID)
	problems.required("description", input.Description)
	var remindAt *time.Time
	if strings.TrimSpace(input.RemindAt) != "" {
		at := problems.futureDate("remind_at", input.RemindAt, s.now())
		remindAt = &at
	}
	if err := problems.err(); err != nil {
		return nil, err
	}

	if err := s.requireParticipant(ctx, input.SessionID, input.ActorID); err != nil {
		return nil, err
	}

	note := &models.SessionNote{
		ID:          uuid.NewString(),
		SessionID:   input.SessionID,
		CreatedByID: input.ActorID,
		Description: strings.TrimSpace(input.Description),
		RemindAt:    remindAt,
		IsPrivate:   input.IsPrivate,
	}
	if err := s.repos.Notes.Create(ctx, note); err != nil {
		return nil, wrap("create session note", err)
	}
	return note, nil
}

// ListSessionNotes lists the notes viewerID may read. Private notes of other
// participants are left out.
func (s *SessionService) ListSessionNotes(ctx context.Context, sessionID, viewerID string) ([]models.SessionNote, error) {
	var problems ValidationErrors
	problems.required("id", sessionID)
	problems.required("actor_id", viewerID)
	if err := problems.err(); err != nil {
		return nil, err
	}

	if err := s.requireParticipant(ctx, sessionID, viewerID); err != nil {
		return nil, err
	}
	notes, err := s.repos.Notes.ListVisible(ctx, sessionID, viewerID)
	if err != nil {
		return nil, wrap("list session notes", err)
	}
	return notes, nil
}

func (s *SessionService) requireParticipant(ctx context.Context, sessionID, userID string) error {
	if _, err := s.repos.Sessions.GetByID(ctx, sessionID); err != nil {
		return wrap("find session", notFound(err, ErrSessionNotFound))
	}
	if _, err := s.repos.Participants.FindByUser(ctx, sessionID, userID); err != nil {
		return wrap("find participant", notFound(err, ErrNotSessionParticipant))
	}
	return nil
}

func loadDetail(ctx context.Context, repos Repositories, sessionID string) (*models.SessionDetail, error) {
	session, err := repos.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, notFound(err, ErrSessionNotFound)
	}
	participants, err := repos.Participants.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &models.SessionDetail{Session: *session, Participants: participants}, nil
}
