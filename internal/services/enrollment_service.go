package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/saeid-a/CoachProgramBack/internal/models"
	"github.com/saeid-a/CoachProgramBack/internal/repository"
)

type EnrollmentService struct {
	repos  Repositories
	tx     Transactor
	mailer Mailer
	log    zerolog.Logger
}

type ManagedEnrollmentInput struct {
	ProgramID   string
	MemberEmail string
	Subject     string
	Message     string
}

func NewEnrollmentService(repos Repositories, tx Transactor, mailer Mailer, logger zerolog.Logger) *EnrollmentService {
	return &EnrollmentService{
		repos:  repos,
		tx:     tx,
		mailer: mailer,
		log:    logger.With().Str("component", "enrollments").Logger(),
	}
}

// admission is what a successful gate pass hands to the notification step.
type admission struct {
	enrollment *models.Enrollment
	program    *models.Program
	member     *models.User
	coach      *models.User
}

// CreateEnrollment enrolls memberID into programID on the member's own
// initiative.
func (s *EnrollmentService) CreateEnrollment(
	ctx context.Context,
	programID string,
	memberID string,
) (*models.Enrollment, error) {
	var problems ValidationErrors
	problems.required("program_id", programID)
	problems.required("member_id", memberID)
	if err := problems.err(); err != nil {
		return nil, err
	}

	var admitted admission
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		member, err := repos.Users.GetByID(ctx, memberID)
		if err != nil {
			return notFound(err, ErrMemberNotFound)
		}
		program, err := repos.Programs.GetByID(ctx, programID)
		if err != nil {
			return notFound(err, ErrProgramNotFound)
		}

		admitted, err = admit(ctx, repos, program, member)
		return err
	})
	if err != nil {
		return nil, wrap("create enrollment", err)
	}

	s.notify(ctx, models.MailSelfEnrollment, admitted, nil)
	return admitted.enrollment, nil
}

// CreateManagedEnrollment lets the owning coach enroll a member by email.
func (s *EnrollmentService) CreateManagedEnrollment(
	ctx context.Context,
	coachID string,
	input ManagedEnrollmentInput,
) (*models.Enrollment, error) {
	var problems ValidationErrors
	problems.required("coach_id", coachID)
	problems.required("program_id", input.ProgramID)
	problems.required("member_email", input.MemberEmail)
	if err := problems.err(); err != nil {
		return nil, err
	}

	var admitted admission
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		if _, err := repos.Users.GetByID(ctx, coachID); err != nil {
			return notFound(err, ErrCoachNotFound)
		}
		program, err := repos.Programs.GetByID(ctx, input.ProgramID)
		if err != nil {
			return notFound(err, ErrProgramNotFound)
		}
		if program.CoachID != coachID {
			return ErrNotProgramOwner
		}
		member, err := repos.Users.GetByEmail(ctx, strings.TrimSpace(input.MemberEmail))
		if err != nil {
			return notFound(err, ErrMemberNotFound)
		}

		admitted, err = admit(ctx, repos, program, member)
		return err
	})
	if err != nil {
		return nil, wrap("create managed enrollment", err)
	}

	s.notify(ctx, models.MailManagedEnrollment, admitted, map[string]string{
		"subject": strings.TrimSpace(input.Subject),
		"message": strings.TrimSpace(input.Message),
	})
	return admitted.enrollment, nil
}

// admit runs the family gates and inserts the enrollment. It must be called
// inside a transaction.
func admit(
	ctx context.Context,
	repos Repositories,
	program *models.Program,
	member *models.User,
) (admission, error) {
	rootID := program.CoalesceParentID()
	if err := repos.Programs.LockFamily(ctx, rootID); err != nil {
		return admission{}, err
	}

	_, err := repos.Programs.FindInFamilyByCoach(ctx, rootID, member.ID)
	switch {
	case err == nil:
		return admission{}, ErrMemberIsPeerCoach
	case !errors.Is(err, pgx.ErrNoRows):
		return admission{}, err
	}

	_, err = repos.Enrollments.FindInFamily(ctx, rootID, member.ID)
	switch {
	case err == nil:
		return admission{}, ErrAlreadyEnrolled
	case !errors.Is(err, pgx.ErrNoRows):
		return admission{}, err
	}

	coach, err := repos.Users.GetByID(ctx, program.CoachID)
	if err != nil {
		return admission{}, notFound(err, ErrCoachNotFound)
	}

	enrollment := &models.Enrollment{
		ID:        uuid.NewString(),
		ProgramID: program.ID,
		MemberID:  member.ID,
		IsNew:     true,
	}
	if err := repos.Enrollments.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return admission{}, ErrAlreadyEnrolled
		}
		return admission{}, err
	}

	stored, err := repos.Enrollments.GetByProgramAndMember(ctx, program.ID, member.ID)
	if err != nil {
		return admission{}, err
	}
	return admission{enrollment: stored, program: program, member: member, coach: coach}, nil
}

// notify queues the enrollment mail. Failures are logged and never undo the
// committed enrollment.
func (s *EnrollmentService) notify(
	ctx context.Context,
	kind models.MailKind,
	admitted admission,
	extra map[string]string,
) {
	data := map[string]string{
		"program_id":    admitted.program.ID,
		"program_name":  admitted.program.Name,
		"member_name":   admitted.member.FullName,
		"coach_name":    admitted.coach.FullName,
		"enrollment_id": admitted.enrollment.ID,
	}
	for key, value := range extra {
		data[key] = value
	}

	recipients := []models.MailRecipient{
		{UserID: admitted.member.ID, Email: admitted.member.Email, FullName: admitted.member.FullName, Type: models.RecipientTo},
		{UserID: admitted.coach.ID, Email: admitted.coach.Email, FullName: admitted.coach.FullName, Type: models.RecipientCC},
	}

	if _, err := s.mailer.ComposeAndQueue(ctx, kind, recipients, data); err != nil {
		s.log.Warn().
			Err(err).
			Str("enrollment_id", admitted.enrollment.ID).
			Str("kind", string(kind)).
			Msg("enrollment notification failed")
		return
	}
	s.log.Info().
		Str("enrollment_id", admitted.enrollment.ID).
		Str("kind", string(kind)).
		Msg("enrollment notification queued")
}

// FindOrCreateCoachSelfEnrollment returns the coach's own enrollment in
// programID, creating it on first use.
func (s *EnrollmentService) FindOrCreateCoachSelfEnrollment(
	ctx context.Context,
	programID string,
) (*models.Enrollment, error) {
	var problems ValidationErrors
	problems.required("program_id", programID)
	if err := problems.err(); err != nil {
		return nil, err
	}

	var enrollment *models.Enrollment
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		program, err := repos.Programs.GetByID(ctx, programID)
		if err != nil {
			return notFound(err, ErrProgramNotFound)
		}
		enrollment, err = coachSelfEnrollment(ctx, repos, program)
		return err
	})
	if err != nil {
		return nil, wrap("coach self enrollment", err)
	}
	return enrollment, nil
}

// coachSelfEnrollment finds or creates the coach's own enrollment in
// program. It must run inside a transaction; the family lock serializes
// concurrent first uses.
func coachSelfEnrollment(ctx context.Context, repos Repositories, program *models.Program) (*models.Enrollment, error) {
	if err := repos.Programs.LockFamily(ctx, program.CoalesceParentID()); err != nil {
		return nil, err
	}

	enrollment, err := repos.Enrollments.GetByProgramAndMember(ctx, program.ID, program.CoachID)
	if err == nil || !errors.Is(err, pgx.ErrNoRows) {
		return enrollment, err
	}

	created := &models.Enrollment{
		ID:        uuid.NewString(),
		ProgramID: program.ID,
		MemberID:  program.CoachID,
		IsNew:     true,
	}
	if err := repos.Enrollments.Create(ctx, created); err != nil {
		return nil, err
	}
	return repos.Enrollments.GetByProgramAndMember(ctx, program.ID, program.CoachID)
}

// MarkAsOld clears the is_new flag. Clearing an already cleared flag still
// reports the matched row.
func (s *EnrollmentService) MarkAsOld(ctx context.Context, enrollmentID string) (int64, error) {
	var problems ValidationErrors
	problems.required("enrollment_id", enrollmentID)
	if err := problems.err(); err != nil {
		return 0, err
	}

	rows, err := s.repos.Enrollments.MarkAsOld(ctx, enrollmentID)
	if err != nil {
		return 0, wrap("mark enrollment as old", err)
	}
	if rows == 0 {
		return 0, ErrEnrollmentNotFound
	}
	return rows, nil
}

// GetActiveEnrollments lists the members of programID by display name.
func (s *EnrollmentService) GetActiveEnrollments(
	ctx context.Context,
	programID string,
	filter models.EnrollmentFilter,
) ([]models.Member, error) {
	var problems ValidationErrors
	problems.required("program_id", programID)
	if filter == "" {
		filter = models.EnrollmentFilterAll
	}
	if filter != models.EnrollmentFilterAll && filter != models.EnrollmentFilterNew {
		problems.add("filter", "must be ALL or NEW")
	}
	if err := problems.err(); err != nil {
		return nil, err
	}

	if _, err := s.repos.Programs.GetByID(ctx, programID); err != nil {
		return nil, wrap("find program", notFound(err, ErrProgramNotFound))
	}

	members, err := s.repos.Enrollments.ListMembers(ctx, programID, filter == models.EnrollmentFilterNew)
	if err != nil {
		return nil, wrap("list members", err)
	}
	return members, nil
}

// GetEnrollment loads one enrollment.
func (s *EnrollmentService) GetEnrollment(ctx context.Context, enrollmentID string) (*models.Enrollment, error) {
	enrollment, err := s.repos.Enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, wrap("find enrollment", notFound(err, ErrEnrollmentNotFound))
	}
	return enrollment, nil
}
