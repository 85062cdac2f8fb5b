package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachProgramBack/internal/models"
	"github.com/saeid-a/CoachProgramBack/internal/repository"
)

type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type ProgramStore interface {
	Create(ctx context.Context, program *models.Program) error
	GetByID(ctx context.Context, id string) (*models.Program, error)
	GetWithCoach(ctx context.Context, id string) (*models.ProgramCoach, error)
	FindInFamilyByCoach(ctx context.Context, rootID, coachID string) (*models.Program, error)
	ListPeersWithCoach(ctx context.Context, rootID string) ([]models.ProgramCoach, error)
	SetFamilyActive(ctx context.Context, rootID string, active bool) (int64, error)
	ListActiveWithCoach(ctx context.Context, limit int) ([]models.ProgramCoach, error)
	ListByCoachWithCoach(ctx context.Context, coachID string) ([]models.ProgramCoach, error)
	ListEnrolledWithCoach(ctx context.Context, memberID string) ([]models.ProgramCoach, error)
	LockFamily(ctx context.Context, rootID string) error
}

type EnrollmentStore interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id string) (*models.Enrollment, error)
	GetByProgramAndMember(ctx context.Context, programID, memberID string) (*models.Enrollment, error)
	FindInFamily(ctx context.Context, rootID, memberID string) (*models.Enrollment, error)
	HasMemberHistoryInFamily(ctx context.Context, rootID, userID string) (bool, error)
	MarkAsOld(ctx context.Context, id string) (int64, error)
	ListMembers(ctx context.Context, programID string, onlyNew bool) ([]models.Member, error)
}

type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	GetForUpdate(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Task, error)
}

type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	GetForUpdate(ctx context.Context, id string) (*models.Session, error)
	Update(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) (int64, error)
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Session, error)
}

type SessionParticipantStore interface {
	Add(ctx context.Context, participant *models.SessionParticipant) error
	FindByUser(ctx context.Context, sessionID, userID string) (*models.SessionParticipant, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.SessionParticipant, error)
}

type SessionNoteStore interface {
	Create(ctx context.Context, note *models.SessionNote) error
	ListVisible(ctx context.Context, sessionID, viewerID string) ([]models.SessionNote, error)
}

type ObjectiveStore interface {
	Create(ctx context.Context, objective *models.Objective) error
	GetByID(ctx context.Context, id string) (*models.Objective, error)
	Update(ctx context.Context, objective *models.Objective) error
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Objective, error)
}

type MailStore interface {
	Enqueue(ctx context.Context, mail *models.MailOut) error
}

// Repositories is the set of stores bound to one database handle.
type Repositories struct {
	Users        UserStore
	Programs     ProgramStore
	Enrollments  EnrollmentStore
	Tasks        TaskStore
	Sessions     SessionStore
	Participants SessionParticipantStore
	Notes        SessionNoteStore
	Objectives   ObjectiveStore
	Mails        MailStore
}

func NewRepositories(db repository.DBTX) Repositories {
	return Repositories{
		Users:        repository.NewUserRepository(db),
		Programs:     repository.NewProgramRepository(db),
		Enrollments:  repository.NewEnrollmentRepository(db),
		Tasks:        repository.NewTaskRepository(db),
		Sessions:     repository.NewSessionRepository(db),
		Participants: repository.NewSessionUserRepository(db),
		Notes:        repository.NewSessionNoteRepository(db),
		Objectives:   repository.NewObjectiveRepository(db),
		Mails:        repository.NewMailRepository(db),
	}
}

// Transactor runs fn against repositories bound to a single transaction.
// Any error returned by fn rolls the transaction back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PgTransactor struct {
	db txBeginner
}

func NewPgTransactor(db txBeginner) *PgTransactor {
	return &PgTransactor{db: db}
}

func (t *PgTransactor) WithinTx(ctx context.Context, fn func(repos Repositories) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
