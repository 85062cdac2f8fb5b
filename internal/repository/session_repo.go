package repository

import (
	"context"

	"github.com/saeid-a/CoachProgramBack/internal/models"
)

const sessionColumns = `id, enrollment_id, program_id, conference_id, session_type, name, description, duration,
	original_start_date, original_end_date, revised_start_date, revised_end_date,
	offered_start_date, offered_end_date, is_ready, actual_start_date, actual_end_date,
	cancelled_at, closing_notes, created_at, updated_at`

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func scanSession(row rowScanner) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.EnrollmentID,
		&session.ProgramID,
		&session.ConferenceID,
		&session.SessionType,
		&session.Name,
		&session.Description,
		&session.Duration,
		&session.OriginalStart,
		&session.OriginalEnd,
		&session.RevisedStart,
		&session.RevisedEnd,
		&session.OfferedStart,
		&session.OfferedEnd,
		&session.IsReady,
		&session.ActualStart,
		&session.ActualEnd,
		&session.CancelledAt,
		&session.ClosingNotes,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, enrollment_id, program_id, conference_id, session_type, name,
			description, duration, original_start_date, original_end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(
		ctx,
		query,
		session.ID,
		session.EnrollmentID,
		session.ProgramID,
		session.ConferenceID,
		session.SessionType,
		session.Name,
		session.Description,
		session.Duration,
		session.OriginalStart,
		session.OriginalEnd,
	).Scan(&session.CreatedAt, &session.UpdatedAt)
	return translate(err)
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return scanSession(r.db.QueryRow(ctx, query, id))
}

// GetForUpdate reads a session and holds its row lock until the surrounding
// transaction ends.
func (r *SessionRepository) GetForUpdate(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 FOR UPDATE`
	return scanSession(r.db.QueryRow(ctx, query, id))
}

// Update writes the lifecycle and schedule columns of session.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	query := `
		UPDATE sessions
		SET name = $2,
			description = $3,
			revised_start_date = $4,
			revised_end_date = $5,
			offered_start_date = $6,
			offered_end_date = $7,
			is_ready = $8,
			actual_start_date = $9,
			actual_end_date = $10,
			cancelled_at = $11,
			closing_notes = $12,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		session.ID,
		session.Name,
		session.Description,
		session.RevisedStart,
		session.RevisedEnd,
		session.OfferedStart,
		session.OfferedEnd,
		session.IsReady,
		session.ActualStart,
		session.ActualEnd,
		session.CancelledAt,
		session.ClosingNotes,
	).Scan(&session.UpdatedAt)
}

func (r *SessionRepository) Delete(ctx context.Context, id string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE enrollment_id = $1
		ORDER BY COALESCE(revised_start_date, original_start_date) ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, enrollmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}
