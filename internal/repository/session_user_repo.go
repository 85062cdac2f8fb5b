package repository

import (
	"context"

	"github.com/saeid-a/CoachProgramBack/internal/models"
)

const participantColumns = `id, session_id, enrollment_id, user_id, user_type, created_at`

type SessionUserRepository struct {
	db DBTX
}

func NewSessionUserRepository(db DBTX) *SessionUserRepository {
	return &SessionUserRepository{db: db}
}

func scanParticipant(row rowScanner) (*models.SessionParticipant, error) {
	var participant models.SessionParticipant
	err := row.Scan(
		&participant.ID,
		&participant.SessionID,
		&participant.EnrollmentID,
		&participant.UserID,
		&participant.UserType,
		&participant.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// Add inserts a participant. A user joining the same session twice yields
// ErrDuplicate.
func (r *SessionUserRepository) Add(ctx context.Context, participant *models.SessionParticipant) error {
	query := `
		INSERT INTO session_users (id, session_id, enrollment_id, user_id, user_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRow(
		ctx,
		query,
		participant.ID,
		participant.SessionID,
		participant.EnrollmentID,
		participant.UserID,
		participant.UserType,
	).Scan(&participant.CreatedAt)
	return translate(err)
}

func (r *SessionUserRepository) FindByUser(ctx context.Context, sessionID, userID string) (*models.SessionParticipant, error) {
	query := `SELECT ` + participantColumns + ` FROM session_users WHERE session_id = $1 AND user_id = $2`
	return scanParticipant(r.db.QueryRow(ctx, query, sessionID, userID))
}

// ListBySession returns coaches before members, each group in join order.
func (r *SessionUserRepository) ListBySession(ctx context.Context, sessionID string) ([]models.SessionParticipant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM session_users
		WHERE session_id = $1
		ORDER BY CASE user_type WHEN 'coach' THEN 0 ELSE 1 END, created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]models.SessionParticipant, 0)
	for rows.Next() {
		participant, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, *participant)
	}
	return participants, rows.Err()
}
