package repository

import (
	"context"

	"github.com/saeid-a/CoachProgramBack/internal/models"
)

type SessionNoteRepository struct {
	db DBTX
}

func NewSessionNoteRepository(db DBTX) *SessionNoteRepository {
	return &SessionNoteRepository{db: db}
}

func (r *SessionNoteRepository) Create(ctx context.Context, note *models.SessionNote) error {
	query := `
		INSERT INTO session_notes (id, session_id, created_by_id, description, remind_at, is_private)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(
		ctx,
		query,
		note.ID,
		note.SessionID,
		note.CreatedByID,
		note.Description,
		note.RemindAt,
		note.IsPrivate,
	).Scan(&note.CreatedAt, &note.UpdatedAt)
	return translate(err)
}

// ListVisible returns the session's notes that viewerID may read: every
// shared note plus the viewer's own private ones, newest first.
func (r *SessionNoteRepository) ListVisible(ctx context.Context, sessionID, viewerID string) ([]models.SessionNote, error) {
	query := `
		SELECT id, session_id, created_by_id, description, remind_at, is_private, created_at, updated_at
		FROM session_notes
		WHERE session_id = $1 AND (is_private = FALSE OR created_by_id = $2)
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, sessionID, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]models.SessionNote, 0)
	for rows.Next() {
		var note models.SessionNote
		if err := rows.Scan(
			&note.ID,
			&note.SessionID,
			&note.CreatedByID,
			&note.Description,
			&note.RemindAt,
			&note.IsPrivate,
			&note.CreatedAt,
			&note.UpdatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}
