package repository

import (
	"context"

	"github.com/saeid-a/CoachProgramBack/internal/models"
)

const objectiveColumns = `id, enrollment_id, duration, original_start_date, original_end_date,
	revised_start_date, revised_end_date, actual_start_date, actual_end_date,
	description, closing_notes, created_at, updated_at`

type ObjectiveRepository struct {
	db DBTX
}

func NewObjectiveRepository(db DBTX) *ObjectiveRepository {
	return &ObjectiveRepository{db: db}
}

func scanObjective(row rowScanner) (*models.Objective, error) {
	var objective models.Objective
	err := row.Scan(
		&objective.ID,
		&objective.EnrollmentID,
		&objective.Duration,
		&objective.OriginalStart,
		&objective.OriginalEnd,
		&objective.RevisedStart,
		&objective.RevisedEnd,
		&objective.ActualStart,
		&objective.ActualEnd,
		&objective.Description,
		&objective.ClosingNotes,
		&objective.CreatedAt,
		&objective.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &objective, nil
}

func (r *ObjectiveRepository) Create(ctx context.Context, objective *models.Objective) error {
	query := `
		INSERT INTO objectives (id, enrollment_id, duration, original_start_date, original_end_date, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(
		ctx,
		query,
		objective.ID,
		objective.EnrollmentID,
		objective.Duration,
		objective.OriginalStart,
		objective.OriginalEnd,
		objective.Description,
	).Scan(&objective.CreatedAt, &objective.UpdatedAt)
	return translate(err)
}

func (r *ObjectiveRepository) GetByID(ctx context.Context, id string) (*models.Objective, error) {
	query := `SELECT ` + objectiveColumns + ` FROM objectives WHERE id = $1`
	return scanObjective(r.db.QueryRow(ctx, query, id))
}

func (r *ObjectiveRepository) Update(ctx context.Context, objective *models.Objective) error {
	query := `
		UPDATE objectives
		SET duration = $2,
			original_start_date = $3,
			original_end_date = $4,
			revised_start_date = $5,
			revised_end_date = $6,
			actual_start_date = $7,
			actual_end_date = $8,
			description = $9,
			closing_notes = $10,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		objective.ID,
		objective.Duration,
		objective.OriginalStart,
		objective.OriginalEnd,
		objective.RevisedStart,
		objective.RevisedEnd,
		objective.ActualStart,
		objective.ActualEnd,
		objective.Description,
		objective.ClosingNotes,
	).Scan(&objective.UpdatedAt)
}

func (r *ObjectiveRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Objective, error) {
	query := `
		SELECT ` + objectiveColumns + `
		FROM objectives
		WHERE enrollment_id = $1
		ORDER BY COALESCE(revised_start_date, original_start_date) ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, enrollmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	objectives := make([]models.Objective, 0)
	for rows.Next() {
		objective, err := scanObjective(rows)
		if err != nil {
			return nil, err
		}
		objectives = append(objectives, *objective)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return objectives, nil
}
