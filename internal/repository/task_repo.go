package repository

import (
	"context"

	"github.com/saeid-a/CoachProgramBack/internal/models"
)

const taskColumns = `id, enrollment_id, actor_id, name, description, duration,
	original_start_date, original_end_date, revised_start_date, revised_end_date,
	offered_start_date, offered_end_date, actual_start_date, actual_end_date,
	response, responded_date, closing_notes, approved_at, cancelled_at,
	created_at, updated_at`

type TaskRepository struct {
	db DBTX
}

func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID,
		&task.EnrollmentID,
		&task.ActorID,
		&task.Name,
		&task.Description,
		&task.Duration,
		&task.OriginalStart,
		&task.OriginalEnd,
		&task.RevisedStart,
		&task.RevisedEnd,
		&task.OfferedStart,
		&task.OfferedEnd,
		&task.ActualStart,
		&task.ActualEnd,
		&task.Response,
		&task.RespondedAt,
		&task.ClosingNotes,
		&task.ApprovedAt,
		&task.CancelledAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, enrollment_id, actor_id, name, description, duration,
			original_start_date, original_end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(
		ctx,
		query,
		task.ID,
		task.EnrollmentID,
		task.ActorID,
		task.Name,
		task.Description,
		task.Duration,
		task.OriginalStart,
		task.OriginalEnd,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
	return translate(err)
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.db.QueryRow(ctx, query, id))
}

// GetForUpdate reads a task and holds its row lock until the surrounding
// transaction ends.
func (r *TaskRepository) GetForUpdate(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 FOR UPDATE`
	return scanTask(r.db.QueryRow(ctx, query, id))
}

// Update writes every mutable column of task.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET name = $2,
			description = $3,
			duration = $4,
			original_start_date = $5,
			original_end_date = $6,
			revised_start_date = $7,
			revised_end_date = $8,
			offered_start_date = $9,
			offered_end_date = $10,
			actual_start_date = $11,
			actual_end_date = $12,
			response = $13,
			responded_date = $14,
			closing_notes = $15,
			approved_at = $16,
			cancelled_at = $17,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		task.ID,
		task.Name,
		task.Description,
		task.Duration,
		task.OriginalStart,
		task.OriginalEnd,
		task.RevisedStart,
		task.RevisedEnd,
		task.OfferedStart,
		task.OfferedEnd,
		task.ActualStart,
		task.ActualEnd,
		task.Response,
		task.RespondedAt,
		task.ClosingNotes,
		task.ApprovedAt,
		task.CancelledAt,
	).Scan(&task.UpdatedAt)
}

func (r *TaskRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE enrollment_id = $1
		ORDER BY COALESCE(revised_start_date, original_start_date) ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, enrollmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}
