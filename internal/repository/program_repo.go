package repository

import (
	"context"

	"github.com/saeid-a/CoachProgramBack/internal/models"
)

const programColumns = `p.id, p.name, p.description, p.coach_id, p.active, p.parent_program_id, p.created_at, p.updated_at`

const programCoachColumns = programColumns + `,
	u.id, u.full_name, u.email, u.blocked, u.created_at, u.updated_at`

type ProgramRepository struct {
	db DBTX
}

func NewProgramRepository(db DBTX) *ProgramRepository {
	return &ProgramRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgram(row rowScanner, extra ...any) (*models.Program, error) {
	var program models.Program
	var parentID *string
	dest := append([]any{
		&program.ID,
		&program.Name,
		&program.Description,
		&program.CoachID,
		&program.Active,
		&parentID,
		&program.CreatedAt,
		&program.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	program.Lineage = models.LineageFromParent(parentID)
	return &program, nil
}

func scanProgramCoach(row rowScanner) (*models.ProgramCoach, error) {
	var coach models.User
	program, err := scanProgram(row,
		&coach.ID,
		&coach.FullName,
		&coach.Email,
		&coach.Blocked,
		&coach.CreatedAt,
		&coach.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &models.ProgramCoach{Program: *program, Coach: coach}, nil
}

// Create inserts a program with its caller-assigned id.
func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	query := `
		INSERT INTO programs (id, name, description, coach_id, active, parent_program_id, is_parent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(
		ctx,
		query,
		program.ID,
		program.Name,
		program.Description,
		program.CoachID,
		program.Active,
		program.ParentProgramID(),
		program.IsParent(),
	).Scan(&program.CreatedAt, &program.UpdatedAt)
	return translate(err)
}

func (r *ProgramRepository) GetByID(ctx context.Context, id string) (*models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs p WHERE p.id = $1`
	return scanProgram(r.db.QueryRow(ctx, query, id))
}

func (r *ProgramRepository) GetWithCoach(ctx context.Context, id string) (*models.ProgramCoach, error) {
	query := `
		SELECT ` + programCoachColumns + `
		FROM programs p
		JOIN users u ON u.id = p.coach_id
		WHERE p.id = $1
	`
	return scanProgramCoach(r.db.QueryRow(ctx, query, id))
}

// FindInFamilyByCoach returns the family program offered by coachID, root
// included.
func (r *ProgramRepository) FindInFamilyByCoach(ctx context.Context, rootID, coachID string) (*models.Program, error) {
	query := `
		SELECT ` + programColumns + `
		FROM programs p
		WHERE (p.id = $1 OR p.parent_program_id = $1) AND p.coach_id = $2
		LIMIT 1
	`
	return scanProgram(r.db.QueryRow(ctx, query, rootID, coachID))
}

// ListPeersWithCoach returns the spawned programs of rootID joined with
// their coaches. The root itself is excluded.
func (r *ProgramRepository) ListPeersWithCoach(ctx context.Context, rootID string) ([]models.ProgramCoach, error) {
	query := `
		SELECT ` + programCoachColumns + `
		FROM programs p
		JOIN users u ON u.id = p.coach_id
		WHERE p.parent_program_id = $1
		ORDER BY p.created_at ASC, p.id ASC
	`
	return r.listWithCoach(ctx, query, rootID)
}

// SetFamilyActive flips the root and every spawned peer in one statement.
func (r *ProgramRepository) SetFamilyActive(ctx context.Context, rootID string, active bool) (int64, error) {
	query := `
		UPDATE programs
		SET active = $2, updated_at = NOW()
		WHERE id = $1 OR parent_program_id = $1
	`
	tag, err := r.db.Exec(ctx, query, rootID, active)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListActiveWithCoach returns the longest-running active offerings first.
func (r *ProgramRepository) ListActiveWithCoach(ctx context.Context, limit int) ([]models.ProgramCoach, error) {
	query := `
		SELECT ` + programCoachColumns + `
		FROM programs p
		JOIN users u ON u.id = p.coach_id
		WHERE p.active = TRUE
		ORDER BY p.created_at ASC, p.id ASC
		LIMIT $1
	`
	return r.listWithCoach(ctx, query, limit)
}

func (r *ProgramRepository) ListByCoachWithCoach(ctx context.Context, coachID string) ([]models.ProgramCoach, error) {
	query := `
		SELECT ` + programCoachColumns + `
		FROM programs p
		JOIN users u ON u.id = p.coach_id
		WHERE p.coach_id = $1
		ORDER BY p.name ASC, p.id ASC
	`
	return r.listWithCoach(ctx, query, coachID)
}

func (r *ProgramRepository) ListEnrolledWithCoach(ctx context.Context, memberID string) ([]models.ProgramCoach, error) {
	query := `
		SELECT ` + programCoachColumns + `
		FROM programs p
		JOIN users u ON u.id = p.coach_id
		JOIN enrollments e ON e.program_id = p.id
		WHERE e.member_id = $1
		ORDER BY e.created_at DESC, p.id DESC
	`
	return r.listWithCoach(ctx, query, memberID)
}

func (r *ProgramRepository) listWithCoach(ctx context.Context, query string, arg any) ([]models.ProgramCoach, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	programs := make([]models.ProgramCoach, 0)
	for rows.Next() {
		item, err := scanProgramCoach(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return programs, nil
}

// LockFamily serializes writers on one family until the transaction ends.
func (r *ProgramRepository) LockFamily(ctx context.Context, rootID string) error {
	_, err := r.db.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", rootID)
	return err
}
