package repository

import (
	"context"

	"github.com/saeid-a/CoachProgramBack/internal/models"
)

const enrollmentColumns = `e.id, e.program_id, e.member_id, e.is_new, e.created_at, e.updated_at`

type EnrollmentRepository struct {
	db DBTX
}

func NewEnrollmentRepository(db DBTX) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func scanEnrollment(row rowScanner) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := row.Scan(
		&enrollment.ID,
		&enrollment.ProgramID,
		&enrollment.MemberID,
		&enrollment.IsNew,
		&enrollment.CreatedAt,
		&enrollment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	query := `
		INSERT INTO enrollments (id, program_id, member_id, is_new)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, enrollment.ID, enrollment.ProgramID, enrollment.MemberID, enrollment.IsNew).
		Scan(&enrollment.CreatedAt, &enrollment.UpdatedAt)
	return translate(err)
}

func (r *EnrollmentRepository) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments e WHERE e.id = $1`
	return scanEnrollment(r.db.QueryRow(ctx, query, id))
}

func (r *EnrollmentRepository) GetByProgramAndMember(ctx context.Context, programID, memberID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments e WHERE e.program_id = $1 AND e.member_id = $2`
	return scanEnrollment(r.db.QueryRow(ctx, query, programID, memberID))
}

// FindInFamily returns any enrollment of memberID in the family rooted at
// rootID.
func (r *EnrollmentRepository) FindInFamily(ctx context.Context, rootID, memberID string) (*models.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments e
		JOIN programs p ON p.id = e.program_id
		WHERE (p.id = $1 OR p.parent_program_id = $1) AND e.member_id = $2
		ORDER BY e.created_at ASC
		LIMIT 1
	`
	return scanEnrollment(r.db.QueryRow(ctx, query, rootID, memberID))
}

// HasMemberHistoryInFamily reports whether userID was ever enrolled as a
// member in the family. Enrollments into programs the user coaches do not
// count.
func (r *EnrollmentRepository) HasMemberHistoryInFamily(ctx context.Context, rootID, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM enrollments e
			JOIN programs p ON p.id = e.program_id
			WHERE (p.id = $1 OR p.parent_program_id = $1)
				AND e.member_id = $2
				AND p.coach_id <> $2
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, rootID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *EnrollmentRepository) MarkAsOld(ctx context.Context, id string) (int64, error) {
	query := `UPDATE enrollments SET is_new = FALSE, updated_at = NOW() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *EnrollmentRepository) ListMembers(ctx context.Context, programID string, onlyNew bool) ([]models.Member, error) {
	query := `
		SELECT e.id, u.id, u.full_name, u.email, e.is_new, e.created_at
		FROM enrollments e
		JOIN users u ON u.id = e.member_id
		WHERE e.program_id = $1 AND ($2::boolean = FALSE OR e.is_new = TRUE)
		ORDER BY u.full_name ASC, u.id ASC
	`
	rows, err := r.db.Query(ctx, query, programID, onlyNew)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.Member, 0)
	for rows.Next() {
		var member models.Member
		if err := rows.Scan(
			&member.EnrollmentID,
			&member.UserID,
			&member.FullName,
			&member.Email,
			&member.IsNew,
			&member.EnrolledAt,
		); err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return members, nil
}
