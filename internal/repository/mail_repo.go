package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/saeid-a/CoachProgramBack/internal/models"
)

type MailRepository struct {
	db DBTX
}

func NewMailRepository(db DBTX) *MailRepository {
	return &MailRepository{db: db}
}

// Enqueue stores the mail and its recipients in the outbox. Callers run it
// inside a transaction so a failed recipient insert leaves no header row.
func (r *MailRepository) Enqueue(ctx context.Context, mail *models.MailOut) error {
	payload, err := json.Marshal(mail.Context)
	if err != nil {
		return fmt.Errorf("encode mail context: %w", err)
	}

	query := `
		INSERT INTO mail_outs (id, kind, subject, context)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	if err := r.db.QueryRow(ctx, query, mail.ID, mail.Kind, mail.Subject, payload).Scan(&mail.CreatedAt); err != nil {
		return translate(err)
	}

	for _, recipient := range mail.Recipients {
		if _, err := r.db.Exec(
			ctx,
			`INSERT INTO mail_recipients (mail_out_id, user_id, email, full_name, recipient_type)
			 VALUES ($1, $2, $3, $4, $5)`,
			mail.ID,
			recipient.UserID,
			recipient.Email,
			recipient.FullName,
			recipient.Type,
		); err != nil {
			return translate(err)
		}
	}
	return nil
}
