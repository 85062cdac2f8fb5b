package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/saeid-a/CoachProgramBack/internal/models"
)

// Mailer queues a notification for delivery outside the request.
type Mailer interface {
	ComposeAndQueue(
		ctx context.Context,
		kind models.MailKind,
		recipients []models.MailRecipient,
		data map[string]string,
	) (*models.MailOut, error)
}

// Notifier pushes a queued mail to connected recipients.
type Notifier interface {
	Notify(userID string, mail models.MailOut)
}

type OutboxMailer struct {
	tx       Transactor
	notifier Notifier
	now      func() time.Time
}

// NewOutboxMailer queues mails through tx so a mail header and its
// recipients are stored together or not at all. notifier may be nil.
func NewOutboxMailer(tx Transactor, notifier Notifier) *OutboxMailer {
	return &OutboxMailer{
		tx:       tx,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *OutboxMailer) ComposeAndQueue(
	ctx context.Context,
	kind models.MailKind,
	recipients []models.MailRecipient,
	data map[string]string,
) (*models.MailOut, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("mail %s has no recipients", kind)
	}

	subject, err := composeSubject(kind, data)
	if err != nil {
		return nil, err
	}

	mail := &models.MailOut{
		ID:         uuid.NewString(),
		Kind:       kind,
		Subject:    subject,
		Context:    data,
		Recipients: recipients,
		CreatedAt:  m.now(),
	}
	err = m.tx.WithinTx(ctx, func(repos Repositories) error {
		return repos.Mails.Enqueue(ctx, mail)
	})
	if err != nil {
		return nil, fmt.Errorf("queue mail: %w", err)
	}

	if m.notifier != nil {
		for _, recipient := range recipients {
			m.notifier.Notify(recipient.UserID, *mail)
		}
	}
	return mail, nil
}

func composeSubject(kind models.MailKind, data map[string]string) (string, error) {
	switch kind {
	case models.MailSelfEnrollment:
		return fmt.Sprintf("%s joined %s", data["member_name"], data["program_name"]), nil
	case models.MailManagedEnrollment:
		if subject := data["subject"]; subject != "" {
			return subject, nil
		}
		return fmt.Sprintf("You have been enrolled in %s", data["program_name"]), nil
	default:
		return "", fmt.Errorf("unknown mail kind %q", kind)
	}
}
