package services

import (
	"context"
	"errors"
	"testing"

	"github.com/saeid-a/CoachProgramBack/internal/models"
)

func TestOutboxMailerRejectsEmptyRecipients(t *testing.T) {
	store := newMemStore()
	mailer := NewOutboxMailer(store, nil)

	if _, err := mailer.ComposeAndQueue(context.Background(), models.MailSelfEnrollment, nil, nil); err == nil {
		t.Fatalf("expected error without recipients")
	}
}

func TestOutboxMailerRejectsUnknownKind(t *testing.T) {
	store := newMemStore()
	mailer := NewOutboxMailer(store, nil)
	recipients := []models.MailRecipient{{UserID: "u", Email: "u@example.com", Type: models.RecipientTo}}

	if _, err := mailer.ComposeAndQueue(context.Background(), models.MailKind("DIGEST"), recipients, nil); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if len(store.queuedMails()) != 0 {
		t.Fatalf("nothing should be queued")
	}
}

func TestOutboxMailerSubjects(t *testing.T) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	mailer := NewOutboxMailer(store, notifier)
	recipients := []models.MailRecipient{{UserID: "u", Email: "u@example.com", Type: models.RecipientTo}}

	self, err := mailer.ComposeAndQueue(context.Background(), models.MailSelfEnrollment, recipients, map[string]string{
		"member_name":  "Mia",
		"program_name": "Fitness",
	})
	if err != nil {
		t.Fatalf("ComposeAndQueue self: %v", err)
	}
	if self.Subject != "Mia joined Fitness" {
		t.Fatalf("unexpected subject %q", self.Subject)
	}

	managed, err := mailer.ComposeAndQueue(context.Background(), models.MailManagedEnrollment, recipients, map[string]string{
		"program_name": "Fitness",
	})
	if err != nil {
		t.Fatalf("ComposeAndQueue managed: %v", err)
	}
	if managed.Subject != "You have been enrolled in Fitness" {
		t.Fatalf("unexpected subject %q", managed.Subject)
	}
	if notifier.count("u") != 2 {
		t.Fatalf("expected two live notifications, got %d", notifier.count("u"))
	}
}

func TestOutboxMailerQueuesRecipientsAtomically(t *testing.T) {
	store := newMemStore()
	store.failRecipient = 2
	notifier := &recordingNotifier{}
	mailer := NewOutboxMailer(store, notifier)
	recipients := []models.MailRecipient{
		{UserID: "member", Email: "member@example.com", Type: models.RecipientTo},
		{UserID: "coach", Email: "coach@example.com", Type: models.RecipientCC},
	}

	_, err := mailer.ComposeAndQueue(context.Background(), models.MailSelfEnrollment, recipients, map[string]string{
		"member_name":  "Mia",
		"program_name": "Fitness",
	})
	if !errors.Is(err, errRecipientInsert) {
		t.Fatalf("expected recipient insert failure, got %v", err)
	}
	if mails := store.queuedMails(); len(mails) != 0 {
		t.Fatalf("expected no partial mail, got %+v", mails)
	}
	if notifier.count("member") != 0 {
		t.Fatalf("nothing should be pushed for a mail that was not queued")
	}

	store.failRecipient = 0
	queued, err := mailer.ComposeAndQueue(context.Background(), models.MailSelfEnrollment, recipients, map[string]string{
		"member_name":  "Mia",
		"program_name": "Fitness",
	})
	if err != nil {
		t.Fatalf("ComposeAndQueue: %v", err)
	}
	mails := store.queuedMails()
	if len(mails) != 1 || mails[0].ID != queued.ID || len(mails[0].Recipients) != 2 {
		t.Fatalf("expected one mail with both recipients, got %+v", mails)
	}
}
