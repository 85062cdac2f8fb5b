package models

import "time"

// MailKind identifies the event a queued mail reports.
type MailKind string

const (
	MailSelfEnrollment    MailKind = "SELF_ENROLLMENT"
	MailManagedEnrollment MailKind = "MANAGED_ENROLLMENT"
)

type RecipientType string

const (
	RecipientTo RecipientType = "TO"
	RecipientCC RecipientType = "CC"
)

type MailRecipient struct {
	UserID   string        `json:"user_id"`
	Email    string        `json:"email"`
	FullName string        `json:"full_name"`
	Type     RecipientType `json:"type"`
}

// MailOut is an outbox row waiting for the delivery worker.
type MailOut struct {
	ID         string            `json:"id"`
	Kind       MailKind          `json:"kind"`
	Subject    string            `json:"subject"`
	Context    map[string]string `json:"context"`
	Recipients []MailRecipient   `json:"recipients"`
	CreatedAt  time.Time         `json:"created_at"`
}
