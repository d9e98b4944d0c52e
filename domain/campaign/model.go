package campaign

import (
	"database/sql"
	"time"

	"github.com/echomail/echomail/domain/message"
)

// Campaign is the persisted record of one bulk send. Recipients,
// attachments and send results are stored as JSON text columns, matching
// what the API accepted and produced.
type Campaign struct {
	ID           int64          `db:"id"`
	UserEmail    string         `db:"user_email"`
	Subject      string         `db:"subject"`
	Content      string         `db:"content"`
	Recipients   string         `db:"recipients"`
	Sent         int            `db:"sent"`
	Failed       int            `db:"failed"`
	Status       string         `db:"status"`
	CampaignType string         `db:"campaign_type"`
	Attachments  sql.NullString `db:"attachments"`
	SendResults  sql.NullString `db:"send_results"`
	CreatedAt    time.Time      `db:"created_at"`
}

// Campaign status values
const (
	StatusCompleted = "completed"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// SendEmailRequest is the body of POST /api/send-email. The UI normally
// submits fully personalized emails; a template plus recipient records is
// accepted as well, in which case personalization happens server-side.
type SendEmailRequest struct {
	PersonalizedEmails []message.PersonalizedEmail `json:"personalizedEmails"`

	Subject    string                    `json:"subject,omitempty"`
	Content    string                    `json:"content,omitempty"`
	Recipients []message.RecipientRecord `json:"recipients,omitempty"`

	// SendToContacts sources recipients from the user's stored contacts
	// when no explicit recipient list is given.
	SendToContacts bool `json:"sendToContacts,omitempty"`

	Attachments    []message.Attachment `json:"attachments,omitempty"`
	CampaignType   string               `json:"campaignType,omitempty"`
	IdempotencyKey string               `json:"idempotencyKey,omitempty"`
	TrackClicks    bool                 `json:"trackClicks,omitempty"`
}

// SendEmailResponse mirrors the request with per-recipient outcomes.
type SendEmailResponse struct {
	CampaignID int64                `json:"campaignId,omitempty"`
	Results    []message.SendResult `json:"results"`
	Summary    message.Summary      `json:"summary"`
}

// CampaignResponse is the public list/detail shape.
type CampaignResponse struct {
	ID           int64                `json:"id"`
	Subject      string               `json:"subject"`
	Sent         int                  `json:"sent"`
	Failed       int                  `json:"failed"`
	Status       string               `json:"status"`
	CampaignType string               `json:"campaign_type"`
	Results      []message.SendResult `json:"send_results,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

func statusFor(summary message.Summary) string {
	switch {
	case summary.Failed == 0:
		return StatusCompleted
	case summary.Sent == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}
