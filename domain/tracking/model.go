package tracking

import (
	"database/sql"
	"time"
)

// Event types recorded against a campaign's tracking ref.
const (
	EventClick = "click"
	EventOpen  = "open"
)

// Event is one recorded recipient interaction. Events are keyed by the
// campaign's tracking ref rather than its row id because clicks can land
// before the campaign record is written.
type Event struct {
	ID          int64          `db:"id" json:"id"`
	CampaignRef string         `db:"campaign_ref" json:"campaign_ref"`
	Recipient   string         `db:"recipient" json:"recipient"`
	EventType   string         `db:"event_type" json:"event_type"`
	URL         sql.NullString `db:"url" json:"-"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// EventResponse is the public shape; URL is flattened out of its
// NullString.
type EventResponse struct {
	ID          int64     `json:"id"`
	CampaignRef string    `json:"campaign_ref"`
	Recipient   string    `json:"recipient"`
	EventType   string    `json:"event_type"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (e Event) response() EventResponse {
	return EventResponse{
		ID:          e.ID,
		CampaignRef: e.CampaignRef,
		Recipient:   e.Recipient,
		EventType:   e.EventType,
		URL:         e.URL.String,
		CreatedAt:   e.CreatedAt,
	}
}
