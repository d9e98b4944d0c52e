package webhook

import (
	"encoding/json"
	"time"
)

// Event names dispatched to subscriber endpoints.
const (
	EventCampaignCompleted = "campaign.completed"
	EventTest              = "webhook.test"
)

// Webhook is a subscriber endpoint. Events is a JSON array of event names
// the endpoint wants; an empty list means everything.
type Webhook struct {
	ID        int64     `db:"id" json:"id"`
	UserEmail string    `db:"user_email" json:"-"`
	URL       string    `db:"url" json:"url"`
	Secret    string    `db:"secret" json:"-"`
	Events    string    `db:"events" json:"-"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// wants reports whether the webhook subscribes to event.
func (w *Webhook) wants(event string) bool {
	if !w.Active {
		return false
	}
	var events []string
	if w.Events != "" {
		if err := json.Unmarshal([]byte(w.Events), &events); err != nil {
			return false
		}
	}
	if len(events) == 0 {
		return true
	}
	for _, e := range events {
		if e == event {
			return true
		}
	}
	return false
}

// CreateWebhookRequest is the body of POST /api/webhooks.
type CreateWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events,omitempty"`
}

// WebhookResponse carries the secret exactly once, at creation time.
type WebhookResponse struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	Active    bool      `json:"active"`
	Secret    string    `json:"secret,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// payload is the JSON body posted to subscriber endpoints.
type payload struct {
	Event     string      `json:"event"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}
