package message

import "strings"

// RecipientRecord maps field names to values for one recipient.
// It always carries at least an "email" key. Keys keep the casing they
// arrived with (CSV header, manual entry, contact record); lookup helpers
// fall back to the lowercased key.
type RecipientRecord map[string]string

// Email returns the recipient address from the record.
func (r RecipientRecord) Email() string {
	if v, ok := r["email"]; ok {
		return v
	}
	if v, ok := r["Email"]; ok {
		return v
	}
	for k, v := range r {
		if strings.ToLower(k) == "email" {
			return v
		}
	}
	return ""
}

// Attachment is a file attached to an outbound email. Data holds the
// base64-encoded file bytes; URL-only attachments must be fetched and
// encoded before the MIME builder runs.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
	URL      string `json:"url,omitempty"`
}

// PersonalizedEmail is one recipient's fully substituted email, built at
// send time and discarded after the send attempt.
type PersonalizedEmail struct {
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// SendResult records the outcome of one recipient's send attempt.
type SendResult struct {
	Email  string `json:"email"`
	Status string `json:"status"` // "success" or "error"
	Error  string `json:"error,omitempty"`
}

// Summary aggregates a campaign's send results.
type Summary struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Summarize counts successes and failures in a result list.
func Summarize(results []SendResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Status == StatusSuccess {
			s.Sent++
		} else {
			s.Failed++
		}
	}
	return s
}
