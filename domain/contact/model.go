package contact

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/echomail/echomail/domain/message"
)

// Contact is one addressable recipient. Fields holds the extra CSV
// columns as a JSON object so any column can serve as a placeholder in a
// campaign body.
type Contact struct {
	ID        int64          `db:"id"`
	UserEmail string         `db:"user_email"`
	Email     string         `db:"email"`
	Name      sql.NullString `db:"name"`
	Fields    sql.NullString `db:"fields"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// ContactResponse is the public shape with the extra fields inlined.
type ContactResponse struct {
	ID        int64             `json:"id"`
	Email     string            `json:"email"`
	Name      string            `json:"name,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// CreateContactRequest is the body of POST /api/contacts.
type CreateContactRequest struct {
	Email  string            `json:"email"`
	Name   string            `json:"name,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ImportResult reports what a CSV import did.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

func (c *Contact) response() ContactResponse {
	resp := ContactResponse{
		ID:        c.ID,
		Email:     c.Email,
		Name:      c.Name.String,
		CreatedAt: c.CreatedAt,
	}
	if c.Fields.Valid && c.Fields.String != "" {
		_ = json.Unmarshal([]byte(c.Fields.String), &resp.Fields)
	}
	return resp
}

// record converts a contact into the recipient record shape the campaign
// personalizer consumes. Field keys keep whatever casing the CSV header
// had; Email and Name are set from their columns.
func (c *Contact) record() message.RecipientRecord {
	rec := message.RecipientRecord{}
	if c.Fields.Valid && c.Fields.String != "" {
		_ = json.Unmarshal([]byte(c.Fields.String), (*map[string]string)(&rec))
	}
	rec["Email"] = c.Email
	if c.Name.Valid && c.Name.String != "" {
		rec["Name"] = c.Name.String
	}
	return rec
}
