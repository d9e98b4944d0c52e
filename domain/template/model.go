package template

import "time"

// Template is a stored campaign draft: subject and body with placeholders
// still in place. The body is sanitized on every write, never on read.
type Template struct {
	ID        int64     `db:"id" json:"id"`
	UserEmail string    `db:"user_email" json:"-"`
	Name      string    `db:"name" json:"name"`
	Subject   string    `db:"subject" json:"subject"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SaveTemplateRequest is the body of POST and PUT /api/templates.
type SaveTemplateRequest struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
