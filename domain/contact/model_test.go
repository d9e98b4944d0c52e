package contact

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContactRecordKeepsFieldCasing(t *testing.T) {
	c := Contact{
		Email:  "ann@x.com",
		Name:   sql.NullString{String: "Ann", Valid: true},
		Fields: sql.NullString{String: `{"Company":"Acme","discount_code":"SAVE10"}`, Valid: true},
	}

	rec := c.record()

	assert.Equal(t, "ann@x.com", rec["Email"])
	assert.Equal(t, "Ann", rec["Name"])
	assert.Equal(t, "Acme", rec["Company"])
	assert.Equal(t, "SAVE10", rec["discount_code"])
	assert.Equal(t, "ann@x.com", rec.Email())
}

func TestContactRecordWithoutExtras(t *testing.T) {
	c := Contact{Email: "bob@y.com"}

	rec := c.record()

	assert.Equal(t, "bob@y.com", rec["Email"])
	_, hasName := rec["Name"]
	assert.False(t, hasName)
}

func TestContactResponseFlattensFields(t *testing.T) {
	c := Contact{
		ID:     7,
		Email:  "ann@x.com",
		Fields: sql.NullString{String: `{"Company":"Acme"}`, Valid: true},
	}

	resp := c.response()

	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, "ann@x.com", resp.Email)
	assert.Equal(t, map[string]string{"Company": "Acme"}, resp.Fields)
}
