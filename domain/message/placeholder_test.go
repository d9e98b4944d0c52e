package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name   string
		tmpl   string
		record RecipientRecord
		want   string
	}{
		{
			"basic replacement",
			"Hello {{name}}",
			RecipientRecord{"name": "Ann"},
			"Hello Ann",
		},
		{
			"missing key left verbatim",
			"Hello {{missing}}",
			RecipientRecord{},
			"Hello {{missing}}",
		},
		{
			"single brace legacy form",
			"Hi {name}, order {order_id} shipped",
			RecipientRecord{"name": "Bob", "order_id": "A-17"},
			"Hi Bob, order A-17 shipped",
		},
		{
			"case insensitive fallback",
			"Send to {{email}}",
			RecipientRecord{"Email": "a@x.com"},
			"Send to a@x.com",
		},
		{
			"exact case wins over lowercase",
			"{{Name}} vs {{name}}",
			RecipientRecord{"Name": "Exact", "name": "lower"},
			"Exact vs lower",
		},
		{
			"whitespace inside braces",
			"Hello {{ name }}",
			RecipientRecord{"name": "Ann"},
			"Hello Ann",
		},
		{
			"multiple occurrences",
			"{{name}} {{name}}",
			RecipientRecord{"name": "x"},
			"x x",
		},
		{
			"unmatched single brace left verbatim",
			"a {nope} b",
			RecipientRecord{"name": "x"},
			"a {nope} b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Substitute(tt.tmpl, tt.record))
		})
	}
}

func TestRecipientRecordEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", RecipientRecord{"email": "a@x.com"}.Email())
	assert.Equal(t, "b@x.com", RecipientRecord{"Email": "b@x.com"}.Email())
	assert.Equal(t, "c@x.com", RecipientRecord{"EMAIL": "c@x.com"}.Email())
	assert.Equal(t, "", RecipientRecord{"name": "Ann"}.Email())
}
