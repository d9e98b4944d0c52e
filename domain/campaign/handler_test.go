package campaign

import (
	"errors"
	"testing"

	"github.com/echomail/echomail/domain/message"
	"github.com/echomail/echomail/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEmailsFromContacts(t *testing.T) {
	orig := contactRecords
	defer func() { contactRecords = orig }()
	contactRecords = func(userEmail string) ([]message.RecipientRecord, error) {
		assert.Equal(t, "owner@example.com", userEmail)
		return []message.RecipientRecord{
			{"email": "alice@x.com", "name": "Alice"},
			{"email": "bob@x.com", "name": "Bob"},
		}, nil
	}

	req := &SendEmailRequest{
		Subject:        "Hi {{name}}",
		Content:        "<p>Welcome {{name}}</p>",
		SendToContacts: true,
	}
	emails, appErr := resolveEmails(req, "owner@example.com")
	require.Nil(t, appErr)
	require.Len(t, emails, 2)
	assert.Equal(t, "alice@x.com", emails[0].To)
	assert.Equal(t, "Hi Alice", emails[0].Subject)
	assert.Equal(t, "bob@x.com", emails[1].To)
}

func TestResolveEmailsExplicitRecipientsWinOverContacts(t *testing.T) {
	orig := contactRecords
	defer func() { contactRecords = orig }()
	contactRecords = func(string) ([]message.RecipientRecord, error) {
		t.Fatal("contacts must not be loaded when recipients are given")
		return nil, nil
	}

	req := &SendEmailRequest{
		Subject:        "s",
		Content:        "b",
		Recipients:     []message.RecipientRecord{{"email": "a@x.com"}},
		SendToContacts: true,
	}
	emails, appErr := resolveEmails(req, "owner@example.com")
	require.Nil(t, appErr)
	require.Len(t, emails, 1)
	assert.Equal(t, "a@x.com", emails[0].To)
}

func TestResolveEmailsContactLoadFailure(t *testing.T) {
	orig := contactRecords
	defer func() { contactRecords = orig }()
	contactRecords = func(string) ([]message.RecipientRecord, error) {
		return nil, errors.New("db down")
	}

	req := &SendEmailRequest{Subject: "s", Content: "b", SendToContacts: true}
	emails, appErr := resolveEmails(req, "owner@example.com")
	assert.Nil(t, emails)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeDatabaseError, appErr.Code)
}

func TestResolveEmailsPersonalizedPassThrough(t *testing.T) {
	given := []message.PersonalizedEmail{{To: "a@x.com", Subject: "s", Body: "b"}}
	emails, appErr := resolveEmails(&SendEmailRequest{PersonalizedEmails: given}, "owner@example.com")
	require.Nil(t, appErr)
	assert.Equal(t, given, emails)
}

func TestResolveEmailsTemplateValidation(t *testing.T) {
	recs := []message.RecipientRecord{{"email": "a@x.com"}}

	_, appErr := resolveEmails(&SendEmailRequest{Content: "b", Recipients: recs}, "u")
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeMissingSubject, appErr.Code)

	_, appErr = resolveEmails(&SendEmailRequest{Subject: "s", Recipients: recs}, "u")
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeMissingBody, appErr.Code)

	// Nothing to send at all is left for validateEmails to report.
	emails, appErr := resolveEmails(&SendEmailRequest{Subject: "s", Content: "b"}, "u")
	assert.Nil(t, appErr)
	assert.Empty(t, emails)
}

func TestValidateEmails(t *testing.T) {
	valid := message.PersonalizedEmail{To: "a@x.com", Subject: "s", Body: "b"}

	cases := []struct {
		name     string
		emails   []message.PersonalizedEmail
		wantCode string
	}{
		{"ok", []message.PersonalizedEmail{valid}, ""},
		{"empty list", nil, apperrors.ErrCodeNoRecipients},
		{"missing to", []message.PersonalizedEmail{{Subject: "s", Body: "b"}}, apperrors.ErrCodeInvalidEmail},
		{"missing subject", []message.PersonalizedEmail{{To: "a@x.com", Body: "b"}}, apperrors.ErrCodeMissingSubject},
		{"missing body", []message.PersonalizedEmail{{To: "a@x.com", Subject: "s"}}, apperrors.ErrCodeMissingBody},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateEmails(tc.emails)
			if tc.wantCode == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tc.wantCode, err.Code)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusCompleted, statusFor(message.Summary{Total: 3, Sent: 3}))
	assert.Equal(t, StatusFailed, statusFor(message.Summary{Total: 3, Failed: 3}))
	assert.Equal(t, StatusPartial, statusFor(message.Summary{Total: 3, Sent: 2, Failed: 1}))
	// An empty campaign never happens (validation rejects it), but the
	// zero value still maps to a sane status.
	assert.Equal(t, StatusCompleted, statusFor(message.Summary{}))
}
