package campaign

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/echomail/echomail/domain/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSender captures every raw payload it is asked to send and can
// fail specific recipients.
type recordingSender struct {
	mu      sync.Mutex
	raws    []string
	failFor map[string]error
}

func (s *recordingSender) Send(_ context.Context, raw string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raws = append(s.raws, raw)

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("raw payload is not base64url: %w", err)
	}
	for addr, failErr := range s.failFor {
		if strings.Contains(string(decoded), "To: "+addr) {
			return "", failErr
		}
	}
	return fmt.Sprintf("msg-%d", len(s.raws)), nil
}

func (s *recordingSender) decoded(t *testing.T, i int) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Less(t, i, len(s.raws))
	data, err := base64.RawURLEncoding.DecodeString(s.raws[i])
	require.NoError(t, err)
	return string(data)
}

func emailsFor(addrs ...string) []message.PersonalizedEmail {
	emails := make([]message.PersonalizedEmail, 0, len(addrs))
	for _, a := range addrs {
		emails = append(emails, message.PersonalizedEmail{
			To:      a,
			Subject: "Hello",
			Body:    "<p>Hi there</p>",
		})
	}
	return emails
}

func TestRunPreservesInputOrder(t *testing.T) {
	sender := &recordingSender{}
	orch := NewOrchestrator("me@example.com", sender)

	results := orch.Run(context.Background(), emailsFor("a@x.com", "b@x.com", "c@x.com"))

	require.Len(t, results, 3)
	assert.Equal(t, "a@x.com", results[0].Email)
	assert.Equal(t, "b@x.com", results[1].Email)
	assert.Equal(t, "c@x.com", results[2].Email)
	for _, r := range results {
		assert.Equal(t, message.StatusSuccess, r.Status)
	}

	// Payloads went out in the same order.
	assert.Contains(t, sender.decoded(t, 0), "To: a@x.com")
	assert.Contains(t, sender.decoded(t, 1), "To: b@x.com")
	assert.Contains(t, sender.decoded(t, 2), "To: c@x.com")
}

func TestRunContinuesPastFailures(t *testing.T) {
	sender := &recordingSender{
		failFor: map[string]error{"b@x.com": errors.New("gmail said no")},
	}
	orch := NewOrchestrator("me@example.com", sender)

	results := orch.Run(context.Background(), emailsFor("a@x.com", "b@x.com", "c@x.com"))

	require.Len(t, results, 3)
	assert.Equal(t, message.StatusSuccess, results[0].Status)
	assert.Equal(t, message.StatusError, results[1].Status)
	assert.Contains(t, results[1].Error, "gmail said no")
	assert.Equal(t, message.StatusSuccess, results[2].Status)

	summary := message.Summarize(results)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
}

func TestRunCancellationMarksRemainder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	sent := 0
	sender := SenderFunc(func(_ context.Context, _ string) (string, error) {
		sent++
		if sent == 2 {
			cancel()
		}
		return "msg", nil
	})
	orch := NewOrchestrator("me@example.com", sender)

	results := orch.Run(ctx, emailsFor("a@x.com", "b@x.com", "c@x.com", "d@x.com"))

	require.Len(t, results, 4)
	assert.Equal(t, message.StatusSuccess, results[0].Status)
	assert.Equal(t, message.StatusSuccess, results[1].Status)
	assert.Equal(t, message.StatusError, results[2].Status)
	assert.Equal(t, "send canceled", results[2].Error)
	assert.Equal(t, message.StatusError, results[3].Status)
	assert.Equal(t, 2, sent)
}

func TestRunMissingRecipientAddress(t *testing.T) {
	sender := &recordingSender{}
	orch := NewOrchestrator("me@example.com", sender)

	emails := emailsFor("a@x.com")
	emails = append(emails, message.PersonalizedEmail{Subject: "Hello", Body: "<p>x</p>"})

	results := orch.Run(context.Background(), emails)

	require.Len(t, results, 2)
	assert.Equal(t, message.StatusSuccess, results[0].Status)
	assert.Equal(t, message.StatusError, results[1].Status)
	assert.Contains(t, results[1].Error, "no email address")
}

func TestRunURLAttachmentFailureFailsOnlyThatEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/good.pdf") {
			w.Write([]byte("%PDF-1.4 fake"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	sender := &recordingSender{}
	orch := NewOrchestrator("me@example.com", sender)
	orch.fetchClient = srv.Client()

	emails := []message.PersonalizedEmail{
		{
			To: "a@x.com", Subject: "Hello", Body: "<p>x</p>",
			Attachments: []message.Attachment{{Name: "good.pdf", MimeType: "application/pdf", URL: srv.URL + "/good.pdf"}},
		},
		{
			To: "b@x.com", Subject: "Hello", Body: "<p>x</p>",
			Attachments: []message.Attachment{{Name: "gone.pdf", MimeType: "application/pdf", URL: srv.URL + "/gone.pdf"}},
		},
		{To: "c@x.com", Subject: "Hello", Body: "<p>x</p>"},
	}

	results := orch.Run(context.Background(), emails)

	require.Len(t, results, 3)
	assert.Equal(t, message.StatusSuccess, results[0].Status)
	assert.Equal(t, message.StatusError, results[1].Status)
	assert.Contains(t, results[1].Error, "gone.pdf")
	assert.Equal(t, message.StatusSuccess, results[2].Status)

	// The fetched bytes made it into the MIME payload of the first email.
	first := sender.decoded(t, 0)
	assert.Contains(t, first, base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 fake"))[:20])
}

func TestRunInstrumentHookSeesFormattedBody(t *testing.T) {
	sender := &recordingSender{}
	orch := NewOrchestrator("me@example.com", sender)
	orch.Instrument = func(body, recipient string) string {
		return strings.ReplaceAll(body, "https://example.com", "https://track.test/r?to="+recipient)
	}

	emails := []message.PersonalizedEmail{{
		To:      "a@x.com",
		Subject: "Hello",
		Body:    `<p>Visit <a href="https://example.com">us</a></p>`,
	}}
	results := orch.Run(context.Background(), emails)

	require.Len(t, results, 1)
	assert.Equal(t, message.StatusSuccess, results[0].Status)
	assert.Contains(t, sender.decoded(t, 0), "https://track.test/r?to=a@x.com")
}

func TestPersonalizeSubstitutesPerRecipient(t *testing.T) {
	recipients := []message.RecipientRecord{
		{"Email": "ann@x.com", "Name": "Ann", "Company": "Acme"},
		{"email": "bob@y.com", "name": "Bob"},
	}
	att := []message.Attachment{{Name: "deck.pdf", MimeType: "application/pdf", Data: "QUJD"}}

	emails := Personalize("Hi {{Name}}", "<p>{{Name}} at {Company}</p>", recipients, att)

	require.Len(t, emails, 2)
	assert.Equal(t, "ann@x.com", emails[0].To)
	assert.Equal(t, "Hi Ann", emails[0].Subject)
	assert.Equal(t, "<p>Ann at Acme</p>", emails[0].Body)
	assert.Equal(t, att, emails[0].Attachments)

	// Lowercase record keys resolve, missing keys stay verbatim.
	assert.Equal(t, "bob@y.com", emails[1].To)
	assert.Equal(t, "Hi Bob", emails[1].Subject)
	assert.Equal(t, "<p>Bob at {Company}</p>", emails[1].Body)
}

func TestPersonalizeThenRunEndToEnd(t *testing.T) {
	sender := &recordingSender{}
	orch := NewOrchestrator("me@example.com", sender)

	recipients := []message.RecipientRecord{
		{"Email": "ann@x.com", "Name": "Ann"},
		{"Email": "bob@y.com", "Name": "Bob"},
	}
	emails := Personalize("Welcome {{Name}}", "<p>Hello {{Name}}!</p>", recipients, nil)
	results := orch.Run(context.Background(), emails)

	require.Len(t, results, 2)
	summary := message.Summarize(results)
	assert.Equal(t, 2, summary.Sent)

	first := sender.decoded(t, 0)
	assert.Contains(t, first, "To: ann@x.com")
	assert.Contains(t, first, "Hello Ann!")
	// The body went through the formatting pipeline, not just substitution.
	assert.Contains(t, first, `<div dir="ltr"`)

	second := sender.decoded(t, 1)
	assert.Contains(t, second, "To: bob@y.com")
	assert.Contains(t, second, "Hello Bob!")
}
