package campaign

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/echomail/echomail/domain/message"
	"github.com/echomail/echomail/pkg/logger"
)

// Sender submits one transport-encoded message and returns the provider's
// message ID. The production implementation wraps the Gmail client; tests
// substitute a fake.
type Sender interface {
	Send(ctx context.Context, raw string) (string, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, raw string) (string, error)

func (f SenderFunc) Send(ctx context.Context, raw string) (string, error) {
	return f(ctx, raw)
}

const attachmentFetchTimeout = 30 * time.Second

// Recipients are sent one at a time, strictly in input order, each awaiting
// the previous send. Sequential sending trades throughput for
// predictability: a mid-campaign Gmail hiccup costs exactly the recipients
// it hit, and the operator sees results in the order they uploaded.
type Orchestrator struct {
	From   string
	Sender Sender

	// Instrument, when set, rewrites a recipient's formatted body (click
	// tracking, open pixel) just before MIME assembly.
	Instrument func(body, recipient string) string

	// fetchClient downloads URL-only attachments. Overridden in tests.
	fetchClient *http.Client
}

func NewOrchestrator(from string, sender Sender) *Orchestrator {
	return &Orchestrator{
		From:        from,
		Sender:      sender,
		fetchClient: &http.Client{Timeout: attachmentFetchTimeout},
	}
}

// Personalize expands one subject/body template into per-recipient emails.
// Attachments are shared across recipients; substitution happens on both
// the subject and the body against each recipient's record.
func Personalize(subject, content string, recipients []message.RecipientRecord, attachments []message.Attachment) []message.PersonalizedEmail {
	emails := make([]message.PersonalizedEmail, 0, len(recipients))
	for _, rec := range recipients {
		emails = append(emails, message.PersonalizedEmail{
			To:          rec.Email(),
			Subject:     message.Substitute(subject, rec),
			Body:        message.Substitute(content, rec),
			Attachments: attachments,
		})
	}
	return emails
}

// Run processes every email sequentially and returns one SendResult per
// input, in input order. A recipient's failure is recorded and the loop
// moves on; only context cancellation stops it early, marking the
// untouched remainder as errors so counts still add up.
func (o *Orchestrator) Run(ctx context.Context, emails []message.PersonalizedEmail) []message.SendResult {
	log := logger.Get().WithComponent("send_orchestrator")
	results := make([]message.SendResult, 0, len(emails))

	for i, email := range emails {
		if err := ctx.Err(); err != nil {
			log.Warn("Send loop canceled", logger.Int("remaining", len(emails)-i))
			for _, rest := range emails[i:] {
				results = append(results, message.SendResult{
					Email:  rest.To,
					Status: message.StatusError,
					Error:  "send canceled",
				})
			}
			break
		}

		if err := o.sendOne(ctx, email); err != nil {
			log.Warn("Recipient send failed", logger.Recipient(email.To), logger.Err(err))
			results = append(results, message.SendResult{
				Email:  email.To,
				Status: message.StatusError,
				Error:  err.Error(),
			})
			continue
		}

		results = append(results, message.SendResult{
			Email:  email.To,
			Status: message.StatusSuccess,
		})
	}

	return results
}

func (o *Orchestrator) sendOne(ctx context.Context, email message.PersonalizedEmail) error {
	if email.To == "" {
		return fmt.Errorf("recipient has no email address")
	}

	// Formatting falls back to the raw content on pathological input; it
	// is never the reason a recipient fails.
	body := message.FormatBody(email.Body)

	if o.Instrument != nil {
		body = o.Instrument(body, email.To)
	}

	attachments, err := o.resolveAttachments(ctx, email.Attachments)
	if err != nil {
		return fmt.Errorf("attachment: %w", err)
	}

	raw, err := message.BuildMIME(o.From, email.To, email.Subject, body, attachments)
	if err != nil {
		return err
	}

	_, err = o.Sender.Send(ctx, message.EncodeTransport(raw))
	return err
}

// resolveAttachments downloads and base64-encodes any attachment that only
// carries a URL. Gmail gets real bytes, never a reference; a failed fetch
// fails just the email being assembled.
func (o *Orchestrator) resolveAttachments(ctx context.Context, attachments []message.Attachment) ([]message.Attachment, error) {
	if len(attachments) == 0 {
		return nil, nil
	}

	resolved := make([]message.Attachment, 0, len(attachments))
	for _, att := range attachments {
		if att.Data != "" {
			resolved = append(resolved, att)
			continue
		}
		if att.URL == "" {
			return nil, fmt.Errorf("attachment %q has neither data nor url", att.Name)
		}

		data, err := o.fetchAttachment(ctx, att.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %q: %w", att.URL, err)
		}
		att.Data = base64.StdEncoding.EncodeToString(data)
		resolved = append(resolved, att)
	}
	return resolved, nil
}

func (o *Orchestrator) fetchAttachment(ctx context.Context, url string) ([]byte, error) {
	client := o.fetchClient
	if client == nil {
		client = &http.Client{Timeout: attachmentFetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
