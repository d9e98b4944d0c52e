package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/echomail/echomail/config"
	"github.com/echomail/echomail/pkg/logger"
)

const dispatchTimeout = 10 * time.Second

// dispatchClient posts to subscriber endpoints. Overridden in tests.
var dispatchClient = &http.Client{Timeout: dispatchTimeout}

// Dispatch posts event to every active endpoint the user registered for
// it. Delivery is best-effort and runs off the request path: a dead
// endpoint costs a warning log, never a failed campaign.
func Dispatch(ctx context.Context, userEmail, event string, data interface{}) {
	if config.DB == nil {
		return
	}

	var hooks []Webhook
	err := config.DB.Select(&hooks,
		"SELECT id, user_email, url, secret, events, active, created_at FROM webhooks WHERE user_email = ? AND active = TRUE",
		userEmail)
	if err != nil {
		logger.Get().Warn("Failed to load webhooks", logger.Err(err), logger.Email(userEmail))
		return
	}

	body, err := json.Marshal(payload{
		Event:     event,
		Timestamp: nowRFC3339(),
		Data:      data,
	})
	if err != nil {
		logger.Get().Warn("Failed to encode webhook payload", logger.Err(err))
		return
	}

	for _, hook := range hooks {
		if !hook.wants(event) {
			continue
		}
		go deliver(hook, event, body)
	}
}

// deliver posts one payload. The signature lets the receiver verify both
// authenticity and integrity: hex(HMAC-SHA256(secret, body)).
func deliver(hook Webhook, event string, body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		logger.Get().Warn("Invalid webhook URL", logger.Err(err), logger.TargetURL(hook.URL))
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-EchoMail-Event", event)
	req.Header.Set("X-EchoMail-Timestamp", nowRFC3339())
	req.Header.Set("X-EchoMail-Signature", Sign(hook.Secret, body))

	resp, err := dispatchClient.Do(req)
	if err != nil {
		logger.Get().Warn("Webhook delivery failed",
			logger.Err(err),
			logger.TargetURL(hook.URL),
			logger.WebhookEvent(event),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logger.Get().Warn("Webhook endpoint rejected delivery",
			logger.TargetURL(hook.URL),
			logger.WebhookEvent(event),
			logger.Int("status", resp.StatusCode),
		)
	}
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Sign computes the delivery signature for body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a received signature against body. Receivers can use it
// directly; it is also what the dispatcher tests assert with.
func Verify(secret string, body []byte, signature string) bool {
	expected := Sign(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
