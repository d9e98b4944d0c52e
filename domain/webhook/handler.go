package webhook

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/echomail/echomail/config"
	"github.com/echomail/echomail/pkg/apperrors"
	"github.com/echomail/echomail/pkg/logger"
	"github.com/labstack/echo/v4"
)

// CreateWebhookHandler registers an endpoint and returns its signing
// secret. The secret is only ever shown in this response.
func CreateWebhookHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)

	req := new(CreateWebhookRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"Invalid request payload.",
		))
	}

	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeInvalidInput,
			"Webhook URL must be an absolute http(s) URL.",
		))
	}

	secret, err := newSecret()
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeUnexpectedError,
			"Internal server error.",
			err,
		))
	}

	eventsJSON, _ := json.Marshal(req.Events)

	result, err := config.DB.Exec(
		"INSERT INTO webhooks (user_email, url, secret, events, active) VALUES (?, ?, ?, ?, TRUE)",
		userEmail, req.URL, secret, string(eventsJSON))
	if err != nil {
		logger.Get().Error("Failed to create webhook", err, logger.Email(userEmail))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}
	id, _ := result.LastInsertId()

	return c.JSON(http.StatusCreated, WebhookResponse{
		ID:     id,
		URL:    req.URL,
		Events: req.Events,
		Active: true,
		Secret: secret,
	})
}

// ListWebhooksHandler returns the caller's endpoints, without secrets.
func ListWebhooksHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)

	var hooks []Webhook
	err := config.DB.Select(&hooks,
		"SELECT id, user_email, url, secret, events, active, created_at FROM webhooks WHERE user_email = ? ORDER BY id",
		userEmail)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	out := make([]WebhookResponse, 0, len(hooks))
	for _, h := range hooks {
		var events []string
		_ = json.Unmarshal([]byte(h.Events), &events)
		out = append(out, WebhookResponse{
			ID:        h.ID,
			URL:       h.URL,
			Events:    events,
			Active:    h.Active,
			CreatedAt: h.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// DeleteWebhookHandler removes one of the caller's endpoints.
func DeleteWebhookHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeInvalidInput,
			"Invalid webhook id.",
		))
	}

	result, err := config.DB.Exec(
		"DELETE FROM webhooks WHERE id = ? AND user_email = ?", id, userEmail)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.RespondWithError(c, apperrors.NewNotFound(
			apperrors.ErrCodeWebhookNotFound,
			"Webhook not found.",
		))
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Webhook deleted."})
}

// TestWebhookHandler fires a webhook.test event at one endpoint so the
// operator can verify their receiver and signature check.
func TestWebhookHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeInvalidInput,
			"Invalid webhook id.",
		))
	}

	var hook Webhook
	err = config.DB.Get(&hook,
		"SELECT id, user_email, url, secret, events, active, created_at FROM webhooks WHERE id = ? AND user_email = ?",
		id, userEmail)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperrors.RespondWithError(c, apperrors.NewNotFound(
				apperrors.ErrCodeWebhookNotFound,
				"Webhook not found.",
			))
		}
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	body, _ := json.Marshal(payload{
		Event:     EventTest,
		Timestamp: nowRFC3339(),
		Data:      map[string]string{"message": "EchoMail webhook test"},
	})
	go deliver(hook, EventTest, body)

	return c.JSON(http.StatusOK, map[string]string{"message": "Test event dispatched."})
}

func newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
