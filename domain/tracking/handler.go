package tracking

import (
	"net/http"
	"net/url"

	"github.com/echomail/echomail/config"
	"github.com/echomail/echomail/pkg/apperrors"
	"github.com/echomail/echomail/pkg/logger"
	"github.com/labstack/echo/v4"
)

// A 1x1 transparent GIF, served for open tracking.
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// TrackClickHandler records the click and bounces the recipient to the
// real destination. Recording is best-effort: a broken database never
// strands a recipient on an error page.
func TrackClickHandler(c echo.Context) error {
	ref := c.QueryParam("c")
	recipient := c.QueryParam("e")
	target := c.QueryParam("url")

	if ref != "" {
		recordEvent(ref, recipient, EventClick, target)
	}

	if !safeRedirectTarget(target) {
		target = "/"
	}
	return c.Redirect(http.StatusFound, target)
}

// TrackOpenHandler records the open and serves the pixel. Always answers
// 200 with the GIF, whatever happens.
func TrackOpenHandler(c echo.Context) error {
	ref := c.QueryParam("c")
	recipient := c.QueryParam("e")

	if ref != "" {
		recordEvent(ref, recipient, EventOpen, "")
	}

	c.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	return c.Blob(http.StatusOK, "image/gif", pixelGIF)
}

// ListEventsHandler returns the events for one of the caller's campaigns,
// looked up by tracking ref.
func ListEventsHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)
	ref := c.Param("ref")

	// The ref must belong to a campaign owned by the caller.
	var count int
	err := config.DB.Get(&count,
		"SELECT COUNT(*) FROM campaigns WHERE tracking_ref = ? AND user_email = ?",
		ref, userEmail)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}
	if count == 0 {
		return apperrors.RespondWithError(c, apperrors.NewNotFound(
			apperrors.ErrCodeCampaignNotFound,
			"Campaign not found.",
		))
	}

	var events []Event
	err = config.DB.Select(&events,
		"SELECT id, campaign_ref, recipient, event_type, url, created_at FROM tracking_events WHERE campaign_ref = ? ORDER BY created_at DESC LIMIT 1000",
		ref)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, e.response())
	}
	return c.JSON(http.StatusOK, out)
}

func recordEvent(ref, recipient, eventType, target string) {
	if config.DB == nil {
		return
	}
	_, err := config.DB.Exec(
		"INSERT INTO tracking_events (campaign_ref, recipient, event_type, url) VALUES (?, ?, ?, NULLIF(?, ''))",
		ref, recipient, eventType, target)
	if err != nil {
		logger.Get().Warn("Failed to record tracking event",
			logger.Err(err),
			logger.String("campaign_ref", ref),
			logger.WebhookEvent(eventType),
		)
	}
}

// safeRedirectTarget rejects anything that is not an absolute http(s)
// URL, so the redirect endpoint cannot be abused as an open redirector to
// javascript: or data: schemes.
func safeRedirectTarget(target string) bool {
	if target == "" {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
