package campaign

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/echomail/echomail/config"
	"github.com/echomail/echomail/domain/contact"
	"github.com/echomail/echomail/domain/message"
	"github.com/echomail/echomail/domain/tracking"
	"github.com/echomail/echomail/domain/user"
	"github.com/echomail/echomail/domain/webhook"
	"github.com/echomail/echomail/pkg/apperrors"
	"github.com/echomail/echomail/pkg/gmail"
	"github.com/echomail/echomail/pkg/logger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
)

// DefaultStore is the campaign persistence used by the handlers.
var DefaultStore Store = NewStore()

// GmailClient is the shared Gmail API client. Variable so tests can point
// it at a local server.
var GmailClient = gmail.NewClient()

// contactRecords loads the user's stored contacts as recipient records.
// Variable so tests can substitute fixtures.
var contactRecords = contact.Records

type gmailSender struct {
	client *gmail.Client
	token  string
}

func (s gmailSender) Send(ctx context.Context, raw string) (string, error) {
	return s.client.Send(ctx, s.token, raw)
}

// SendEmailHandler runs a full campaign: validate, fetch the sender
// profile, send to every recipient sequentially, persist the campaign
// record, answer with per-recipient results.
func SendEmailHandler(c echo.Context) error {
	userID := c.Get("user_id").(int64)
	userEmail := c.Get("email").(string)
	log := logger.Get().WithComponent("campaign").WithUserID(userID)

	req := new(SendEmailRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"Invalid request payload.",
		))
	}

	emails, appErr := resolveEmails(req, userEmail)
	if appErr != nil {
		return apperrors.RespondWithError(c, appErr)
	}
	if err := validateEmails(emails); err != nil {
		return apperrors.RespondWithError(c, err)
	}

	ctx := c.Request().Context()

	if !config.ClaimIdempotencyKey(ctx, req.IdempotencyKey) {
		return apperrors.RespondWithError(c, apperrors.NewConflict(
			apperrors.ErrCodeCampaignDuplicate,
			"This campaign was already submitted.",
		))
	}
	// A setup failure after the claim frees the key, so a corrected retry
	// (say, after reconnecting Google) is not rejected as a duplicate.
	failSetup := func(appErr *apperrors.AppError) error {
		config.ReleaseIdempotencyKey(ctx, req.IdempotencyKey)
		return apperrors.RespondWithError(c, appErr)
	}

	// Auth is checked before any recipient is touched: no token, no
	// campaign.
	token, err := user.GmailToken(userID)
	if err != nil {
		log.Error("Failed to load gmail token", err)
		return failSetup(apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}
	if token == "" {
		return failSetup(apperrors.NewUnauthorized(
			apperrors.ErrCodeGmailTokenMissing,
			"No valid Gmail access token on file. Reconnect your Google account.",
		))
	}

	profile, err := GmailClient.GetProfile(ctx, token)
	if err != nil {
		if gmail.IsAuthError(err) {
			return failSetup(apperrors.NewUnauthorized(
				apperrors.ErrCodeGmailTokenExpired,
				"Gmail access token was rejected. Reconnect your Google account.",
			))
		}
		log.Error("Failed to fetch gmail profile", err)
		return failSetup(apperrors.NewBadGateway(
			apperrors.ErrCodeGmailProfileFailed,
			"Could not reach Gmail.",
			err,
		))
	}

	trackingRef := uuid.NewString()
	orch := NewOrchestrator(profile.EmailAddress, gmailSender{client: GmailClient, token: token})
	if req.TrackClicks {
		orch.Instrument = tracking.Instrumentor(viper.GetString("APP_BASE_URL"), trackingRef)
	}

	log.Info("Campaign send starting", logger.RecipientCount(len(emails)))
	results := orch.Run(ctx, emails)
	summary := message.Summarize(results)
	log.Info("Campaign send finished",
		logger.SentCount(summary.Sent),
		logger.FailedCount(summary.Failed),
	)

	campaignID, err := persistCampaign(userEmail, trackingRef, req, emails, results, summary)
	if err != nil {
		// The emails went out; losing the record is bad but must not turn
		// a successful send into a client-visible failure.
		log.Error("Failed to persist campaign record", err)
	}

	webhook.Dispatch(ctx, userEmail, webhook.EventCampaignCompleted, map[string]interface{}{
		"campaign_id": campaignID,
		"subject":     req.Subject,
		"summary":     summary,
	})

	return c.JSON(http.StatusOK, SendEmailResponse{
		CampaignID: campaignID,
		Results:    results,
		Summary:    summary,
	})
}

// resolveEmails expands the request into per-recipient emails. Fully
// personalized emails pass through untouched; otherwise the subject/content
// template is personalized against the supplied recipients, or against the
// user's stored contacts when the request asks for that.
func resolveEmails(req *SendEmailRequest, userEmail string) ([]message.PersonalizedEmail, *apperrors.AppError) {
	if len(req.PersonalizedEmails) > 0 {
		return req.PersonalizedEmails, nil
	}

	recipients := req.Recipients
	if len(recipients) == 0 && req.SendToContacts {
		records, err := contactRecords(userEmail)
		if err != nil {
			return nil, apperrors.NewInternal(
				apperrors.ErrCodeDatabaseError,
				"Internal server error.",
				err,
			)
		}
		recipients = records
	}
	if len(recipients) == 0 {
		// validateEmails reports the empty recipient list.
		return nil, nil
	}

	if req.Subject == "" {
		return nil, apperrors.NewBadRequest(
			apperrors.ErrCodeMissingSubject,
			"Subject is required.",
		)
	}
	if req.Content == "" {
		return nil, apperrors.NewBadRequest(
			apperrors.ErrCodeMissingBody,
			"Email content is required.",
		)
	}
	return Personalize(req.Subject, req.Content, recipients, req.Attachments), nil
}

func validateEmails(emails []message.PersonalizedEmail) *apperrors.AppError {
	if len(emails) == 0 {
		return apperrors.NewBadRequest(
			apperrors.ErrCodeNoRecipients,
			"At least one recipient is required.",
		)
	}
	for _, e := range emails {
		if e.To == "" {
			return apperrors.NewBadRequest(
				apperrors.ErrCodeInvalidEmail,
				"Every recipient needs an email address.",
			)
		}
		if e.Subject == "" {
			return apperrors.NewBadRequest(
				apperrors.ErrCodeMissingSubject,
				"Subject is required.",
			)
		}
		if e.Body == "" {
			return apperrors.NewBadRequest(
				apperrors.ErrCodeMissingBody,
				"Email content is required.",
			)
		}
	}
	return nil
}

func persistCampaign(userEmail, trackingRef string, req *SendEmailRequest, emails []message.PersonalizedEmail, results []message.SendResult, summary message.Summary) (int64, error) {
	recipients := make([]string, 0, len(emails))
	for _, e := range emails {
		recipients = append(recipients, e.To)
	}
	recipientsJSON, _ := json.Marshal(recipients)
	resultsJSON, _ := json.Marshal(results)

	campaignType := req.CampaignType
	if campaignType == "" {
		campaignType = "bulk"
	}

	subject := req.Subject
	if subject == "" && len(emails) > 0 {
		subject = emails[0].Subject
	}
	content := req.Content
	if content == "" && len(emails) > 0 {
		content = emails[0].Body
	}

	record := &Campaign{
		UserEmail:    userEmail,
		Subject:      subject,
		Content:      content,
		Recipients:   string(recipientsJSON),
		Sent:         summary.Sent,
		Failed:       summary.Failed,
		Status:       statusFor(summary),
		CampaignType: campaignType,
		SendResults:  sql.NullString{String: string(resultsJSON), Valid: true},
	}
	if len(req.Attachments) > 0 {
		names := make([]string, 0, len(req.Attachments))
		for _, a := range req.Attachments {
			names = append(names, a.Name)
		}
		attachmentsJSON, _ := json.Marshal(names)
		record.Attachments = sql.NullString{String: string(attachmentsJSON), Valid: true}
	}

	id, err := DefaultStore.Create(record)
	if err != nil {
		return 0, err
	}

	// Tracking events reference the campaign by its pre-send ref, since
	// events can arrive before the record exists.
	if _, err := config.DB.Exec("UPDATE campaigns SET tracking_ref = ? WHERE id = ?", trackingRef, id); err != nil {
		logger.Get().Warn("Failed to store tracking ref", logger.Err(err), logger.CampaignID(id))
	}
	return id, nil
}

// ListCampaignsHandler returns the signed-in user's campaigns, newest
// first.
func ListCampaignsHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)

	campaigns, err := DefaultStore.ListByUser(userEmail)
	if err != nil {
		logger.Get().Error("Failed to list campaigns", err, logger.Email(userEmail))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	out := make([]CampaignResponse, 0, len(campaigns))
	for _, cp := range campaigns {
		out = append(out, CampaignResponse{
			ID:           cp.ID,
			Subject:      cp.Subject,
			Sent:         cp.Sent,
			Failed:       cp.Failed,
			Status:       cp.Status,
			CampaignType: cp.CampaignType,
			CreatedAt:    cp.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func GetCampaignHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeInvalidInput,
			"Invalid campaign id.",
		))
	}

	cp, err := DefaultStore.GetByID(id, userEmail)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperrors.RespondWithError(c, apperrors.NewNotFound(
				apperrors.ErrCodeCampaignNotFound,
				"Campaign not found.",
			))
		}
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	return c.JSON(http.StatusOK, CampaignResponse{
		ID:           cp.ID,
		Subject:      cp.Subject,
		Sent:         cp.Sent,
		Failed:       cp.Failed,
		Status:       cp.Status,
		CampaignType: cp.CampaignType,
		Results:      cp.results(),
		CreatedAt:    cp.CreatedAt,
	})
}

func DeleteCampaignHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeInvalidInput,
			"Invalid campaign id.",
		))
	}

	if err := DefaultStore.Delete(id, userEmail); err != nil {
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Campaign deleted."})
}
