package apperrors

// Error codes - organized by domain

// Authentication errors (AUTH_*)
const (
	ErrCodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	ErrCodeTokenExpired       = "AUTH_TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "AUTH_TOKEN_INVALID"
	ErrCodeSessionRevoked     = "AUTH_SESSION_REVOKED"
	ErrCodeGmailTokenMissing  = "AUTH_GMAIL_TOKEN_MISSING"
	ErrCodeGmailTokenExpired  = "AUTH_GMAIL_TOKEN_EXPIRED"
)

// Validation errors (VALIDATION_*)
const (
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeMissingSubject   = "VALIDATION_MISSING_SUBJECT"
	ErrCodeMissingBody      = "VALIDATION_MISSING_BODY"
	ErrCodeNoRecipients     = "VALIDATION_NO_RECIPIENTS"
	ErrCodeInvalidEmail     = "VALIDATION_INVALID_EMAIL"
	ErrCodeInvalidInput     = "VALIDATION_INVALID_INPUT"
)

// Resource errors (RESOURCE_*)
const (
	ErrCodeUserNotFound     = "RESOURCE_USER_NOT_FOUND"
	ErrCodeCampaignNotFound = "RESOURCE_CAMPAIGN_NOT_FOUND"
	ErrCodeContactNotFound  = "RESOURCE_CONTACT_NOT_FOUND"
	ErrCodeTemplateNotFound = "RESOURCE_TEMPLATE_NOT_FOUND"
	ErrCodeWebhookNotFound  = "RESOURCE_WEBHOOK_NOT_FOUND"
	ErrCodeResourceExists   = "RESOURCE_ALREADY_EXISTS"
)

// Campaign errors (CAMPAIGN_*)
const (
	ErrCodeCampaignDuplicate = "CAMPAIGN_DUPLICATE_SUBMIT"
	ErrCodeCampaignFailed    = "CAMPAIGN_SEND_FAILED"
)

// Gmail upstream errors (GMAIL_*)
const (
	ErrCodeGmailProfileFailed = "GMAIL_PROFILE_FETCH_FAILED"
	ErrCodeGmailSendFailed    = "GMAIL_SEND_FAILED"
)

// Rate limiting errors (RATE_*)
const (
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// Internal errors (INTERNAL_*)
const (
	ErrCodeDatabaseError    = "INTERNAL_DATABASE_ERROR"
	ErrCodeStorageError     = "INTERNAL_STORAGE_ERROR"
	ErrCodeAttachmentFailed = "INTERNAL_ATTACHMENT_FAILED"
	ErrCodeUnexpectedError  = "INTERNAL_UNEXPECTED_ERROR"
)
