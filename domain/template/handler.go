package template

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/echomail/echomail/config"
	"github.com/echomail/echomail/pkg/apperrors"
	"github.com/echomail/echomail/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
)

// templatePolicy sanitizes editor output before storage. UGC plus the rich
// text constructs the campaign editor emits; placeholders like {{Name}}
// are plain text and pass through untouched.
var templatePolicy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("style").OnElements("p", "span", "div", "h1", "h2", "h3", "h4", "h5", "h6", "table", "tr", "td", "th", "mark")
	p.AllowAttrs("class").OnElements("p", "span", "div", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table", "tr", "td", "th")
	p.AllowAttrs("data-color").OnElements("mark")

	p.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	p.AllowAttrs("border", "cellpadding", "cellspacing").OnElements("table")

	p.AllowElements("ul", "ol", "li")
	p.AllowElements("strong", "em", "u", "s", "sub", "sup", "blockquote", "pre", "code", "mark", "hr", "br")

	p.AllowAttrs("href", "target", "rel").OnElements("a")
	p.AllowRelativeURLs(true)

	p.AllowAttrs("src", "alt", "title", "width", "height", "data-emoji").OnElements("img")

	return p
}

// SanitizeBody strips script-capable constructs from an editor body while
// keeping the formatting the send pipeline understands.
func SanitizeBody(body string) string {
	return templatePolicy.Sanitize(body)
}

// ListTemplatesHandler returns the caller's templates.
func ListTemplatesHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)

	var templates []Template
	err := config.DB.Select(&templates,
		"SELECT id, user_email, name, subject, body, created_at, updated_at FROM templates WHERE user_email = ? ORDER BY name",
		userEmail)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}
	return c.JSON(http.StatusOK, templates)
}

// GetTemplateHandler returns one template by id.
func GetTemplateHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeInvalidInput,
			"Invalid template id.",
		))
	}

	var tmpl Template
	err = config.DB.Get(&tmpl,
		"SELECT id, user_email, name, subject, body, created_at, updated_at FROM templates WHERE id = ? AND user_email = ?",
		id, userEmail)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperrors.RespondWithError(c, apperrors.NewNotFound(
				apperrors.ErrCodeTemplateNotFound,
				"Template not found.",
			))
		}
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}
	return c.JSON(http.StatusOK, tmpl)
}

// CreateTemplateHandler stores a new template with a sanitized body.
func CreateTemplateHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)

	req, appErr := bindTemplateRequest(c)
	if appErr != nil {
		return apperrors.RespondWithError(c, appErr)
	}

	result, err := config.DB.Exec(
		"INSERT INTO templates (user_email, name, subject, body) VALUES (?, ?, ?, ?)",
		userEmail, req.Name, req.Subject, SanitizeBody(req.Body))
	if err != nil {
		logger.Get().Error("Failed to create template", err, logger.Email(userEmail))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}
	id, _ := result.LastInsertId()

	return c.JSON(http.StatusCreated, map[string]interface{}{"id": id, "message": "Template created."})
}

// UpdateTemplateHandler replaces a template's name, subject and body.
func UpdateTemplateHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeInvalidInput,
			"Invalid template id.",
		))
	}

	req, appErr := bindTemplateRequest(c)
	if appErr != nil {
		return apperrors.RespondWithError(c, appErr)
	}

	result, err := config.DB.Exec(
		"UPDATE templates SET name = ?, subject = ?, body = ?, updated_at = NOW() WHERE id = ? AND user_email = ?",
		req.Name, req.Subject, SanitizeBody(req.Body), id, userEmail)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.RespondWithError(c, apperrors.NewNotFound(
			apperrors.ErrCodeTemplateNotFound,
			"Template not found.",
		))
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Template updated."})
}

// DeleteTemplateHandler removes one of the caller's templates.
func DeleteTemplateHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeInvalidInput,
			"Invalid template id.",
		))
	}

	result, err := config.DB.Exec(
		"DELETE FROM templates WHERE id = ? AND user_email = ?", id, userEmail)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.RespondWithError(c, apperrors.NewNotFound(
			apperrors.ErrCodeTemplateNotFound,
			"Template not found.",
		))
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Template deleted."})
}

func bindTemplateRequest(c echo.Context) (*SaveTemplateRequest, *apperrors.AppError) {
	req := new(SaveTemplateRequest)
	if err := c.Bind(req); err != nil {
		return nil, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"Invalid request payload.",
		)
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"Template name is required.",
		)
	}
	if req.Body == "" {
		return nil, apperrors.NewBadRequest(
			apperrors.ErrCodeMissingBody,
			"Template body is required.",
		)
	}
	return req, nil
}
