package contact

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/echomail/echomail/config"
	"github.com/echomail/echomail/domain/message"
	"github.com/echomail/echomail/pkg/apperrors"
	"github.com/echomail/echomail/pkg/logger"
	"github.com/labstack/echo/v4"
)

const maxImportRows = 10000

// ListContactsHandler returns the caller's contacts.
func ListContactsHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)

	var contacts []Contact
	err := config.DB.Select(&contacts,
		"SELECT id, user_email, email, name, fields, created_at, updated_at FROM contacts WHERE user_email = ? ORDER BY email",
		userEmail)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	out := make([]ContactResponse, 0, len(contacts))
	for i := range contacts {
		out = append(out, contacts[i].response())
	}
	return c.JSON(http.StatusOK, out)
}

// CreateContactHandler adds one contact. A duplicate email for the same
// user updates the existing row instead of failing.
func CreateContactHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)

	req := new(CreateContactRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"Invalid request payload.",
		))
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeInvalidEmail,
			"A valid email address is required.",
		))
	}

	fieldsJSON := ""
	if len(req.Fields) > 0 {
		b, _ := json.Marshal(req.Fields)
		fieldsJSON = string(b)
	}

	_, err := config.DB.Exec(`
		INSERT INTO contacts (user_email, email, name, fields)
		VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''))
		ON DUPLICATE KEY UPDATE name = VALUES(name), fields = VALUES(fields)`,
		userEmail, req.Email, req.Name, fieldsJSON)
	if err != nil {
		logger.Get().Error("Failed to save contact", err, logger.Email(userEmail))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	return c.JSON(http.StatusCreated, map[string]string{"message": "Contact saved."})
}

// DeleteContactHandler removes one of the caller's contacts.
func DeleteContactHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeInvalidInput,
			"Invalid contact id.",
		))
	}

	result, err := config.DB.Exec(
		"DELETE FROM contacts WHERE id = ? AND user_email = ?", id, userEmail)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.RespondWithError(c, apperrors.NewNotFound(
			apperrors.ErrCodeContactNotFound,
			"Contact not found.",
		))
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Contact deleted."})
}

// ImportContactsHandler ingests a CSV upload. The header row names the
// fields; one column must identify the email address. Column casing is
// preserved so the columns can be used as placeholders verbatim.
func ImportContactsHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"A CSV file upload named \"file\" is required.",
		))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeUnexpectedError,
			"Could not read the uploaded file.",
			err,
		))
	}
	defer file.Close()

	result, appErr := importCSV(userEmail, file)
	if appErr != nil {
		return apperrors.RespondWithError(c, appErr)
	}
	return c.JSON(http.StatusOK, result)
}

func importCSV(userEmail string, r io.Reader) (*ImportResult, *apperrors.AppError) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"The CSV file is empty or malformed.",
		)
	}

	emailCol := -1
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
		if strings.EqualFold(header[i], "email") {
			emailCol = i
		}
	}
	if emailCol == -1 {
		return nil, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"The CSV header must contain an \"email\" column.",
		)
	}

	result := &ImportResult{}
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		if row > maxImportRows {
			result.Errors = append(result.Errors, fmt.Sprintf("import truncated at %d rows", maxImportRows))
			break
		}

		email := strings.TrimSpace(record[emailCol])
		if email == "" || !strings.Contains(email, "@") {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: missing or invalid email", row))
			continue
		}

		name := ""
		fields := map[string]string{}
		for i, value := range record {
			if i == emailCol || i >= len(header) {
				continue
			}
			value = strings.TrimSpace(value)
			if strings.EqualFold(header[i], "name") {
				name = value
				continue
			}
			if value != "" {
				fields[header[i]] = value
			}
		}

		fieldsJSON := ""
		if len(fields) > 0 {
			b, _ := json.Marshal(fields)
			fieldsJSON = string(b)
		}

		_, err = config.DB.Exec(`
			INSERT INTO contacts (user_email, email, name, fields)
			VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''))
			ON DUPLICATE KEY UPDATE name = VALUES(name), fields = VALUES(fields)`,
			userEmail, email, name, fieldsJSON)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: could not save", row))
			logger.Get().Warn("Contact import row failed", logger.Err(err), logger.Int("row", row))
			continue
		}
		result.Imported++
	}

	return result, nil
}

// Records loads the caller's contacts as recipient records, ready for the
// campaign personalizer.
func Records(userEmail string) ([]message.RecipientRecord, error) {
	var contacts []Contact
	err := config.DB.Select(&contacts,
		"SELECT id, user_email, email, name, fields, created_at, updated_at FROM contacts WHERE user_email = ? ORDER BY email",
		userEmail)
	if err != nil {
		return nil, err
	}

	records := make([]message.RecipientRecord, 0, len(contacts))
	for i := range contacts {
		records = append(records, contacts[i].record())
	}
	return records, nil
}
