package attachment

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/echomail/echomail/pkg/apperrors"
	"github.com/echomail/echomail/pkg/logger"
	"github.com/echomail/echomail/pkg/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
)

// Attachments above this size make Gmail reject the raw message anyway,
// so cut them off at upload time.
const maxAttachmentSize = 25 << 20 // 25 MiB

// presignTTL is the lifetime of download URLs handed out for private
// buckets. SigV4 allows at most seven days.
const presignTTL = 7 * 24 * time.Hour

// Upload is one stored file as returned to the client.
type Upload struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
}

// UploadResponse reports the uploads that succeeded. Individual failures
// are dropped from the list rather than failing the whole batch.
type UploadResponse struct {
	Success bool     `json:"success"`
	Uploads []Upload `json:"uploads"`
}

// newUploader is swapped in tests.
var newUploader = func() (uploader, error) { return storage.NewUploader() }

type uploader interface {
	Upload(key, contentType string, content []byte) (string, error)
	PresignedURL(key string, ttl time.Duration) (string, error)
}

// UploadAttachmentsHandler stores multipart files ("files") in S3 and
// returns their URLs for later use in a campaign.
func UploadAttachmentsHandler(c echo.Context) error {
	userEmail := c.Get("email").(string)
	log := logger.Get().WithComponent("attachment")

	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"A multipart upload with one or more \"files\" parts is required.",
		))
	}
	files := form.File["files"]
	if len(files) == 0 {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"No files in upload.",
		))
	}

	up, err := newUploader()
	if err != nil {
		log.Error("Attachment storage unavailable", err)
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeStorageError,
			"Attachment storage is not available.",
			err,
		))
	}

	uploads := make([]Upload, 0, len(files))
	for _, fh := range files {
		upload, err := storeOne(up, userEmail, fh)
		if err != nil {
			log.Warn("Attachment upload failed",
				logger.Err(err),
				logger.String("file", fh.Filename),
			)
			continue
		}
		uploads = append(uploads, *upload)
	}

	return c.JSON(http.StatusOK, UploadResponse{
		Success: len(uploads) > 0,
		Uploads: uploads,
	})
}

func storeOne(up uploader, userEmail string, fh *multipart.FileHeader) (*Upload, error) {
	if fh.Size > maxAttachmentSize {
		return nil, fmt.Errorf("%s exceeds the %d byte limit", fh.Filename, maxAttachmentSize)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxAttachmentSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > maxAttachmentSize {
		return nil, fmt.Errorf("%s exceeds the %d byte limit", fh.Filename, maxAttachmentSize)
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	publicID := uuid.NewString()
	key := fmt.Sprintf("attachments/%s/%s%s", userEmail, publicID, safeExt(fh.Filename))

	url, err := up.Upload(key, contentType, content)
	if err != nil {
		return nil, err
	}

	// A private bucket rejects the plain object URL, so hand out a
	// presigned GET the send loop can fetch instead.
	if viper.GetBool("S3_PRIVATE_BUCKET") {
		url, err = up.PresignedURL(key, presignTTL)
		if err != nil {
			return nil, err
		}
	}

	return &Upload{
		URL:      url,
		PublicID: publicID,
		FileName: fh.Filename,
		FileSize: int64(len(content)),
	}, nil
}

// safeExt keeps the original extension when it looks like one, so the
// stored key stays recognizable without trusting the client's filename.
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
