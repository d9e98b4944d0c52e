package attachment

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu      sync.Mutex
	keys    []string
	failFor string
}

func (f *fakeUploader) Upload(key, contentType string, content []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor != "" && bytes.Contains(content, []byte(f.failFor)) {
		return "", errors.New("upload exploded")
	}
	f.keys = append(f.keys, key)
	return "https://files.test/" + key, nil
}

func (f *fakeUploader) PresignedURL(key string, ttl time.Duration) (string, error) {
	return "https://files.test/" + key + "?X-Amz-Signature=sig&X-Amz-Expires=" + ttl.String(), nil
}

func multipartUpload(t *testing.T, files map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req, httptest.NewRecorder()
}

func TestUploadAttachments(t *testing.T) {
	fake := &fakeUploader{}
	orig := newUploader
	newUploader = func() (uploader, error) { return fake, nil }
	defer func() { newUploader = orig }()

	req, rec := multipartUpload(t, map[string]string{
		"report.pdf": "pdf-bytes",
		"logo.png":   "png-bytes",
	})
	e := echo.New()
	c := e.NewContext(req, rec)
	c.Set("email", "ann@x.com")

	require.NoError(t, UploadAttachmentsHandler(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Uploads, 2)

	names := map[string]bool{}
	for _, u := range resp.Uploads {
		names[u.FileName] = true
		assert.NotEmpty(t, u.PublicID)
		assert.Contains(t, u.URL, "https://files.test/attachments/ann@x.com/")
	}
	assert.True(t, names["report.pdf"])
	assert.True(t, names["logo.png"])
}

func TestUploadDropsFailedFiles(t *testing.T) {
	fake := &fakeUploader{failFor: "bad-bytes"}
	orig := newUploader
	newUploader = func() (uploader, error) { return fake, nil }
	defer func() { newUploader = orig }()

	req, rec := multipartUpload(t, map[string]string{
		"good.pdf": "pdf-bytes",
		"bad.pdf":  "bad-bytes",
	})
	e := echo.New()
	c := e.NewContext(req, rec)
	c.Set("email", "ann@x.com")

	require.NoError(t, UploadAttachmentsHandler(c))

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Uploads, 1)
	assert.Equal(t, "good.pdf", resp.Uploads[0].FileName)
}

func TestUploadPrivateBucketHandsOutPresignedURLs(t *testing.T) {
	fake := &fakeUploader{}
	orig := newUploader
	newUploader = func() (uploader, error) { return fake, nil }
	defer func() { newUploader = orig }()

	viper.Set("S3_PRIVATE_BUCKET", true)
	defer viper.Set("S3_PRIVATE_BUCKET", false)

	req, rec := multipartUpload(t, map[string]string{"report.pdf": "pdf-bytes"})
	e := echo.New()
	c := e.NewContext(req, rec)
	c.Set("email", "ann@x.com")

	require.NoError(t, UploadAttachmentsHandler(c))

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Uploads, 1)
	assert.Contains(t, resp.Uploads[0].URL, "X-Amz-Signature=")
}

func TestUploadRequiresFiles(t *testing.T) {
	req, rec := multipartUpload(t, map[string]string{})
	e := echo.New()
	c := e.NewContext(req, rec)
	c.Set("email", "ann@x.com")

	require.NoError(t, UploadAttachmentsHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSafeExt(t *testing.T) {
	assert.Equal(t, ".pdf", safeExt("report.pdf"))
	assert.Equal(t, ".png", safeExt("UPPER.PNG"))
	assert.Equal(t, "", safeExt("noext"))
	assert.Equal(t, "", safeExt("weird.p~f"))
	assert.Equal(t, "", safeExt("dot."))
}
