package gmail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient()
	c.BaseURL = srv.URL
	c.HTTPClient = srv.Client()
	return c
}

func TestGetProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/profile", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(Profile{EmailAddress: "sender@gmail.com"})
	}))
	defer srv.Close()

	profile, err := newTestClient(srv).GetProfile(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "sender@gmail.com", profile.EmailAddress)
}

func TestSend(t *testing.T) {
	var gotRaw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/messages/send", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Raw string `json:"raw"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotRaw = req.Raw
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "msg-9", "threadId": "t-1"})
	}))
	defer srv.Close()

	id, err := newTestClient(srv).Send(context.Background(), "tok", "RnJvbTogYUB4LmNvbQ")
	require.NoError(t, err)
	assert.Equal(t, "msg-9", id)
	assert.Equal(t, "RnJvbTogYUB4LmNvbQ", gotRaw)
}

func TestSendErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"code": 401, "message": "Invalid Credentials"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Send(context.Background(), "expired", "cmF3")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid Credentials", apiErr.Message)
	assert.True(t, IsAuthError(err))
}

func TestServerErrorIsNotAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).GetProfile(context.Background(), "tok")
	require.Error(t, err)
	assert.False(t, IsAuthError(err))
}
