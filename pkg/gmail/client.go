package gmail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the Gmail REST API with the user's own OAuth access
// token. Every call is bounded by the client timeout; a hung Gmail call
// must only cost one recipient, never the whole campaign.

const (
	defaultBaseURL = "https://gmail.googleapis.com/gmail/v1"
	clientTimeout  = 30 * time.Second
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient() *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: clientTimeout},
	}
}

// Profile is the authenticated user's Gmail profile. EmailAddress supplies
// the From header for every outbound message.
type Profile struct {
	EmailAddress  string `json:"emailAddress"`
	MessagesTotal int64  `json:"messagesTotal"`
	ThreadsTotal  int64  `json:"threadsTotal"`
}

// APIError is a non-2xx answer from the Gmail API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gmail api: %d %s", e.StatusCode, e.Message)
}

// IsAuthError reports whether err is a Gmail 401/403, i.e. the access token
// is missing scope, expired, or revoked.
func IsAuthError(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}

// GetProfile fetches the sender's own profile to learn the authenticated
// From address.
func (c *Client) GetProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/users/me/profile", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gmail profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode gmail profile: %w", err)
	}
	return &profile, nil
}

type sendRequest struct {
	Raw string `json:"raw"`
}

type sendResponse struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

// Send submits a transport-encoded MIME message through the Gmail send
// endpoint and returns the Gmail message ID.
func (c *Client) Send(ctx context.Context, accessToken, raw string) (string, error) {
	body, err := json.Marshal(sendRequest{Raw: raw})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/users/me/messages/send", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call gmail send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}

	var sent sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sent); err != nil {
		return "", fmt.Errorf("failed to decode gmail send response: %w", err)
	}
	return sent.ID, nil
}

// apiError extracts the Gmail error message from a non-2xx response body.
func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := http.StatusText(resp.StatusCode)
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Message != "" {
		msg = body.Error.Message
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
