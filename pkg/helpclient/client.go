// Package helpclient submits community-help signups to a CrisisCare server
// and keeps a local, advisory copy of what was sent.
package helpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/crisiscare/crisiscare-backend/internal/models"
)

const submitPath = "/api/community-help"

// Form holds the signup fields as the user typed them.
type Form struct {
	Role        string
	Name        string
	Email       string
	City        string
	SupportType string
	Message     string
}

// Values encodes the form the way the server's form decoder expects it.
func (f *Form) Values() url.Values {
	return url.Values{
		"role":         {f.Role},
		"name":         {f.Name},
		"email":        {f.Email},
		"city":         {f.City},
		"support-type": {f.SupportType},
		"message":      {f.Message},
	}
}

func (f *Form) Reset() { *f = Form{} }

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string // server-provided error, if any
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// Client talks to one CrisisCare server.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Submit posts form as application/x-www-form-urlencoded.
func (c *Client) Submit(ctx context.Context, form Form) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, strings.NewReader(form.Values().Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// List fetches every entry the server has stored, oldest first.
func (c *Client) List(ctx context.Context) ([]models.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+submitPath, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp)
	}

	var entries []models.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return entries, nil
}

func newStatusError(resp *http.Response) *StatusError {
	var body struct {
		Error string `json:"error"`
	}
	json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
	return &StatusError{StatusCode: resp.StatusCode, Message: body.Error}
}
