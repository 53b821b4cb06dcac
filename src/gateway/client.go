// Package gateway is the typed HTTP client of the opsdesk API.
//
// Every call is a single attempt. Non-2xx replies come back as *APIError
// carrying the status and the server's "error" message.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"opsdesk/src/types"

	"github.com/tidwall/gjson"
)

const DefaultBaseURL = "http://localhost:8080/api/v1"

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL string, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		// Requests end when their context does.
		HTTP: &http.Client{},
	}
}

// APIError is a non-2xx reply.
type APIError struct {
	Status   int
	Message  string
	Rejected []types.RejectedFile
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// StatusOf returns the reply status carried by err, or 0 for transport errors.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

func (c *Client) url(path string, query url.Values) string {
	u := c.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Send performs one request. A 2xx response is returned open; the caller closes
// its body.
func (c *Client) Send(ctx context.Context, method string, path string, query url.Values, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return res, nil
	}
	defer res.Body.Close()
	raw, _ := io.ReadAll(res.Body)
	return nil, decodeError(res.StatusCode, raw)
}

func decodeError(status int, raw []byte) error {
	out := &APIError{Status: status}
	if gjson.ValidBytes(raw) {
		out.Message = gjson.GetBytes(raw, "error").String()
		if rejected := gjson.GetBytes(raw, "rejected"); rejected.IsArray() {
			_ = json.Unmarshal([]byte(rejected.Raw), &out.Rejected)
		}
	}
	if out.Message == "" {
		out.Message = strings.TrimSpace(string(raw))
	}
	return out
}

// Do sends payload as JSON and reads the reply into out. out may be nil.
func (c *Client) Do(ctx context.Context, method string, path string, query url.Values, payload any, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	res, err := c.Send(ctx, method, path, query, contentType, body)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return readInto(res, out)
}

func readInto(res *http.Response, out any) error {
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// envelope is the {"data": ..., "rejected": [...]} reply of single-record endpoints.
type envelope[T any] struct {
	Data     T                    `json:"data"`
	Rejected []types.RejectedFile `json:"rejected"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         Account   `json:"user"`
	Capabilities []string  `json:"capabilities"`
}

type Account struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type SessionResult struct {
	User         Account  `json:"user"`
	EmployeeID   *uint    `json:"employee_id"`
	Capabilities []string `json:"capabilities"`
}

func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var res envelope[LoginResult]
	if err := c.Do(ctx, http.MethodPost, "auth/login", nil, creds, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (c *Client) Me(ctx context.Context) (*SessionResult, error) {
	var res envelope[SessionResult]
	if err := c.Do(ctx, http.MethodGet, "auth/me", nil, nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "auth/logout", nil, nil, nil)
}
