package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// API is a small JSON client bound to one base URL.
type API struct {
	client  *http.Client
	baseURL string
	token   string
}

type APIOption func(*API)

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) APIOption {
	return func(a *API) { a.token = token }
}

func WithHTTPClient(client *http.Client) APIOption {
	return func(a *API) { a.client = client }
}

func NewAPI(baseURL string, opts ...APIOption) *API {
	a := &API{client: http.DefaultClient, baseURL: strings.TrimRight(baseURL, "/")}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// StatusError is returned for non-2xx responses. Message carries the
// server's error text verbatim when it sent one.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// Get decodes the JSON response of GET path into v.
func (a *API) Get(ctx context.Context, path string, params url.Values, v any) error {
	if params != nil {
		path += "?" + params.Encode()
	}
	return a.do(ctx, http.MethodGet, path, nil, v)
}

// Post sends body as JSON and decodes the response into v.
func (a *API) Post(ctx context.Context, path string, body, v any) error {
	return a.do(ctx, http.MethodPost, path, body, v)
}

func (a *API) do(ctx context.Context, method, path string, body, v any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	if v == nil {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// Fetch downloads an absolute URL and returns its body and content type.
func (a *API) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", &StatusError{StatusCode: resp.StatusCode}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return b, resp.Header.Get("Content-Type"), nil
}

func errorMessage(raw []byte) string {
	var env struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &env) == nil && env.Error != "" {
		return env.Error
	}
	return strings.TrimSpace(string(raw))
}
