package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"chat-relay/internal/integrations/upstream"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1"

// Client lists models from the Generative Language API. The API key is
// supplied on every call and sent as the "key" query parameter.
type Client struct {
	baseURL    string
	httpClient upstream.Doer
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient upstream.Doer) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: upstream.NewHTTPClient(upstream.DefaultTimeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		return nil, errors.New("gemini: http client must not be nil")
	}
	return c, nil
}

func modelsURL(baseURL, apiKey string) (string, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(upstream.JoinURL(baseURL, "models"))
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ListModels returns the raw JSON body of the model listing.
func (c *Client) ListModels(ctx context.Context, apiKey string) (json.RawMessage, error) {
	if apiKey == "" {
		return nil, &upstream.DispatchError{Op: "gemini: authorize", Err: errors.New("api key is empty")}
	}

	target, err := modelsURL(c.baseURL, apiKey)
	if err != nil {
		return nil, &upstream.DispatchError{Op: "gemini: build url", Err: err}
	}
	req, err := upstream.NewJSONRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	raw, err := upstream.Do(c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("gemini: request failed: %w", err)
	}
	return raw, nil
}
