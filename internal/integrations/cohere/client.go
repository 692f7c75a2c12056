package cohere

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"chat-relay/internal/integrations/upstream"
)

const (
	DefaultBaseURL     = "https://api.cohere.ai/v1"
	DefaultModel       = "command"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 300
)

// chatRequest is the request shape for the v1 Chat endpoint.
type chatRequest struct {
	Message     string  `json:"message"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Stream      bool    `json:"stream"`
}

// Params are the fixed generation parameters sent with every chat call.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// DefaultParams returns the generation parameters used when none are configured.
func DefaultParams() Params {
	return Params{
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// Client is a focused client for the Cohere Chat endpoint. It holds no
// credential; the API key is supplied on every call.
type Client struct {
	baseURL    string
	httpClient upstream.Doer
	params     Params
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

func WithParams(p Params) Option {
	return func(c *Client) {
		c.params = p
	}
}

func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: upstream.NewHTTPClient(upstream.DefaultTimeout),
		params:     DefaultParams(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		return nil, errors.New("cohere: http client must not be nil")
	}
	if strings.TrimSpace(c.params.Model) == "" {
		return nil, errors.New("cohere: model must not be empty")
	}
	if c.params.MaxTokens <= 0 {
		return nil, errors.New("cohere: max tokens must be positive")
	}
	return c, nil
}

// Params returns the generation parameters sent with each call.
func (c *Client) Params() Params {
	return c.params
}

func chatURL(baseURL string) string {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return upstream.JoinURL(baseURL, "chat")
}

// Chat sends a single non-streaming chat message and returns the raw
// response body.
func (c *Client) Chat(ctx context.Context, apiKey, message string) (json.RawMessage, error) {
	if apiKey == "" {
		return nil, &upstream.DispatchError{Op: "cohere: authorize", Err: errors.New("api key is empty")}
	}

	req, err := upstream.NewJSONRequest(ctx, http.MethodPost, chatURL(c.baseURL), chatRequest{
		Message:     message,
		Model:       c.params.Model,
		Temperature: c.params.Temperature,
		MaxTokens:   c.params.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("cohere: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	raw, err := upstream.Do(c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("cohere: request failed: %w", err)
	}
	return raw, nil
}

// ExtractText returns the reply text of a chat response. ok is false when the
// body has no non-empty string "text" field.
func ExtractText(raw []byte) (text string, ok bool) {
	if !gjson.ValidBytes(raw) {
		return "", false
	}
	res := gjson.GetBytes(raw, "text")
	if res.Type != gjson.String || res.Str == "" {
		return "", false
	}
	return res.Str, true
}
