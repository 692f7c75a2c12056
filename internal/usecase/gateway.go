package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"chat-relay/internal/credentials"
	"chat-relay/internal/domain"
	"chat-relay/internal/integrations/cohere"
	"chat-relay/internal/integrations/upstream"
)

const (
	TestMessage     = "Hello, this is a test message."
	KeyValidMessage = "API key is valid and working"

	opListModels = "list_models"
	opTestKey    = "test_key"
	opChat       = "chat"

	msgListModelsFailed  = "Failed to list models"
	msgKeyTestFailed     = "API key test failed"
	msgMessageRequired   = "Message is required"
	msgChatConfigError   = "AI service configuration error"
	msgChatUpstreamError = "AI service error"
	msgChatNotResponding = "AI service is not responding"
	msgChatDispatchError = "Failed to process request"
	msgChatInvalidReply  = "Invalid response from AI service"

	emptyUpstreamBody = "empty response from upstream"
)

type ModelLister interface {
	ListModels(ctx context.Context, apiKey string) (json.RawMessage, error)
}

type ChatSender interface {
	Chat(ctx context.Context, apiKey, message string) (json.RawMessage, error)
}

type Recorder interface {
	ObserveUpstream(provider, operation, outcome string, elapsed time.Duration)
}

// Gateway performs exactly one upstream call per operation and normalizes
// the result. It holds no per-request state.
type Gateway struct {
	creds   credentials.Source
	models  ModelLister
	chat    ChatSender
	metrics Recorder
	logger  *slog.Logger

	// strict applies the chat failure trichotomy (503 when no response
	// arrived) to ListModels and TestCredential as well.
	strict bool
}

type Option func(*Gateway)

func WithRecorder(r Recorder) Option {
	return func(g *Gateway) {
		g.metrics = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

func WithStrictFailureMapping(strict bool) Option {
	return func(g *Gateway) {
		g.strict = strict
	}
}

// TestResult is the success payload of TestCredential.
type TestResult struct {
	Message  string
	Response any
}

func NewGateway(creds credentials.Source, models ModelLister, chat ChatSender, opts ...Option) (*Gateway, error) {
	if creds == nil {
		return nil, errors.New("usecase: credential source must not be nil")
	}
	if models == nil {
		return nil, errors.New("usecase: model lister must not be nil")
	}
	if chat == nil {
		return nil, errors.New("usecase: chat sender must not be nil")
	}
	g := &Gateway{
		creds:  creds,
		models: models,
		chat:   chat,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g, nil
}

// ListModels returns the upstream model listing unchanged.
func (g *Gateway) ListModels(ctx context.Context) (any, error) {
	apiKey, err := g.creds.Lookup(ctx, credentials.Gemini)
	if err != nil {
		return nil, g.credentialError(credentials.Gemini, "", err)
	}

	raw, err := g.call(ctx, credentials.Gemini, opListModels, func(ctx context.Context) (json.RawMessage, error) {
		return g.models.ListModels(ctx, apiKey)
	})
	if err != nil {
		return nil, g.mapLenient(msgListModelsFailed, err)
	}
	payload := jsonOrString(raw)
	if payload == nil {
		return nil, newError(KindInvalidUpstreamContent, http.StatusInternalServerError, msgListModelsFailed, emptyUpstreamBody, nil)
	}
	return payload, nil
}

// TestCredential sends a fixed message to verify the Cohere key.
func (g *Gateway) TestCredential(ctx context.Context) (TestResult, error) {
	apiKey, err := g.creds.Lookup(ctx, credentials.Cohere)
	if err != nil {
		return TestResult{}, g.credentialError(credentials.Cohere, "", err)
	}

	raw, err := g.call(ctx, credentials.Cohere, opTestKey, func(ctx context.Context) (json.RawMessage, error) {
		return g.chat.Chat(ctx, apiKey, TestMessage)
	})
	if err != nil {
		return TestResult{}, g.mapLenient(msgKeyTestFailed, err)
	}
	payload := jsonOrString(raw)
	if payload == nil {
		return TestResult{}, newError(KindInvalidUpstreamContent, http.StatusInternalServerError, msgKeyTestFailed, emptyUpstreamBody, nil)
	}
	return TestResult{Message: KeyValidMessage, Response: payload}, nil
}

// Chat forwards one user message and returns only the reply text.
func (g *Gateway) Chat(ctx context.Context, req domain.ChatRequest) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", newError(KindMissingInput, http.StatusBadRequest, msgMessageRequired, nil, nil)
	}

	apiKey, err := g.creds.Lookup(ctx, credentials.Cohere)
	if err != nil {
		return "", g.credentialError(credentials.Cohere, msgChatConfigError, err)
	}

	raw, err := g.call(ctx, credentials.Cohere, opChat, func(ctx context.Context) (json.RawMessage, error) {
		return g.chat.Chat(ctx, apiKey, req.Message)
	})
	if err != nil {
		return "", mapTrichotomy(err, msgChatUpstreamError, msgChatNotResponding, msgChatDispatchError, false)
	}

	text, ok := cohere.ExtractText(raw)
	if !ok {
		g.logger.ErrorContext(ctx, "unexpected response format from upstream",
			"provider", credentials.Cohere, "operation", opChat, "body_bytes", len(raw))
		return "", newError(KindInvalidUpstreamContent, http.StatusInternalServerError, msgChatInvalidReply, nil, nil)
	}
	return text, nil
}

// call runs one upstream request, recording its outcome.
func (g *Gateway) call(ctx context.Context, provider credentials.Provider, op string, fn func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	start := time.Now()
	raw, err := fn(ctx)
	elapsed := time.Since(start)

	class := upstream.Classify(err)
	if g.metrics != nil {
		g.metrics.ObserveUpstream(string(provider), op, class.String(), elapsed)
	}

	attrs := []any{"provider", provider, "operation", op, "outcome", class.String(), "elapsed", elapsed}
	var statusErr *upstream.HTTPStatusError
	if errors.As(err, &statusErr) {
		attrs = append(attrs, "status", statusErr.StatusCode)
	}
	if err != nil {
		g.logger.WarnContext(ctx, "upstream call failed", append(attrs, "err", err)...)
	} else {
		g.logger.InfoContext(ctx, "upstream call completed", attrs...)
	}
	return raw, err
}

func (g *Gateway) credentialError(p credentials.Provider, msg string, err error) *Error {
	if credentials.IsMissing(err) {
		g.logger.Error("credential is not configured", "provider", p, "credential", credentials.EnvName(p))
		if msg == "" {
			return newError(KindMissingCredential, http.StatusInternalServerError, err.Error(), nil, err)
		}
		return newError(KindMissingCredential, http.StatusInternalServerError, msg, err.Error(), err)
	}
	g.logger.Error("credential lookup failed", "provider", p, "err", err)
	if msg == "" {
		msg = "Failed to resolve " + credentials.EnvName(p)
	}
	return newError(KindMissingCredential, http.StatusInternalServerError, msg, err.Error(), err)
}

// mapLenient maps failures of ListModels and TestCredential. Without strict
// mapping, anything other than an upstream rejection is a 500 carrying the
// error text.
func (g *Gateway) mapLenient(msg string, err error) *Error {
	if g.strict {
		return mapTrichotomy(err, msg, msg, msg, true)
	}
	var statusErr *upstream.HTTPStatusError
	if errors.As(err, &statusErr) {
		return rejected(msg, statusErr, err, true)
	}
	kind := KindLocalDispatchFailure
	if upstream.Classify(err) == upstream.ClassNoResponse {
		kind = KindUpstreamUnreachable
	}
	return newError(kind, http.StatusInternalServerError, msg, err.Error(), err)
}

// mapTrichotomy separates "server said no" (upstream status and body) from
// "server never answered" (503) and "we never managed to ask" (500).
// withCause adds the error text as details to the 503 case.
func mapTrichotomy(err error, rejectedMsg, unreachableMsg, dispatchMsg string, withCause bool) *Error {
	var statusErr *upstream.HTTPStatusError
	switch upstream.Classify(err) {
	case upstream.ClassRejected:
		errors.As(err, &statusErr)
		return rejected(rejectedMsg, statusErr, err, withCause)
	case upstream.ClassNoResponse:
		var details any
		if withCause {
			details = err.Error()
		}
		return newError(KindUpstreamUnreachable, http.StatusServiceUnavailable, unreachableMsg, details, err)
	default:
		return newError(KindLocalDispatchFailure, http.StatusInternalServerError, dispatchMsg, err.Error(), err)
	}
}

// rejected propagates the upstream status and body. An empty body falls back
// to the error text when fallback is set.
func rejected(msg string, statusErr *upstream.HTTPStatusError, err error, fallback bool) *Error {
	details := jsonOrString(statusErr.Body)
	if details == nil && fallback {
		details = err.Error()
	}
	status := statusErr.StatusCode
	if status <= 0 {
		status = http.StatusInternalServerError
	}
	return newError(KindUpstreamRejected, status, msg, details, err)
}

// jsonOrString returns raw as json.RawMessage when it is valid JSON, as a
// string otherwise, and nil when it is blank.
func jsonOrString(raw []byte) any {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil
	}
	if gjson.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	return trimmed
}
