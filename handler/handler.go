package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"chat-relay/internal/domain"
)

const (
	correlationHeader = "X-Correlation-Id"

	pathRoot       = "/"
	pathListModels = "/list-models"
	pathTestKey    = "/test-key"
	pathHealth     = "/health"
	pathMetrics    = "/metrics"

	maxBodyBytes = 1 << 20
)

// UseCase is the gateway surface served over HTTP and Lambda.
type UseCase interface {
	ListModelsOutcome(ctx context.Context) domain.Outcome
	TestCredentialOutcome(ctx context.Context) domain.Outcome
	ChatOutcome(ctx context.Context, req domain.ChatRequest) domain.Outcome
}

type Handler struct {
	uc      UseCase
	logger  *slog.Logger
	metrics http.Handler
}

type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// WithMetricsHandler mounts h at /metrics on the HTTP router.
func WithMetricsHandler(m http.Handler) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func NewHandler(uc UseCase, opts ...Option) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	h := &Handler{uc: uc, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h, nil
}

type healthResponse struct {
	Status string `json:"status"`
}

// chat decodes the request body and runs the chat operation. An empty body
// is treated as a request without a message.
func (h *Handler) chat(ctx context.Context, body []byte) domain.Outcome {
	var req domain.ChatRequest
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return domain.Fail(http.StatusBadRequest, "Invalid request body", nil)
		}
	}
	return h.uc.ChatOutcome(ctx, req)
}

func notFound() domain.Outcome {
	return domain.Fail(http.StatusNotFound, "Not found", nil)
}

func methodNotAllowed() domain.Outcome {
	return domain.Fail(http.StatusMethodNotAllowed, "Method not allowed", nil)
}

// correlationID returns the caller's id when present, a new one otherwise.
func correlationID(provided string) string {
	if id := strings.TrimSpace(provided); id != "" {
		return id
	}
	return uuid.NewString()
}

type ctxKey struct{}

func withCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// CorrelationID returns the id attached to ctx by the transport, if any.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
