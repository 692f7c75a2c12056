package usecase

import (
	"context"
	"errors"
	"net/http"

	"chat-relay/internal/domain"
)

// ListModelsOutcome runs ListModels and shapes the result for the wire.
func (g *Gateway) ListModelsOutcome(ctx context.Context) domain.Outcome {
	models, err := g.ListModels(ctx)
	if err != nil {
		return FailureOutcome(err)
	}
	return domain.Succeed(domain.Envelope{Models: models})
}

// TestCredentialOutcome runs TestCredential and shapes the result for the wire.
func (g *Gateway) TestCredentialOutcome(ctx context.Context) domain.Outcome {
	res, err := g.TestCredential(ctx)
	if err != nil {
		return FailureOutcome(err)
	}
	return domain.Succeed(domain.Envelope{Message: res.Message, Response: res.Response})
}

// ChatOutcome runs Chat and shapes the result for the wire.
func (g *Gateway) ChatOutcome(ctx context.Context, req domain.ChatRequest) domain.Outcome {
	text, err := g.Chat(ctx, req)
	if err != nil {
		return FailureOutcome(err)
	}
	return domain.Succeed(domain.Envelope{Response: text})
}

// FailureOutcome converts an error into a failure outcome. Errors that are
// not *Error become a generic 500.
func FailureOutcome(err error) domain.Outcome {
	var ucErr *Error
	if errors.As(err, &ucErr) {
		return domain.Fail(ucErr.Status, ucErr.Message, ucErr.Details)
	}
	return domain.Fail(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), nil)
}
