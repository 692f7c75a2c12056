package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"chat-relay/internal/domain"
)

// Handle serves API Gateway proxy events with the same routes as Routes.
// Errors are always reported in the response; the returned error is nil.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id := correlationID(headerValue(event.Headers, correlationHeader))
	ctx = withCorrelationID(ctx, id)

	status, body := h.route(ctx, event)
	h.logger.InfoContext(ctx, "request served",
		"method", event.HTTPMethod,
		"path", event.Path,
		"status", status,
		"correlation_id", id,
	)

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: id,
		},
		Body: string(body),
	}, nil
}

func (h *Handler) route(ctx context.Context, event events.APIGatewayProxyRequest) (int, []byte) {
	path := normalizePath(event.Path)
	method := strings.ToUpper(event.HTTPMethod)

	if path == pathHealth && method == http.MethodGet {
		return http.StatusOK, mustMarshal(healthResponse{Status: "ok"})
	}

	var out domain.Outcome
	switch path {
	case pathListModels:
		if method != http.MethodGet {
			out = methodNotAllowed()
			break
		}
		out = h.uc.ListModelsOutcome(ctx)
	case pathTestKey:
		if method != http.MethodGet {
			out = methodNotAllowed()
			break
		}
		out = h.uc.TestCredentialOutcome(ctx)
	case pathRoot:
		if method != http.MethodPost {
			out = methodNotAllowed()
			break
		}
		body, err := eventBody(event)
		if err != nil {
			out = domain.Fail(http.StatusBadRequest, "Invalid request body", nil)
			break
		}
		out = h.chat(ctx, body)
	default:
		out = notFound()
	}
	return out.Status, mustMarshal(out.Envelope)
}

func eventBody(event events.APIGatewayProxyRequest) ([]byte, error) {
	if !event.IsBase64Encoded {
		return []byte(event.Body), nil
	}
	return base64.StdEncoding.DecodeString(event.Body)
}

func normalizePath(p string) string {
	p = "/" + strings.Trim(strings.TrimSpace(p), "/")
	return p
}

// headerValue looks up a header case-insensitively; API Gateway forwards
// header names as the client sent them.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func mustMarshal(v any) []byte {
	buf, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"success":false,"error":"Internal Server Error"}`)
	}
	return buf
}
