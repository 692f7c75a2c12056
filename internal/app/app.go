// Package app wires the configured components into a handler. It is shared
// by the HTTP server and the Lambda entrypoint.
package app

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/prometheus/client_golang/prometheus"

	"chat-relay/handler"
	"chat-relay/internal/config"
	"chat-relay/internal/credentials"
	"chat-relay/internal/integrations/cohere"
	"chat-relay/internal/integrations/gemini"
	"chat-relay/internal/integrations/paramstore"
	"chat-relay/internal/integrations/upstream"
	"chat-relay/internal/metrics"
	"chat-relay/internal/usecase"
)

// Build constructs the handler for cfg. Credentials are not read here; the
// returned source looks them up on every request.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*handler.Handler, error) {
	creds, err := NewCredentialSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return BuildWithSource(cfg, creds, logger)
}

// BuildWithSource is Build with an explicit credential source.
func BuildWithSource(cfg *config.Config, creds credentials.Source, logger *slog.Logger) (*handler.Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := upstream.NewHTTPClient(cfg.UpstreamTimeout)

	cohereClient, err := cohere.NewClient(
		cohere.WithBaseURL(cfg.CohereBaseURL),
		cohere.WithHTTPClient(httpClient),
		cohere.WithParams(cfg.CohereParams()),
	)
	if err != nil {
		return nil, fmt.Errorf("create cohere client: %w", err)
	}
	geminiClient, err := gemini.NewClient(
		gemini.WithBaseURL(cfg.GeminiBaseURL),
		gemini.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	gwOpts := []usecase.Option{
		usecase.WithLogger(logger),
		usecase.WithStrictFailureMapping(cfg.StrictFailureMapping),
	}
	var hOpts []handler.Option
	if cfg.MetricsEnabled {
		m := metrics.NewUpstreamMetrics(prometheus.NewRegistry())
		gwOpts = append(gwOpts, usecase.WithRecorder(m))
		hOpts = append(hOpts, handler.WithMetricsHandler(m.Handler()))
	}

	gw, err := usecase.NewGateway(creds, geminiClient, cohereClient, gwOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gateway: %w", err)
	}

	h, err := handler.NewHandler(gw, append(hOpts, handler.WithLogger(logger))...)
	if err != nil {
		return nil, fmt.Errorf("create handler: %w", err)
	}
	return h, nil
}

// NewCredentialSource returns the source selected by cfg.CredentialSource.
func NewCredentialSource(ctx context.Context, cfg *config.Config) (credentials.Source, error) {
	switch cfg.CredentialSource {
	case config.CredentialSourceEnv, "":
		return credentials.NewEnv(), nil
	case config.CredentialSourceSSM:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, fmt.Errorf("create SSM client: %w", err)
		}
		store, err := credentials.NewParamStore(ssmClient, cfg.ParamPrefix)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown credential source %q", cfg.CredentialSource)
	}
}
