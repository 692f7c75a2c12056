package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/internal/config"
	"chat-relay/internal/credentials"
	"chat-relay/internal/credentials/credentialstest"
)

func testConfig(baseURL string) *config.Config {
	cfg := config.Defaults()
	cfg.CohereBaseURL = baseURL
	cfg.GeminiBaseURL = baseURL
	return &cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewCredentialSource(t *testing.T) {
	cfg := config.Defaults()
	src, err := NewCredentialSource(context.Background(), &cfg)
	require.NoError(t, err)
	require.IsType(t, &credentials.Env{}, src)

	cfg.CredentialSource = "vault"
	_, err = NewCredentialSource(context.Background(), &cfg)
	require.Error(t, err)
}

func TestBuildWithSource_ServesRoutesAndMetrics(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chat":
			_, _ = io.WriteString(w, `{"text":"hello there"}`)
		case "/models":
			_, _ = io.WriteString(w, `{"models":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(upstream.Close)

	creds := credentialstest.Static{credentials.Cohere: "co", credentials.Gemini: "gm"}
	h, err := BuildWithSource(testConfig(upstream.URL), creds, quietLogger())
	require.NoError(t, err)
	routes := h.Routes()

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"hi"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"response":"hello there"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/list-models", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `chat_relay_upstream_requests_total{operation="chat",outcome="ok",provider="cohere"} 1`)
}

func TestBuildWithSource_MetricsDisabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.MetricsEnabled = false
	h, err := BuildWithSource(cfg, credentialstest.Static{}, quietLogger())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuildWithSource_RejectsInvalidParams(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.CohereModel = ""
	_, err := BuildWithSource(cfg, credentialstest.Static{}, quietLogger())
	require.Error(t, err)
}
