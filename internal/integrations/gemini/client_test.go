package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-relay/internal/integrations/upstream"
)

func TestModelsURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://generativelanguage.googleapis.com/v1", "https://generativelanguage.googleapis.com/v1/models?key=k%26y"},
		{"http://localhost:8080/", "http://localhost:8080/models?key=k%26y"},
		{"", "https://generativelanguage.googleapis.com/v1/models?key=k%26y"},
	}
	for _, tc := range cases {
		got, err := modelsURL(tc.base, "k&y")
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "base=%q", tc.base)
	}
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
	require.NoError(t, err)
	return c
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient()
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, c.baseURL)

	_, err = NewClient(WithHTTPClient(nil))
	require.Error(t, err)
}

func TestClient_ListModels_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/models", r.URL.Path)
		require.Equal(t, "gm-test", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[{"name":"models/gemini-pro"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	raw, err := c.ListModels(context.Background(), "gm-test")
	require.NoError(t, err)
	require.JSONEq(t, `{"models":[{"name":"models/gemini-pro"}]}`, string(raw))
}

func TestClient_ListModels_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.ListModels(context.Background(), "gm-secret")
	var statusErr *upstream.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	require.NotContains(t, err.Error(), "gm-secret")
}

func TestClient_ListModels_NetworkErrorHidesKey(t *testing.T) {
	c, err := NewClient(
		WithBaseURL("http://127.0.0.1:1"),
		WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}),
	)
	require.NoError(t, err)

	_, err = c.ListModels(context.Background(), "gm-secret")
	require.Equal(t, upstream.ClassNoResponse, upstream.Classify(err))
	require.NotContains(t, err.Error(), "gm-secret")
}

func TestClient_ListModels_EmptyKey(t *testing.T) {
	c, err := NewClient()
	require.NoError(t, err)
	_, err = c.ListModels(context.Background(), "")
	require.Equal(t, upstream.ClassDispatch, upstream.Classify(err))
}
