package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout = 30 * time.Second

	maxBodyBytes  = 1 << 20
	maxErrorBytes = 64 << 10
)

// ErrBodyTooLarge is wrapped by the *DispatchError returned when a 2xx body
// exceeds the read limit. The body is never returned truncated.
var ErrBodyTooLarge = errors.New("response body too large")

// Doer is the subset of *http.Client used by the integrations.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns an *http.Client with the given timeout, falling back
// to DefaultTimeout when timeout is zero. A negative timeout disables it.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: EffectiveTimeout(timeout)}
}

// EffectiveTimeout is the client timeout NewHTTPClient applies for timeout.
// Zero means no timeout in the result.
func EffectiveTimeout(timeout time.Duration) time.Duration {
	switch {
	case timeout == 0:
		return DefaultTimeout
	case timeout < 0:
		return 0
	}
	return timeout
}

// JoinURL appends path to base, tolerating trailing slashes on base.
func JoinURL(base, path string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/") + "/" + strings.TrimLeft(path, "/")
}

// NewJSONRequest builds a request carrying payload as a JSON body. A nil
// payload produces a bodyless request. Failures are reported as *DispatchError.
func NewJSONRequest(ctx context.Context, method, rawURL string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, &DispatchError{Op: "marshal request", Err: err}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, &DispatchError{Op: "create request", Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Do sends req and returns the response body of a 2xx reply. Non-2xx replies
// become *HTTPStatusError, transport failures *NoResponseError.
func Do(client Doer, req *http.Request) ([]byte, error) {
	if client == nil {
		return nil, &DispatchError{Op: "send request", Err: fmt.Errorf("http client is nil")}
	}
	target := RedactURL(req.URL)

	res, err := client.Do(req)
	if err != nil {
		return nil, &NoResponseError{URL: target, Err: stripURL(err)}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBytes))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        target,
			Body:       buf,
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &NoResponseError{URL: target, Err: fmt.Errorf("read response body: %w", err)}
	}
	if len(buf) > maxBodyBytes {
		return nil, &DispatchError{
			Op:  "read response body",
			Err: fmt.Errorf("%w: more than %d bytes from %s", ErrBodyTooLarge, maxBodyBytes, target),
		}
	}
	return buf, nil
}

// RedactURL drops the query string and userinfo, which may carry credentials.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	clean := *u
	clean.RawQuery = ""
	clean.ForceQuery = false
	clean.User = nil
	return clean.String()
}

// stripURL unwraps *url.Error so the full request URL (and any key in its
// query string) never reaches logs or response details.
func stripURL(err error) error {
	if urlErr, ok := err.(*url.Error); ok {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
