// Package credentials resolves upstream provider API keys at call time.
// Sources never cache: a key rotated or removed while the process runs is
// picked up by the next request.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"chat-relay/internal/integrations/paramstore"
)

type Provider string

const (
	Gemini Provider = "gemini"
	Cohere Provider = "cohere"
)

// EnvName is the environment variable (and parameter store leaf) holding
// the provider's credential.
func EnvName(p Provider) string {
	switch p {
	case Gemini:
		return "GEMINI_API_KEY"
	case Cohere:
		return "COHERE_API_KEY"
	default:
		return strings.ToUpper(string(p)) + "_API_KEY"
	}
}

// MissingError reports an unset credential.
type MissingError struct {
	Provider Provider
	Name     string
	Where    string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s is not set in %s", e.Name, e.Where)
}

// IsMissing reports whether err is (or wraps) a *MissingError.
func IsMissing(err error) bool {
	var missing *MissingError
	return errors.As(err, &missing)
}

type Source interface {
	Lookup(ctx context.Context, p Provider) (string, error)
}

// Env reads credentials from the process environment on every lookup.
type Env struct {
	lookupEnv func(string) (string, bool)
}

func NewEnv() *Env {
	return &Env{lookupEnv: os.LookupEnv}
}

func (e *Env) Lookup(_ context.Context, p Provider) (string, error) {
	name := EnvName(p)
	lookup := e.lookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, _ := lookup(name)
	if strings.TrimSpace(v) == "" {
		return "", &MissingError{Provider: p, Name: name, Where: "environment variables"}
	}
	return v, nil
}

// Getter is satisfied by *paramstore.Client.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ParamStore reads credentials from SSM parameters named <prefix>/<ENV_NAME>.
type ParamStore struct {
	getter Getter
	prefix string
}

func NewParamStore(g Getter, prefix string) (*ParamStore, error) {
	if g == nil {
		return nil, errors.New("credentials: parameter getter must not be nil")
	}
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return nil, errors.New("credentials: parameter prefix must not be empty")
	}
	return &ParamStore{getter: g, prefix: prefix}, nil
}

func (s *ParamStore) parameterName(p Provider) string {
	return s.prefix + "/" + EnvName(p)
}

func (s *ParamStore) Lookup(ctx context.Context, p Provider) (string, error) {
	name := s.parameterName(p)
	v, err := s.getter.GetParameter(ctx, name)
	if err != nil {
		if errors.Is(err, paramstore.ErrNotFound) {
			return "", &MissingError{Provider: p, Name: name, Where: "parameter store"}
		}
		return "", fmt.Errorf("credentials: lookup %s: %w", name, err)
	}
	if strings.TrimSpace(v) == "" {
		return "", &MissingError{Provider: p, Name: name, Where: "parameter store"}
	}
	return v, nil
}
