// Package credentialstest provides a fixed credential source for tests.
package credentialstest

import (
	"context"

	"chat-relay/internal/credentials"
)

// Static serves fixed credentials. An absent or empty entry is reported as
// missing, as the environment source does.
type Static map[credentials.Provider]string

func (s Static) Lookup(_ context.Context, p credentials.Provider) (string, error) {
	v := s[p]
	if v == "" {
		return "", &credentials.MissingError{Provider: p, Name: credentials.EnvName(p), Where: "environment variables"}
	}
	return v, nil
}
