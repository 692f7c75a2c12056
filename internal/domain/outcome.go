package domain

import "net/http"

// Envelope is the uniform JSON body returned by every endpoint. Success
// responses populate the operation-specific fields; failures populate Error
// and, optionally, Details.
type Envelope struct {
	Success  bool   `json:"success"`
	Models   any    `json:"models,omitempty"`
	Message  string `json:"message,omitempty"`
	Response any    `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Details  any    `json:"details,omitempty"`
}

// Outcome pairs an envelope with the HTTP status it is served with.
type Outcome struct {
	Status   int
	Envelope Envelope
}

// Succeed returns a 200 outcome wrapping the given success envelope.
func Succeed(env Envelope) Outcome {
	env.Success = true
	env.Error = ""
	env.Details = nil
	return Outcome{Status: http.StatusOK, Envelope: env}
}

// Fail returns a failure outcome. A non-positive status is served as 500.
func Fail(status int, msg string, details any) Outcome {
	if status <= 0 {
		status = http.StatusInternalServerError
	}
	return Outcome{
		Status: status,
		Envelope: Envelope{
			Success: false,
			Error:   msg,
			Details: details,
		},
	}
}
