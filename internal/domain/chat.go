package domain

// ChatRequest is the inbound payload of the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}
