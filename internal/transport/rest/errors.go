package rest

import "fmt"

// errorEnvelope is the server's structured error body.
type errorEnvelope struct {
	Error *struct {
		Message     string `json:"message"`
		Description string `json:"description"`
	} `json:"error"`
}

// ErrorDecoder decodes error envelopes of the select API.
type ErrorDecoder struct{}

// DecodeError extracts message and optional description from body.
func (ErrorDecoder) DecodeError(body []byte) (string, string, error) {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", "", fmt.Errorf("decode error envelope: %w", err)
	}
	if env.Error == nil || env.Error.Message == "" {
		return "", "", fmt.Errorf("error envelope has no message")
	}
	return env.Error.Message, env.Error.Description, nil
}
