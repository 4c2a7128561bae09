// Package types holds the JSON envelopes shared by every API endpoint.
package types

// SuccessEnvelope wraps every 2xx response body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error payload. Details carries structured
// context such as stock shortfalls; it is omitted when nil.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx response body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
