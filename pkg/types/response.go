// Package types holds the wire envelopes shared by every API response.
package types

// SuccessEnvelope wraps successful payloads so clients always unwrap "data".
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error body. Details are present only for codes that
// may echo caller input back, such as validation failures.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError under "error".
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Success wraps data in the standard envelope.
func Success(data any) SuccessEnvelope {
	return SuccessEnvelope{Data: data}
}

// Failure builds an error envelope from its parts.
func Failure(code, message string, details any) ErrorEnvelope {
	return ErrorEnvelope{Error: APIError{Code: code, Message: message, Details: details}}
}
