// Package dto defines the request and response shapes of the storefront API.
package dto

// APIResponse is the envelope every storefront endpoint answers with,
// success and failure alike. Data carries the operation payload (rates,
// validated address, subscription); Error is an ErrorDetail on failures.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty" validate:"omitempty"`
	Error   any    `json:"error,omitempty" validate:"omitempty"`
}

// ErrorDetail is the machine-readable error under the envelope. Code is a
// stable identifier (VALIDATION_ERROR, CARRIER_UNAVAILABLE, ...) the
// storefront switches on; Details holds per-field messages when present.
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty" validate:"omitempty"`
}
