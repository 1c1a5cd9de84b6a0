// Package businessflow contains the core business logic and use cases for shipping workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Rate calculation errors
	ErrDestinationZipRequired = errors.New("destination ZIP code is required")
	ErrNoLineItems            = errors.New("at least one cart item is required")
	ErrInvalidQuantity        = errors.New("item quantity must be at least 1")

	// Configuration errors
	ErrNoActiveShippingConfiguration = errors.New("no active shipping configuration")

	// Address validation errors
	ErrMissingAddressFields = errors.New("street address, city, state and ZIP code are required")

	// Newsletter errors
	ErrEmailRequired = errors.New("email is required")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsDestinationZipRequired(err error) bool {
	return errors.Is(err, ErrDestinationZipRequired)
}

func IsNoLineItems(err error) bool {
	return errors.Is(err, ErrNoLineItems)
}

func IsInvalidQuantity(err error) bool {
	return errors.Is(err, ErrInvalidQuantity)
}

func IsNoActiveShippingConfiguration(err error) bool {
	return errors.Is(err, ErrNoActiveShippingConfiguration)
}

func IsMissingAddressFields(err error) bool {
	return errors.Is(err, ErrMissingAddressFields)
}

func IsEmailRequired(err error) bool {
	return errors.Is(err, ErrEmailRequired)
}
