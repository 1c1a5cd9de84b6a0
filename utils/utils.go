// Package utils provides utility functions for the application.
package utils

// ToPtr returns a pointer to v. Used for the optional weight, dimension and
// markup fields on models and fixtures.
func ToPtr[T any](v T) *T {
	return &v
}

// IsTrue reports whether an optional flag is present and set.
func IsTrue(b *bool) bool {
	return b != nil && *b
}
