// Package uid provides ID generators used across the application.
package uid

// StringID generates string identifiers (correlation IDs, tokens).
type StringID interface {
	// Generate returns a new string ID.
	Generate() string
}

// NumberID generates numeric identifiers (primary keys, event IDs).
type NumberID interface {
	// Generate returns a new numeric ID.
	Generate() int64
}
