package validator

// Validator validates structs according to their validate tags.
type Validator interface {
	// Validate returns nil when data passes all rules, or an error
	// describing the failing fields.
	Validate(data any) error
}
