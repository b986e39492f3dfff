package models

import "fmt"

// ValidationError rejects malformed or out-of-range prediction input.
// It is always surfaced to the caller, never absorbed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validacion %s: %s", e.Field, e.Reason)
}

// ConfigurationError reports an unusable preference profile, such as
// weights that sum to zero or filters that exclude every candidate.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuracion: " + e.Reason
}
