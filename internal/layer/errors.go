package layer

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrConfig         = errors.New("invalid layer configuration")
	ErrNotImplemented = errors.New("operation not implemented")
)

// ConfigError reports a configuration problem detected at setup or shape
// inference. It unwraps to ErrConfig.
type ConfigError struct {
	Kind    Kind   // Variant of the offending layer
	Layer   string // Instance name
	Details string // What is wrong
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Layer != "" {
		return fmt.Sprintf("%s layer %q: %s", e.Kind, e.Layer, e.Details)
	}
	return fmt.Sprintf("%s layer: %s", e.Kind, e.Details)
}

// Unwrap returns ErrConfig.
func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

// NotImplementedError is the panic value of an operation a layer does not
// support, such as Backward on ArgMax. It unwraps to ErrNotImplemented.
type NotImplementedError struct {
	Kind Kind
	Op   string
}

// Error implements the error interface.
func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s layer: %s: %v", e.Kind, e.Op, ErrNotImplemented)
}

// Unwrap returns ErrNotImplemented.
func (e *NotImplementedError) Unwrap() error {
	return ErrNotImplemented
}

func configError(l Layer, format string, args ...any) error {
	return &ConfigError{Kind: l.Kind(), Layer: l.Name(), Details: fmt.Sprintf(format, args...)}
}
