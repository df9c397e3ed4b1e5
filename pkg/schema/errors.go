// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
)

// ConfigurationError is returned when a schema definition or its options are
// malformed. Schemas are never built partially, so this error always halts
// the schema construction.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid schema configuration for field [%s]: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid schema configuration: %s", e.Reason)
}

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

func fieldErrorf(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
