// SPDX-License-Identifier: Apache-2.0

package search

import (
	"fmt"

	"github.com/xataio/ftsearch/pkg/schema"
)

type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("the field '%s' is not part of the schema", e.Field)
}

// UnsupportedFieldTypeError is returned when a predicate is requested on a
// field whose type cannot be searched on directly, such as objects.
type UnsupportedFieldTypeError struct {
	Field string
	Type  schema.FieldType
	Valid []schema.FieldType
}

func (e *UnsupportedFieldTypeError) Error() string {
	return fmt.Sprintf("the field type of '%s' for field '%s' is not a valid predicate type: valid types include %s",
		e.Type, e.Field, schema.QuoteList(e.Valid))
}

// InvalidOperationError is returned when an operation is not supported by
// the field predicate, or when it is given a value of the wrong type.
type InvalidOperationError struct {
	Field     string
	Type      schema.FieldType
	Operation string
	Reason    string
}

func (e *InvalidOperationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid operation %s on field '%s' of type '%s': %s", e.Operation, e.Field, e.Type, e.Reason)
	}
	return fmt.Sprintf("operation %s is not supported on field '%s' of type '%s'", e.Operation, e.Field, e.Type)
}

// IncompletePredicateError is returned when a query is rendered with a field
// predicate that was never given a value.
type IncompletePredicateError struct {
	Field string
}

func (e *IncompletePredicateError) Error() string {
	return fmt.Sprintf("predicate on field '%s' has no value", e.Field)
}
