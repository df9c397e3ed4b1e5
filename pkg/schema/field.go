// SPDX-License-Identifier: Apache-2.0

package schema

// Field declares a schema field. A schema definition is an ordered list of
// fields; the list order is the order fields are emitted in the index schema.
type Field struct {
	Name string
	Type FieldType
	// Indexed overrides the schema IndexedDefault when set. On object fields
	// it becomes the default for the nested fields.
	Indexed  *bool
	Sortable bool
	// Fields holds the nested schema of object fields.
	Fields []Field
}

// ResolvedField is a compiled field, with its type information and indexing
// resolved.
type ResolvedField struct {
	// Path is the dotted path of the field from the document root. It is also
	// the field alias used in queries.
	Path     string
	Name     string
	Type     *TypeInfo
	Indexed  bool
	Sortable bool
	Fields   []ResolvedField
}

// MaxNestingDepth caps the number of nested object levels a schema can
// declare.
const MaxNestingDepth = 8

func Ptr[T any](v T) *T { return &v }
