// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/xataio/ftsearch/pkg/entity"
)

// Schema describes how entities of type T are indexed and hydrated. It is
// validated entirely at construction and is read only afterwards, so it can
// be shared by concurrent searches.
type Schema[T any] struct {
	ctor        entity.Constructor[T]
	fields      []ResolvedField
	byPath      map[string]ResolvedField
	opts        Options
	redisSchema []string
	indexHash   string
}

// New compiles the field definitions and options into a schema. The default
// keyspace prefix is the name of T (pointers are dereferenced).
func New[T any](ctor entity.Constructor[T], fields []Field, opts ...Option) (*Schema[T], error) {
	if ctor == nil {
		return nil, configErrorf("entity constructor must not be nil")
	}

	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}

	resolvedOpts, err := s.resolve(typeName[T]())
	if err != nil {
		return nil, err
	}

	sch := &Schema[T]{
		ctor:   ctor,
		byPath: map[string]ResolvedField{},
		opts:   resolvedOpts,
	}

	sch.fields, err = sch.resolveFields(fields, "", resolvedOpts.IndexedDefault, 0)
	if err != nil {
		return nil, err
	}

	sch.redisSchema = buildRedisSchema(sch.fields, resolvedOpts.DataStructure)
	sch.indexHash, err = computeIndexHash(resolvedOpts, sch.fields)
	if err != nil {
		return nil, fmt.Errorf("computing index hash: %w", err)
	}

	return sch, nil
}

func (s *Schema[T]) resolveFields(fields []Field, parent string, indexedDefault bool, depth int) ([]ResolvedField, error) {
	if depth > MaxNestingDepth {
		return nil, fieldErrorf(strings.TrimSuffix(parent, "."), "nested objects exceed the maximum depth of %d", MaxNestingDepth)
	}

	resolved := make([]ResolvedField, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		path := parent + f.Name
		if err := validateFieldName(f.Name, path); err != nil {
			return nil, err
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fieldErrorf(path, "field is declared more than once")
		}
		seen[f.Name] = struct{}{}

		info, found := LookupType(f.Type)
		if !found {
			return nil, fieldErrorf(path, "field '%s' is configured with a type of '%s': valid types include %s",
				path, f.Type, QuoteList(ValidTypes()))
		}

		if f.Sortable && !info.Sortable() {
			return nil, fieldErrorf(path, "fields of type '%s' cannot be sortable", f.Type)
		}
		if len(f.Fields) > 0 && !info.IsObject() {
			return nil, fieldErrorf(path, "nested fields can only be declared on fields of type '%s'", TypeObject)
		}

		indexed := indexedDefault
		if f.Indexed != nil {
			indexed = *f.Indexed
		}

		rf := ResolvedField{
			Path:     path,
			Name:     f.Name,
			Type:     info,
			Indexed:  indexed,
			Sortable: f.Sortable,
		}

		if info.IsObject() {
			nested, err := s.resolveFields(f.Fields, path+".", indexed, depth+1)
			if err != nil {
				return nil, err
			}
			rf.Fields = nested
		}

		s.byPath[path] = rf
		resolved = append(resolved, rf)
	}

	return resolved, nil
}

func validateFieldName(name, path string) error {
	switch {
	case name == "":
		return fieldErrorf(path, "field name must be a non-empty string")
	case strings.Contains(name, "."):
		return fieldErrorf(path, "field name must not contain '.'")
	case name == entity.DocumentKey:
		return fieldErrorf(path, "field name '%s' is reserved", entity.DocumentKey)
	}
	return nil
}

// Lookup returns the field at the given dotted path. Object fields are
// returned as well as leaf fields.
func (s *Schema[T]) Lookup(path string) (ResolvedField, bool) {
	f, found := s.byPath[path]
	return f, found
}

// Fields returns the top level resolved fields, in declaration order.
func (s *Schema[T]) Fields() []ResolvedField {
	return slices.Clone(s.fields)
}

// RedisSchema returns the index schema tokens, as used by FT.CREATE after the
// SCHEMA keyword.
func (s *Schema[T]) RedisSchema() []string {
	return slices.Clone(s.redisSchema)
}

// IndexHash returns the fingerprint of the schema. It changes whenever the
// index would need to be recreated.
func (s *Schema[T]) IndexHash() string { return s.indexHash }

func (s *Schema[T]) DataStructure() DataStructure { return s.opts.DataStructure }
func (s *Schema[T]) Prefix() string               { return s.opts.Prefix }
func (s *Schema[T]) IndexName() string            { return s.opts.IndexName }
func (s *Schema[T]) IndexHashName() string        { return s.opts.IndexHashName }
func (s *Schema[T]) IndexedDefault() bool         { return s.opts.IndexedDefault }
func (s *Schema[T]) UseStopWords() StopWordsMode  { return s.opts.UseStopWords }
func (s *Schema[T]) StopWords() []string          { return slices.Clone(s.opts.StopWords) }

// GenerateID returns a new entity id using the configured strategy.
func (s *Schema[T]) GenerateID() entity.ID {
	return entity.ID(s.opts.IDStrategy())
}

// KeyName returns the redis key of the entity with the given id.
func (s *Schema[T]) KeyName(id entity.ID) string {
	return s.opts.Prefix + ":" + string(id)
}

// NewEntity builds an entity using the schema entity constructor.
func (s *Schema[T]) NewEntity(id entity.ID, data *entity.Data) (T, error) {
	return s.ctor(id, data)
}

func typeName[T any]() string {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	// generic type names carry their type arguments, e.g. Box[int]
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}
