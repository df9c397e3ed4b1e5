// SPDX-License-Identifier: Apache-2.0

package search

import (
	"github.com/xataio/ftsearch/pkg/schema"
)

// MatchAll is the query matching every document in the index.
const MatchAll = "*"

// SubSearchFunc builds a sub search on the fresh search it is given.
type SubSearchFunc[T any] func(s *Search[T]) *Search[T]

// Search builds a predicate tree for entities of type T. Every builder
// method updates the root of the tree, combining the new predicate with the
// existing root using the combinator the method names.
//
// A Search is a single writer builder and must not be used concurrently.
// The schema it references can be shared.
type Search[T any] struct {
	schema *schema.Schema[T]
	root   Node
	err    error
}

func New[T any](s *schema.Schema[T]) *Search[T] {
	return &Search[T]{schema: s}
}

func (s *Search[T]) Schema() *schema.Schema[T] {
	return s.schema
}

// Root returns the root of the predicate tree, nil when the search matches
// every document.
func (s *Search[T]) Root() Node {
	return s.root
}

// Where is an alias of AndWhere.
func (s *Search[T]) Where(field string) *Where[T] {
	return s.AndWhere(field)
}

// AndWhere creates a predicate on the field and combines it into the root
// with AND.
func (s *Search[T]) AndWhere(field string) *Where[T] {
	p := s.newPredicate(field)
	if p != nil {
		s.root = and(s.root, p)
	}
	return &Where[T]{search: s, pred: p}
}

// OrWhere creates a predicate on the field and combines it into the root
// with OR.
func (s *Search[T]) OrWhere(field string) *Where[T] {
	p := s.newPredicate(field)
	if p != nil {
		s.root = or(s.root, p)
	}
	return &Where[T]{search: s, pred: p}
}

// AndWhereFunc runs fn on a fresh search and combines its root, within
// parentheses, into the root with AND.
func (s *Search[T]) AndWhereFunc(fn SubSearchFunc[T]) *Search[T] {
	if sub := s.subSearch(fn); sub != nil {
		s.root = and(s.root, s.group(sub))
	}
	return s
}

// OrWhereFunc runs fn on a fresh search and combines its root, within
// parentheses, into the root with OR.
func (s *Search[T]) OrWhereFunc(fn SubSearchFunc[T]) *Search[T] {
	if sub := s.subSearch(fn); sub != nil {
		s.root = or(s.root, s.group(sub))
	}
	return s
}

// Or runs every function on a fresh search, combines their roots with OR
// and combines the result into the root with AND. Functions that produce no
// predicate are ignored.
func (s *Search[T]) Or(fns ...SubSearchFunc[T]) *Search[T] {
	var combined Node
	for _, fn := range fns {
		if sub := s.subSearch(fn); sub != nil {
			combined = or(combined, sub)
		}
	}
	if combined != nil {
		s.root = and(s.root, combined)
	}
	return s
}

// Err returns the first error recorded while building the search.
func (s *Search[T]) Err() error {
	return s.err
}

// Query renders the predicate tree into the query language. It returns the
// first error recorded by the builder, if any.
func (s *Search[T]) Query() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.root == nil {
		return MatchAll, nil
	}
	if err := validate(s.root); err != nil {
		return "", err
	}
	return s.root.String(), nil
}

// String returns the rendered query, or an empty string if the search is
// not valid.
func (s *Search[T]) String() string {
	q, err := s.Query()
	if err != nil {
		return ""
	}
	return q
}

func (s *Search[T]) newPredicate(field string) predicate {
	if s.err != nil {
		return nil
	}
	f, found := s.schema.Lookup(field)
	if !found {
		s.setErr(&UnknownFieldError{Field: field})
		return nil
	}
	p := newPredicate(f, s.schema.DataStructure())
	if p == nil {
		s.setErr(&UnsupportedFieldTypeError{
			Field: field,
			Type:  f.Type.Type,
			Valid: schema.PredicateTypes(),
		})
		return nil
	}
	return p
}

func (s *Search[T]) subSearch(fn SubSearchFunc[T]) Node {
	if fn == nil || s.err != nil {
		return nil
	}
	fresh := New(s.schema)
	sub := fn(fresh)
	if sub == nil {
		sub = fresh
	}
	if sub.err != nil {
		s.setErr(sub.err)
		return nil
	}
	return sub.root
}

// group wraps a sub search root in parentheses, unless it is the first
// predicate of the tree.
func (s *Search[T]) group(n Node) Node {
	if s.root == nil {
		return n
	}
	return &GroupNode{Inner: n}
}

func (s *Search[T]) setErr(err error) {
	if s.err == nil {
		s.err = err
	}
}
