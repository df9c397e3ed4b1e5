// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	loglib "github.com/xataio/ftsearch/pkg/log"
	"github.com/xataio/ftsearch/pkg/search"
)

// Executor sends a single command to the search engine and returns its raw
// reply. Replies are expected in RESP2 shape: arrays as []any, integers as
// int64 and bulk strings as string.
type Executor interface {
	Execute(ctx context.Context, args []string) (any, error)
}

// Client runs searches through an executor and hydrates the results into
// entities. It holds no state other than its collaborators and is safe for
// concurrent use.
type Client struct {
	executor Executor
	logger   loglib.Logger
}

type Option func(*Client)

const SearchCommand = "FT.SEARCH"

type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

var (
	ErrInvalidLimit     = errors.New("limit offset and count must not be negative")
	ErrInvalidSortOrder = errors.New("sort order must be ASC or DESC")
	ErrFieldNotSortable = errors.New("field is not sortable")
)

// Result holds the total number of documents matching a search, which can be
// greater than the number of entities returned when a limit is set.
type Result[T any] struct {
	Count    int64
	Entities []T
}

type runOptions struct {
	limit  *limit
	sortBy *sortBy
}

type limit struct {
	offset int
	count  int
}

type sortBy struct {
	field string
	order SortOrder
}

type RunOption func(*runOptions)

func New(executor Executor, opts ...Option) *Client {
	c := &Client{
		executor: executor,
		logger:   loglib.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithLogger(l loglib.Logger) Option {
	return func(c *Client) {
		c.logger = loglib.NewModuleLogger(l, "search_client")
	}
}

// WithLimit returns count entities, skipping the first offset ones. The
// engine default is the first 10 entities.
func WithLimit(offset, count int) RunOption {
	return func(o *runOptions) {
		o.limit = &limit{offset: offset, count: count}
	}
}

// WithSortBy sorts the entities on a sortable field.
func WithSortBy(field string, order SortOrder) RunOption {
	return func(o *runOptions) {
		o.sortBy = &sortBy{field: field, order: order}
	}
}

// Run executes the search and returns the matching entities in the order
// returned by the engine. Builder errors are returned before anything is
// sent, executor errors are returned unchanged.
func Run[T any](ctx context.Context, c *Client, s *search.Search[T], opts ...RunOption) ([]T, error) {
	res, err := RunWithCount(ctx, c, s, opts...)
	if err != nil {
		return nil, err
	}
	return res.Entities, nil
}

// RunWithCount executes the search and returns the entities along with the
// total number of matching documents.
func RunWithCount[T any](ctx context.Context, c *Client, s *search.Search[T], opts ...RunOption) (*Result[T], error) {
	args, err := Command(s, opts...)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("running search", loglib.Fields{
		loglib.IndexField:   s.Schema().IndexName(),
		loglib.CommandField: args,
	})
	reply, err := c.executor.Execute(ctx, args)
	if err != nil {
		return nil, err
	}

	resp, err := decodeResponse(reply)
	if err != nil {
		return nil, err
	}
	c.logger.Trace("search response decoded", loglib.Fields{
		loglib.IndexField: s.Schema().IndexName(),
		"count":           resp.count,
		"returned":        len(resp.documents),
	})

	entities := make([]T, 0, len(resp.documents))
	for _, doc := range resp.documents {
		e, err := s.Schema().NewEntity(doc.id, doc.data)
		if err != nil {
			return nil, fmt.Errorf("constructing entity %s: %w", doc.id, err)
		}
		entities = append(entities, e)
	}

	return &Result[T]{Count: resp.count, Entities: entities}, nil
}

// Count returns the number of documents matching the search, without
// retrieving them.
func Count[T any](ctx context.Context, c *Client, s *search.Search[T]) (int64, error) {
	res, err := RunWithCount(ctx, c, s, WithLimit(0, 0))
	if err != nil {
		return 0, err
	}
	return res.Count, nil
}

// First returns the first entity matching the search. The boolean is false
// when no document matches.
func First[T any](ctx context.Context, c *Client, s *search.Search[T], opts ...RunOption) (T, bool, error) {
	var zero T
	entities, err := Run(ctx, c, s, slices.Concat(opts, []RunOption{WithLimit(0, 1)})...)
	if err != nil {
		return zero, false, err
	}
	if len(entities) == 0 {
		return zero, false, nil
	}
	return entities[0], true, nil
}

// Command returns the FT.SEARCH command for the search.
func Command[T any](s *search.Search[T], opts ...RunOption) ([]string, error) {
	query, err := s.Query()
	if err != nil {
		return nil, err
	}

	o := &runOptions{}
	for _, opt := range opts {
		opt(o)
	}

	args := []string{SearchCommand, s.Schema().IndexName(), query}

	if o.limit != nil {
		if o.limit.offset < 0 || o.limit.count < 0 {
			return nil, ErrInvalidLimit
		}
		args = append(args, "LIMIT", strconv.Itoa(o.limit.offset), strconv.Itoa(o.limit.count))
	}

	if o.sortBy != nil {
		f, found := s.Schema().Lookup(o.sortBy.field)
		if !found {
			return nil, &search.UnknownFieldError{Field: o.sortBy.field}
		}
		if !f.Sortable {
			return nil, fmt.Errorf("sorting by %s: %w", o.sortBy.field, ErrFieldNotSortable)
		}
		order := o.sortBy.order
		if order == "" {
			order = SortAsc
		}
		if order != SortAsc && order != SortDesc {
			return nil, ErrInvalidSortOrder
		}
		args = append(args, "SORTBY", f.Path, string(order))
	}

	return args, nil
}
