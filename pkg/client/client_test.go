// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xataio/ftsearch/pkg/client/mocks"
	"github.com/xataio/ftsearch/pkg/entity"
	"github.com/xataio/ftsearch/pkg/schema"
	"github.com/xataio/ftsearch/pkg/search"
)

var errTest = errors.New("oh noes")

func newTestSchema(t *testing.T) *schema.Schema[*entity.Entity] {
	s, err := schema.New(entity.New, []schema.Field{
		{Name: "name", Type: schema.TypeString},
		{Name: "age", Type: schema.TypeNumber, Sortable: true},
		{Name: "genre", Type: schema.TypeStringArray},
	}, schema.WithPrefix("Foo"))
	require.NoError(t, err)
	return s
}

func newData(kv ...any) *entity.Data {
	d := entity.NewData()
	for i := 0; i < len(kv); i += 2 {
		d.Set(kv[i].(string), kv[i+1])
	}
	return d
}

func TestRun(t *testing.T) {
	t.Parallel()

	testSchema := newTestSchema(t)

	tests := []struct {
		name     string
		search   func() *search.Search[*entity.Entity]
		opts     []RunOption
		executor *mocks.Executor

		wantEntities []*entity.Entity
		wantErr      error
		wantErrType  error
		wantCalls    uint64
	}{
		{
			name:   "ok",
			search: func() *search.Search[*entity.Entity] { return search.New(testSchema).Where("age").Gt(3) },
			executor: &mocks.Executor{
				ExecuteFn: func(ctx context.Context, i uint64, args []string) (any, error) {
					require.Equal(t, []string{"FT.SEARCH", "Foo:index", "@age:[(3 +inf]"}, args)
					return []any{
						int64(2),
						"Foo:01", []any{"name", "Bob", "age", "5"},
						"Foo:02", []any{"name", "Sue", "age", "7"},
					}, nil
				},
			},

			wantEntities: []*entity.Entity{
				{ID: "01", Data: newData("name", "Bob", "age", "5")},
				{ID: "02", Data: newData("name", "Sue", "age", "7")},
			},
			wantCalls: 1,
		},
		{
			name:   "ok - match all with limit and sort",
			search: func() *search.Search[*entity.Entity] { return search.New(testSchema) },
			opts:   []RunOption{WithLimit(10, 5), WithSortBy("age", SortDesc)},
			executor: &mocks.Executor{
				ExecuteFn: func(ctx context.Context, i uint64, args []string) (any, error) {
					require.Equal(t, []string{"FT.SEARCH", "Foo:index", "*", "LIMIT", "10", "5", "SORTBY", "age", "DESC"}, args)
					return []any{int64(11), []byte("Foo:bar:03"), nil}, nil
				},
			},

			wantEntities: []*entity.Entity{
				{ID: "03", Data: entity.NewData()},
			},
			wantCalls: 1,
		},
		{
			name:   "ok - no results",
			search: func() *search.Search[*entity.Entity] { return search.New(testSchema).Where("name").Equals("nobody") },
			executor: &mocks.Executor{
				ExecuteFn: func(ctx context.Context, i uint64, args []string) (any, error) {
					return []any{int64(0)}, nil
				},
			},

			wantEntities: []*entity.Entity{},
			wantCalls:    1,
		},
		{
			name:   "error - executor error is returned unchanged",
			search: func() *search.Search[*entity.Entity] { return search.New(testSchema) },
			executor: &mocks.Executor{
				ExecuteFn: func(ctx context.Context, i uint64, args []string) (any, error) {
					return nil, errTest
				},
			},

			wantErr:   errTest,
			wantCalls: 1,
		},
		{
			name:   "error - unknown field fails before the network",
			search: func() *search.Search[*entity.Entity] { return search.New(testSchema).Where("nope").Equals("x") },
			executor: &mocks.Executor{
				ExecuteFn: func(ctx context.Context, i uint64, args []string) (any, error) {
					return nil, errors.New("ExecuteFn: should not be called")
				},
			},

			wantErrType: &search.UnknownFieldError{},
			wantCalls:   0,
		},
		{
			name:   "error - sorting by a field that is not sortable",
			search: func() *search.Search[*entity.Entity] { return search.New(testSchema) },
			opts:   []RunOption{WithSortBy("name", SortAsc)},
			executor: &mocks.Executor{
				ExecuteFn: func(ctx context.Context, i uint64, args []string) (any, error) {
					return nil, errors.New("ExecuteFn: should not be called")
				},
			},

			wantErr:   ErrFieldNotSortable,
			wantCalls: 0,
		},
		{
			name:   "error - sorting by an unknown field",
			search: func() *search.Search[*entity.Entity] { return search.New(testSchema) },
			opts:   []RunOption{WithSortBy("nope", SortAsc)},
			executor: &mocks.Executor{
				ExecuteFn: func(ctx context.Context, i uint64, args []string) (any, error) {
					return nil, errors.New("ExecuteFn: should not be called")
				},
			},

			wantErrType: &search.UnknownFieldError{},
			wantCalls:   0,
		},
		{
			name:   "error - invalid sort order",
			search: func() *search.Search[*entity.Entity] { return search.New(testSchema) },
			opts:   []RunOption{WithSortBy("age", "SIDEWAYS")},
			executor: &mocks.Executor{
				ExecuteFn: func(ctx context.Context, i uint64, args []string) (any, error) {
					return nil, errors.New("ExecuteFn: should not be called")
				},
			},

			wantErr:   ErrInvalidSortOrder,
			wantCalls: 0,
		},
		{
			name:   "error - negative limit",
			search: func() *search.Search[*entity.Entity] { return search.New(testSchema) },
			opts:   []RunOption{WithLimit(-1, 10)},
			executor: &mocks.Executor{
				ExecuteFn: func(ctx context.Context, i uint64, args []string) (any, error) {
					return nil, errors.New("ExecuteFn: should not be called")
				},
			},

			wantErr:   ErrInvalidLimit,
			wantCalls: 0,
		},
		{
			name:   "error - malformed response",
			search: func() *search.Search[*entity.Entity] { return search.New(testSchema) },
			executor: &mocks.Executor{
				ExecuteFn: func(ctx context.Context, i uint64, args []string) (any, error) {
					return []any{int64(1), "Foo:01"}, nil
				},
			},

			wantErrType: &DecodingError{},
			wantCalls:   1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := New(tc.executor)
			entities, err := Run(context.Background(), c, tc.search(), tc.opts...)
			switch {
			case tc.wantErr != nil:
				require.ErrorIs(t, err, tc.wantErr)
			case tc.wantErrType != nil:
				require.IsType(t, tc.wantErrType, err)
			default:
				require.NoError(t, err)
			}
			require.Equal(t, tc.wantEntities, entities)
			require.Equal(t, tc.wantCalls, tc.executor.GetExecuteCalls())
		})
	}
}

func TestRunWithCount(t *testing.T) {
	t.Parallel()

	executor := &mocks.Executor{
		ExecuteFn: func(ctx context.Context, i uint64, args []string) (any, error) {
			require.Equal(t, []string{"FT.SEARCH", "Foo:index", "@genre:{drama}", "LIMIT", "0", "1"}, args)
			return []any{int64(42), "Foo:01", []any{"genre", "drama"}}, nil
		},
	}

	s := search.New(newTestSchema(t)).Where("genre").Contains("drama")
	res, err := RunWithCount(context.Background(), New(executor), s, WithLimit(0, 1))
	require.NoError(t, err)
	require.Equal(t, int64(42), res.Count)
	require.Len(t, res.Entities, 1)
	require.Equal(t, entity.ID("01"), res.Entities[0].ID)
}

func TestCount(t *testing.T) {
	t.Parallel()

	executor := &mocks.Executor{
		ExecuteFn: func(ctx context.Context, i uint64, args []string) (any, error) {
			require.Equal(t, []string{"FT.SEARCH", "Foo:index", "*", "LIMIT", "0", "0"}, args)
			return []any{int64(7)}, nil
		},
	}

	count, err := Count(context.Background(), New(executor), search.New(newTestSchema(t)))
	require.NoError(t, err)
	require.Equal(t, int64(7), count)
}

func TestFirst(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply []any

		wantFound bool
		wantID    entity.ID
	}{
		{
			name:      "found",
			reply:     []any{int64(3), "Foo:01", []any{"name", "Bob"}},
			wantFound: true,
			wantID:    "01",
		},
		{
			name:      "not found",
			reply:     []any{int64(0)},
			wantFound: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			executor := &mocks.Executor{
				ExecuteFn: func(ctx context.Context, i uint64, args []string) (any, error) {
					require.Equal(t, []string{"FT.SEARCH", "Foo:index", "*", "LIMIT", "0", "1"}, args)
					return tc.reply, nil
				},
			}

			e, found, err := First(context.Background(), New(executor), search.New(newTestSchema(t)))
			require.NoError(t, err)
			require.Equal(t, tc.wantFound, found)
			if tc.wantFound {
				require.Equal(t, tc.wantID, e.ID)
			} else {
				require.Nil(t, e)
			}
		})
	}
}

func TestFirst_KeepsCallerOptions(t *testing.T) {
	t.Parallel()

	executor := &mocks.Executor{
		ExecuteFn: func(ctx context.Context, i uint64, args []string) (any, error) {
			return []any{int64(0)}, nil
		},
	}

	opts := make([]RunOption, 1, 2)
	opts[0] = WithLimit(5, 10)

	_, _, err := First(context.Background(), New(executor), search.New(newTestSchema(t)), opts...)
	require.NoError(t, err)
	require.Len(t, opts, 1)
	require.Nil(t, opts[:2][1])

	args, err := Command(search.New(newTestSchema(t)), opts...)
	require.NoError(t, err)
	require.Equal(t, []string{"FT.SEARCH", "Foo:index", "*", "LIMIT", "5", "10"}, args)
}

type person struct {
	ID   entity.ID `json:"-"`
	Name string    `json:"name"`
	Age  int       `json:"age"`
	City string    `json:"city"`
}

func TestRun_Hydration(t *testing.T) {
	t.Parallel()

	sch, err := schema.New(entity.Decoded(func(p *person, id entity.ID) { p.ID = id }), []schema.Field{
		{Name: "name", Type: schema.TypeString},
		{Name: "age", Type: schema.TypeNumber},
	})
	require.NoError(t, err)
	require.Equal(t, "person", sch.Prefix())

	executor := &mocks.Executor{
		ExecuteFn: func(ctx context.Context, i uint64, args []string) (any, error) {
			return []any{
				int64(2),
				"person:01", []any{"$", `{"name":"Bob","age":5,"city":"Lisbon"}`},
				"person:02", []any{"$", []byte(`{"name":"Sue","age":7}`)},
			}, nil
		},
	}

	people, err := Run(context.Background(), New(executor), search.New(sch))
	require.NoError(t, err)
	require.Equal(t, []*person{
		{ID: "01", Name: "Bob", Age: 5, City: "Lisbon"},
		{ID: "02", Name: "Sue", Age: 7},
	}, people)
}

func TestRun_ConstructorError(t *testing.T) {
	t.Parallel()

	sch, err := schema.New(func(id entity.ID, data *entity.Data) (*person, error) {
		return nil, errTest
	}, []schema.Field{}, schema.WithPrefix("person"))
	require.NoError(t, err)

	executor := &mocks.Executor{
		ExecuteFn: func(ctx context.Context, i uint64, args []string) (any, error) {
			return []any{int64(1), "person:01", []any{}}, nil
		},
	}

	_, err = Run(context.Background(), New(executor), search.New(sch))
	require.ErrorIs(t, err, errTest)
}
