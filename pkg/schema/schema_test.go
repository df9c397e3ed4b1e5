// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"github.com/xataio/ftsearch/pkg/entity"
)

type TestEntity struct {
	id   entity.ID
	data *entity.Data
}

func newTestEntity(id entity.ID, data *entity.Data) (*TestEntity, error) {
	return &TestEntity{id: id, data: data}, nil
}

var ulidRegexp = regexp.MustCompile(`^[0-9ABCDEFGHJKMNPQRSTVWXYZ]{26}$`)

func populatedFields() []Field {
	return []Field{
		{Name: "aString", Type: TypeString}, {Name: "anotherString", Type: TypeString},
		{Name: "someText", Type: TypeText}, {Name: "someOtherText", Type: TypeText},
		{Name: "aNumber", Type: TypeNumber}, {Name: "anotherNumber", Type: TypeNumber},
		{Name: "aBoolean", Type: TypeBoolean}, {Name: "anotherBoolean", Type: TypeBoolean},
		{Name: "aPoint", Type: TypePoint}, {Name: "anotherPoint", Type: TypePoint},
		{Name: "aDate", Type: TypeDate}, {Name: "anotherDate", Type: TypeDate},
		{Name: "someStrings", Type: TypeStringArray}, {Name: "someOtherStrings", Type: TypeStringArray},
	}
}

var populatedRedisSchema = []string{
	"$.aString", "AS", "aString", "TAG", "SEPARATOR", "|",
	"$.anotherString", "AS", "anotherString", "TAG", "SEPARATOR", "|",
	"$.someText", "AS", "someText", "TEXT",
	"$.someOtherText", "AS", "someOtherText", "TEXT",
	"$.aNumber", "AS", "aNumber", "NUMERIC",
	"$.anotherNumber", "AS", "anotherNumber", "NUMERIC",
	"$.aBoolean", "AS", "aBoolean", "TAG",
	"$.anotherBoolean", "AS", "anotherBoolean", "TAG",
	"$.aPoint", "AS", "aPoint", "GEO",
	"$.anotherPoint", "AS", "anotherPoint", "GEO",
	"$.aDate", "AS", "aDate", "NUMERIC",
	"$.anotherDate", "AS", "anotherDate", "NUMERIC",
	"$.someStrings[*]", "AS", "someStrings", "TAG", "SEPARATOR", "|",
	"$.someOtherStrings[*]", "AS", "someOtherStrings", "TAG", "SEPARATOR", "|",
}

func TestSchema_Empty(t *testing.T) {
	t.Parallel()

	s, err := New(newTestEntity, []Field{})
	require.NoError(t, err)

	require.Empty(t, s.RedisSchema())
	require.Equal(t, DataStructureJSON, s.DataStructure())
	require.Equal(t, "TestEntity", s.Prefix())
	require.Equal(t, "TestEntity:index", s.IndexName())
	require.Equal(t, "TestEntity:index:hash", s.IndexHashName())
	require.True(t, s.IndexedDefault())
	require.Equal(t, StopWordsDefault, s.UseStopWords())
	require.Equal(t, []string{}, s.StopWords())
	require.Regexp(t, ulidRegexp, string(s.GenerateID()))
	require.NotEmpty(t, s.IndexHash())
	require.Equal(t, "TestEntity:01ABC", s.KeyName("01ABC"))

	e, err := s.NewEntity("01ABC", entity.NewData())
	require.NoError(t, err)
	require.Equal(t, entity.ID("01ABC"), e.id)
}

func TestSchema_IndexedDefault(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields []Field

		wantRedisSchema []string
	}{
		{
			name:            "explicitly indexed field",
			fields:          []Field{{Name: "aString", Type: TypeString, Indexed: Ptr(true)}},
			wantRedisSchema: []string{"aString", "AS", "aString", "TAG", "SEPARATOR", "|"},
		},
		{
			name:            "field without explicit indexing",
			fields:          []Field{{Name: "aString", Type: TypeString}},
			wantRedisSchema: []string{"aString", "AS", "aString", "TAG", "SEPARATOR", "|", "NOINDEX"},
		},
		{
			name:            "sortable field without explicit indexing",
			fields:          []Field{{Name: "aNumber", Type: TypeNumber, Sortable: true}},
			wantRedisSchema: []string{"aNumber", "AS", "aNumber", "NUMERIC", "SORTABLE", "NOINDEX"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, err := New(newTestEntity, tc.fields, WithIndexedDefault(false), WithDataStructure(DataStructureHash))
			require.NoError(t, err)
			require.Equal(t, tc.wantRedisSchema, s.RedisSchema())
		})
	}
}

func TestSchema_RedisSchema(t *testing.T) {
	t.Parallel()

	deeplyEmbedded := []Field{
		{Name: "aNumber", Type: TypeNumber},
		{Name: "aString", Type: TypeString},
		{Name: "someText", Type: TypeText},
	}
	embedded := []Field{
		{Name: "aNumber", Type: TypeNumber},
		{Name: "aString", Type: TypeString},
		{Name: "someText", Type: TypeText},
		{Name: "aDeeperObject", Type: TypeObject, Fields: deeplyEmbedded},
	}

	tests := []struct {
		name   string
		fields []Field
		opts   []Option

		wantRedisSchema []string
	}{
		{
			name:            "well populated",
			fields:          populatedFields(),
			wantRedisSchema: populatedRedisSchema,
		},
		{
			name:   "deeply populated",
			fields: append(populatedFields(), Field{Name: "anObject", Type: TypeObject, Fields: embedded}),
			wantRedisSchema: append(append([]string{}, populatedRedisSchema...),
				"$.anObject.aNumber", "AS", "anObject.aNumber", "NUMERIC",
				"$.anObject.aString", "AS", "anObject.aString", "TAG", "SEPARATOR", "|",
				"$.anObject.someText", "AS", "anObject.someText", "TEXT",
				"$.anObject.aDeeperObject.aNumber", "AS", "anObject.aDeeperObject.aNumber", "NUMERIC",
				"$.anObject.aDeeperObject.aString", "AS", "anObject.aDeeperObject.aString", "TAG", "SEPARATOR", "|",
				"$.anObject.aDeeperObject.someText", "AS", "anObject.aDeeperObject.someText", "TEXT",
			),
		},
		{
			name: "hash data structure",
			fields: []Field{
				{Name: "someStrings", Type: TypeStringArray},
				{Name: "aDate", Type: TypeDate, Sortable: true},
			},
			opts: []Option{WithDataStructure(DataStructureHash)},
			wantRedisSchema: []string{
				"someStrings", "AS", "someStrings", "TAG", "SEPARATOR", "|",
				"aDate", "AS", "aDate", "NUMERIC", "SORTABLE",
			},
		},
		{
			name: "object not indexed is inherited by nested fields",
			fields: []Field{
				{Name: "anObject", Type: TypeObject, Indexed: Ptr(false), Fields: []Field{
					{Name: "aNumber", Type: TypeNumber},
					{Name: "aString", Type: TypeString, Indexed: Ptr(true)},
				}},
			},
			wantRedisSchema: []string{
				"$.anObject.aNumber", "AS", "anObject.aNumber", "NUMERIC", "NOINDEX",
				"$.anObject.aString", "AS", "anObject.aString", "TAG", "SEPARATOR", "|",
			},
		},
		{
			name: "empty object emits nothing",
			fields: []Field{
				{Name: "anObject", Type: TypeObject},
				{Name: "aBoolean", Type: TypeBoolean},
			},
			wantRedisSchema: []string{"$.aBoolean", "AS", "aBoolean", "TAG"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, err := New(newTestEntity, tc.fields, tc.opts...)
			require.NoError(t, err)
			require.Equal(t, tc.wantRedisSchema, s.RedisSchema())
		})
	}
}

func TestSchema_Lookup(t *testing.T) {
	t.Parallel()

	s, err := New(newTestEntity, []Field{
		{Name: "genre", Type: TypeStringArray},
		{Name: "meta", Type: TypeObject, Fields: []Field{
			{Name: "year", Type: TypeNumber, Sortable: true},
		}},
	})
	require.NoError(t, err)

	f, found := s.Lookup("genre")
	require.True(t, found)
	require.Equal(t, PredicateArray, f.Type.Predicate)

	f, found = s.Lookup("meta")
	require.True(t, found)
	require.True(t, f.Type.IsObject())
	require.Len(t, f.Fields, 1)

	f, found = s.Lookup("meta.year")
	require.True(t, found)
	require.Equal(t, "year", f.Name)
	require.Equal(t, PredicateNumber, f.Type.Predicate)
	require.True(t, f.Sortable)

	_, found = s.Lookup("year")
	require.False(t, found)
}

func TestSchema_Fields(t *testing.T) {
	t.Parallel()

	s, err := New(newTestEntity, []Field{
		{Name: "title", Type: TypeText, Indexed: Ptr(false)},
		{Name: "meta", Type: TypeObject, Indexed: Ptr(false), Fields: []Field{
			{Name: "year", Type: TypeNumber, Sortable: true},
			{Name: "tags", Type: TypeStringArray, Indexed: Ptr(true)},
		}},
	})
	require.NoError(t, err)

	compareFields(t, []ResolvedField{
		{Path: "title", Name: "title", Indexed: false},
		{Path: "meta", Name: "meta", Indexed: false, Fields: []ResolvedField{
			{Path: "meta.year", Name: "year", Indexed: false, Sortable: true},
			{Path: "meta.tags", Name: "tags", Indexed: true},
		}},
	}, s.Fields())
}

func compareFields(t *testing.T, want, got []ResolvedField) {
	diff := cmp.Diff(got, want, cmpopts.IgnoreFields(ResolvedField{}, "Type"))
	require.Empty(t, diff, fmt.Sprintf("got: \n%v, \nwant \n%v, \ndiff: \n%s", got, want, diff))
}

func TestSchema_Options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option

		wantPrefix        string
		wantIndexName     string
		wantIndexHashName string
	}{
		{
			name:              "prefix",
			opts:              []Option{WithPrefix("test-prefix")},
			wantPrefix:        "test-prefix",
			wantIndexName:     "test-prefix:index",
			wantIndexHashName: "test-prefix:index:hash",
		},
		{
			name:              "index name ignores the prefix",
			opts:              []Option{WithIndexName("test-index")},
			wantPrefix:        "TestEntity",
			wantIndexName:     "test-index",
			wantIndexHashName: "TestEntity:index:hash",
		},
		{
			name:              "index hash name ignores the prefix",
			opts:              []Option{WithIndexHashName("test-index-hash")},
			wantPrefix:        "TestEntity",
			wantIndexName:     "TestEntity:index",
			wantIndexHashName: "test-index-hash",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, err := New(newTestEntity, []Field{}, tc.opts...)
			require.NoError(t, err)
			require.Equal(t, tc.wantPrefix, s.Prefix())
			require.Equal(t, tc.wantIndexName, s.IndexName())
			require.Equal(t, tc.wantIndexHashName, s.IndexHashName())
		})
	}
}

func TestSchema_IDStrategy(t *testing.T) {
	t.Parallel()

	s, err := New(newTestEntity, []Field{}, WithIDStrategy(func() string { return "1" }))
	require.NoError(t, err)
	require.Equal(t, entity.ID("1"), s.GenerateID())

	s, err = New(newTestEntity, []Field{}, WithIDStrategy(UUIDStrategy))
	require.NoError(t, err)
	require.Len(t, string(s.GenerateID()), 36)

	s, err = New(newTestEntity, []Field{}, WithIDStrategy(XIDStrategy))
	require.NoError(t, err)
	require.Len(t, string(s.GenerateID()), 20)
}

func TestSchema_TypeNameFromPointerAndValue(t *testing.T) {
	t.Parallel()

	byValue := func(id entity.ID, data *entity.Data) (TestEntity, error) {
		return TestEntity{id: id, data: data}, nil
	}
	s, err := New(byValue, []Field{})
	require.NoError(t, err)
	require.Equal(t, "TestEntity", s.Prefix())

	anonymous := func(id entity.ID, data *entity.Data) (map[string]any, error) {
		return nil, nil
	}
	_, err = New(anonymous, []Field{})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	s2, err := New(anonymous, []Field{}, WithPrefix("things"))
	require.NoError(t, err)
	require.Equal(t, "things", s2.Prefix())
}

func TestSchema_Misconfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields []Field
		opts   []Option

		wantField  string
		wantReason string
	}{
		{
			name:       "missing field type",
			fields:     []Field{{Name: "aField"}},
			wantField:  "aField",
			wantReason: "field 'aField' is configured with a type of '': valid types include 'boolean', 'date', 'number', 'object', 'point', 'string', 'string[]', and 'text'",
		},
		{
			name:       "invalid field type",
			fields:     []Field{{Name: "aField", Type: "foo"}},
			wantField:  "aField",
			wantReason: "field 'aField' is configured with a type of 'foo': valid types include 'boolean', 'date', 'number', 'object', 'point', 'string', 'string[]', and 'text'",
		},
		{
			name: "invalid nested field type",
			fields: []Field{{Name: "anObject", Type: TypeObject, Fields: []Field{
				{Name: "aField", Type: "array"},
			}}},
			wantField:  "anObject.aField",
			wantReason: "field 'anObject.aField' is configured with a type of 'array': valid types include 'boolean', 'date', 'number', 'object', 'point', 'string', 'string[]', and 'text'",
		},
		{
			name:       "invalid data structure",
			opts:       []Option{WithDataStructure("FOO")},
			wantReason: "invalid data structure 'FOO': valid data structures are 'HASH' and 'JSON'",
		},
		{
			name:       "invalid stop words mode",
			opts:       []Option{WithUseStopWords("FOO")},
			wantReason: "invalid stop words mode 'FOO': valid values are 'OFF', 'DEFAULT', and 'CUSTOM'",
		},
		{
			name:       "empty prefix",
			opts:       []Option{WithPrefix("")},
			wantReason: "prefix must be a non-empty string",
		},
		{
			name:       "empty index name",
			opts:       []Option{WithIndexName("")},
			wantReason: "index name must be a non-empty string",
		},
		{
			name:       "empty index hash name",
			opts:       []Option{WithIndexHashName("")},
			wantReason: "index hash name must be a non-empty string",
		},
		{
			name:       "nil id strategy",
			opts:       []Option{WithIDStrategy(nil)},
			wantReason: "id strategy must be a non-nil function that takes no arguments and returns a string",
		},
		{
			name:       "duplicate field",
			fields:     []Field{{Name: "a", Type: TypeText}, {Name: "a", Type: TypeNumber}},
			wantField:  "a",
			wantReason: "field is declared more than once",
		},
		{
			name:       "empty field name",
			fields:     []Field{{Name: "", Type: TypeText}},
			wantReason: "field name must be a non-empty string",
		},
		{
			name:       "dotted field name",
			fields:     []Field{{Name: "a.b", Type: TypeText}},
			wantField:  "a.b",
			wantReason: "field name must not contain '.'",
		},
		{
			name:       "sortable point",
			fields:     []Field{{Name: "where", Type: TypePoint, Sortable: true}},
			wantField:  "where",
			wantReason: "fields of type 'point' cannot be sortable",
		},
		{
			name:       "nested fields on non object",
			fields:     []Field{{Name: "a", Type: TypeText, Fields: []Field{{Name: "b", Type: TypeText}}}},
			wantField:  "a",
			wantReason: "nested fields can only be declared on fields of type 'object'",
		},
		{
			name:       "nesting too deep",
			fields:     nestedFields(MaxNestingDepth + 2),
			wantReason: "nested objects exceed the maximum depth of 8",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fields := tc.fields
			if fields == nil {
				fields = []Field{}
			}
			s, err := New(newTestEntity, fields, tc.opts...)
			require.Nil(t, s)

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, tc.wantReason, cfgErr.Reason)
			if tc.wantField != "" {
				require.Equal(t, tc.wantField, cfgErr.Field)
			}
		})
	}

	t.Run("nil constructor", func(t *testing.T) {
		t.Parallel()
		_, err := New[*TestEntity](nil, []Field{})
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})
}

func TestSchema_MaxNestingDepth(t *testing.T) {
	t.Parallel()

	_, err := New(newTestEntity, nestedFields(MaxNestingDepth+1))
	require.NoError(t, err)
}

// nestedFields returns a chain of object fields with the given number of
// levels, ending with a number field.
func nestedFields(levels int) []Field {
	fields := []Field{{Name: "leaf", Type: TypeNumber}}
	for i := 0; i < levels-1; i++ {
		fields = []Field{{Name: "level", Type: TypeObject, Fields: fields}}
	}
	return fields
}
