// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSchema_IndexHash(t *testing.T) {
	t.Parallel()

	baseFields := func() []Field {
		return []Field{
			{Name: "aString", Type: TypeString},
			{Name: "aNumber", Type: TypeNumber, Sortable: true},
			{Name: "anObject", Type: TypeObject, Fields: []Field{
				{Name: "someText", Type: TypeText},
			}},
		}
	}

	base, err := New(newTestEntity, baseFields())
	require.NoError(t, err)

	digest, err := base64.StdEncoding.DecodeString(base.IndexHash())
	require.NoError(t, err)
	require.Len(t, digest, 20)

	tests := []struct {
		name   string
		fields func() []Field
		opts   []Option

		wantSameHash bool
	}{
		{
			name:         "identical definition",
			fields:       baseFields,
			wantSameHash: true,
		},
		{
			name:         "explicit defaults",
			fields:       baseFields,
			opts:         []Option{WithDataStructure(DataStructureJSON), WithIndexedDefault(true), WithUseStopWords(StopWordsDefault)},
			wantSameHash: true,
		},
		{
			name:         "id strategy",
			fields:       baseFields,
			opts:         []Option{WithIDStrategy(XIDStrategy)},
			wantSameHash: true,
		},
		{
			name:         "stop words outside of custom mode",
			fields:       baseFields,
			opts:         []Option{WithStopWords("foo", "bar")},
			wantSameHash: true,
		},
		{
			name:   "data structure",
			fields: baseFields,
			opts:   []Option{WithDataStructure(DataStructureHash)},
		},
		{
			name:   "prefix",
			fields: baseFields,
			opts:   []Option{WithPrefix("prefix")},
		},
		{
			name:   "index name",
			fields: baseFields,
			opts:   []Option{WithIndexName("index")},
		},
		{
			name:   "index hash name",
			fields: baseFields,
			opts:   []Option{WithIndexHashName("index-hash")},
		},
		{
			name:   "indexed default",
			fields: baseFields,
			opts:   []Option{WithIndexedDefault(false)},
		},
		{
			name:   "stop words off",
			fields: baseFields,
			opts:   []Option{WithUseStopWords(StopWordsOff)},
		},
		{
			name:   "custom stop words",
			fields: baseFields,
			opts:   []Option{WithUseStopWords(StopWordsCustom), WithStopWords("foo")},
		},
		{
			name: "field type",
			fields: func() []Field {
				f := baseFields()
				f[0].Type = TypeText
				return f
			},
		},
		{
			name: "field order",
			fields: func() []Field {
				f := baseFields()
				f[0], f[1] = f[1], f[0]
				return f
			},
		},
		{
			name: "sortable",
			fields: func() []Field {
				f := baseFields()
				f[1].Sortable = false
				return f
			},
		},
		{
			name: "nested field indexing",
			fields: func() []Field {
				f := baseFields()
				f[2].Fields[0].Indexed = Ptr(false)
				return f
			},
		},
		{
			name: "added field",
			fields: func() []Field {
				return append(baseFields(), Field{Name: "aDate", Type: TypeDate})
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, err := New(newTestEntity, tc.fields(), tc.opts...)
			require.NoError(t, err)
			if tc.wantSameHash {
				require.Equal(t, base.IndexHash(), s.IndexHash())
			} else {
				require.NotEqual(t, base.IndexHash(), s.IndexHash())
			}
		})
	}

	t.Run("custom stop words list", func(t *testing.T) {
		t.Parallel()

		a, err := New(newTestEntity, baseFields(), WithUseStopWords(StopWordsCustom), WithStopWords("foo"))
		require.NoError(t, err)
		b, err := New(newTestEntity, baseFields(), WithUseStopWords(StopWordsCustom), WithStopWords("bar"))
		require.NoError(t, err)
		require.NotEqual(t, a.IndexHash(), b.IndexHash())
	})
}

func TestSchema_IndexHashDeterministic(t *testing.T) {
	t.Parallel()

	types := []FieldType{TypeString, TypeText, TypeNumber, TypeBoolean, TypePoint, TypeDate, TypeStringArray}

	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-zA-Z][a-zA-Z0-9_]{0,10}`), 0, 12, rapid.ID[string]).Draw(t, "names")
		fields := make([]Field, 0, len(names))
		for i, name := range names {
			fields = append(fields, Field{
				Name: name,
				Type: rapid.SampledFrom(types).Draw(t, "type"),
			})
			if rapid.Bool().Draw(t, "indexed") {
				fields[i].Indexed = Ptr(rapid.Bool().Draw(t, "indexedValue"))
			}
		}
		ds := rapid.SampledFrom([]DataStructure{DataStructureJSON, DataStructureHash}).Draw(t, "dataStructure")

		a, err := New(newTestEntity, fields, WithDataStructure(ds))
		require.NoError(t, err)
		b, err := New(newTestEntity, fields, WithDataStructure(ds))
		require.NoError(t, err)

		require.Equal(t, a.IndexHash(), b.IndexHash())
		require.Equal(t, a.RedisSchema(), b.RedisSchema())
	})
}
