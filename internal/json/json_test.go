// SPDX-License-Identifier: Apache-2.0

package json

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshal_SortedKeys(t *testing.T) {
	t.Parallel()

	b, err := Marshal(map[string]any{"year": 1979, "title": "Alien", "genre": []string{"sci fi"}})
	require.NoError(t, err)
	require.Equal(t, `{"genre":["sci fi"],"title":"Alien","year":1979}`, string(b))
}

func TestMarshalIndent(t *testing.T) {
	t.Parallel()

	b, err := MarshalIndent(map[string]any{"b": 1, "a": "<x>"})
	require.NoError(t, err)
	require.Equal(t, "{\n\t\"a\": \"<x>\",\n\t\"b\": 1\n}", string(b))
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	var doc map[string]any
	require.NoError(t, Unmarshal([]byte(`{"meta":{"year":1979}}`), &doc))
	require.Equal(t, map[string]any{"meta": map[string]any{"year": float64(1979)}}, doc)

	require.Error(t, Unmarshal([]byte(`{"meta":`), &doc))
	require.True(t, Valid([]byte(`{"a":1}`)))
	require.False(t, Valid([]byte(`{"a":`)))
}
