// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xataio/ftsearch/pkg/entity"
)

// DecodingError is returned when the search reply does not have the
// expected [count, key, fields, key, fields...] shape.
type DecodingError struct {
	Reason string
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("malformed search response: %s", e.Reason)
}

func decodingErrorf(format string, args ...any) error {
	return &DecodingError{Reason: fmt.Sprintf(format, args...)}
}

type response struct {
	count     int64
	documents []document
}

type document struct {
	id   entity.ID
	data *entity.Data
}

func decodeResponse(reply any) (*response, error) {
	items, ok := reply.([]any)
	if !ok {
		return nil, decodingErrorf("expected an array, got %T", reply)
	}
	if len(items) == 0 {
		return nil, decodingErrorf("missing result count")
	}

	count, err := decodeCount(items[0])
	if err != nil {
		return nil, err
	}

	rest := items[1:]
	if len(rest)%2 != 0 {
		return nil, decodingErrorf("expected key and field pairs, got %d elements", len(rest))
	}

	docs := make([]document, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		key, ok := toString(rest[i])
		if !ok {
			return nil, decodingErrorf("document key at position %d is a %T", i+1, rest[i])
		}
		data, err := decodeFields(key, rest[i+1])
		if err != nil {
			return nil, err
		}
		docs = append(docs, document{id: idFromKey(key), data: data})
	}

	return &response{count: count, documents: docs}, nil
}

func decodeCount(v any) (int64, error) {
	switch c := v.(type) {
	case int64:
		return c, nil
	case int:
		return int64(c), nil
	case string:
		n, err := strconv.ParseInt(c, 10, 64)
		if err != nil {
			return 0, decodingErrorf("invalid result count %q", c)
		}
		return n, nil
	default:
		return 0, decodingErrorf("result count is a %T", v)
	}
}

// decodeFields converts the flat name/value list of a document into its
// data. Documents without fields, such as expired keys, have nil lists.
func decodeFields(key string, v any) (*entity.Data, error) {
	data := entity.NewData()
	if v == nil {
		return data, nil
	}
	fields, ok := v.([]any)
	if !ok {
		return nil, decodingErrorf("fields of document %s are a %T", key, v)
	}
	if len(fields)%2 != 0 {
		return nil, decodingErrorf("fields of document %s have %d elements", key, len(fields))
	}
	for i := 0; i < len(fields); i += 2 {
		name, ok := toString(fields[i])
		if !ok {
			return nil, decodingErrorf("field name of document %s at position %d is a %T", key, i, fields[i])
		}
		value := fields[i+1]
		if b, ok := value.([]byte); ok {
			value = string(b)
		}
		data.Set(name, value)
	}
	return data, nil
}

// idFromKey strips everything up to the last ':' of the document key.
func idFromKey(key string) entity.ID {
	return entity.ID(key[strings.LastIndex(key, ":")+1:])
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}
