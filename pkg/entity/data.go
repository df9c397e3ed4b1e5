// SPDX-License-Identifier: Apache-2.0

package entity

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/xataio/ftsearch/internal/json"
)

// DocumentKey is the field name the search engine uses to return whole JSON
// documents.
const DocumentKey = "$"

// Data is the raw field data of an entity, in the order it was returned by
// the search engine. For HASH backed entities nested fields are dotted keys,
// for JSON backed entities the document is usually held under DocumentKey.
type Data struct {
	keys   []string
	values map[string]any
}

func NewData() *Data {
	return &Data{values: map[string]any{}}
}

// Set sets the value of a key. Existing keys keep their position.
func (d *Data) Set(key string, value any) {
	if _, found := d.values[key]; !found {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the raw value for the key. When the key is not present and the
// data holds a JSON document, the key is looked up as a dotted path within the
// document.
func (d *Data) Get(key string) (any, bool) {
	if v, found := d.values[key]; found {
		return v, true
	}
	doc, found := d.document()
	if !found {
		return nil, false
	}
	res := gjson.GetBytes(doc, key)
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}

// GetString returns the value for the key rendered as a string.
func (d *Data) GetString(key string) (string, bool) {
	v, found := d.Get(key)
	if !found {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return fmt.Sprint(v), true
	}
}

func (d *Data) Keys() []string {
	return slices.Clone(d.keys)
}

func (d *Data) Len() int {
	return len(d.keys)
}

// All iterates over the raw key/value pairs in order.
func (d *Data) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range d.keys {
			if !yield(k, d.values[k]) {
				return
			}
		}
	}
}

// Map returns a copy of the raw key/value pairs.
func (d *Data) Map() map[string]any {
	m := make(map[string]any, len(d.values))
	for k, v := range d.values {
		m[k] = v
	}
	return m
}

// JSON returns the data as a nested JSON document. Dotted keys are expanded
// into nested objects, and are merged into the JSON document when there is
// one.
func (d *Data) JSON() ([]byte, error) {
	doc := []byte("{}")
	if raw, found := d.document(); found {
		doc = slices.Clone(raw)
	}

	var err error
	for _, k := range d.keys {
		if k == DocumentKey {
			continue
		}
		v := d.values[k]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		doc, err = sjson.SetBytes(doc, jsonPath(k), v)
		if err != nil {
			return nil, fmt.Errorf("setting key %s: %w", k, err)
		}
	}
	return doc, nil
}

// Decode decodes the data into the target, which must be a pointer. String
// values are converted to the target field types, and numeric or RFC3339
// values are converted to time.Time. Struct fields are matched using their
// json tags.
func (d *Data) Decode(target any) error {
	doc, err := d.JSON()
	if err != nil {
		return fmt.Errorf("building entity document: %w", err)
	}

	m := map[string]any{}
	if err := json.Unmarshal(doc, &m); err != nil {
		return fmt.Errorf("unmarshaling entity document: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			epochToTimeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return fmt.Errorf("creating entity decoder: %w", err)
	}
	if err := decoder.Decode(m); err != nil {
		return fmt.Errorf("decoding entity data: %w", err)
	}
	return nil
}

func (d *Data) document() ([]byte, bool) {
	switch v := d.values[DocumentKey].(type) {
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	default:
		return nil, false
	}
}

var timeType = reflect.TypeOf(time.Time{})

// epochToTimeHook converts epoch seconds, the storage format of date fields,
// into time.Time values.
func epochToTimeHook(from, to reflect.Type, data any) (any, error) {
	if to != timeType {
		return data, nil
	}
	switch v := data.(type) {
	case float64:
		return time.Unix(int64(v), 0).UTC(), nil
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case string:
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			// not an epoch, let the next hook try
			return data, nil
		}
		return time.Unix(secs, 0).UTC(), nil
	default:
		return data, nil
	}
}

// jsonPath converts a dotted key into an sjson path, escaping the path syntax
// characters other than the dot separator.
func jsonPath(key string) string {
	key = strings.TrimPrefix(key, "$.")
	if !strings.ContainsAny(key, `*?|#@\`) {
		return key
	}
	var sb strings.Builder
	for _, r := range key {
		if strings.ContainsRune(`*?|#@\`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
