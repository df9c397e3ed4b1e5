// SPDX-License-Identifier: Apache-2.0

package json

import (
	"github.com/bytedance/sonic"
)

// sorted keys keep the index hash fingerprint and the command output stable
// across runs.
var api = sonic.Config{
	SortMapKeys:      true,
	EscapeHTML:       false,
	CompactMarshaler: true,
	CopyString:       true,
	ValidateString:   true,
}.Froze()

func Unmarshal(b []byte, v any) error {
	return api.Unmarshal(b, v)
}

func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

func MarshalIndent(v any) ([]byte, error) {
	return api.MarshalIndent(v, "", "\t")
}

func Valid(b []byte) bool {
	return api.Valid(b)
}
