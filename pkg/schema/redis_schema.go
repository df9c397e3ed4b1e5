// SPDX-License-Identifier: Apache-2.0

package schema

const (
	keywordAs       = "AS"
	keywordSortable = "SORTABLE"
	keywordNoIndex  = "NOINDEX"
)

// buildRedisSchema flattens the resolved fields into index schema tokens.
// Object fields emit no tokens, their nested fields are emitted with the
// object path as prefix.
func buildRedisSchema(fields []ResolvedField, ds DataStructure) []string {
	tokens := []string{}
	var walk func(fields []ResolvedField)
	walk = func(fields []ResolvedField) {
		for _, f := range fields {
			if f.Type.IsObject() {
				walk(f.Fields)
				continue
			}
			tokens = append(tokens, fieldTokens(f, ds)...)
		}
	}
	walk(fields)
	return tokens
}

func fieldTokens(f ResolvedField, ds DataStructure) []string {
	tokens := make([]string, 0, 8)
	tokens = append(tokens, f.Type.path(f.Path, ds), keywordAs, f.Path)
	tokens = append(tokens, f.Type.keywords...)
	if f.Sortable {
		tokens = append(tokens, keywordSortable)
	}
	if !f.Indexed {
		tokens = append(tokens, keywordNoIndex)
	}
	return tokens
}
