// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"sort"
	"strings"
)

// FieldType is the logical type of a schema field, as declared by the
// application.
type FieldType string

const (
	TypeString      FieldType = "string"
	TypeText        FieldType = "text"
	TypeNumber      FieldType = "number"
	TypeBoolean     FieldType = "boolean"
	TypePoint       FieldType = "point"
	TypeDate        FieldType = "date"
	TypeStringArray FieldType = "string[]"
	TypeObject      FieldType = "object"
)

// PredicateKind identifies the search predicate variant a field type
// supports. PredicateNone means the type cannot be searched on directly.
type PredicateKind uint8

const (
	PredicateNone PredicateKind = iota
	PredicateString
	PredicateArray
	PredicateBoolean
	PredicateNumber
	PredicateText
	PredicateDate
	PredicatePoint
)

// TagSeparator is the multi value separator used for TAG fields, both in the
// index schema and in query tag clauses.
const TagSeparator = "|"

// Characters backslash escaped in query values. The backslash itself is
// included so that a value cannot cancel the escape of the next character.
const (
	tagSpecialChars  = "\\,.<>{}[]\"':;!@#$%^&*()-+=~|/? \t\n\r"
	textSpecialChars = "\\,.<>{}[]\"':;!@#$%^&*()-+=~|/?\t\n\r"
)

// TypeInfo describes how a field type is emitted in the index schema and how
// its values are embedded in queries. Entries are resolved once when a schema
// is compiled and carried by every ResolvedField.
type TypeInfo struct {
	Type      FieldType
	Predicate PredicateKind
	// Escape embeds a raw value into a query clause. Nil for types whose
	// values are rendered without escaping.
	Escape func(string) string

	keywords       []string
	jsonPathSuffix string
	sortable       bool
}

// Keywords returns the index schema type keywords for the type, e.g. TAG
// SEPARATOR |.
func (t *TypeInfo) Keywords() []string {
	return append([]string(nil), t.keywords...)
}

// IsObject returns true for nested object fields, which emit no index schema
// tokens of their own.
func (t *TypeInfo) IsObject() bool {
	return t.Type == TypeObject
}

// Sortable returns true if fields of this type accept the SORTABLE modifier.
func (t *TypeInfo) Sortable() bool {
	return t.sortable
}

func (t *TypeInfo) path(dotted string, ds DataStructure) string {
	if ds == DataStructureJSON {
		return "$." + dotted + t.jsonPathSuffix
	}
	return dotted
}

var registry = map[FieldType]*TypeInfo{
	TypeString: {
		Type:      TypeString,
		Predicate: PredicateString,
		Escape:    EscapeTag,
		keywords:  []string{"TAG", "SEPARATOR", TagSeparator},
		sortable:  true,
	},
	TypeStringArray: {
		Type:           TypeStringArray,
		Predicate:      PredicateArray,
		Escape:         EscapeTag,
		keywords:       []string{"TAG", "SEPARATOR", TagSeparator},
		jsonPathSuffix: "[*]",
	},
	TypeBoolean: {
		Type:      TypeBoolean,
		Predicate: PredicateBoolean,
		Escape:    EscapeTag,
		keywords:  []string{"TAG"},
		sortable:  true,
	},
	TypeText: {
		Type:      TypeText,
		Predicate: PredicateText,
		Escape:    EscapeText,
		keywords:  []string{"TEXT"},
		sortable:  true,
	},
	TypeNumber: {
		Type:      TypeNumber,
		Predicate: PredicateNumber,
		keywords:  []string{"NUMERIC"},
		sortable:  true,
	},
	// dates are stored as epoch seconds
	TypeDate: {
		Type:      TypeDate,
		Predicate: PredicateDate,
		keywords:  []string{"NUMERIC"},
		sortable:  true,
	},
	TypePoint: {
		Type:      TypePoint,
		Predicate: PredicatePoint,
		keywords:  []string{"GEO"},
	},
	TypeObject: {
		Type:      TypeObject,
		Predicate: PredicateNone,
	},
}

// LookupType returns the registry entry for the given field type.
func LookupType(t FieldType) (*TypeInfo, bool) {
	info, found := registry[t]
	return info, found
}

// ValidTypes returns all the registered field types, sorted by name.
func ValidTypes() []FieldType {
	types := make([]FieldType, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sortTypes(types)
	return types
}

// PredicateTypes returns the field types that support search predicates,
// sorted by name.
func PredicateTypes() []FieldType {
	types := []FieldType{}
	for t, info := range registry {
		if info.Predicate != PredicateNone {
			types = append(types, t)
		}
	}
	sortTypes(types)
	return types
}

// EscapeTag backslash escapes every query syntax significant character of a
// TAG value, including spaces.
func EscapeTag(value string) string {
	return escape(value, tagSpecialChars)
}

// EscapeText backslash escapes punctuation in a full text value. Spaces are
// kept so that multiple terms can be matched.
func EscapeText(value string) string {
	return escape(value, textSpecialChars)
}

func escape(value, specials string) string {
	if !strings.ContainsAny(value, specials) {
		return value
	}
	var sb strings.Builder
	sb.Grow(len(value) + 4)
	for _, r := range value {
		if strings.ContainsRune(specials, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// QuoteList renders the list as 'a', 'b', and 'c'.
func QuoteList[S ~string](items []S) string {
	quoted := make([]string, 0, len(items))
	for _, item := range items {
		quoted = append(quoted, "'"+string(item)+"'")
	}
	switch len(quoted) {
	case 0:
		return ""
	case 1:
		return quoted[0]
	case 2:
		return quoted[0] + " and " + quoted[1]
	default:
		return strings.Join(quoted[:len(quoted)-1], ", ") + ", and " + quoted[len(quoted)-1]
	}
}

func sortTypes(types []FieldType) {
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
}
