// SPDX-License-Identifier: Apache-2.0

package search

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xataio/ftsearch/pkg/schema"
)

// predicate is implemented by all the field predicates.
type predicate interface {
	Node
	Field() schema.ResolvedField
	Negated() bool
	negate()
	ready() bool
}

type fieldPredicate struct {
	field   schema.ResolvedField
	negated bool
}

func (p *fieldPredicate) Field() schema.ResolvedField { return p.field }
func (p *fieldPredicate) Negated() bool               { return p.negated }
func (p *fieldPredicate) negate()                     { p.negated = !p.negated }
func (p *fieldPredicate) isNode()                     {}

func (p *fieldPredicate) render(clause string) string {
	var sb strings.Builder
	if p.negated {
		sb.WriteByte('-')
	}
	sb.WriteByte('@')
	sb.WriteString(schema.EscapeTag(p.field.Path))
	sb.WriteByte(':')
	sb.WriteString(clause)
	return sb.String()
}

func (p *fieldPredicate) escape(v string) string {
	if p.field.Type.Escape == nil {
		return v
	}
	return p.field.Type.Escape(v)
}

func (p *fieldPredicate) tagClause(values []string) string {
	escaped := make([]string, 0, len(values))
	for _, v := range values {
		escaped = append(escaped, p.escape(v))
	}
	return "{" + strings.Join(escaped, schema.TagSeparator) + "}"
}

// ArrayPredicate matches string array fields containing any of the values.
type ArrayPredicate struct {
	fieldPredicate
	values []string
}

func (p *ArrayPredicate) Values() []string { return p.values }
func (p *ArrayPredicate) ready() bool      { return len(p.values) > 0 }

func (p *ArrayPredicate) String() string {
	return p.render(p.tagClause(p.values))
}

// StringPredicate matches string fields equal to any of the values, or
// starting with a prefix.
type StringPredicate struct {
	fieldPredicate
	values []string
	prefix bool
}

func (p *StringPredicate) Values() []string { return p.values }
func (p *StringPredicate) ready() bool      { return len(p.values) > 0 }

func (p *StringPredicate) String() string {
	if p.prefix && len(p.values) == 1 {
		return p.render("{" + p.escape(p.values[0]) + "*}")
	}
	return p.render(p.tagClause(p.values))
}

// BooleanPredicate matches boolean fields. HASH documents store booleans as
// 1 and 0.
type BooleanPredicate struct {
	fieldPredicate
	value *bool
	hash  bool
}

func (p *BooleanPredicate) ready() bool { return p.value != nil }

func (p *BooleanPredicate) String() string {
	v := false
	if p.value != nil {
		v = *p.value
	}
	switch {
	case p.hash && v:
		return p.render("{1}")
	case p.hash:
		return p.render("{0}")
	default:
		return p.render("{" + strconv.FormatBool(v) + "}")
	}
}

type bound struct {
	value     float64
	set       bool
	exclusive bool
}

func (b bound) render(unset string) string {
	if !b.set {
		return unset
	}
	s := formatBound(b.value)
	if b.exclusive {
		return "(" + s
	}
	return s
}

type numericRange struct {
	lower bound
	upper bound
}

func (r *numericRange) clause() string {
	return "[" + r.lower.render("-inf") + " " + r.upper.render("+inf") + "]"
}

func (r *numericRange) equals(v float64) {
	r.lower = bound{value: v, set: true}
	r.upper = bound{value: v, set: true}
}

func (r *numericRange) gt(v float64)  { r.lower = bound{value: v, set: true, exclusive: true} }
func (r *numericRange) gte(v float64) { r.lower = bound{value: v, set: true} }
func (r *numericRange) lt(v float64)  { r.upper = bound{value: v, set: true, exclusive: true} }
func (r *numericRange) lte(v float64) { r.upper = bound{value: v, set: true} }

// NumberPredicate matches numeric fields within a range. Bounds that are not
// set are unbounded.
type NumberPredicate struct {
	fieldPredicate
	numericRange
}

func (p *NumberPredicate) ready() bool { return true }

func (p *NumberPredicate) String() string {
	return p.render(p.clause())
}

// DatePredicate matches date fields, stored as epoch seconds, within a
// range.
type DatePredicate struct {
	fieldPredicate
	numericRange
}

func (p *DatePredicate) ready() bool { return true }

func (p *DatePredicate) String() string {
	return p.render(p.clause())
}

// TextPredicate matches full text fields, either on any of the terms or on
// the exact phrase.
type TextPredicate struct {
	fieldPredicate
	value string
	set   bool
	exact bool
}

func (p *TextPredicate) ready() bool { return p.set }

func (p *TextPredicate) String() string {
	if p.exact {
		return p.render(`"` + p.escape(p.value) + `"`)
	}
	return p.render("(" + p.escape(p.value) + ")")
}

// DistanceUnit is the unit of a radius search.
type DistanceUnit string

const (
	Meters     DistanceUnit = "m"
	Kilometers DistanceUnit = "km"
	Miles      DistanceUnit = "mi"
	Feet       DistanceUnit = "ft"
)

func (u DistanceUnit) valid() bool {
	switch u {
	case Meters, Kilometers, Miles, Feet:
		return true
	default:
		return false
	}
}

// PointPredicate matches geo fields within a radius of a point.
type PointPredicate struct {
	fieldPredicate
	longitude float64
	latitude  float64
	radius    float64
	unit      DistanceUnit
	set       bool
}

func (p *PointPredicate) ready() bool { return p.set }

func (p *PointPredicate) String() string {
	return p.render("[" + strings.Join([]string{
		formatFloat(p.longitude),
		formatFloat(p.latitude),
		formatFloat(p.radius),
		string(p.unit),
	}, " ") + "]")
}

// formatBound renders a range limit, with infinities spelled as the query
// syntax expects.
func formatBound(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return formatFloat(v)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func newPredicate(field schema.ResolvedField, ds schema.DataStructure) predicate {
	base := fieldPredicate{field: field}
	switch field.Type.Predicate {
	case schema.PredicateArray:
		return &ArrayPredicate{fieldPredicate: base}
	case schema.PredicateString:
		return &StringPredicate{fieldPredicate: base}
	case schema.PredicateBoolean:
		return &BooleanPredicate{fieldPredicate: base, hash: ds == schema.DataStructureHash}
	case schema.PredicateNumber:
		return &NumberPredicate{fieldPredicate: base}
	case schema.PredicateDate:
		return &DatePredicate{fieldPredicate: base}
	case schema.PredicateText:
		return &TextPredicate{fieldPredicate: base}
	case schema.PredicatePoint:
		return &PointPredicate{fieldPredicate: base}
	default:
		return nil
	}
}

// toFloat converts any Go numeric value into a float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// toEpoch converts a time.Time, or a numeric value taken as epoch seconds,
// into epoch seconds.
func toEpoch(v any) (float64, bool) {
	switch t := v.(type) {
	case time.Time:
		return float64(t.Unix()), true
	case *time.Time:
		if t == nil {
			return 0, false
		}
		return float64(t.Unix()), true
	default:
		return toFloat(v)
	}
}
