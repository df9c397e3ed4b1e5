// SPDX-License-Identifier: Apache-2.0

package search

import (
	"fmt"
	"math"
	"time"
)

// Where sets the value of the field predicate it was created for. Every
// terminal operation returns the owning search so calls can be chained.
// Operations the field type does not support record an
// InvalidOperationError in the search.
//
// A Where created for an unknown field, or after the search recorded an
// error, is inert: its operations only return the search.
type Where[T any] struct {
	search *Search[T]
	pred   predicate
}

// Not negates the predicate.
func (w *Where[T]) Not() *Where[T] {
	if w.pred != nil {
		w.pred.negate()
	}
	return w
}

// Contains matches string array fields containing the value.
func (w *Where[T]) Contains(value string) *Search[T] {
	return w.ContainsOneOf(value)
}

// ContainsOneOf matches string array fields containing any of the values.
func (w *Where[T]) ContainsOneOf(values ...string) *Search[T] {
	switch p := w.pred.(type) {
	case nil:
	case *ArrayPredicate:
		if len(values) == 0 {
			w.invalid("ContainsOneOf", "at least one value is required")
			break
		}
		p.values = append([]string(nil), values...)
	default:
		w.unsupported("ContainsOneOf")
	}
	return w.search
}

// Equals matches string, boolean, number and date fields equal to the
// value. The value must be of the matching Go type: string, bool, any
// numeric type, or a time.Time (or epoch seconds) for dates.
func (w *Where[T]) Equals(value any) *Search[T] {
	switch p := w.pred.(type) {
	case nil:
	case *StringPredicate:
		s, ok := value.(string)
		if !ok {
			w.invalidValue("Equals", value)
			break
		}
		p.values = []string{s}
		p.prefix = false
	case *BooleanPredicate:
		b, ok := value.(bool)
		if !ok {
			w.invalidValue("Equals", value)
			break
		}
		p.value = &b
	case *NumberPredicate:
		if f, ok := w.number("Equals", value, toFloat); ok {
			p.equals(f)
		}
	case *DatePredicate:
		if f, ok := w.number("Equals", value, toEpoch); ok {
			p.equals(f)
		}
	default:
		w.unsupported("Equals")
	}
	return w.search
}

// EqualsOneOf matches string fields equal to any of the values.
func (w *Where[T]) EqualsOneOf(values ...string) *Search[T] {
	switch p := w.pred.(type) {
	case nil:
	case *StringPredicate:
		if len(values) == 0 {
			w.invalid("EqualsOneOf", "at least one value is required")
			break
		}
		p.values = append([]string(nil), values...)
		p.prefix = false
	default:
		w.unsupported("EqualsOneOf")
	}
	return w.search
}

// HasPrefix matches string fields starting with the prefix.
func (w *Where[T]) HasPrefix(prefix string) *Search[T] {
	switch p := w.pred.(type) {
	case nil:
	case *StringPredicate:
		if prefix == "" {
			w.invalid("HasPrefix", "prefix must be a non-empty string")
			break
		}
		p.values = []string{prefix}
		p.prefix = true
	default:
		w.unsupported("HasPrefix")
	}
	return w.search
}

func (w *Where[T]) True() *Search[T] {
	return w.setBool("True", true)
}

func (w *Where[T]) False() *Search[T] {
	return w.setBool("False", false)
}

func (w *Where[T]) setBool(op string, value bool) *Search[T] {
	switch p := w.pred.(type) {
	case nil:
	case *BooleanPredicate:
		p.value = &value
	default:
		w.unsupported(op)
	}
	return w.search
}

// Gt matches number and date fields greater than the value.
func (w *Where[T]) Gt(value any) *Search[T] {
	return w.setRange("Gt", value, (*numericRange).gt)
}

// Gte matches number and date fields greater than or equal to the value.
func (w *Where[T]) Gte(value any) *Search[T] {
	return w.setRange("Gte", value, (*numericRange).gte)
}

// Lt matches number and date fields lower than the value.
func (w *Where[T]) Lt(value any) *Search[T] {
	return w.setRange("Lt", value, (*numericRange).lt)
}

// Lte matches number and date fields lower than or equal to the value.
func (w *Where[T]) Lte(value any) *Search[T] {
	return w.setRange("Lte", value, (*numericRange).lte)
}

// Between matches number and date fields within the inclusive range.
func (w *Where[T]) Between(lower, upper any) *Search[T] {
	w.setRange("Between", lower, (*numericRange).gte)
	return w.setRange("Between", upper, (*numericRange).lte)
}

// On matches date fields equal to the time, at second resolution.
func (w *Where[T]) On(t time.Time) *Search[T] {
	return w.setDate("On", t, (*numericRange).equals)
}

func (w *Where[T]) After(t time.Time) *Search[T] {
	return w.setDate("After", t, (*numericRange).gt)
}

func (w *Where[T]) Before(t time.Time) *Search[T] {
	return w.setDate("Before", t, (*numericRange).lt)
}

func (w *Where[T]) OnOrAfter(t time.Time) *Search[T] {
	return w.setDate("OnOrAfter", t, (*numericRange).gte)
}

func (w *Where[T]) OnOrBefore(t time.Time) *Search[T] {
	return w.setDate("OnOrBefore", t, (*numericRange).lte)
}

func (w *Where[T]) setRange(op string, value any, set func(*numericRange, float64)) *Search[T] {
	switch p := w.pred.(type) {
	case nil:
	case *NumberPredicate:
		if f, ok := w.number(op, value, toFloat); ok {
			set(&p.numericRange, f)
		}
	case *DatePredicate:
		if f, ok := w.number(op, value, toEpoch); ok {
			set(&p.numericRange, f)
		}
	default:
		w.unsupported(op)
	}
	return w.search
}

func (w *Where[T]) setDate(op string, t time.Time, set func(*numericRange, float64)) *Search[T] {
	switch p := w.pred.(type) {
	case nil:
	case *DatePredicate:
		set(&p.numericRange, float64(t.Unix()))
	default:
		w.unsupported(op)
	}
	return w.search
}

// Match matches text fields containing the terms.
func (w *Where[T]) Match(value string) *Search[T] {
	return w.setText("Match", value, false)
}

// MatchExact matches text fields containing the exact phrase.
func (w *Where[T]) MatchExact(value string) *Search[T] {
	return w.setText("MatchExact", value, true)
}

func (w *Where[T]) setText(op, value string, exact bool) *Search[T] {
	switch p := w.pred.(type) {
	case nil:
	case *TextPredicate:
		if value == "" {
			w.invalid(op, "value must be a non-empty string")
			break
		}
		p.value = value
		p.exact = exact
		p.set = true
	default:
		w.unsupported(op)
	}
	return w.search
}

// InRadius matches point fields within the radius of the given coordinates.
func (w *Where[T]) InRadius(longitude, latitude, radius float64, unit DistanceUnit) *Search[T] {
	switch p := w.pred.(type) {
	case nil:
	case *PointPredicate:
		switch {
		case !unit.valid():
			w.invalid("InRadius", fmt.Sprintf("invalid distance unit '%s': valid units are 'm', 'km', 'mi', and 'ft'", unit))
		case !isFinite(longitude) || !isFinite(latitude) || !isFinite(radius):
			w.invalid("InRadius", "coordinates and radius must be finite numbers")
		case radius < 0:
			w.invalid("InRadius", "radius must not be negative")
		default:
			p.longitude = longitude
			p.latitude = latitude
			p.radius = radius
			p.unit = unit
			p.set = true
		}
	default:
		w.unsupported("InRadius")
	}
	return w.search
}

// number converts the value with conv, recording an error for values of the
// wrong type and for NaN. Infinities are valid unbounded limits.
func (w *Where[T]) number(op string, value any, conv func(any) (float64, bool)) (float64, bool) {
	f, ok := conv(value)
	switch {
	case !ok:
		w.invalidValue(op, value)
		return 0, false
	case math.IsNaN(f):
		w.invalid(op, "value must not be NaN")
		return 0, false
	}
	return f, true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (w *Where[T]) unsupported(op string) {
	w.invalid(op, "")
}

func (w *Where[T]) invalidValue(op string, value any) {
	w.invalid(op, fmt.Sprintf("unexpected value of type %T", value))
}

func (w *Where[T]) invalid(op, reason string) {
	f := w.pred.Field()
	w.search.setErr(&InvalidOperationError{
		Field:     f.Path,
		Type:      f.Type.Type,
		Operation: op,
		Reason:    reason,
	})
}
