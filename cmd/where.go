// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xataio/ftsearch/pkg/schema"
	"github.com/xataio/ftsearch/pkg/search"
)

// whereClause is a predicate given on the command line, e.g. year>=1980.
type whereClause struct {
	Field string
	Op    string
	Value string
}

const (
	opEquals    = "="
	opNotEquals = "!="
	opGt        = ">"
	opGte       = ">="
	opLt        = "<"
	opLte       = "<="
	opPrefix    = "^="
	opMatch     = "~"
)

// two character operators first
var whereOps = []string{opNotEquals, opGte, opLte, opPrefix, opEquals, opGt, opLt, opMatch}

var errInvalidWhere = errors.New("predicate must be in the form <field><op><value>")

func parseWhere(expr string) (whereClause, error) {
	i := strings.IndexAny(expr, "!=<>^~")
	if i <= 0 {
		return whereClause{}, fmt.Errorf("%w: %q", errInvalidWhere, expr)
	}
	rest := expr[i:]
	for _, op := range whereOps {
		if strings.HasPrefix(rest, op) {
			return whereClause{
				Field: strings.TrimSpace(expr[:i]),
				Op:    op,
				Value: strings.TrimSpace(rest[len(op):]),
			}, nil
		}
	}
	return whereClause{}, fmt.Errorf("%w: %q", errInvalidWhere, expr)
}

// buildSearch combines the predicates with AND. An empty list matches every
// entity.
func buildSearch[T any](s *schema.Schema[T], exprs []string) (*search.Search[T], error) {
	srch := search.New(s)
	for _, expr := range exprs {
		clause, err := parseWhere(expr)
		if err != nil {
			return nil, err
		}
		if err := applyWhere(srch, clause); err != nil {
			return nil, err
		}
	}
	if _, err := srch.Query(); err != nil {
		return nil, err
	}
	return srch, nil
}

// applyWhere maps the clause operator to the predicate operation supported
// by the field type.
func applyWhere[T any](s *search.Search[T], c whereClause) error {
	w := s.AndWhere(c.Field)
	if err := s.Err(); err != nil {
		return err
	}
	field, _ := s.Schema().Lookup(c.Field)
	if c.Op == opNotEquals {
		w = w.Not()
	}

	unsupported := &search.InvalidOperationError{Field: c.Field, Type: field.Type.Type, Operation: c.Op}

	switch field.Type.Predicate {
	case schema.PredicateString:
		switch c.Op {
		case opEquals, opNotEquals:
			w.EqualsOneOf(splitValues(c.Value)...)
		case opPrefix:
			w.HasPrefix(c.Value)
		default:
			return unsupported
		}
	case schema.PredicateArray:
		switch c.Op {
		case opEquals, opNotEquals:
			w.ContainsOneOf(splitValues(c.Value)...)
		default:
			return unsupported
		}
	case schema.PredicateBoolean:
		if c.Op != opEquals && c.Op != opNotEquals {
			return unsupported
		}
		b, err := strconv.ParseBool(c.Value)
		if err != nil {
			return fmt.Errorf("field '%s' expects a boolean value: %w", c.Field, err)
		}
		w.Equals(b)
	case schema.PredicateNumber:
		n, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			return fmt.Errorf("field '%s' expects a numeric value: %w", c.Field, err)
		}
		if !compare(w, c.Op, n) {
			return unsupported
		}
	case schema.PredicateDate:
		t, err := parseTime(c.Value)
		if err != nil {
			return fmt.Errorf("field '%s' expects a date value: %w", c.Field, err)
		}
		if !compare(w, c.Op, t) {
			return unsupported
		}
	case schema.PredicateText:
		switch c.Op {
		case opMatch:
			w.Match(c.Value)
		case opEquals, opNotEquals:
			w.MatchExact(c.Value)
		default:
			return unsupported
		}
	case schema.PredicatePoint:
		if c.Op != opMatch {
			return unsupported
		}
		lon, lat, radius, unit, err := parseRadius(c.Value)
		if err != nil {
			return fmt.Errorf("field '%s': %w", c.Field, err)
		}
		w.InRadius(lon, lat, radius, unit)
	default:
		return unsupported
	}
	return s.Err()
}

func compare[T any](w *search.Where[T], op string, value any) bool {
	switch op {
	case opEquals, opNotEquals:
		w.Equals(value)
	case opGt:
		w.Gt(value)
	case opGte:
		w.Gte(value)
	case opLt:
		w.Lt(value)
	case opLte:
		w.Lte(value)
	default:
		return false
	}
	return true
}

func splitValues(value string) []string {
	values := strings.Split(value, schema.TagSeparator)
	for i := range values {
		values[i] = strings.TrimSpace(values[i])
	}
	return values
}

// parseTime accepts RFC3339 timestamps, dates and epoch seconds.
func parseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	epoch, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not an RFC3339 timestamp, a date or epoch seconds", value)
	}
	return time.Unix(epoch, 0).UTC(), nil
}

// parseRadius parses <longitude>,<latitude>,<radius><unit>, e.g.
// 2.35,48.85,10km. The unit defaults to meters.
func parseRadius(value string) (lon, lat, radius float64, unit search.DistanceUnit, err error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return 0, 0, 0, "", fmt.Errorf("radius must be in the form <longitude>,<latitude>,<radius><unit>: %q", value)
	}
	if lon, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
		return 0, 0, 0, "", fmt.Errorf("invalid longitude: %w", err)
	}
	if lat, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
		return 0, 0, 0, "", fmt.Errorf("invalid latitude: %w", err)
	}
	r := strings.TrimSpace(parts[2])
	u := strings.TrimLeftFunc(r, func(c rune) bool { return !unicode.IsLetter(c) })
	if radius, err = strconv.ParseFloat(strings.TrimSuffix(r, u), 64); err != nil {
		return 0, 0, 0, "", fmt.Errorf("invalid radius: %w", err)
	}
	unit = search.Meters
	if u != "" {
		unit = search.DistanceUnit(u)
	}
	return lon, lat, radius, unit, nil
}
