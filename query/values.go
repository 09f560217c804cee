package query

import (
	"fmt"
	"strings"
	"time"

	"blockbase/domain"
)

// ─────────────────────────────────────────────────────────────
// Value coercion — row values arrive JSON-shaped (string,
// float64, bool, []any) and get read per property type here.
// ─────────────────────────────────────────────────────────────

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	}
	return false
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// asTime parses date values: RFC 3339 first, then plain yyyy-mm-dd
// (read as midnight UTC). time.Time values pass through.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts, true
		}
		if ts, err := time.Parse("2006-01-02", t); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// containsFold is a case-insensitive substring check.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// groupKey stringifies a value for bucket identity. The dynamic type prefixes
// the rendering so values that print alike (the string "1", the number 1) stay
// in separate buckets.
func groupKey(v any) string {
	return fmt.Sprintf("%T|%v", v, v)
}

// textLike reports whether a property's values compare as strings.
func textLike(t domain.PropertyType) bool {
	return t == domain.PropText || t == domain.PropURL
}

// dateLike reports whether a property's values compare as instants.
func dateLike(t domain.PropertyType) bool {
	return t == domain.PropDate || t == domain.PropDatetime
}
