package query

import (
	"sort"
	"strings"

	"blockbase/domain"
)

// ─────────────────────────────────────────────────────────────
// Multi-key stable sort
// ─────────────────────────────────────────────────────────────

// sortRows orders rows by the sort keys, earlier keys first. Rows missing a
// key's value order after rows that have one, in either direction. Ties fall
// back to the input order, so repeated calls agree.
func sortRows(rows []domain.Row, keys []domain.SortKey, props map[string]domain.Property) ([]domain.Row, error) {
	if len(keys) == 0 {
		return rows, nil
	}
	for _, k := range keys {
		if _, ok := props[k.PropertyID]; !ok {
			return nil, domain.NotFound("property", k.PropertyID)
		}
	}

	out := make([]domain.Row, len(rows))
	copy(out, rows)

	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			c, placed := compareValues(props[k.PropertyID].Type, out[i].Values[k.PropertyID], out[j].Values[k.PropertyID])
			if c == 0 {
				continue
			}
			// Placement results (missing or uncoercible values) are
			// absolute: those rows go last whichever the direction.
			if !placed && k.Direction == domain.SortDesc {
				return c > 0
			}
			return c < 0
		}
		return false // tie: keep input order
	})
	return out, nil
}

// compareValues orders two values of one property type ascending. placed
// reports that the result is a placement, not an ordering: missing and
// uncoercible values land at the end regardless of sort direction.
func compareValues(t domain.PropertyType, a, b any) (c int, placed bool) {
	aEmpty := isEmptyValue(a)
	bEmpty := isEmptyValue(b)
	if aEmpty && bEmpty {
		return 0, true
	}
	if aEmpty {
		return 1, true
	}
	if bEmpty {
		return -1, true
	}

	switch {
	case t == domain.PropNumber:
		an, aok := asNumber(a)
		bn, bok := asNumber(b)
		if c, done := placeOr(aok, bok); done {
			return c, true
		}
		switch {
		case an < bn:
			return -1, false
		case an > bn:
			return 1, false
		}
		return 0, false
	case dateLike(t):
		at, aok := asTime(a)
		bt, bok := asTime(b)
		if c, done := placeOr(aok, bok); done {
			return c, true
		}
		switch {
		case at.Before(bt):
			return -1, false
		case at.After(bt):
			return 1, false
		}
		return 0, false
	case t == domain.PropCheckbox:
		ab, _ := asBool(a)
		bb, _ := asBool(b)
		switch {
		case !ab && bb:
			return -1, false
		case ab && !bb:
			return 1, false
		}
		return 0, false
	default: // text, url, select
		as, aok := asString(a)
		bs, bok := asString(b)
		if c, done := placeOr(aok, bok); done {
			return c, true
		}
		return strings.Compare(as, bs), false
	}
}

// placeOr resolves placement when one side failed to coerce: uncoercible
// values order last, matching the missing-value rule.
func placeOr(aok, bok bool) (int, bool) {
	switch {
	case aok && bok:
		return 0, false
	case aok:
		return -1, true
	case bok:
		return 1, true
	}
	return 0, true
}
