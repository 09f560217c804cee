// Package query evaluates filter trees, sort specs, grouping, and
// aggregations over database rows. It is pure: no I/O, no side effects,
// inputs are never mutated.
package query

import (
	"blockbase/domain"
)

// AggregationKind names a scalar computed over a row set.
type AggregationKind string

const (
	AggCount   AggregationKind = "count"
	AggSum     AggregationKind = "sum"
	AggAverage AggregationKind = "average"
	AggMin     AggregationKind = "min"
	AggMax     AggregationKind = "max"
)

// AggregationRequest asks for one aggregation over one property.
type AggregationRequest struct {
	PropertyID string          `json:"propertyId"`
	Type       AggregationKind `json:"type"`
}

// AggregationResult is the computed value for one request. Value is an int
// for count, a float64 for the numeric kinds, and nil when no row contributed.
type AggregationResult struct {
	PropertyID string          `json:"propertyId"`
	Type       AggregationKind `json:"type"`
	Value      any             `json:"value"`
}

// Group is one partition of the filtered rows by the group-by property.
// Key is the property value shared by the members; the bucket for rows with
// no value reports Ungrouped instead of a key.
type Group struct {
	Key          any                 `json:"key,omitempty"`
	Ungrouped    bool                `json:"ungrouped,omitempty"`
	RowIDs       []string            `json:"rowIds"`
	Count        int                 `json:"count"`
	Aggregations []AggregationResult `json:"aggregations,omitempty"`
}

// Options shape one query. Zero-value fields are simply not applied.
type Options struct {
	Filter       *domain.FilterNode   `json:"filter,omitempty"`
	Sort         []domain.SortKey     `json:"sort,omitempty"`
	GroupBy      string               `json:"groupBy,omitempty"`
	Aggregations []AggregationRequest `json:"aggregations,omitempty"`
	Limit        int                  `json:"limit,omitempty"`
	Offset       int                  `json:"offset,omitempty"`
}

// Result is the engine's answer. TotalCount is the post-filter,
// pre-pagination row count; Groups and Aggregations appear only when asked
// for.
type Result struct {
	Rows         []domain.Row        `json:"rows"`
	TotalCount   int                 `json:"totalCount"`
	Groups       []Group             `json:"groups,omitempty"`
	Aggregations []AggregationResult `json:"aggregations,omitempty"`
}

// Run filters, sorts, groups, aggregates, and paginates rows against the
// database's property definitions.
func Run(rows []domain.Row, properties []domain.Property, opts Options) (*Result, error) {
	props := make(map[string]domain.Property, len(properties))
	for _, p := range properties {
		props[p.ID] = p
	}

	filtered := rows
	if opts.Filter != nil {
		filtered = make([]domain.Row, 0, len(rows))
		for _, r := range rows {
			ok, err := evalNode(opts.Filter, r, props)
			if err != nil {
				return nil, err
			}
			if ok {
				filtered = append(filtered, r)
			}
		}
	}

	res := &Result{TotalCount: len(filtered)}

	// Group over the filtered set in input order, before sorting, so the
	// partitioning doesn't depend on the sort spec.
	if opts.GroupBy != "" {
		groups, err := groupRows(filtered, opts.GroupBy, opts.Aggregations, props)
		if err != nil {
			return nil, err
		}
		res.Groups = groups
	}

	if len(opts.Aggregations) > 0 {
		aggs, err := aggregate(filtered, opts.Aggregations, props)
		if err != nil {
			return nil, err
		}
		res.Aggregations = aggs
	}

	sorted, err := sortRows(filtered, opts.Sort, props)
	if err != nil {
		return nil, err
	}

	res.Rows = paginate(sorted, opts.Limit, opts.Offset)
	return res, nil
}

func paginate(rows []domain.Row, limit, offset int) []domain.Row {
	if offset > 0 {
		if offset >= len(rows) {
			return []domain.Row{}
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func groupRows(rows []domain.Row, propertyID string, aggReqs []AggregationRequest, props map[string]domain.Property) ([]Group, error) {
	if _, ok := props[propertyID]; !ok {
		return nil, domain.NotFound("property", propertyID)
	}

	type bucket struct {
		group   Group
		members []domain.Row
	}
	var order []string
	buckets := make(map[string]*bucket)
	ungrouped := &bucket{group: Group{Ungrouped: true}}

	for _, r := range rows {
		v, ok := r.Values[propertyID]
		if !ok || isEmptyValue(v) {
			ungrouped.members = append(ungrouped.members, r)
			ungrouped.group.RowIDs = append(ungrouped.group.RowIDs, r.ID)
			continue
		}
		key := groupKey(v)
		b, exists := buckets[key]
		if !exists {
			b = &bucket{group: Group{Key: v}}
			buckets[key] = b
			order = append(order, key)
		}
		b.members = append(b.members, r)
		b.group.RowIDs = append(b.group.RowIDs, r.ID)
	}

	finish := func(b *bucket) (Group, error) {
		b.group.Count = len(b.members)
		if len(aggReqs) > 0 {
			aggs, err := aggregate(b.members, aggReqs, props)
			if err != nil {
				return Group{}, err
			}
			b.group.Aggregations = aggs
		}
		return b.group, nil
	}

	out := make([]Group, 0, len(order)+1)
	for _, key := range order {
		g, err := finish(buckets[key])
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if len(ungrouped.members) > 0 {
		g, err := finish(ungrouped)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
