package query

import (
	"fmt"

	"blockbase/domain"
)

// ─────────────────────────────────────────────────────────────
// Aggregations — COUNT over anything, SUM/AVERAGE/MIN/MAX over
// number properties. Missing and non-numeric values are skipped,
// never read as zero.
// ─────────────────────────────────────────────────────────────

func aggregate(rows []domain.Row, reqs []AggregationRequest, props map[string]domain.Property) ([]AggregationResult, error) {
	out := make([]AggregationResult, 0, len(reqs))
	for _, req := range reqs {
		prop, ok := props[req.PropertyID]
		if !ok {
			return nil, domain.NotFound("property", req.PropertyID)
		}

		if req.Type == AggCount {
			out = append(out, AggregationResult{PropertyID: req.PropertyID, Type: AggCount, Value: len(rows)})
			continue
		}

		switch req.Type {
		case AggSum, AggAverage, AggMin, AggMax:
		default:
			return nil, fmt.Errorf("aggregate: unknown kind %q", req.Type)
		}

		if prop.Type != domain.PropNumber {
			return nil, &domain.ValidationError{Errors: []domain.FieldError{{
				Field:   req.PropertyID,
				Message: fmt.Sprintf("aggregation %q requires a number property, got %q", req.Type, prop.Type),
				Code:    domain.CodeInvalidEnum,
			}}}
		}

		var (
			sum      float64
			count    int
			min, max float64
		)
		for _, r := range rows {
			n, ok := asNumber(r.Values[req.PropertyID])
			if !ok {
				continue
			}
			if count == 0 {
				min, max = n, n
			} else {
				if n < min {
					min = n
				}
				if n > max {
					max = n
				}
			}
			sum += n
			count++
		}

		res := AggregationResult{PropertyID: req.PropertyID, Type: req.Type}
		if count > 0 {
			switch req.Type {
			case AggSum:
				res.Value = sum
			case AggAverage:
				res.Value = sum / float64(count)
			case AggMin:
				res.Value = min
			case AggMax:
				res.Value = max
			}
		}
		out = append(out, res)
	}
	return out, nil
}
