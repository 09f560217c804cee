package query

import (
	"fmt"

	"blockbase/domain"
)

// ─────────────────────────────────────────────────────────────
// Filter evaluation — recursive AND/OR over leaf conditions
// ─────────────────────────────────────────────────────────────

// evalNode decides whether row passes one filter-tree level. An AND node with
// no members passes; an OR node with no members fails.
func evalNode(n *domain.FilterNode, r domain.Row, props map[string]domain.Property) (bool, error) {
	conj := n.Conjunction
	if conj == "" {
		conj = domain.ConjunctionAnd
	}
	if conj != domain.ConjunctionAnd && conj != domain.ConjunctionOr {
		return false, fmt.Errorf("filter: unknown conjunction %q", conj)
	}

	and := conj == domain.ConjunctionAnd
	for _, c := range n.Conditions {
		ok, err := evalCondition(c, r, props)
		if err != nil {
			return false, err
		}
		if and && !ok {
			return false, nil
		}
		if !and && ok {
			return true, nil
		}
	}
	for _, g := range n.Groups {
		ok, err := evalNode(g, r, props)
		if err != nil {
			return false, err
		}
		if and && !ok {
			return false, nil
		}
		if !and && ok {
			return true, nil
		}
	}
	return and, nil
}

func evalCondition(c domain.Condition, r domain.Row, props map[string]domain.Property) (bool, error) {
	prop, ok := props[c.PropertyID]
	if !ok {
		return false, domain.NotFound("property", c.PropertyID)
	}
	if err := checkOperator(prop.Type, c.Operator); err != nil {
		return false, err
	}

	v, present := r.Values[c.PropertyID]
	empty := !present || isEmptyValue(v)

	switch c.Operator {
	case domain.OpIsEmpty:
		return empty, nil
	case domain.OpIsNotEmpty:
		return !empty, nil
	}

	// Checkbox reads an absent value as unchecked.
	if prop.Type == domain.PropCheckbox {
		checked, _ := asBool(v)
		if c.Operator == domain.OpIsChecked {
			return checked, nil
		}
		return !checked, nil
	}

	// Every other operator needs a value to compare against.
	if empty {
		return false, nil
	}

	switch {
	case textLike(prop.Type):
		return evalText(c, v)
	case prop.Type == domain.PropSelect:
		return evalSelect(c, v)
	case dateLike(prop.Type):
		return evalDate(c, v)
	case prop.Type == domain.PropNumber:
		return evalNumber(c, v)
	}
	return false, fmt.Errorf("filter: unsupported property type %q", prop.Type)
}

func evalText(c domain.Condition, v any) (bool, error) {
	s, ok := asString(v)
	if !ok {
		return false, nil
	}
	target, _ := asString(c.Value)
	switch c.Operator {
	case domain.OpEquals:
		return s == target, nil
	case domain.OpNotEquals:
		return s != target, nil
	case domain.OpContains:
		return target != "" && containsFold(s, target), nil
	}
	return false, nil
}

func evalSelect(c domain.Condition, v any) (bool, error) {
	s, ok := asString(v)
	if !ok {
		return false, nil
	}
	switch c.Operator {
	case domain.OpEquals:
		target, _ := asString(c.Value)
		return s == target, nil
	case domain.OpNotEquals:
		target, _ := asString(c.Value)
		return s != target, nil
	case domain.OpIsAnyOf:
		list, ok := c.Value.([]any)
		if !ok {
			if strs, ok := c.Value.([]string); ok {
				for _, t := range strs {
					if s == t {
						return true, nil
					}
				}
				return false, nil
			}
			return false, nil
		}
		for _, item := range list {
			if t, ok := asString(item); ok && s == t {
				return true, nil
			}
		}
		return false, nil
	}
	return false, nil
}

func evalDate(c domain.Condition, v any) (bool, error) {
	ts, ok := asTime(v)
	if !ok {
		return false, nil
	}
	target, ok := asTime(c.Value)
	if !ok {
		return false, nil
	}
	switch c.Operator {
	case domain.OpBefore:
		return ts.Before(target), nil
	case domain.OpAfter:
		return ts.After(target), nil
	case domain.OpOn:
		y1, m1, d1 := ts.UTC().Date()
		y2, m2, d2 := target.UTC().Date()
		return y1 == y2 && m1 == m2 && d1 == d2, nil
	}
	return false, nil
}

func evalNumber(c domain.Condition, v any) (bool, error) {
	n, ok := asNumber(v)
	if !ok {
		return false, nil
	}
	target, ok := asNumber(c.Value)
	if !ok {
		return false, nil
	}
	switch c.Operator {
	case domain.OpEquals:
		return n == target, nil
	case domain.OpNotEquals:
		return n != target, nil
	case domain.OpGreaterThan:
		return n > target, nil
	case domain.OpLessThan:
		return n < target, nil
	}
	return false, nil
}

// legalOperators maps each property type to its operator set. is_empty and
// is_not_empty are legal for every type.
var legalOperators = map[domain.PropertyType][]domain.Operator{
	domain.PropText:     {domain.OpEquals, domain.OpNotEquals, domain.OpContains},
	domain.PropURL:      {domain.OpEquals, domain.OpNotEquals, domain.OpContains},
	domain.PropSelect:   {domain.OpEquals, domain.OpNotEquals, domain.OpIsAnyOf},
	domain.PropDate:     {domain.OpBefore, domain.OpAfter, domain.OpOn},
	domain.PropDatetime: {domain.OpBefore, domain.OpAfter, domain.OpOn},
	domain.PropCheckbox: {domain.OpIsChecked, domain.OpIsUnchecked},
	domain.PropNumber:   {domain.OpEquals, domain.OpNotEquals, domain.OpGreaterThan, domain.OpLessThan},
}

func checkOperator(t domain.PropertyType, op domain.Operator) error {
	if op == domain.OpIsEmpty || op == domain.OpIsNotEmpty {
		return nil
	}
	for _, legal := range legalOperators[t] {
		if op == legal {
			return nil
		}
	}
	return &domain.ValidationError{Errors: []domain.FieldError{{
		Field:   "operator",
		Message: fmt.Sprintf("operator %q is not valid for property type %q", op, t),
		Code:    domain.CodeInvalidEnum,
	}}}
}
