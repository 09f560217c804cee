package domain

// ─────────────────────────────────────────────────────────────
// Filter trees and sort specs — shared by views and the query
// engine, so they live with the domain types.
// ─────────────────────────────────────────────────────────────

// Conjunction combines the members of one filter-tree level.
type Conjunction string

const (
	ConjunctionAnd Conjunction = "and"
	ConjunctionOr  Conjunction = "or"
)

// Operator names a leaf condition's comparison. Which operators are legal
// depends on the property's type; the query engine enforces that.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpIsAnyOf     Operator = "is_any_of"
	OpBefore      Operator = "before"
	OpAfter       Operator = "after"
	OpOn          Operator = "on"
	OpIsChecked   Operator = "is_checked"
	OpIsUnchecked Operator = "is_unchecked"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpIsEmpty     Operator = "is_empty"
	OpIsNotEmpty  Operator = "is_not_empty"
)

// Condition is one leaf of a filter tree.
type Condition struct {
	PropertyID string   `json:"propertyId"`
	Operator   Operator `json:"operator"`
	Value      any      `json:"value,omitempty"`
}

// FilterNode is one level of a filter tree: leaf conditions plus nested
// groups, combined with the node's conjunction. An empty "and" node passes
// every row; an empty "or" node passes none.
type FilterNode struct {
	Conjunction Conjunction   `json:"conjunction"`
	Conditions  []Condition   `json:"conditions,omitempty"`
	Groups      []*FilterNode `json:"groups,omitempty"`
}

// SortDirection orders one sort key.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortKey is one entry of a multi-key sort; earlier keys take priority.
type SortKey struct {
	PropertyID string        `json:"propertyId"`
	Direction  SortDirection `json:"direction"`
}
