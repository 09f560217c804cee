package registry

import (
	"fmt"
	"regexp"

	"blockbase/domain"
)

// ─────────────────────────────────────────────────────────────
// Field validators — pure helpers composed by schema Validate
// funcs. Each returns nil for valid input or a single FieldError.
// ─────────────────────────────────────────────────────────────

// ValidationResult is the outcome of validating a block's data payload.
type ValidationResult struct {
	Valid  bool                `json:"valid"`
	Errors []domain.FieldError `json:"errors,omitempty"`
}

func valid() ValidationResult { return ValidationResult{Valid: true} }

func invalid(errs ...domain.FieldError) ValidationResult {
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// StringRules bounds a string field. Zero values mean unconstrained.
type StringRules struct {
	Required  bool
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
}

// CheckString validates data[field] against rules.
func CheckString(data map[string]any, field string, rules StringRules) *domain.FieldError {
	raw, present := data[field]
	if !present || raw == nil {
		if rules.Required {
			return &domain.FieldError{Field: field, Message: field + " is required", Code: domain.CodeRequiredField}
		}
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		return &domain.FieldError{Field: field, Message: field + " must be a string", Code: domain.CodeInvalidType}
	}
	if rules.Required && s == "" {
		return &domain.FieldError{Field: field, Message: field + " is required", Code: domain.CodeRequiredField}
	}
	if rules.MinLength > 0 && len(s) < rules.MinLength {
		return &domain.FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s must be at least %d characters", field, rules.MinLength),
			Code:    domain.CodeMinLength,
		}
	}
	if rules.MaxLength > 0 && len(s) > rules.MaxLength {
		return &domain.FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s must be at most %d characters", field, rules.MaxLength),
			Code:    domain.CodeMaxLength,
		}
	}
	if rules.Pattern != nil && !rules.Pattern.MatchString(s) {
		return &domain.FieldError{Field: field, Message: field + " has an invalid format", Code: domain.CodeInvalidFormat}
	}
	return nil
}

// NumberRules bounds a numeric field. Min/Max are inclusive when set.
type NumberRules struct {
	Required bool
	Min      *float64
	Max      *float64
}

// CheckNumber validates data[field] against rules. JSON decoding yields
// float64 for every number, so that is the accepted representation (plus int
// for values built in Go code).
func CheckNumber(data map[string]any, field string, rules NumberRules) *domain.FieldError {
	raw, present := data[field]
	if !present || raw == nil {
		if rules.Required {
			return &domain.FieldError{Field: field, Message: field + " is required", Code: domain.CodeRequiredField}
		}
		return nil
	}
	var n float64
	switch v := raw.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	default:
		return &domain.FieldError{Field: field, Message: field + " must be a number", Code: domain.CodeInvalidType}
	}
	if rules.Min != nil && n < *rules.Min {
		return &domain.FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s must be at least %v", field, *rules.Min),
			Code:    domain.CodeMinValue,
		}
	}
	if rules.Max != nil && n > *rules.Max {
		return &domain.FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s must be at most %v", field, *rules.Max),
			Code:    domain.CodeMaxValue,
		}
	}
	return nil
}

// CheckBool validates that data[field], when present, is a boolean.
func CheckBool(data map[string]any, field string, required bool) *domain.FieldError {
	raw, present := data[field]
	if !present || raw == nil {
		if required {
			return &domain.FieldError{Field: field, Message: field + " is required", Code: domain.CodeRequiredField}
		}
		return nil
	}
	if _, ok := raw.(bool); !ok {
		return &domain.FieldError{Field: field, Message: field + " must be a boolean", Code: domain.CodeInvalidType}
	}
	return nil
}

// CheckEnum validates that data[field], when present, is one of allowed.
func CheckEnum(data map[string]any, field string, allowed []string, required bool) *domain.FieldError {
	raw, present := data[field]
	if !present || raw == nil {
		if required {
			return &domain.FieldError{Field: field, Message: field + " is required", Code: domain.CodeRequiredField}
		}
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		return &domain.FieldError{Field: field, Message: field + " must be a string", Code: domain.CodeInvalidType}
	}
	for _, a := range allowed {
		if s == a {
			return nil
		}
	}
	return &domain.FieldError{
		Field:   field,
		Message: fmt.Sprintf("%s must be one of %v", field, allowed),
		Code:    domain.CodeInvalidEnum,
	}
}
