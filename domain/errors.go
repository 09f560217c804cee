package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ─────────────────────────────────────────────────────────────
// Error taxonomy — typed failures the HTTP layer maps to codes
// ─────────────────────────────────────────────────────────────

// Validation error codes attached to FieldError.Code.
const (
	CodeRequiredField    = "REQUIRED_FIELD"
	CodeInvalidType      = "INVALID_TYPE"
	CodeMinLength        = "MIN_LENGTH"
	CodeMaxLength        = "MAX_LENGTH"
	CodeInvalidFormat    = "INVALID_FORMAT"
	CodeMinValue         = "MIN_VALUE"
	CodeMaxValue         = "MAX_VALUE"
	CodeInvalidEnum      = "INVALID_ENUM"
	CodeUnknownBlockType = "UNKNOWN_BLOCK_TYPE"
)

// FieldError is a single machine-readable validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Code)
}

// NotFoundError reports an absent database/row/view/property/block.
type NotFoundError struct {
	Kind string // "block", "database", "row", "view", "property"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NotFound builds a NotFoundError for the given kind and id.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ValidationError bundles the field errors a schema validation produced.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StructuralError reports a disallowed parent/child type combination.
type StructuralError struct {
	ParentType BlockType
	ChildType  BlockType
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("block type %q cannot be a child of %q", e.ChildType, e.ParentType)
}

// IsStructural reports whether err is (or wraps) a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// ConflictError is reserved for optimistic-lock enforcement. The engine tracks
// Block.Version but does not enforce it; callers that implement compare-and-swap
// on top of the store should return this.
type ConflictError struct {
	ID              string
	ExpectedVersion int64
	ActualVersion   int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict on %s: expected %d, actual %d", e.ID, e.ExpectedVersion, e.ActualVersion)
}
