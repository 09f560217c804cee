package registry

import (
	"blockbase/domain"
)

// ─────────────────────────────────────────────────────────────
// Built-in schemas for the block types the engine itself reads
// ─────────────────────────────────────────────────────────────

// RegisterBuiltins installs the schemas the database layer depends on plus the
// basic content types. Callers register their own product types alongside.
func RegisterBuiltins(r *Registry) error {
	schemas := []Schema{
		{
			Type:            domain.BlockTypePage,
			Category:        "content",
			CanHaveChildren: true,
			DefaultData:     map[string]any{"title": "Untitled"},
			Validate: func(data map[string]any) ValidationResult {
				if fe := CheckString(data, "title", StringRules{Required: true, MaxLength: 200}); fe != nil {
					return invalid(*fe)
				}
				return valid()
			},
		},
		{
			Type:        domain.BlockTypeText,
			Category:    "content",
			DefaultData: map[string]any{"text": ""},
			Validate: func(data map[string]any) ValidationResult {
				if fe := CheckString(data, "text", StringRules{}); fe != nil {
					return invalid(*fe)
				}
				return valid()
			},
		},
		{
			Type:        domain.BlockTypeTodo,
			Category:    "content",
			DefaultData: map[string]any{"text": "", "checked": false},
			Validate: func(data map[string]any) ValidationResult {
				var errs []domain.FieldError
				if fe := CheckString(data, "text", StringRules{}); fe != nil {
					errs = append(errs, *fe)
				}
				if fe := CheckBool(data, "checked", false); fe != nil {
					errs = append(errs, *fe)
				}
				if len(errs) > 0 {
					return invalid(errs...)
				}
				return valid()
			},
		},
		{
			Type:            domain.BlockTypeDatabase,
			Category:        "database",
			CanHaveChildren: true,
			DefaultData:     map[string]any{"name": "Untitled", "properties": []any{}},
			Validate: func(data map[string]any) ValidationResult {
				var errs []domain.FieldError
				if fe := CheckString(data, "name", StringRules{Required: true, MaxLength: 200}); fe != nil {
					errs = append(errs, *fe)
				}
				if fe := CheckString(data, "icon", StringRules{MaxLength: 50}); fe != nil {
					errs = append(errs, *fe)
				}
				if raw, ok := data["properties"]; ok && raw != nil {
					if _, isList := raw.([]any); !isList {
						if _, isTyped := raw.([]domain.Property); !isTyped {
							errs = append(errs, domain.FieldError{
								Field:   "properties",
								Message: "properties must be a list",
								Code:    domain.CodeInvalidType,
							})
						}
					}
				}
				if len(errs) > 0 {
					return invalid(errs...)
				}
				return valid()
			},
		},
		{
			Type:           domain.BlockTypeDBRow,
			Category:       "database",
			AllowedParents: []domain.BlockType{domain.BlockTypeDatabase},
			DefaultData:    map[string]any{"values": map[string]any{}},
			Validate: func(data map[string]any) ValidationResult {
				var errs []domain.FieldError
				if fe := CheckString(data, "databaseId", StringRules{Required: true}); fe != nil {
					errs = append(errs, *fe)
				}
				if raw, ok := data["values"]; ok && raw != nil {
					if _, isMap := raw.(map[string]any); !isMap {
						errs = append(errs, domain.FieldError{
							Field:   "values",
							Message: "values must be an object keyed by property id",
							Code:    domain.CodeInvalidType,
						})
					}
				}
				if fe := CheckBool(data, "archived", false); fe != nil {
					errs = append(errs, *fe)
				}
				if fe := CheckBool(data, "pinned", false); fe != nil {
					errs = append(errs, *fe)
				}
				if len(errs) > 0 {
					return invalid(errs...)
				}
				return valid()
			},
		},
	}

	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return nil
}
