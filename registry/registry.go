package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"blockbase/domain"
)

// ─────────────────────────────────────────────────────────────
// Type Registry — pluggable block type schemas
// ─────────────────────────────────────────────────────────────

// Schema declares one block type: its structural constraints, default data,
// and payload validation.
type Schema struct {
	// Type is the block type tag this schema handles (e.g. "database").
	Type domain.BlockType
	// Category groups related types (e.g. "content", "database").
	Category string
	// CanHaveChildren gates whether blocks of this type may own children.
	CanHaveChildren bool
	// AllowedParents / AllowedChildren are allow-lists; nil means unrestricted.
	AllowedParents  []domain.BlockType
	AllowedChildren []domain.BlockType
	// DefaultData is merged under caller-supplied data on create.
	DefaultData map[string]any
	// Validate checks a data payload. Nil means any payload is accepted.
	Validate func(data map[string]any) ValidationResult
}

// Registry maps block type tags to their schemas. It is process-wide and
// read-mostly: register everything at startup, then only look up.
type Registry struct {
	mu      sync.RWMutex
	schemas map[domain.BlockType]Schema
}

// New creates an empty type registry.
func New() *Registry {
	return &Registry{schemas: make(map[domain.BlockType]Schema)}
}

// Register adds a type's schema. Registering an already-known type is an error.
func (r *Registry) Register(s Schema) error {
	if s.Type == "" {
		return fmt.Errorf("register: empty block type")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[s.Type]; exists {
		return fmt.Errorf("register: block type %q already registered", s.Type)
	}
	r.schemas[s.Type] = s
	return nil
}

// Unregister removes a type's schema.
func (r *Registry) Unregister(typ domain.BlockType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[typ]; !exists {
		return fmt.Errorf("unregister: block type %q not registered", typ)
	}
	delete(r.schemas, typ)
	return nil
}

// GetSchema returns the schema for typ.
func (r *Registry) GetSchema(typ domain.BlockType) (Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[typ]
	return s, ok
}

// IsRegistered reports whether typ has a schema.
func (r *Registry) IsRegistered(typ domain.BlockType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.schemas[typ]
	return ok
}

// AllTypes returns every registered type tag.
func (r *Registry) AllTypes() []domain.BlockType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]domain.BlockType, 0, len(r.schemas))
	for t := range r.schemas {
		types = append(types, t)
	}
	return types
}

// SchemasByCategory returns the schemas belonging to one category.
func (r *Registry) SchemasByCategory(category string) []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Schema
	for _, s := range r.schemas {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// CanHaveParent reports whether childType accepts parentType as its parent.
// An absent allow-list means any registered parent is fine.
func (r *Registry) CanHaveParent(childType, parentType domain.BlockType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	child, ok := r.schemas[childType]
	if !ok {
		return false
	}
	if child.AllowedParents == nil {
		return true
	}
	for _, t := range child.AllowedParents {
		if t == parentType {
			return true
		}
	}
	return false
}

// CanHaveChild reports whether parentType accepts childType as a child.
func (r *Registry) CanHaveChild(parentType, childType domain.BlockType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	parent, ok := r.schemas[parentType]
	if !ok || !parent.CanHaveChildren {
		return false
	}
	if parent.AllowedChildren == nil {
		return true
	}
	for _, t := range parent.AllowedChildren {
		if t == childType {
			return true
		}
	}
	return false
}

// Validate runs typ's schema validation over data. Unknown types validate
// false with an UNKNOWN_BLOCK_TYPE error.
func (r *Registry) Validate(typ domain.BlockType, data map[string]any) ValidationResult {
	r.mu.RLock()
	s, ok := r.schemas[typ]
	r.mu.RUnlock()
	if !ok {
		return invalid(domain.FieldError{
			Field:   "type",
			Message: fmt.Sprintf("unknown block type %q", typ),
			Code:    domain.CodeUnknownBlockType,
		})
	}
	if s.Validate == nil {
		return valid()
	}
	return s.Validate(data)
}

// CreateParams are the inputs for minting a new block value.
type CreateParams struct {
	Type     domain.BlockType
	Data     map[string]any
	ParentID string
	Metadata *domain.Metadata // nil means DefaultMetadata
}

// CreateBlock builds a block of the given type: caller data merged over the
// schema's defaults, fresh uuid, version 1, both timestamps set to now. The
// block is not persisted; that is the block store's job.
func (r *Registry) CreateBlock(p CreateParams) (*domain.Block, error) {
	r.mu.RLock()
	s, ok := r.schemas[p.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("create block: unknown block type %q", p.Type)
	}

	data := make(map[string]any, len(s.DefaultData)+len(p.Data))
	for k, v := range s.DefaultData {
		data[k] = v
	}
	for k, v := range p.Data {
		data[k] = v
	}

	meta := domain.DefaultMetadata()
	if p.Metadata != nil {
		meta = *p.Metadata
	}

	now := time.Now()
	return &domain.Block{
		ID:        uuid.New().String(),
		Type:      p.Type,
		Data:      data,
		ParentID:  p.ParentID,
		Metadata:  meta,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
