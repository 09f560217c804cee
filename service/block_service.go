package service

import (
	"context"
	"fmt"

	"blockbase/domain"
	"blockbase/registry"
)

// ─────────────────────────────────────────────────────────────
// Block Service — registry-validated CRUD and tree operations
// over a pluggable persistence adapter
// ─────────────────────────────────────────────────────────────

// BlockService manages the lifecycle of blocks. Every create is validated
// against the type registry and checked for structural legality before it
// reaches the adapter.
type BlockService struct {
	adapter  domain.Adapter
	registry *registry.Registry
	emitter  EventEmitter
}

// NewBlockService creates a BlockService. A nil emitter defaults to NopEmitter.
func NewBlockService(adapter domain.Adapter, reg *registry.Registry, emitter EventEmitter) *BlockService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &BlockService{adapter: adapter, registry: reg, emitter: emitter}
}

// Registry returns the type registry the service validates against.
func (s *BlockService) Registry() *registry.Registry {
	return s.registry
}

// Create validates and persists a new block. The data payload is merged over
// the type's declared defaults. A nil metadata means default permissions.
func (s *BlockService) Create(ctx context.Context, typ domain.BlockType, data map[string]any, parentID string, metadata *domain.Metadata) (*domain.Block, error) {
	proto, err := s.registry.CreateBlock(registry.CreateParams{Type: typ, Data: data, ParentID: parentID, Metadata: metadata})
	if err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}

	if res := s.registry.Validate(typ, proto.Data); !res.Valid {
		return nil, &domain.ValidationError{Errors: res.Errors}
	}

	if parentID != "" {
		parent, err := s.adapter.GetBlock(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if !s.registry.CanHaveChild(parent.Type, typ) || !s.registry.CanHaveParent(typ, parent.Type) {
			return nil, &domain.StructuralError{ParentType: parent.Type, ChildType: typ}
		}
	}

	b, err := s.adapter.CreateBlock(ctx, typ, proto.Data, parentID, proto.Metadata)
	if err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}
	s.emitter.Emit(ctx, EventBlockCreated, b)
	return b, nil
}

// Get returns a block by id.
func (s *BlockService) Get(ctx context.Context, id string) (*domain.Block, error) {
	return s.adapter.GetBlock(ctx, id)
}

// Update merges partial into the block's data, bumps its version, and
// refreshes UpdatedAt.
func (s *BlockService) Update(ctx context.Context, id string, partial map[string]any) error {
	if err := s.adapter.UpdateBlock(ctx, id, partial); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventBlockUpdated, map[string]any{"id": id})
	return nil
}

// Delete removes a block. With deleteChildren the whole subtree goes;
// without it the children become roots.
func (s *BlockService) Delete(ctx context.Context, id string, deleteChildren bool) error {
	if err := s.adapter.DeleteBlock(ctx, id, deleteChildren); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventBlockDeleted, map[string]any{"id": id, "deleteChildren": deleteChildren})
	return nil
}

// GetChildren returns a block's direct children in insertion order.
func (s *BlockService) GetChildren(ctx context.Context, id string) ([]*domain.Block, error) {
	return s.adapter.GetChildren(ctx, id)
}
