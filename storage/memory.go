package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"blockbase/domain"
)

// ─────────────────────────────────────────────────────────────
// In-memory adapter — an arena of blocks addressed by id.
// Used by tests and ephemeral embeddings.
// ─────────────────────────────────────────────────────────────

// Memory implements domain.Adapter with a mutex-guarded map. Blocks are
// cloned on the way in and out so callers never alias stored state.
type Memory struct {
	mu     sync.RWMutex
	blocks map[string]*domain.Block
}

// NewMemory creates an empty in-memory adapter.
func NewMemory() *Memory {
	return &Memory{blocks: make(map[string]*domain.Block)}
}

func (m *Memory) CreateBlock(_ context.Context, typ domain.BlockType, data map[string]any, parentID string, metadata domain.Metadata) (*domain.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var parent *domain.Block
	if parentID != "" {
		var ok bool
		parent, ok = m.blocks[parentID]
		if !ok {
			return nil, domain.NotFound("block", parentID)
		}
	}

	now := time.Now()
	b := &domain.Block{
		ID:        uuid.New().String(),
		Type:      typ,
		Data:      data,
		ParentID:  parentID,
		Metadata:  metadata,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.blocks[b.ID] = b.Clone()

	if parent != nil {
		parent.Children = append(parent.Children, b.ID)
		parent.Version++
		parent.UpdatedAt = now
	}
	return b, nil
}

func (m *Memory) GetBlock(_ context.Context, id string) (*domain.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blocks[id]
	if !ok {
		return nil, domain.NotFound("block", id)
	}
	return b.Clone(), nil
}

func (m *Memory) UpdateBlock(_ context.Context, id string, partial map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blocks[id]
	if !ok {
		return domain.NotFound("block", id)
	}
	if b.Data == nil {
		b.Data = make(map[string]any, len(partial))
	}
	for k, v := range partial {
		b.Data[k] = v
	}
	b.Version++
	b.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) DeleteBlock(_ context.Context, id string, deleteChildren bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blocks[id]
	if !ok {
		return domain.NotFound("block", id)
	}

	if b.ParentID != "" {
		if parent, ok := m.blocks[b.ParentID]; ok {
			parent.Children = removeID(parent.Children, id)
			parent.Version++
			parent.UpdatedAt = time.Now()
		}
	}

	if deleteChildren {
		m.deleteSubtree(b)
	} else {
		for _, childID := range b.Children {
			if child, ok := m.blocks[childID]; ok {
				child.ParentID = ""
				child.Version++
				child.UpdatedAt = time.Now()
			}
		}
		delete(m.blocks, id)
	}
	return nil
}

// deleteSubtree removes b and everything below it. Caller holds the lock.
func (m *Memory) deleteSubtree(b *domain.Block) {
	for _, childID := range b.Children {
		if child, ok := m.blocks[childID]; ok {
			m.deleteSubtree(child)
		}
	}
	delete(m.blocks, b.ID)
}

func (m *Memory) GetChildren(_ context.Context, id string) ([]*domain.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blocks[id]
	if !ok {
		return nil, domain.NotFound("block", id)
	}
	children := make([]*domain.Block, 0, len(b.Children))
	for _, childID := range b.Children {
		if child, ok := m.blocks[childID]; ok {
			children = append(children, child.Clone())
		}
	}
	return children, nil
}

// Len reports how many blocks the adapter holds. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blocks)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

var _ domain.Adapter = (*Memory)(nil)
