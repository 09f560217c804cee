package domain

import (
	"context"
	"time"
)

type BlockType string

const (
	BlockTypePage     BlockType = "page"
	BlockTypeText     BlockType = "text"
	BlockTypeTodo     BlockType = "todo"
	BlockTypeDatabase BlockType = "database"
	BlockTypeDBRow    BlockType = "db_row"
)

// Metadata carries a block's permission flags plus free-form annotations.
type Metadata struct {
	CanEdit     bool              `json:"canEdit"`
	CanDelete   bool              `json:"canDelete"`
	CanMove     bool              `json:"canMove"`
	CanShare    bool              `json:"canShare"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// DefaultMetadata returns the permissive metadata new blocks get unless the
// caller says otherwise.
func DefaultMetadata() Metadata {
	return Metadata{CanEdit: true, CanDelete: true, CanMove: true, CanShare: true}
}

// Block is the universal content unit. Data is a type-specific payload whose
// shape is defined by the type's registered schema; the store treats it as
// opaque and only higher layers decode it.
type Block struct {
	ID        string         `json:"id"`
	Type      BlockType      `json:"type"`
	Data      map[string]any `json:"data"`
	ParentID  string         `json:"parentId,omitempty"` // empty for root blocks
	Children  []string       `json:"children,omitempty"` // ordered, exclusive ownership
	Metadata  Metadata       `json:"metadata"`
	Version   int64          `json:"version"` // bumped on every mutation
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Clone returns a copy whose Data, Children, and Annotations do not alias the
// receiver's. Adapters hand out clones so callers can't mutate stored state.
func (b *Block) Clone() *Block {
	c := *b
	if b.Data != nil {
		c.Data = make(map[string]any, len(b.Data))
		for k, v := range b.Data {
			c.Data[k] = v
		}
	}
	if b.Children != nil {
		c.Children = append([]string(nil), b.Children...)
	}
	if b.Metadata.Annotations != nil {
		c.Metadata.Annotations = make(map[string]string, len(b.Metadata.Annotations))
		for k, v := range b.Metadata.Annotations {
			c.Metadata.Annotations[k] = v
		}
	}
	return &c
}

// Adapter is the persistence contract the block store runs on. Implementations
// own identity stamping and the version counter; Data stays opaque to them.
type Adapter interface {
	// CreateBlock persists a new block with version 1 and fresh timestamps.
	// When parentID is set the new id is appended to that parent's child list.
	CreateBlock(ctx context.Context, typ BlockType, data map[string]any, parentID string, metadata Metadata) (*Block, error)
	// GetBlock returns the block or a NotFoundError.
	GetBlock(ctx context.Context, id string) (*Block, error)
	// UpdateBlock shallow-merges partial into the block's data, bumps the
	// version, and refreshes UpdatedAt.
	UpdateBlock(ctx context.Context, id string, partial map[string]any) error
	// DeleteBlock removes the block. With deleteChildren the whole subtree
	// goes; without it the children are orphaned (ParentID cleared).
	DeleteBlock(ctx context.Context, id string, deleteChildren bool) error
	// GetChildren returns direct children in the parent's insertion order.
	GetChildren(ctx context.Context, id string) ([]*Block, error)
}
