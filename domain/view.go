package domain

import (
	"context"
	"time"
)

// ViewType selects a view's presentation style.
type ViewType string

const (
	ViewTypeTable    ViewType = "table"
	ViewTypeBoard    ViewType = "board"
	ViewTypeCalendar ViewType = "calendar"
	ViewTypeGallery  ViewType = "gallery"
	ViewTypeTimeline ViewType = "timeline"
)

// ViewConfig holds type-specific presentation settings; only the fields for
// the view's type are meaningful.
type ViewConfig struct {
	// table
	RowHeight string `json:"rowHeight,omitempty"` // "compact" | "normal" | "tall"
	WrapCells bool   `json:"wrapCells,omitempty"`
	// board
	GroupByPropertyID string   `json:"groupByPropertyId,omitempty"` // must be a select property
	CardPropertyIDs   []string `json:"cardPropertyIds,omitempty"`   // board + gallery
	// calendar
	DatePropertyID string `json:"datePropertyId,omitempty"`
	// gallery
	CardSize string `json:"cardSize,omitempty"` // "small" | "medium" | "large"
	// timeline
	StartPropertyID string `json:"startPropertyId,omitempty"`
	EndPropertyID   string `json:"endPropertyId,omitempty"`
}

// View is a reusable query-plus-presentation configuration bound to one
// database. Views are standalone entities, not blocks; they only go away with
// their database.
type View struct {
	ID         string      `json:"id"`
	DatabaseID string      `json:"databaseId"`
	Name       string      `json:"name"`
	Type       ViewType    `json:"type"`
	Filter     *FilterNode `json:"filter,omitempty"`
	Sort       []SortKey   `json:"sort,omitempty"`
	Config     ViewConfig  `json:"config"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// ViewStore manages view persistence, independent of the block store. Whether
// views survive a restart is the store implementation's documented choice.
type ViewStore interface {
	CreateView(ctx context.Context, v *View) error
	GetView(ctx context.Context, id string) (*View, error)
	ListViews(ctx context.Context, databaseID string) ([]*View, error)
	UpdateView(ctx context.Context, v *View) error
	DeleteView(ctx context.Context, id string) error
	DeleteViewsByDatabase(ctx context.Context, databaseID string) error
}
