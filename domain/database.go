package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// PropertyType defines the data type of a database property.
type PropertyType string

const (
	PropText     PropertyType = "text"
	PropNumber   PropertyType = "number"
	PropDate     PropertyType = "date"
	PropDatetime PropertyType = "datetime"
	PropSelect   PropertyType = "select"
	PropCheckbox PropertyType = "checkbox"
	PropURL      PropertyType = "url"
)

// SelectOption is one entry of a select property's ordered option list.
type SelectOption struct {
	ID    string `json:"id"`
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

// Property is one typed column of a database. Config holds type-specific
// settings (select options, number format, ...) and stays opaque here.
type Property struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Type     PropertyType   `json:"type"`
	Required bool           `json:"required,omitempty"`
	Config   map[string]any `json:"config,omitempty"`
}

// SelectOptions decodes the option list out of a select property's config.
// Returns nil for non-select properties or configs without options.
func (p Property) SelectOptions() []SelectOption {
	raw, ok := p.Config["options"]
	if !ok {
		return nil
	}
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var opts []SelectOption
	if err := json.Unmarshal(buf, &opts); err != nil {
		return nil
	}
	return opts
}

// Database is the typed reading of a block of type BlockTypeDatabase.
// Identity, version, and timestamps come from the block; the rest lives in
// the block's data payload.
type Database struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Icon          string     `json:"icon,omitempty"`
	Properties    []Property `json:"properties"`
	DefaultViewID string     `json:"defaultViewId,omitempty"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Row is the typed reading of a block of type BlockTypeDBRow. Values is keyed
// by property id; value shape depends on the property's type.
type Row struct {
	ID         string         `json:"id"`
	DatabaseID string         `json:"databaseId"`
	Values     map[string]any `json:"values"`
	Archived   bool           `json:"archived"`
	Pinned     bool           `json:"pinned"`
	Version    int64          `json:"version"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// databaseData / rowData are the wire shapes stored in a block's data payload.
// Typed structs at the boundary keep the untyped storage representation out of
// the rest of the engine.
type databaseData struct {
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Icon          string     `json:"icon,omitempty"`
	Properties    []Property `json:"properties"`
	DefaultViewID string     `json:"defaultViewId,omitempty"`
}

type rowData struct {
	DatabaseID string         `json:"databaseId"`
	Values     map[string]any `json:"values"`
	Archived   bool           `json:"archived,omitempty"`
	Pinned     bool           `json:"pinned,omitempty"`
}

func toDataMap(v any) (map[string]any, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode block data: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(buf, &m); err != nil {
		return nil, fmt.Errorf("encode block data: %w", err)
	}
	return m, nil
}

func fromDataMap(data map[string]any, v any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("decode block data: %w", err)
	}
	if err := json.Unmarshal(buf, v); err != nil {
		return fmt.Errorf("decode block data: %w", err)
	}
	return nil
}

// EncodeDatabaseData serializes a database definition into a block data payload.
func EncodeDatabaseData(d *Database) (map[string]any, error) {
	return toDataMap(databaseData{
		Name:          d.Name,
		Description:   d.Description,
		Icon:          d.Icon,
		Properties:    d.Properties,
		DefaultViewID: d.DefaultViewID,
	})
}

// DatabaseFromBlock decodes a database block. Returns nil (no error) when the
// block is not a database block.
func DatabaseFromBlock(b *Block) (*Database, error) {
	if b == nil || b.Type != BlockTypeDatabase {
		return nil, nil
	}
	var dd databaseData
	if err := fromDataMap(b.Data, &dd); err != nil {
		return nil, err
	}
	return &Database{
		ID:            b.ID,
		Name:          dd.Name,
		Description:   dd.Description,
		Icon:          dd.Icon,
		Properties:    dd.Properties,
		DefaultViewID: dd.DefaultViewID,
		Version:       b.Version,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}, nil
}

// EncodeRowData serializes a row into a block data payload.
func EncodeRowData(r *Row) (map[string]any, error) {
	values := r.Values
	if values == nil {
		values = map[string]any{}
	}
	return toDataMap(rowData{
		DatabaseID: r.DatabaseID,
		Values:     values,
		Archived:   r.Archived,
		Pinned:     r.Pinned,
	})
}

// RowFromBlock decodes a row block. Returns nil (no error) when the block is
// not a row block.
func RowFromBlock(b *Block) (*Row, error) {
	if b == nil || b.Type != BlockTypeDBRow {
		return nil, nil
	}
	var rd rowData
	if err := fromDataMap(b.Data, &rd); err != nil {
		return nil, err
	}
	if rd.Values == nil {
		rd.Values = map[string]any{}
	}
	return &Row{
		ID:         b.ID,
		DatabaseID: rd.DatabaseID,
		Values:     rd.Values,
		Archived:   rd.Archived,
		Pinned:     rd.Pinned,
		Version:    b.Version,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}, nil
}
