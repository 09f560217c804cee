package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"blockbase/domain"
	"blockbase/query"
)

// ─────────────────────────────────────────────────────────────
// Database Service — typed tables over the block tree
// ─────────────────────────────────────────────────────────────

// DatabaseService interprets database and row blocks as typed tables and
// manages the views bound to them. Rows live as children of their database
// block; views live in their own store.
type DatabaseService struct {
	blocks *BlockService
	views  domain.ViewStore
}

// NewDatabaseService creates a DatabaseService.
func NewDatabaseService(blocks *BlockService, views domain.ViewStore) *DatabaseService {
	return &DatabaseService{blocks: blocks, views: views}
}

// CreateDatabaseParams are the inputs for a new database.
type CreateDatabaseParams struct {
	Name        string
	Description string
	Icon        string
	Properties  []domain.Property
	ParentID    string
}

// CreateDatabase creates a database block and returns its id. Properties
// without an id get a fresh one.
func (s *DatabaseService) CreateDatabase(ctx context.Context, p CreateDatabaseParams) (string, error) {
	props := make([]domain.Property, len(p.Properties))
	copy(props, p.Properties)
	for i := range props {
		if props[i].ID == "" {
			props[i].ID = uuid.New().String()
		}
	}

	data, err := domain.EncodeDatabaseData(&domain.Database{
		Name:        p.Name,
		Description: p.Description,
		Icon:        p.Icon,
		Properties:  props,
	})
	if err != nil {
		return "", fmt.Errorf("create database: %w", err)
	}

	b, err := s.blocks.Create(ctx, domain.BlockTypeDatabase, data, p.ParentID, nil)
	if err != nil {
		return "", fmt.Errorf("create database: %w", err)
	}
	return b.ID, nil
}

// GetDatabase returns the database, or nil when the block is missing or not
// a database block.
func (s *DatabaseService) GetDatabase(ctx context.Context, id string) (*domain.Database, error) {
	b, err := s.blocks.Get(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return domain.DatabaseFromBlock(b)
}

// getDatabaseStrict is GetDatabase with a NotFoundError instead of nil.
func (s *DatabaseService) getDatabaseStrict(ctx context.Context, id string) (*domain.Database, error) {
	db, err := s.GetDatabase(ctx, id)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, domain.NotFound("database", id)
	}
	return db, nil
}

// UpdateDatabaseParams carry the fields to merge; nil fields stay untouched.
type UpdateDatabaseParams struct {
	Name          *string
	Description   *string
	Icon          *string
	Properties    *[]domain.Property
	DefaultViewID *string
}

// UpdateDatabase merges the supplied fields into the database definition.
func (s *DatabaseService) UpdateDatabase(ctx context.Context, id string, p UpdateDatabaseParams) error {
	db, err := s.getDatabaseStrict(ctx, id)
	if err != nil {
		return err
	}
	if p.Name != nil {
		db.Name = *p.Name
	}
	if p.Description != nil {
		db.Description = *p.Description
	}
	if p.Icon != nil {
		db.Icon = *p.Icon
	}
	if p.Properties != nil {
		db.Properties = *p.Properties
	}
	if p.DefaultViewID != nil {
		db.DefaultViewID = *p.DefaultViewID
	}
	return s.persistDatabase(ctx, db)
}

// DeleteDatabase removes the database block with its whole subtree (all rows)
// and every view bound to it.
func (s *DatabaseService) DeleteDatabase(ctx context.Context, id string) error {
	if _, err := s.getDatabaseStrict(ctx, id); err != nil {
		return err
	}
	if err := s.blocks.Delete(ctx, id, true); err != nil {
		return fmt.Errorf("delete database: %w", err)
	}
	if err := s.views.DeleteViewsByDatabase(ctx, id); err != nil {
		return fmt.Errorf("delete database views: %w", err)
	}
	return nil
}

func (s *DatabaseService) persistDatabase(ctx context.Context, db *domain.Database) error {
	data, err := domain.EncodeDatabaseData(db)
	if err != nil {
		return err
	}
	return s.blocks.Update(ctx, db.ID, data)
}

// ── Properties ─────────────────────────────────────────────

// AddProperty appends a property definition and returns its fresh id.
func (s *DatabaseService) AddProperty(ctx context.Context, databaseID string, p domain.Property) (string, error) {
	db, err := s.getDatabaseStrict(ctx, databaseID)
	if err != nil {
		return "", err
	}
	p.ID = uuid.New().String()
	db.Properties = append(db.Properties, p)
	if err := s.persistDatabase(ctx, db); err != nil {
		return "", fmt.Errorf("add property: %w", err)
	}
	return p.ID, nil
}

// UpdatePropertyParams carry the property fields to merge.
type UpdatePropertyParams struct {
	Name     *string
	Type     *domain.PropertyType
	Required *bool
	Config   *map[string]any
}

// UpdateProperty merges the supplied fields into one property definition.
func (s *DatabaseService) UpdateProperty(ctx context.Context, databaseID, propertyID string, p UpdatePropertyParams) error {
	db, err := s.getDatabaseStrict(ctx, databaseID)
	if err != nil {
		return err
	}
	idx := propertyIndex(db.Properties, propertyID)
	if idx < 0 {
		return domain.NotFound("property", propertyID)
	}
	prop := &db.Properties[idx]
	if p.Name != nil {
		prop.Name = *p.Name
	}
	if p.Type != nil {
		prop.Type = *p.Type
	}
	if p.Required != nil {
		prop.Required = *p.Required
	}
	if p.Config != nil {
		prop.Config = *p.Config
	}
	return s.persistDatabase(ctx, db)
}

// DeleteProperty removes the property definition and strips its key from
// every row's value map. The fan-out over all rows completes before this
// returns; an error mid-pass leaves some rows stripped and others not, since
// the adapter contract has no cross-block transaction.
func (s *DatabaseService) DeleteProperty(ctx context.Context, databaseID, propertyID string) error {
	db, err := s.getDatabaseStrict(ctx, databaseID)
	if err != nil {
		return err
	}
	idx := propertyIndex(db.Properties, propertyID)
	if idx < 0 {
		return domain.NotFound("property", propertyID)
	}
	db.Properties = append(db.Properties[:idx], db.Properties[idx+1:]...)
	if err := s.persistDatabase(ctx, db); err != nil {
		return fmt.Errorf("delete property: %w", err)
	}

	rows, err := s.GetRows(ctx, databaseID)
	if err != nil {
		return fmt.Errorf("delete property: list rows: %w", err)
	}
	stripped := 0
	for _, r := range rows {
		if _, has := r.Values[propertyID]; !has {
			continue
		}
		delete(r.Values, propertyID)
		if err := s.blocks.Update(ctx, r.ID, map[string]any{"values": r.Values}); err != nil {
			log.Printf("database service: property %s strip stopped after %d/%d rows: %v", propertyID, stripped, len(rows), err)
			return fmt.Errorf("delete property: strip row %s: %w", r.ID, err)
		}
		stripped++
	}
	return nil
}

func propertyIndex(props []domain.Property, id string) int {
	for i, p := range props {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// ── Rows ───────────────────────────────────────────────────

// CreateRow creates a row block parented to the database.
func (s *DatabaseService) CreateRow(ctx context.Context, databaseID string, values map[string]any) (*domain.Row, error) {
	return s.createRow(ctx, databaseID, values, false, false)
}

func (s *DatabaseService) createRow(ctx context.Context, databaseID string, values map[string]any, archived, pinned bool) (*domain.Row, error) {
	if _, err := s.getDatabaseStrict(ctx, databaseID); err != nil {
		return nil, err
	}
	data, err := domain.EncodeRowData(&domain.Row{
		DatabaseID: databaseID,
		Values:     values,
		Archived:   archived,
		Pinned:     pinned,
	})
	if err != nil {
		return nil, fmt.Errorf("create row: %w", err)
	}
	b, err := s.blocks.Create(ctx, domain.BlockTypeDBRow, data, databaseID, nil)
	if err != nil {
		return nil, fmt.Errorf("create row: %w", err)
	}
	return domain.RowFromBlock(b)
}

// GetRow returns one row by id.
func (s *DatabaseService) GetRow(ctx context.Context, id string) (*domain.Row, error) {
	b, err := s.blocks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r, err := domain.RowFromBlock(b)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.NotFound("row", id)
	}
	return r, nil
}

// GetRows returns all rows of a database in insertion order.
func (s *DatabaseService) GetRows(ctx context.Context, databaseID string) ([]domain.Row, error) {
	if _, err := s.getDatabaseStrict(ctx, databaseID); err != nil {
		return nil, err
	}
	children, err := s.blocks.GetChildren(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.Row, 0, len(children))
	for _, b := range children {
		r, err := domain.RowFromBlock(b)
		if err != nil {
			return nil, err
		}
		if r != nil {
			rows = append(rows, *r)
		}
	}
	return rows, nil
}

// UpdateRowParams carry the row fields to merge. Values are merged key by key
// over the existing value map.
type UpdateRowParams struct {
	Values   map[string]any
	Archived *bool
	Pinned   *bool
}

// UpdateRow merges the supplied fields into one row.
func (s *DatabaseService) UpdateRow(ctx context.Context, id string, p UpdateRowParams) error {
	r, err := s.GetRow(ctx, id)
	if err != nil {
		return err
	}
	partial := map[string]any{}
	if p.Values != nil {
		for k, v := range p.Values {
			r.Values[k] = v
		}
		partial["values"] = r.Values
	}
	if p.Archived != nil {
		partial["archived"] = *p.Archived
	}
	if p.Pinned != nil {
		partial["pinned"] = *p.Pinned
	}
	if len(partial) == 0 {
		return nil
	}
	return s.blocks.Update(ctx, id, partial)
}

// DeleteRow removes one row (cascading, though rows normally have no
// children).
func (s *DatabaseService) DeleteRow(ctx context.Context, id string) error {
	if _, err := s.GetRow(ctx, id); err != nil {
		return err
	}
	return s.blocks.Delete(ctx, id, true)
}

// DuplicateRow creates a new row with a copy of an existing row's values.
func (s *DatabaseService) DuplicateRow(ctx context.Context, id string) (*domain.Row, error) {
	src, err := s.GetRow(ctx, id)
	if err != nil {
		return nil, err
	}
	values := make(map[string]any, len(src.Values))
	for k, v := range src.Values {
		values[k] = v
	}
	return s.CreateRow(ctx, src.DatabaseID, values)
}

// ── Queries ────────────────────────────────────────────────

// QueryRows evaluates opts over all rows of the database.
func (s *DatabaseService) QueryRows(ctx context.Context, databaseID string, opts query.Options) (*query.Result, error) {
	db, err := s.getDatabaseStrict(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	rows, err := s.GetRows(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	return query.Run(rows, db.Properties, opts)
}

// DatabaseStats summarizes one database.
type DatabaseStats struct {
	TotalRows     int `json:"totalRows"`
	ArchivedRows  int `json:"archivedRows"`
	ActiveRows    int `json:"activeRows"`
	PropertyCount int `json:"propertyCount"`
	ViewCount     int `json:"viewCount"`
}

// GetDatabaseStats returns row, property, and view counts for a database.
func (s *DatabaseService) GetDatabaseStats(ctx context.Context, databaseID string) (*DatabaseStats, error) {
	db, err := s.getDatabaseStrict(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	rows, err := s.GetRows(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	views, err := s.views.ListViews(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	stats := &DatabaseStats{
		TotalRows:     len(rows),
		PropertyCount: len(db.Properties),
		ViewCount:     len(views),
	}
	for _, r := range rows {
		if r.Archived {
			stats.ArchivedRows++
		} else {
			stats.ActiveRows++
		}
	}
	return stats, nil
}
