package service

import (
	"context"
	"fmt"

	"blockbase/domain"
)

// ─────────────────────────────────────────────────────────────
// Export / import — a self-contained, storage-agnostic snapshot
// of one database: definition, row values, and views.
// ─────────────────────────────────────────────────────────────

// ExportedDatabase is the transferable document. It carries no identity for
// the database or its views; importing always mints fresh ids. Property ids
// are kept because row values reference them.
type ExportedDatabase struct {
	Database ExportedDefinition `json:"database"`
	Rows     []ExportedRow      `json:"rows"`
	Views    []ExportedView     `json:"views"`
}

// ExportedDefinition is the database's schema portion.
type ExportedDefinition struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	Properties  []domain.Property `json:"properties"`
}

// ExportedRow is one row's payload without identity.
type ExportedRow struct {
	Values   map[string]any `json:"values"`
	Archived bool           `json:"archived,omitempty"`
	Pinned   bool           `json:"pinned,omitempty"`
}

// ExportedView is one view without identity fields.
type ExportedView struct {
	Name   string             `json:"name"`
	Type   domain.ViewType    `json:"type"`
	Filter *domain.FilterNode `json:"filter,omitempty"`
	Sort   []domain.SortKey   `json:"sort,omitempty"`
	Config domain.ViewConfig  `json:"config"`
}

// ExportDatabase snapshots a database with all its rows and views.
func (s *DatabaseService) ExportDatabase(ctx context.Context, databaseID string) (*ExportedDatabase, error) {
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

	doc := &ExportedDatabase{
		Database: ExportedDefinition{
			Name:        db.Name,
			Description: db.Description,
			Icon:        db.Icon,
			Properties:  db.Properties,
		},
		Rows:  make([]ExportedRow, 0, len(rows)),
		Views: make([]ExportedView, 0, len(views)),
	}
	for _, r := range rows {
		doc.Rows = append(doc.Rows, ExportedRow{Values: r.Values, Archived: r.Archived, Pinned: r.Pinned})
	}
	for _, v := range views {
		doc.Views = append(doc.Views, ExportedView{Name: v.Name, Type: v.Type, Filter: v.Filter, Sort: v.Sort, Config: v.Config})
	}
	return doc, nil
}

// ImportDatabase re-creates a database from an exported document under a
// fresh id, with all rows and views bound to the new database. parentID
// places the new database block in the tree ("" makes it a root).
func (s *DatabaseService) ImportDatabase(ctx context.Context, doc *ExportedDatabase, parentID string) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("import database: nil document")
	}

	dbID, err := s.CreateDatabase(ctx, CreateDatabaseParams{
		Name:        doc.Database.Name,
		Description: doc.Database.Description,
		Icon:        doc.Database.Icon,
		Properties:  doc.Database.Properties,
		ParentID:    parentID,
	})
	if err != nil {
		return "", fmt.Errorf("import database: %w", err)
	}

	for i, r := range doc.Rows {
		if _, err := s.createRow(ctx, dbID, r.Values, r.Archived, r.Pinned); err != nil {
			return "", fmt.Errorf("import database: row %d: %w", i, err)
		}
	}
	for i, v := range doc.Views {
		if _, err := s.CreateView(ctx, CreateViewParams{
			DatabaseID: dbID,
			Name:       v.Name,
			Type:       v.Type,
			Filter:     v.Filter,
			Sort:       v.Sort,
			Config:     v.Config,
		}); err != nil {
			return "", fmt.Errorf("import database: view %d: %w", i, err)
		}
	}
	return dbID, nil
}
