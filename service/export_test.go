package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"blockbase/domain"
	"blockbase/service"
)

func TestExportImport_RoundTrip(t *testing.T) {
	svc, _, _ := newDatabaseService(t)
	ctx := context.Background()
	srcID := boardDatabase(t, svc)

	if _, err := svc.CreateRow(ctx, srcID, map[string]any{"title": "a", "status": "todo"}); err != nil {
		t.Fatalf("create row: %v", err)
	}
	b, err := svc.CreateRow(ctx, srcID, map[string]any{"title": "b", "status": "done"})
	if err != nil {
		t.Fatalf("create row: %v", err)
	}
	archived := true
	if err := svc.UpdateRow(ctx, b.ID, service.UpdateRowParams{Archived: &archived}); err != nil {
		t.Fatalf("archive row: %v", err)
	}
	if _, err := svc.CreateView(ctx, service.CreateViewParams{
		DatabaseID: srcID,
		Name:       "By status",
		Type:       domain.ViewTypeBoard,
		Sort:       []domain.SortKey{{PropertyID: "title", Direction: domain.SortAsc}},
		Config:     domain.ViewConfig{GroupByPropertyID: "status"},
	}); err != nil {
		t.Fatalf("create view: %v", err)
	}

	doc, err := svc.ExportDatabase(ctx, srcID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if doc.Database.Name != "Board" || len(doc.Rows) != 2 || len(doc.Views) != 1 {
		t.Fatalf("unexpected export: %+v", doc)
	}

	// the document survives serialization, the usual transport
	buf, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded service.ExportedDatabase
	if err := json.Unmarshal(buf, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	dstID, err := svc.ImportDatabase(ctx, &decoded, "")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if dstID == srcID {
		t.Fatal("import must mint a fresh database id")
	}

	dst, err := svc.GetDatabase(ctx, dstID)
	if err != nil {
		t.Fatalf("get imported database: %v", err)
	}
	if dst.Name != "Board" || len(dst.Properties) != 3 {
		t.Errorf("definition not carried over: %+v", dst)
	}

	rows, err := svc.GetRows(ctx, dstID)
	if err != nil {
		t.Fatalf("get imported rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 imported rows, got %d", len(rows))
	}
	if rows[0].Values["title"] != "a" || rows[1].Values["title"] != "b" {
		t.Errorf("row order or values wrong: %v, %v", rows[0].Values, rows[1].Values)
	}
	if rows[0].Archived || !rows[1].Archived {
		t.Error("archived flags not carried over")
	}
	if rows[0].DatabaseID != dstID || rows[1].DatabaseID != dstID {
		t.Error("imported rows must bind to the new database")
	}

	views, err := svc.GetViews(ctx, dstID)
	if err != nil {
		t.Fatalf("get imported views: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 imported view, got %d", len(views))
	}
	v := views[0]
	if v.Name != "By status" || v.Type != domain.ViewTypeBoard || v.Config.GroupByPropertyID != "status" {
		t.Errorf("view not carried over: %+v", v)
	}
	if len(v.Sort) != 1 || v.Sort[0].PropertyID != "title" {
		t.Errorf("view sort not carried over: %+v", v.Sort)
	}

	// the source is untouched
	srcRows, err := svc.GetRows(ctx, srcID)
	if err != nil {
		t.Fatalf("get source rows: %v", err)
	}
	if len(srcRows) != 2 {
		t.Errorf("source rows changed: %d", len(srcRows))
	}
}

func TestExport_MissingDatabase(t *testing.T) {
	svc, _, _ := newDatabaseService(t)
	if _, err := svc.ExportDatabase(context.Background(), "nope"); !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestImport_NilDocument(t *testing.T) {
	svc, _, _ := newDatabaseService(t)
	if _, err := svc.ImportDatabase(context.Background(), nil, ""); err == nil {
		t.Fatal("expected error for nil document")
	}
}
