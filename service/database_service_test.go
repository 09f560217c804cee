package service_test

import (
	"context"
	"testing"

	"blockbase/domain"
	"blockbase/query"
	"blockbase/registry"
	"blockbase/service"
	"blockbase/storage"
)

func newDatabaseService(t *testing.T) (*service.DatabaseService, *storage.Memory, *storage.MemoryViewStore) {
	t.Helper()
	reg := registry.New()
	if err := registry.RegisterBuiltins(reg); err != nil {
		t.Fatalf("register builtins: %v", err)
	}
	mem := storage.NewMemory()
	views := storage.NewMemoryViewStore()
	blocks := service.NewBlockService(mem, reg, nil)
	return service.NewDatabaseService(blocks, views), mem, views
}

func taskDatabase(t *testing.T, svc *service.DatabaseService) (string, *domain.Database) {
	t.Helper()
	id, err := svc.CreateDatabase(context.Background(), service.CreateDatabaseParams{
		Name: "Tasks",
		Properties: []domain.Property{
			{ID: "title", Name: "Title", Type: domain.PropText, Required: true},
			{ID: "status", Name: "Status", Type: domain.PropSelect},
			{ID: "estimate", Name: "Estimate", Type: domain.PropNumber},
		},
	})
	if err != nil {
		t.Fatalf("create database: %v", err)
	}
	db, err := svc.GetDatabase(context.Background(), id)
	if err != nil || db == nil {
		t.Fatalf("get database: %v %v", db, err)
	}
	return id, db
}

func TestDatabaseService_CreateAssignsPropertyIDs(t *testing.T) {
	svc, _, _ := newDatabaseService(t)
	id, err := svc.CreateDatabase(context.Background(), service.CreateDatabaseParams{
		Name:       "Notes",
		Properties: []domain.Property{{Name: "Title", Type: domain.PropText}},
	})
	if err != nil {
		t.Fatalf("create database: %v", err)
	}
	db, err := svc.GetDatabase(context.Background(), id)
	if err != nil {
		t.Fatalf("get database: %v", err)
	}
	if db.Properties[0].ID == "" {
		t.Error("property without id must get one assigned")
	}
}

func TestDatabaseService_GetDatabaseWrongType(t *testing.T) {
	svc, _, _ := newDatabaseService(t)
	db, err := svc.GetDatabase(context.Background(), "missing")
	if err != nil || db != nil {
		t.Errorf("missing database should be nil, nil — got %v, %v", db, err)
	}
}

func TestDatabaseService_RowLifecycle(t *testing.T) {
	svc, _, _ := newDatabaseService(t)
	ctx := context.Background()
	dbID, _ := taskDatabase(t, svc)

	row, err := svc.CreateRow(ctx, dbID, map[string]any{"title": "Ship it", "status": "todo"})
	if err != nil {
		t.Fatalf("create row: %v", err)
	}
	if row.DatabaseID != dbID {
		t.Errorf("row bound to %q, want %q", row.DatabaseID, dbID)
	}

	err = svc.UpdateRow(ctx, row.ID, service.UpdateRowParams{Values: map[string]any{"status": "done"}})
	if err != nil {
		t.Fatalf("update row: %v", err)
	}
	got, err := svc.GetRow(ctx, row.ID)
	if err != nil {
		t.Fatalf("get row: %v", err)
	}
	if got.Values["status"] != "done" {
		t.Errorf("status not updated: %v", got.Values)
	}
	if got.Values["title"] != "Ship it" {
		t.Errorf("untouched value lost: %v", got.Values)
	}

	archived := true
	if err := svc.UpdateRow(ctx, row.ID, service.UpdateRowParams{Archived: &archived}); err != nil {
		t.Fatalf("archive row: %v", err)
	}
	got, _ = svc.GetRow(ctx, row.ID)
	if !got.Archived {
		t.Error("row should be archived")
	}

	if err := svc.DeleteRow(ctx, row.ID); err != nil {
		t.Fatalf("delete row: %v", err)
	}
	if _, err := svc.GetRow(ctx, row.ID); !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}
}

func TestDatabaseService_CreateRowMissingDatabase(t *testing.T) {
	svc, mem, _ := newDatabaseService(t)
	_, err := svc.CreateRow(context.Background(), "nope", map[string]any{"title": "x"})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if mem.Len() != 0 {
		t.Error("no block should be created for a missing database")
	}
}

func TestDatabaseService_DuplicateRow(t *testing.T) {
	svc, _, _ := newDatabaseService(t)
	ctx := context.Background()
	dbID, _ := taskDatabase(t, svc)

	src, err := svc.CreateRow(ctx, dbID, map[string]any{"title": "Original", "estimate": 3.0})
	if err != nil {
		t.Fatalf("create row: %v", err)
	}
	dup, err := svc.DuplicateRow(ctx, src.ID)
	if err != nil {
		t.Fatalf("duplicate row: %v", err)
	}
	if dup.ID == src.ID {
		t.Error("duplicate must get its own id")
	}
	if dup.Values["title"] != "Original" || dup.Values["estimate"] != 3.0 {
		t.Errorf("values not copied: %v", dup.Values)
	}
	rows, err := svc.GetRows(ctx, dbID)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
}

func TestDatabaseService_DeleteDatabaseCascades(t *testing.T) {
	svc, mem, views := newDatabaseService(t)
	ctx := context.Background()
	dbID, _ := taskDatabase(t, svc)

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateRow(ctx, dbID, map[string]any{"title": "row"}); err != nil {
			t.Fatalf("create row: %v", err)
		}
	}
	if _, err := svc.CreateView(ctx, service.CreateViewParams{
		DatabaseID: dbID, Name: "All", Type: domain.ViewTypeTable,
	}); err != nil {
		t.Fatalf("create view: %v", err)
	}

	if err := svc.DeleteDatabase(ctx, dbID); err != nil {
		t.Fatalf("delete database: %v", err)
	}
	if mem.Len() != 0 {
		t.Errorf("expected empty store after cascade, %d blocks remain", mem.Len())
	}
	vs, err := views.ListViews(ctx, dbID)
	if err != nil {
		t.Fatalf("list views: %v", err)
	}
	if len(vs) != 0 {
		t.Errorf("expected no views after database delete, got %d", len(vs))
	}
}

func TestDatabaseService_PropertyLifecycle(t *testing.T) {
	svc, _, _ := newDatabaseService(t)
	ctx := context.Background()
	dbID, _ := taskDatabase(t, svc)

	propID, err := svc.AddProperty(ctx, dbID, domain.Property{Name: "Due", Type: domain.PropDate})
	if err != nil {
		t.Fatalf("add property: %v", err)
	}
	if propID == "" {
		t.Fatal("add property must return the new id")
	}

	newName := "Deadline"
	if err := svc.UpdateProperty(ctx, dbID, propID, service.UpdatePropertyParams{Name: &newName}); err != nil {
		t.Fatalf("update property: %v", err)
	}
	db, _ := svc.GetDatabase(ctx, dbID)
	found := false
	for _, p := range db.Properties {
		if p.ID == propID {
			found = true
			if p.Name != "Deadline" || p.Type != domain.PropDate {
				t.Errorf("merge went wrong: %+v", p)
			}
		}
	}
	if !found {
		t.Fatal("added property not present")
	}

	if err := svc.UpdateProperty(ctx, dbID, "ghost", service.UpdatePropertyParams{Name: &newName}); !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError for unknown property, got %v", err)
	}
}

func TestDatabaseService_DeletePropertyStripsRows(t *testing.T) {
	svc, _, _ := newDatabaseService(t)
	ctx := context.Background()
	dbID, _ := taskDatabase(t, svc)

	r1, err := svc.CreateRow(ctx, dbID, map[string]any{"title": "a", "status": "todo", "estimate": 1.0})
	if err != nil {
		t.Fatalf("create row: %v", err)
	}
	r2, err := svc.CreateRow(ctx, dbID, map[string]any{"title": "b", "estimate": 2.0})
	if err != nil {
		t.Fatalf("create row: %v", err)
	}

	if err := svc.DeleteProperty(ctx, dbID, "status"); err != nil {
		t.Fatalf("delete property: %v", err)
	}

	db, _ := svc.GetDatabase(ctx, dbID)
	if propCount := len(db.Properties); propCount != 2 {
		t.Errorf("expected 2 properties left, got %d", propCount)
	}
	got1, _ := svc.GetRow(ctx, r1.ID)
	if _, has := got1.Values["status"]; has {
		t.Error("status value should be stripped from row 1")
	}
	if got1.Values["title"] != "a" || got1.Values["estimate"] != 1.0 {
		t.Errorf("other values must survive the strip: %v", got1.Values)
	}
	got2, _ := svc.GetRow(ctx, r2.ID)
	if got2.Values["title"] != "b" || got2.Values["estimate"] != 2.0 {
		t.Errorf("row without the property must be untouched: %v", got2.Values)
	}
}

func TestDatabaseService_QueryRows(t *testing.T) {
	svc, _, _ := newDatabaseService(t)
	ctx := context.Background()
	dbID, _ := taskDatabase(t, svc)

	for _, v := range []map[string]any{
		{"title": "a", "status": "todo", "estimate": 1.0},
		{"title": "b", "status": "done", "estimate": 2.0},
		{"title": "c", "status": "todo", "estimate": 3.0},
	} {
		if _, err := svc.CreateRow(ctx, dbID, v); err != nil {
			t.Fatalf("create row: %v", err)
		}
	}

	res, err := svc.QueryRows(ctx, dbID, query.Options{
		Filter: &domain.FilterNode{
			Conjunction: domain.ConjunctionAnd,
			Conditions:  []domain.Condition{{PropertyID: "status", Operator: domain.OpEquals, Value: "todo"}},
		},
		Sort: []domain.SortKey{{PropertyID: "estimate", Direction: domain.SortDesc}},
	})
	if err != nil {
		t.Fatalf("query rows: %v", err)
	}
	if res.TotalCount != 2 {
		t.Fatalf("expected 2 matches, got %d", res.TotalCount)
	}
	if res.Rows[0].Values["title"] != "c" || res.Rows[1].Values["title"] != "a" {
		t.Errorf("unexpected order: %v, %v", res.Rows[0].Values["title"], res.Rows[1].Values["title"])
	}
}

func TestDatabaseService_Stats(t *testing.T) {
	svc, _, _ := newDatabaseService(t)
	ctx := context.Background()
	dbID, _ := taskDatabase(t, svc)

	a, _ := svc.CreateRow(ctx, dbID, map[string]any{"title": "a"})
	if _, err := svc.CreateRow(ctx, dbID, map[string]any{"title": "b"}); err != nil {
		t.Fatalf("create row: %v", err)
	}
	archived := true
	if err := svc.UpdateRow(ctx, a.ID, service.UpdateRowParams{Archived: &archived}); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := svc.CreateView(ctx, service.CreateViewParams{
		DatabaseID: dbID, Name: "All", Type: domain.ViewTypeTable,
	}); err != nil {
		t.Fatalf("create view: %v", err)
	}

	stats, err := svc.GetDatabaseStats(ctx, dbID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalRows != 2 || stats.ArchivedRows != 1 || stats.ActiveRows != 1 {
		t.Errorf("row counts wrong: %+v", stats)
	}
	if stats.PropertyCount != 3 || stats.ViewCount != 1 {
		t.Errorf("property/view counts wrong: %+v", stats)
	}
}
