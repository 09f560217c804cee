package storage_test

import (
	"context"
	"testing"

	"blockbase/domain"
	"blockbase/storage"
)

// ─────────────────────────────────────────────────────────────
// Memory adapter tests — the adapter contract the SQL and Mongo
// implementations mirror.
// ─────────────────────────────────────────────────────────────

func TestMemory_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory()

	b, err := m.CreateBlock(ctx, domain.BlockTypeText, map[string]any{"text": "hi"}, "", domain.DefaultMetadata())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID == "" || b.Version != 1 {
		t.Fatalf("expected stamped block, got %+v", b)
	}

	got, err := m.GetBlock(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Data["text"] != "hi" {
		t.Errorf("expected data round-trip, got %v", got.Data)
	}

	// returned blocks must not alias stored state
	got.Data["text"] = "mutated"
	again, _ := m.GetBlock(ctx, b.ID)
	if again.Data["text"] != "hi" {
		t.Error("stored block was mutated through a returned copy")
	}
}

func TestMemory_GetMissing(t *testing.T) {
	m := storage.NewMemory()
	_, err := m.GetBlock(context.Background(), "ghost")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMemory_CreateUnderMissingParent(t *testing.T) {
	m := storage.NewMemory()
	_, err := m.CreateBlock(context.Background(), domain.BlockTypeText, nil, "ghost", domain.DefaultMetadata())
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError for missing parent, got %v", err)
	}
	if m.Len() != 0 {
		t.Error("failed create must not leave a block behind")
	}
}

func TestMemory_UpdateMergesAndBumpsVersion(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory()
	b, _ := m.CreateBlock(ctx, domain.BlockTypeTodo, map[string]any{"text": "a", "checked": false}, "", domain.DefaultMetadata())

	if err := m.UpdateBlock(ctx, b.ID, map[string]any{"checked": true}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := m.GetBlock(ctx, b.ID)
	if got.Version != 2 {
		t.Errorf("expected version 2, got %d", got.Version)
	}
	if got.Data["checked"] != true || got.Data["text"] != "a" {
		t.Errorf("expected shallow merge, got %v", got.Data)
	}
	if !got.UpdatedAt.After(got.CreatedAt) && !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Error("expected UpdatedAt to be refreshed")
	}
}

func TestMemory_ChildrenOrderAndParentVersion(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory()
	parent, _ := m.CreateBlock(ctx, domain.BlockTypePage, map[string]any{"title": "p"}, "", domain.DefaultMetadata())

	c1, _ := m.CreateBlock(ctx, domain.BlockTypeText, nil, parent.ID, domain.DefaultMetadata())
	c2, _ := m.CreateBlock(ctx, domain.BlockTypeText, nil, parent.ID, domain.DefaultMetadata())
	c3, _ := m.CreateBlock(ctx, domain.BlockTypeText, nil, parent.ID, domain.DefaultMetadata())

	children, err := m.GetChildren(ctx, parent.ID)
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(children))
	}
	for i, want := range []string{c1.ID, c2.ID, c3.ID} {
		if children[i].ID != want {
			t.Errorf("child %d: expected %s, got %s", i, want, children[i].ID)
		}
	}

	p, _ := m.GetBlock(ctx, parent.ID)
	if p.Version != 4 { // 1 + one bump per attached child
		t.Errorf("expected parent version 4, got %d", p.Version)
	}
}

func TestMemory_DeleteCascade(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory()
	root, _ := m.CreateBlock(ctx, domain.BlockTypePage, map[string]any{"title": "r"}, "", domain.DefaultMetadata())
	mid, _ := m.CreateBlock(ctx, domain.BlockTypePage, map[string]any{"title": "m"}, root.ID, domain.DefaultMetadata())
	leaf, _ := m.CreateBlock(ctx, domain.BlockTypeText, nil, mid.ID, domain.DefaultMetadata())

	if err := m.DeleteBlock(ctx, root.ID, true); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, id := range []string{root.ID, mid.ID, leaf.ID} {
		if _, err := m.GetBlock(ctx, id); !domain.IsNotFound(err) {
			t.Errorf("expected %s to be gone", id)
		}
	}
	if m.Len() != 0 {
		t.Errorf("expected empty adapter, holds %d", m.Len())
	}
}

func TestMemory_DeleteOrphansChildren(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory()
	parent, _ := m.CreateBlock(ctx, domain.BlockTypePage, map[string]any{"title": "p"}, "", domain.DefaultMetadata())
	child, _ := m.CreateBlock(ctx, domain.BlockTypeText, nil, parent.ID, domain.DefaultMetadata())

	if err := m.DeleteBlock(ctx, parent.ID, false); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := m.GetBlock(ctx, child.ID)
	if err != nil {
		t.Fatalf("orphan should survive: %v", err)
	}
	if got.ParentID != "" {
		t.Errorf("expected cleared parent, got %q", got.ParentID)
	}
}

func TestMemory_DeleteDetachesFromParent(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory()
	parent, _ := m.CreateBlock(ctx, domain.BlockTypePage, map[string]any{"title": "p"}, "", domain.DefaultMetadata())
	c1, _ := m.CreateBlock(ctx, domain.BlockTypeText, nil, parent.ID, domain.DefaultMetadata())
	c2, _ := m.CreateBlock(ctx, domain.BlockTypeText, nil, parent.ID, domain.DefaultMetadata())

	if err := m.DeleteBlock(ctx, c1.ID, true); err != nil {
		t.Fatalf("delete: %v", err)
	}
	children, _ := m.GetChildren(ctx, parent.ID)
	if len(children) != 1 || children[0].ID != c2.ID {
		t.Errorf("expected only %s to remain, got %d children", c2.ID, len(children))
	}
}

func TestMemoryViewStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryViewStore()

	v := &domain.View{ID: "v1", DatabaseID: "db1", Name: "All", Type: domain.ViewTypeTable}
	if err := s.CreateView(ctx, v); err != nil {
		t.Fatalf("create: %v", err)
	}
	if v.CreatedAt.IsZero() {
		t.Error("expected stamped CreatedAt")
	}

	got, err := s.GetView(ctx, "v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.Name = "renamed"
	if err := s.UpdateView(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.UpdatedAt.After(v.CreatedAt) && !got.UpdatedAt.Equal(v.CreatedAt) {
		t.Error("expected refreshed UpdatedAt")
	}

	other := &domain.View{ID: "v2", DatabaseID: "db2", Name: "Other", Type: domain.ViewTypeTable}
	if err := s.CreateView(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}
	views, _ := s.ListViews(ctx, "db1")
	if len(views) != 1 || views[0].Name != "renamed" {
		t.Fatalf("expected one renamed view for db1, got %+v", views)
	}

	if err := s.DeleteViewsByDatabase(ctx, "db1"); err != nil {
		t.Fatalf("delete by database: %v", err)
	}
	if _, err := s.GetView(ctx, "v1"); !domain.IsNotFound(err) {
		t.Error("expected v1 to be gone")
	}
	if _, err := s.GetView(ctx, "v2"); err != nil {
		t.Error("v2 must survive another database's cascade")
	}

	if err := s.DeleteView(ctx, "v2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteView(ctx, "v2"); !domain.IsNotFound(err) {
		t.Error("expected NotFound for second delete")
	}
}
