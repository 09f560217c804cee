package service_test

import (
	"context"
	"testing"

	"blockbase/domain"
	"blockbase/registry"
	"blockbase/service"
	"blockbase/storage"
)

func newBlockService(t *testing.T) (*service.BlockService, *storage.Memory, *service.MockEmitter) {
	t.Helper()
	reg := registry.New()
	if err := registry.RegisterBuiltins(reg); err != nil {
		t.Fatalf("register builtins: %v", err)
	}
	mem := storage.NewMemory()
	emitter := &service.MockEmitter{}
	return service.NewBlockService(mem, reg, emitter), mem, emitter
}

func TestBlockService_CreateAppliesDefaults(t *testing.T) {
	svc, _, emitter := newBlockService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, domain.BlockTypeTodo, map[string]any{"text": "buy milk"}, "", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Data["text"] != "buy milk" {
		t.Errorf("caller data lost: %v", b.Data)
	}
	if b.Data["checked"] != false {
		t.Errorf("expected default checked=false, got %v", b.Data["checked"])
	}
	if b.Version != 1 {
		t.Errorf("expected version 1, got %d", b.Version)
	}
	if len(emitter.Events) != 1 || emitter.Events[0].Event != service.EventBlockCreated {
		t.Errorf("expected one created event, got %+v", emitter.Events)
	}
}

func TestBlockService_CreateUnknownType(t *testing.T) {
	svc, mem, _ := newBlockService(t)

	_, err := svc.Create(context.Background(), "widget", nil, "", nil)
	if err == nil {
		t.Fatal("expected error for unregistered type")
	}
	if mem.Len() != 0 {
		t.Error("nothing should be persisted on failure")
	}
}

func TestBlockService_CreateValidationFailure(t *testing.T) {
	svc, mem, emitter := newBlockService(t)

	// page blocks require a title
	_, err := svc.Create(context.Background(), domain.BlockTypePage, map[string]any{"title": ""}, "", nil)
	if !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if mem.Len() != 0 {
		t.Error("invalid block must not be persisted")
	}
	if len(emitter.Events) != 0 {
		t.Error("no event on failed create")
	}
}

func TestBlockService_StructuralRules(t *testing.T) {
	svc, _, _ := newBlockService(t)
	ctx := context.Background()

	text, err := svc.Create(ctx, domain.BlockTypeText, map[string]any{"text": "hi"}, "", nil)
	if err != nil {
		t.Fatalf("create text: %v", err)
	}

	// text blocks are leaves
	_, err = svc.Create(ctx, domain.BlockTypeText, map[string]any{"text": "child"}, text.ID, nil)
	if !domain.IsStructural(err) {
		t.Fatalf("expected StructuralError, got %v", err)
	}

	// db_row only goes under a database
	page, err := svc.Create(ctx, domain.BlockTypePage, map[string]any{"title": "Home"}, "", nil)
	if err != nil {
		t.Fatalf("create page: %v", err)
	}
	_, err = svc.Create(ctx, domain.BlockTypeDBRow, map[string]any{"databaseId": page.ID}, page.ID, nil)
	if !domain.IsStructural(err) {
		t.Fatalf("expected StructuralError for row under page, got %v", err)
	}
}

func TestBlockService_CreateUnderMissingParent(t *testing.T) {
	svc, mem, _ := newBlockService(t)

	_, err := svc.Create(context.Background(), domain.BlockTypeText, map[string]any{"text": "hi"}, "nope", nil)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if mem.Len() != 0 {
		t.Error("nothing should be persisted on failure")
	}
}

func TestBlockService_UpdateAndDeleteEmit(t *testing.T) {
	svc, _, emitter := newBlockService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, domain.BlockTypePage, map[string]any{"title": "Home"}, "", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Update(ctx, b.ID, map[string]any{"title": "Start"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := svc.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Data["title"] != "Start" || got.Version != 2 {
		t.Errorf("update not applied: %v v%d", got.Data, got.Version)
	}

	if err := svc.Delete(ctx, b.ID, false); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, b.ID); !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}

	events := make([]string, len(emitter.Events))
	for i, e := range emitter.Events {
		events[i] = e.Event
	}
	want := []string{service.EventBlockCreated, service.EventBlockUpdated, service.EventBlockDeleted}
	if len(events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, events)
		}
	}
}

func TestBlockService_GetChildrenOrder(t *testing.T) {
	svc, _, _ := newBlockService(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, domain.BlockTypePage, map[string]any{"title": "Home"}, "", nil)
	if err != nil {
		t.Fatalf("create page: %v", err)
	}
	for _, txt := range []string{"one", "two", "three"} {
		if _, err := svc.Create(ctx, domain.BlockTypeText, map[string]any{"text": txt}, page.ID, nil); err != nil {
			t.Fatalf("create child: %v", err)
		}
	}
	children, err := svc.GetChildren(ctx, page.ID)
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(children))
	}
	for i, txt := range []string{"one", "two", "three"} {
		if children[i].Data["text"] != txt {
			t.Errorf("child %d: expected %q, got %v", i, txt, children[i].Data["text"])
		}
	}
}
