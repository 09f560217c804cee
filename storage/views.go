package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"blockbase/domain"
)

// ─────────────────────────────────────────────────────────────
// View stores. Views live outside the block tree, so where they
// persist is an explicit choice: MemoryViewStore keeps them for
// the process lifetime, the SQL adapter keeps them durable next
// to the blocks.
// ─────────────────────────────────────────────────────────────

// MemoryViewStore implements domain.ViewStore in a runtime map. Views held
// here do not survive a restart; pair the block adapter with the SQL view
// store when they should.
type MemoryViewStore struct {
	mu    sync.RWMutex
	views map[string]*domain.View
}

// NewMemoryViewStore creates an empty in-memory view store.
func NewMemoryViewStore() *MemoryViewStore {
	return &MemoryViewStore{views: make(map[string]*domain.View)}
}

func (s *MemoryViewStore) CreateView(_ context.Context, v *domain.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	v.CreatedAt = now
	v.UpdatedAt = now
	cp := *v
	s.views[v.ID] = &cp
	return nil
}

func (s *MemoryViewStore) GetView(_ context.Context, id string) (*domain.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.views[id]
	if !ok {
		return nil, domain.NotFound("view", id)
	}
	cp := *v
	return &cp, nil
}

func (s *MemoryViewStore) ListViews(_ context.Context, databaseID string) ([]*domain.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.View
	for _, v := range s.views {
		if v.DatabaseID == databaseID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryViewStore) UpdateView(_ context.Context, v *domain.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.views[v.ID]; !ok {
		return domain.NotFound("view", v.ID)
	}
	v.UpdatedAt = time.Now()
	cp := *v
	s.views[v.ID] = &cp
	return nil
}

func (s *MemoryViewStore) DeleteView(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.views[id]; !ok {
		return domain.NotFound("view", id)
	}
	delete(s.views, id)
	return nil
}

func (s *MemoryViewStore) DeleteViewsByDatabase(_ context.Context, databaseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range s.views {
		if v.DatabaseID == databaseID {
			delete(s.views, id)
		}
	}
	return nil
}

var _ domain.ViewStore = (*MemoryViewStore)(nil)

// ── SQL view store ─────────────────────────────────────────

const viewColumns = `id, database_id, name, type, filter_json, sort_json, config_json, created_at, updated_at`

func (s *SQL) CreateView(ctx context.Context, v *domain.View) error {
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	filterJSON, sortJSON, configJSON, err := encodeView(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.q(
		`INSERT INTO views (`+viewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		v.ID, v.DatabaseID, v.Name, string(v.Type), filterJSON, sortJSON, configJSON, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s insert view: %w", s.d.name, err)
	}
	return nil
}

func (s *SQL) GetView(ctx context.Context, id string) (*domain.View, error) {
	row := s.db.QueryRowContext(ctx, s.q(
		`SELECT `+viewColumns+` FROM views WHERE id = ?`), id)
	return scanView(row, id)
}

func (s *SQL) ListViews(ctx context.Context, databaseID string) ([]*domain.View, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT `+viewColumns+` FROM views WHERE database_id = ? ORDER BY created_at ASC, id ASC`), databaseID)
	if err != nil {
		return nil, fmt.Errorf("%s list views: %w", s.d.name, err)
	}
	defer rows.Close()

	var out []*domain.View
	for rows.Next() {
		v, err := scanView(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQL) UpdateView(ctx context.Context, v *domain.View) error {
	v.UpdatedAt = time.Now().UTC()
	filterJSON, sortJSON, configJSON, err := encodeView(v)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.q(
		`UPDATE views SET name = ?, type = ?, filter_json = ?, sort_json = ?, config_json = ?, updated_at = ? WHERE id = ?`),
		v.Name, string(v.Type), filterJSON, sortJSON, configJSON, v.UpdatedAt, v.ID,
	)
	if err != nil {
		return fmt.Errorf("%s update view: %w", s.d.name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFound("view", v.ID)
	}
	return nil
}

func (s *SQL) DeleteView(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM views WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("%s delete view: %w", s.d.name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFound("view", id)
	}
	return nil
}

func (s *SQL) DeleteViewsByDatabase(ctx context.Context, databaseID string) error {
	_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM views WHERE database_id = ?`), databaseID)
	if err != nil {
		return fmt.Errorf("%s delete views: %w", s.d.name, err)
	}
	return nil
}

func encodeView(v *domain.View) (filterJSON, sortJSON, configJSON string, err error) {
	fbuf, err := json.Marshal(v.Filter)
	if err != nil {
		return "", "", "", fmt.Errorf("encode view filter: %w", err)
	}
	sbuf, err := json.Marshal(v.Sort)
	if err != nil {
		return "", "", "", fmt.Errorf("encode view sort: %w", err)
	}
	cbuf, err := json.Marshal(v.Config)
	if err != nil {
		return "", "", "", fmt.Errorf("encode view config: %w", err)
	}
	return string(fbuf), string(sbuf), string(cbuf), nil
}

func scanView(r rowScanner, id string) (*domain.View, error) {
	v := &domain.View{}
	var typ, filterJSON, sortJSON, configJSON string
	err := r.Scan(&v.ID, &v.DatabaseID, &v.Name, &typ, &filterJSON, &sortJSON, &configJSON, &v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.NotFound("view", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan view: %w", err)
	}
	v.Type = domain.ViewType(typ)
	if err := json.Unmarshal([]byte(filterJSON), &v.Filter); err != nil {
		return nil, fmt.Errorf("decode view filter: %w", err)
	}
	if err := json.Unmarshal([]byte(sortJSON), &v.Sort); err != nil {
		return nil, fmt.Errorf("decode view sort: %w", err)
	}
	if err := json.Unmarshal([]byte(configJSON), &v.Config); err != nil {
		return nil, fmt.Errorf("decode view config: %w", err)
	}
	return v, nil
}

var _ domain.ViewStore = (*SQL)(nil)
