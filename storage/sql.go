package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"blockbase/domain"
)

// ─────────────────────────────────────────────────────────────
// Shared SQL adapter — one implementation for SQLite, Postgres,
// and MySQL; the driver files supply dialect and migrations.
// ─────────────────────────────────────────────────────────────

// dialect captures the per-driver differences the shared code needs.
type dialect struct {
	name       string   // driver name, for error context
	bindDollar bool     // rewrite ? placeholders to $1..$n (postgres)
	migrations []string // DDL run at open time
}

// SQL implements domain.Adapter and domain.ViewStore over a database/sql
// connection. Blocks keep their ordered child list as a JSON column on the
// parent row, which preserves insertion order without a position table.
type SQL struct {
	db *sql.DB
	d  dialect
}

func newSQL(db *sql.DB, d dialect) (*SQL, error) {
	s := &SQL{db: db, d: d}
	for _, m := range d.migrations {
		if _, err := db.Exec(s.q(m)); err != nil {
			return nil, fmt.Errorf("%s migration: %w", d.name, err)
		}
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *SQL) Close() error {
	return s.db.Close()
}

// q rewrites ? placeholders for dialects that use numbered binds.
func (s *SQL) q(query string) string {
	if !s.d.bindDollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ── Block adapter ──────────────────────────────────────────

const blockColumns = `id, type, parent_id, data_json, children_json, metadata_json, version, created_at, updated_at`

func (s *SQL) CreateBlock(ctx context.Context, typ domain.BlockType, data map[string]any, parentID string, metadata domain.Metadata) (*domain.Block, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s begin: %w", s.d.name, err)
	}
	defer tx.Rollback()

	if parentID != "" {
		if _, err := s.getBlockTx(ctx, tx, parentID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	b := &domain.Block{
		ID:        uuid.New().String(),
		Type:      typ,
		Data:      data,
		ParentID:  parentID,
		Metadata:  metadata,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	dataJSON, childrenJSON, metaJSON, err := encodeBlock(b)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, s.q(
		`INSERT INTO blocks (`+blockColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		b.ID, string(b.Type), b.ParentID, dataJSON, childrenJSON, metaJSON, b.Version, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s insert block: %w", s.d.name, err)
	}

	if parentID != "" {
		if err := s.appendChildTx(ctx, tx, parentID, b.ID, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s commit: %w", s.d.name, err)
	}
	return b, nil
}

func (s *SQL) GetBlock(ctx context.Context, id string) (*domain.Block, error) {
	row := s.db.QueryRowContext(ctx, s.q(
		`SELECT `+blockColumns+` FROM blocks WHERE id = ?`), id)
	return scanBlock(row, id)
}

func (s *SQL) UpdateBlock(ctx context.Context, id string, partial map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s begin: %w", s.d.name, err)
	}
	defer tx.Rollback()

	b, err := s.getBlockTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if b.Data == nil {
		b.Data = make(map[string]any, len(partial))
	}
	for k, v := range partial {
		b.Data[k] = v
	}
	dataJSON, err := json.Marshal(b.Data)
	if err != nil {
		return fmt.Errorf("encode block data: %w", err)
	}
	_, err = tx.ExecContext(ctx, s.q(
		`UPDATE blocks SET data_json = ?, version = version + 1, updated_at = ? WHERE id = ?`),
		string(dataJSON), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("%s update block: %w", s.d.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s commit: %w", s.d.name, err)
	}
	return nil
}

func (s *SQL) DeleteBlock(ctx context.Context, id string, deleteChildren bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s begin: %w", s.d.name, err)
	}
	defer tx.Rollback()

	b, err := s.getBlockTx(ctx, tx, id)
	if err != nil {
		return err
	}

	if b.ParentID != "" {
		if err := s.removeChildTx(ctx, tx, b.ParentID, id); err != nil {
			return err
		}
	}

	if deleteChildren {
		// Iterative subtree walk; child lists come from the stored rows.
		stack := append([]string(nil), b.Children...)
		ids := []string{id}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			child, err := s.getBlockTx(ctx, tx, cur)
			if err != nil {
				if domain.IsNotFound(err) {
					continue
				}
				return err
			}
			ids = append(ids, cur)
			stack = append(stack, child.Children...)
		}
		for _, del := range ids {
			if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM blocks WHERE id = ?`), del); err != nil {
				return fmt.Errorf("%s delete block: %w", s.d.name, err)
			}
		}
	} else {
		_, err = tx.ExecContext(ctx, s.q(
			`UPDATE blocks SET parent_id = '', version = version + 1, updated_at = ? WHERE parent_id = ?`),
			time.Now().UTC(), id,
		)
		if err != nil {
			return fmt.Errorf("%s orphan children: %w", s.d.name, err)
		}
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM blocks WHERE id = ?`), id); err != nil {
			return fmt.Errorf("%s delete block: %w", s.d.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s commit: %w", s.d.name, err)
	}
	return nil
}

func (s *SQL) GetChildren(ctx context.Context, id string) ([]*domain.Block, error) {
	parent, err := s.GetBlock(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(parent.Children) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT `+blockColumns+` FROM blocks WHERE parent_id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("%s list children: %w", s.d.name, err)
	}
	defer rows.Close()

	byID := make(map[string]*domain.Block)
	for rows.Next() {
		b, err := scanBlock(rows, "")
		if err != nil {
			return nil, err
		}
		byID[b.ID] = b
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Parent's child list is the order of record.
	out := make([]*domain.Block, 0, len(parent.Children))
	for _, childID := range parent.Children {
		if b, ok := byID[childID]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

// ── internals ──────────────────────────────────────────────

func (s *SQL) getBlockTx(ctx context.Context, tx *sql.Tx, id string) (*domain.Block, error) {
	row := tx.QueryRowContext(ctx, s.q(
		`SELECT `+blockColumns+` FROM blocks WHERE id = ?`), id)
	return scanBlock(row, id)
}

func (s *SQL) appendChildTx(ctx context.Context, tx *sql.Tx, parentID, childID string, now time.Time) error {
	parent, err := s.getBlockTx(ctx, tx, parentID)
	if err != nil {
		return err
	}
	parent.Children = append(parent.Children, childID)
	childrenJSON, err := json.Marshal(parent.Children)
	if err != nil {
		return fmt.Errorf("encode children: %w", err)
	}
	_, err = tx.ExecContext(ctx, s.q(
		`UPDATE blocks SET children_json = ?, version = version + 1, updated_at = ? WHERE id = ?`),
		string(childrenJSON), now, parentID,
	)
	if err != nil {
		return fmt.Errorf("%s append child: %w", s.d.name, err)
	}
	return nil
}

func (s *SQL) removeChildTx(ctx context.Context, tx *sql.Tx, parentID, childID string) error {
	parent, err := s.getBlockTx(ctx, tx, parentID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}
	kept := parent.Children[:0]
	for _, c := range parent.Children {
		if c != childID {
			kept = append(kept, c)
		}
	}
	childrenJSON, err := json.Marshal(kept)
	if err != nil {
		return fmt.Errorf("encode children: %w", err)
	}
	_, err = tx.ExecContext(ctx, s.q(
		`UPDATE blocks SET children_json = ?, version = version + 1, updated_at = ? WHERE id = ?`),
		string(childrenJSON), time.Now().UTC(), parentID,
	)
	if err != nil {
		return fmt.Errorf("%s remove child: %w", s.d.name, err)
	}
	return nil
}

func encodeBlock(b *domain.Block) (dataJSON, childrenJSON, metaJSON string, err error) {
	data := b.Data
	if data == nil {
		data = map[string]any{}
	}
	dbuf, err := json.Marshal(data)
	if err != nil {
		return "", "", "", fmt.Errorf("encode block data: %w", err)
	}
	children := b.Children
	if children == nil {
		children = []string{}
	}
	cbuf, err := json.Marshal(children)
	if err != nil {
		return "", "", "", fmt.Errorf("encode children: %w", err)
	}
	mbuf, err := json.Marshal(b.Metadata)
	if err != nil {
		return "", "", "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(dbuf), string(cbuf), string(mbuf), nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlock(r rowScanner, id string) (*domain.Block, error) {
	b := &domain.Block{}
	var typ, dataJSON, childrenJSON, metaJSON string
	err := r.Scan(&b.ID, &typ, &b.ParentID, &dataJSON, &childrenJSON, &metaJSON, &b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.NotFound("block", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan block: %w", err)
	}
	b.Type = domain.BlockType(typ)
	if err := json.Unmarshal([]byte(dataJSON), &b.Data); err != nil {
		return nil, fmt.Errorf("decode block data: %w", err)
	}
	if err := json.Unmarshal([]byte(childrenJSON), &b.Children); err != nil {
		return nil, fmt.Errorf("decode children: %w", err)
	}
	if err := json.Unmarshal([]byte(metaJSON), &b.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return b, nil
}

var _ domain.Adapter = (*SQL)(nil)
