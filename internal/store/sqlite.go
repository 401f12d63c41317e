package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"

	"PaintBoard/internal/state"

	_ "modernc.org/sqlite"
)

// SQLite persists documents in a single database file. Live messages go
// through an in-process Hub; they are never stored.
type SQLite struct {
	*Hub

	db   *sql.DB
	path string
}

var _ Backend = (*SQLite)(nil)

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The transport serves many readers and one writer at a time.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	glog.Infof("[store] opened %s", path)
	return &SQLite{Hub: NewHub(), db: db, path: path}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			emitter TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			body_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_type_ts ON documents(type, timestamp, id);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func where(q Query) (string, []any) {
	var conds []string
	var args []any
	if q.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(q.Type))
	}
	if q.Emitter != "" {
		conds = append(conds, "emitter = ?")
		args = append(args, q.Emitter)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *SQLite) CreateDocument(ctx context.Context, body state.Message) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	id := newDocumentID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents(id, type, emitter, timestamp, body_json) VALUES(?, ?, ?, ?, ?)`,
		id, string(body.Type), body.Emitter, body.Timestamp, string(raw))
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLite) Search(ctx context.Context, q Query, srt Sort, p Page) (SearchResult, error) {
	total, err := s.Count(ctx, q)
	if err != nil {
		return SearchResult{}, err
	}

	cond, args := where(q)
	dir := "ASC"
	if srt.Desc {
		dir = "DESC"
	}
	limit := p.Size
	if limit <= 0 {
		limit = -1
	}
	stmt := `SELECT id, body_json FROM documents` + cond +
		` ORDER BY timestamp ` + dir + `, id ` + dir + ` LIMIT ? OFFSET ?`
	args = append(args, limit, max(p.From, 0))

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return SearchResult{}, err
	}
	defer rows.Close()

	res := SearchResult{Documents: []Document{}, Total: total}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return SearchResult{}, err
		}
		var body state.Message
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			glog.Warningf("[store] skipping undecodable document %s: %v", id, err)
			continue
		}
		res.Documents = append(res.Documents, Document{ID: id, Body: body})
	}
	return res, rows.Err()
}

func (s *SQLite) Count(ctx context.Context, q Query) (int, error) {
	cond, args := where(q)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+cond, args...).Scan(&n)
	return n, err
}

func (s *SQLite) DeleteDocuments(ctx context.Context, q Query) error {
	cond, args := where(q)
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents`+cond, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil {
		glog.Infof("[store] deleted %d documents", n)
	}
	return nil
}

func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Close() error {
	_ = s.Hub.Close()
	return s.db.Close()
}
