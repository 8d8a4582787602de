package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"andicblue/backend/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_rows (
	table_name TEXT NOT NULL,
	position   BIGSERIAL NOT NULL,
	cells      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (table_name, position)
)`

// Store keeps every logical table in one ledger_rows table, one JSON array
// of cells per row, ordered by insertion position.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) LoadTable(ctx context.Context, name string) ([]store.Row, error) {
	header, err := store.Header(name)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT cells
		FROM ledger_rows
		WHERE table_name = $1
		ORDER BY position
	`, name)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := make([]store.Row, 0, 64)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, classify(err)
		}
		var cells []string
		if err := json.Unmarshal(raw, &cells); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", name, err)
		}
		row := make(store.Row, len(header))
		copy(row, cells)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return store.DropDuplicateHeader(name, out), nil
}

func (s *Store) SaveTable(ctx context.Context, name string, rows []store.Row) error {
	for _, row := range rows {
		if err := store.ValidateRow(name, row); err != nil {
			return err
		}
	}
	if _, err := store.Header(name); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return classify(err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_rows WHERE table_name = $1`, name); err != nil {
		return classify(err)
	}
	for _, row := range rows {
		if err := insertRow(ctx, tx, name, row); err != nil {
			return err
		}
	}
	return classify(tx.Commit())
}

func (s *Store) AppendRow(ctx context.Context, name string, row store.Row) error {
	if err := store.ValidateRow(name, row); err != nil {
		return err
	}
	return insertRow(ctx, s.db, name, row)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRow(ctx context.Context, db execer, name string, row store.Row) error {
	raw, err := json.Marshal([]string(row))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO ledger_rows (table_name, cells)
		VALUES ($1, $2::jsonb)
	`, name, string(raw))
	return classify(err)
}

// classify maps transient server conditions onto store.ErrRateLimited so the
// retry wrapper backs off on them.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "53300", "57P03":
			return fmt.Errorf("%w: %s", store.ErrRateLimited, pgErr.Message)
		}
	}
	return err
}
