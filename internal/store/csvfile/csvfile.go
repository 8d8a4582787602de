// Package csvfile stores each table as <dir>/<table>.csv with a header row.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"andicblue/backend/internal/store"
)

type Store struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".csv")
}

// LoadTable returns the data rows. A missing file is an empty table.
func (s *Store) LoadTable(ctx context.Context, name string) ([]store.Row, error) {
	header, err := store.Header(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var rows []store.Row
	first := true
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if first {
			first = false
			continue
		}
		rows = append(rows, fit(record, len(header)))
	}
	return store.DropDuplicateHeader(name, rows), nil
}

// SaveTable rewrites the file through a temp file and rename.
func (s *Store) SaveTable(ctx context.Context, name string, rows []store.Row) error {
	header, err := store.Header(name)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := store.ValidateRow(name, row); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	for _, row := range rows {
		records = append(records, row)
	}
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// AppendRow adds one row, writing the header first when the file is new.
func (s *Store) AppendRow(ctx context.Context, name string, row store.Row) error {
	if err := store.ValidateRow(name, row); err != nil {
		return err
	}
	header, _ := store.Header(name)
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path(name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", name, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			f.Close()
			return fmt.Errorf("append %s: %w", name, err)
		}
	}
	if err := w.Write(row); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", name, err)
	}
	return f.Close()
}

// fit pads short records and truncates long ones to the header width.
func fit(record []string, width int) store.Row {
	row := make(store.Row, width)
	copy(row, record)
	return row
}
