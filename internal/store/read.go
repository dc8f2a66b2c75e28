package store

import (
	"context"
	"fmt"

	"github.com/roach88/sheetq/internal/rows"
)

// Query runs a statement and reads the whole result.
// Text cells are returned as string, never []byte.
func (s *Store) Query(ctx context.Context, text string, args []any) (*rows.RawRows, error) {
	rs, err := s.db.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	columns, err := rs.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	raw := &rows.RawRows{Columns: columns}
	for rs.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		raw.Values = append(raw.Values, values)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return raw, nil
}

// Tables lists the worksheet names in workbook order.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rs, err := s.db.QueryContext(ctx, "SELECT name FROM sheetq_worksheets ORDER BY position ASC")
	if err != nil {
		return nil, fmt.Errorf("list worksheets: %w", err)
	}
	defer rs.Close()

	var names []string
	for rs.Next() {
		var name string
		if err := rs.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan worksheet: %w", err)
		}
		names = append(names, name)
	}
	return names, rs.Err()
}

// Columns lists the columns of a worksheet in declared order. An unknown
// worksheet has no columns.
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	rs, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid ASC", table)
	if err != nil {
		return nil, fmt.Errorf("list columns of %q: %w", table, err)
	}
	defer rs.Close()

	var names []string
	for rs.Next() {
		var name string
		if err := rs.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		names = append(names, name)
	}
	return names, rs.Err()
}

// WorksheetInfo describes one catalog entry.
type WorksheetInfo struct {
	Name     string
	Position int
	Source   string
	Columns  []string
	Rows     int
}

// Describe returns the catalog entries with their columns and row counts.
func (s *Store) Describe(ctx context.Context) ([]WorksheetInfo, error) {
	rs, err := s.db.QueryContext(ctx, "SELECT name, position, source FROM sheetq_worksheets ORDER BY position ASC")
	if err != nil {
		return nil, fmt.Errorf("list worksheets: %w", err)
	}
	var infos []WorksheetInfo
	for rs.Next() {
		var info WorksheetInfo
		if err := rs.Scan(&info.Name, &info.Position, &info.Source); err != nil {
			rs.Close()
			return nil, fmt.Errorf("scan worksheet: %w", err)
		}
		infos = append(infos, info)
	}
	rs.Close()
	if err := rs.Err(); err != nil {
		return nil, err
	}

	for i := range infos {
		cols, err := s.Columns(ctx, infos[i].Name)
		if err != nil {
			return nil, err
		}
		infos[i].Columns = cols

		quoted, err := quoteIdent(infos[i].Name)
		if err != nil {
			return nil, err
		}
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoted).Scan(&infos[i].Rows); err != nil {
			return nil, fmt.Errorf("count rows of %q: %w", infos[i].Name, err)
		}
	}
	return infos, nil
}
