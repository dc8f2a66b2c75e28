package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Worksheet is a table of cells to load into the workbook.
//
// Cells may be nil, string, bool, any integer or float type, or time.Time.
// Text cells that look like numbers or dates are normalized the same way a
// CSV import would.
type Worksheet struct {
	Name    string
	Columns []string
	Rows    [][]any

	// Source records where the worksheet came from (a file path, a
	// scenario name). Informational only.
	Source string
}

// PutWorksheet creates or replaces a worksheet. A replaced worksheet keeps
// its position in the workbook; a new one is appended.
//
// The whole load runs in one transaction.
func (s *Store) PutWorksheet(ctx context.Context, ws Worksheet) error {
	table, err := quoteIdent(ws.Name)
	if err != nil {
		return err
	}
	if len(ws.Columns) == 0 {
		return fmt.Errorf("worksheet %q has no columns", ws.Name)
	}
	seen := make(map[string]bool, len(ws.Columns))
	for _, c := range ws.Columns {
		if _, err := quoteIdent(c); err != nil {
			return fmt.Errorf("worksheet %q: %w", ws.Name, err)
		}
		key := strings.ToLower(c)
		if seen[key] {
			return fmt.Errorf("worksheet %q: duplicate column %q", ws.Name, c)
		}
		seen[key] = true
	}
	for i, row := range ws.Rows {
		if len(row) > len(ws.Columns) {
			return fmt.Errorf("worksheet %q: row %d has %d cells, want at most %d", ws.Name, i+1, len(row), len(ws.Columns))
		}
	}

	types, cells, err := inferColumns(ws.Columns, ws.Rows)
	if err != nil {
		return fmt.Errorf("worksheet %q: %w", ws.Name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	position, err := worksheetPosition(ctx, tx, ws.Name)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("drop worksheet %q: %w", ws.Name, err)
	}

	defs := make([]string, len(ws.Columns))
	marks := make([]string, len(ws.Columns))
	for i, c := range ws.Columns {
		defs[i] = "[" + c + "] " + string(types[i])
		marks[i] = "?"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create worksheet %q: %w", ws.Name, err)
	}

	insert, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()
	for i, row := range cells {
		if _, err := insert.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sheetq_worksheets (name, position, source) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET name = excluded.name, source = excluded.source
	`, ws.Name, position, ws.Source)
	if err != nil {
		return fmt.Errorf("register worksheet %q: %w", ws.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit worksheet %q: %w", ws.Name, err)
	}
	return nil
}

// DropWorksheet removes a worksheet. Later worksheets keep their positions;
// indexes are taken from the ordered list, so gaps do not matter.
func (s *Store) DropWorksheet(ctx context.Context, name string) error {
	table, err := quoteIdent(name)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM sheetq_worksheets WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("unregister worksheet %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("worksheet %q does not exist", name)
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("drop worksheet %q: %w", name, err)
	}
	return tx.Commit()
}

// worksheetPosition returns the existing position of name, or the next
// free position.
func worksheetPosition(ctx context.Context, tx *sql.Tx, name string) (int, error) {
	var position int
	err := tx.QueryRowContext(ctx, "SELECT position FROM sheetq_worksheets WHERE name = ?", name).Scan(&position)
	if err == nil {
		return position, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("look up worksheet %q: %w", name, err)
	}
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position) + 1, 0) FROM sheetq_worksheets").Scan(&position); err != nil {
		return 0, fmt.Errorf("next worksheet position: %w", err)
	}
	return position, nil
}

// quoteIdent brackets a table or column name the way generated SQL does.
func quoteIdent(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty identifier")
	}
	if strings.Contains(name, "]") {
		return "", fmt.Errorf("identifier %q cannot contain ']'", name)
	}
	return "[" + name + "]", nil
}
