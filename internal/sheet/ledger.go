// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sheet

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paperbee/pkg/types"
)

// SQLiteLedger is a Store kept in a local SQLite database, for running
// without Google credentials. Rows read back newest batch first, matching a
// sheet that always inserts under its header.
type SQLiteLedger struct {
	db *sql.DB
}

// OpenLedger opens or creates the ledger database at path.
func OpenLedger(path string) (*SQLiteLedger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	l := &SQLiteLedger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

func (l *SQLiteLedger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			batch_id INTEGER NOT NULL REFERENCES batches(id),
			position INTEGER NOT NULL,
			doi TEXT,
			date TEXT,
			posted_date TEXT,
			is_preprint TEXT,
			title TEXT,
			keywords TEXT,
			source TEXT,
			preprint TEXT,
			url TEXT,
			PRIMARY KEY (batch_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_doi ON papers(doi)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// ReadRows implements Store. The header is always present.
func (l *SQLiteLedger) ReadRows(ctx context.Context) ([][]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT doi, date, posted_date, is_preprint, title, keywords, source, preprint, url
		FROM papers ORDER BY batch_id DESC, position ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	out := [][]string{types.Columns()}
	for rows.Next() {
		row := make([]string, len(types.Columns()))
		ptrs := make([]any, len(row))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// InsertRows implements Store. Rows always go directly under the header,
// so at must be FirstDataRow.
func (l *SQLiteLedger) InsertRows(ctx context.Context, rows [][]string, at int) error {
	if at != FirstDataRow {
		return fmt.Errorf("ledger inserts at row %d only, got %d", FirstDataRow, at)
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO batches DEFAULT VALUES`)
	if err != nil {
		return fmt.Errorf("creating batch: %w", err)
	}
	batch, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading batch id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO papers
		(batch_id, position, doi, date, posted_date, is_preprint, title, keywords, source, preprint, url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	width := len(types.Columns())
	for i, row := range rows {
		args := []any{batch, i}
		for c := 0; c < width; c++ {
			args = append(args, cell(row, c))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting row %d: %w", i, err)
		}
	}
	return tx.Commit()
}
