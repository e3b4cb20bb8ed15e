package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// RowIDColumn numbers rows in load order.
const RowIDColumn = "_id"

// BaseSQLStore provides the database/sql implementation shared by the
// backends. Embed it and set Placeholder for the driver's bind syntax.
type BaseSQLStore struct {
	DB          *sql.DB
	Logger      *slog.Logger
	Placeholder func(n int) string
}

// QuestionMark binds parameters as "?".
func QuestionMark(int) string { return "?" }

// Dollar binds parameters as "$n".
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Close closes the database connection.
func (b *BaseSQLStore) Close() error {
	if b.DB != nil {
		b.Logger.Debug("closing datastore connection")
		return b.DB.Close()
	}
	return nil
}

func (b *BaseSQLStore) checkOpen() error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	return nil
}

// CreateTable drops and recreates the table for resourceID with a row id
// column followed by one TEXT column per field.
func (b *BaseSQLStore) CreateTable(ctx context.Context, resourceID string, fields []Field) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if len(fields) == 0 {
		return fmt.Errorf("table for resource %s has no fields", resourceID)
	}

	table := QuoteIdent(TableName(resourceID))
	if _, err := b.DB.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}

	defs := []string{QuoteIdent(RowIDColumn) + " BIGINT PRIMARY KEY"}
	for _, f := range fields {
		defs = append(defs, QuoteIdent(f.ID)+" TEXT")
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))
	if _, err := b.DB.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// InsertRows inserts records in one transaction, numbering them from 1.
func (b *BaseSQLStore) InsertRows(ctx context.Context, resourceID string, t *Table) error {
	if err := b.checkOpen(); err != nil {
		return err
	}

	cols := []string{QuoteIdent(RowIDColumn)}
	binds := []string{b.Placeholder(1)}
	for i, f := range t.Fields {
		cols = append(cols, QuoteIdent(f.ID))
		binds = append(binds, b.Placeholder(i+2))
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdent(TableName(resourceID)), strings.Join(cols, ", "), strings.Join(binds, ", "))

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	args := make([]any, len(t.Fields)+1)
	for i, record := range t.Records {
		args[0] = int64(i + 1)
		for j := range t.Fields {
			if j < len(record) {
				args[j+1] = record[j]
			} else {
				args[j+1] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rows: %w", err)
	}
	return nil
}

// Create replaces the table of resourceID with t using row inserts.
func (b *BaseSQLStore) Create(ctx context.Context, resourceID string, t *Table) error {
	if err := b.CreateTable(ctx, resourceID, t.Fields); err != nil {
		return err
	}
	if err := b.InsertRows(ctx, resourceID, t); err != nil {
		return err
	}
	b.Logger.Debug("created datastore table",
		slog.String("resource", resourceID),
		slog.Int("fields", len(t.Fields)),
		slog.Int("records", len(t.Records)))
	return nil
}

// Exists reports whether the table of resourceID exists.
func (b *BaseSQLStore) Exists(ctx context.Context, resourceID string) (bool, error) {
	if err := b.checkOpen(); err != nil {
		return false, err
	}
	var n int64
	err := b.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = "+b.Placeholder(1),
		TableName(resourceID)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up table: %w", err)
	}
	return n > 0, nil
}

// Search returns a page of rows ordered by row id.
func (b *BaseSQLStore) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	params = params.Normalize()

	ok, err := b.Exists(ctx, params.ResourceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("resource %s: %w", params.ResourceID, ErrNotFound)
	}

	table := QuoteIdent(TableName(params.ResourceID))
	result := &SearchResult{
		ResourceID: params.ResourceID,
		Offset:     params.Offset,
		Limit:      params.PageSize(),
		Records:    []map[string]any{},
	}

	if err := b.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&result.Total); err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s LIMIT %s OFFSET %s",
		table, QuoteIdent(RowIDColumn), b.Placeholder(1), b.Placeholder(2))
	rows, err := b.DB.QueryContext(ctx, query, params.PageSize(), params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	for _, c := range columns {
		if c != RowIDColumn {
			result.Fields = append(result.Fields, Field{ID: c, Type: "text"})
		}
	}

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		record := make(map[string]any, len(columns))
		for i, c := range columns {
			if c == RowIDColumn {
				continue
			}
			if raw, ok := values[i].([]byte); ok {
				record[c] = string(raw)
			} else {
				record[c] = values[i]
			}
		}
		result.Records = append(result.Records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// Delete drops the table of resourceID.
func (b *BaseSQLStore) Delete(ctx context.Context, resourceID string) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if _, err := b.DB.ExecContext(ctx, "DROP TABLE IF EXISTS "+QuoteIdent(TableName(resourceID))); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	return nil
}
