// Package postgres provides a PostgreSQL datastore backend.
//
// Import this package with a blank identifier to register the backend:
//
//	import _ "github.com/leapstack-labs/reclinepreview/internal/datastore/postgres"
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/leapstack-labs/reclinepreview/internal/datastore"
)

// Name is the registry name of the backend.
const Name = "postgres"

func init() {
	datastore.Register(Name, func(ctx context.Context, dsn string, logger *slog.Logger) (datastore.Datastore, error) {
		return Open(ctx, dsn, logger)
	})
}

// Store implements datastore.Datastore on PostgreSQL.
type Store struct {
	datastore.BaseSQLStore
}

var _ datastore.Datastore = (*Store)(nil)

// Open connects to PostgreSQL using a key=value or URL dsn.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres datastore requires a dsn")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return NewWithDB(db, logger), nil
}

// NewWithDB wraps an open connection.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		BaseSQLStore: datastore.BaseSQLStore{
			DB:          db,
			Logger:      logger,
			Placeholder: datastore.Dollar,
		},
	}
}

// Create replaces the table of resourceID with t. Rows are loaded with
// COPY when the connection is a pgx connection.
func (s *Store) Create(ctx context.Context, resourceID string, t *datastore.Table) error {
	if err := s.CreateTable(ctx, resourceID, t.Fields); err != nil {
		return err
	}

	copied, err := s.tryCopy(ctx, resourceID, t)
	if err != nil {
		return fmt.Errorf("failed to copy data: %w", err)
	}
	if !copied {
		if err := s.InsertRows(ctx, resourceID, t); err != nil {
			return err
		}
	}

	s.Logger.Debug("created datastore table",
		slog.String("resource", resourceID),
		slog.Bool("copy", copied),
		slog.Int("records", len(t.Records)))
	return nil
}

// tryCopy loads t with COPY FROM and reports false when the underlying
// driver is not pgx.
func (s *Store) tryCopy(ctx context.Context, resourceID string, t *datastore.Table) (bool, error) {
	conn, err := s.DB.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	copied := false
	err = conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return nil
		}
		copied = true
		return copyRows(ctx, sc.Conn(), resourceID, t)
	})
	return copied, err
}

func copyRows(ctx context.Context, conn *pgx.Conn, resourceID string, t *datastore.Table) error {
	columns := []string{datastore.RowIDColumn}
	for _, f := range t.Fields {
		columns = append(columns, f.ID)
	}

	rows := make([][]any, len(t.Records))
	for i, record := range t.Records {
		row := make([]any, len(columns))
		row[0] = int64(i + 1)
		for j := range t.Fields {
			if j < len(record) {
				row[j+1] = record[j]
			}
		}
		rows[i] = row
	}

	_, err := conn.CopyFrom(ctx, pgx.Identifier{datastore.TableName(resourceID)}, columns, pgx.CopyFromRows(rows))
	return err
}
