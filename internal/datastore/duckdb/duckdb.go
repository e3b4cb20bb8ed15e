// Package duckdb provides a DuckDB datastore backend.
//
// Import this package with a blank identifier to register the backend:
//
//	import _ "github.com/leapstack-labs/reclinepreview/internal/datastore/duckdb"
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/reclinepreview/internal/datastore"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Name is the registry name of the backend.
const Name = "duckdb"

func init() {
	datastore.Register(Name, func(ctx context.Context, dsn string, logger *slog.Logger) (datastore.Datastore, error) {
		return Open(ctx, dsn, logger)
	})
}

// Store implements datastore.Datastore on DuckDB.
type Store struct {
	datastore.BaseSQLStore
	path string
}

var _ datastore.Datastore = (*Store)(nil)

// Open connects to the DuckDB database at path.
// An empty path or ":memory:" opens an in-memory database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if path == ":memory:" {
		path = ""
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	logger.Debug("opened duckdb datastore", slog.String("path", path))
	return &Store{
		BaseSQLStore: datastore.BaseSQLStore{
			DB:          db,
			Logger:      logger,
			Placeholder: datastore.QuestionMark,
		},
		path: path,
	}, nil
}
