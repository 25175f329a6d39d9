// Package sqldb persists the ledger in a relational table (MySQL, SQLite or PostgreSQL).
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/fadedpez/scrapstats/internal/logging"
	"github.com/fadedpez/scrapstats/internal/types"
	"github.com/fadedpez/scrapstats/pkg/ledger"
	"github.com/fadedpez/scrapstats/pkg/storage"
)

// Repository implements storage.Backend on top of database/sql
type Repository struct {
	db      *sql.DB
	dialect Dialect
	logger  *logging.Logger

	mu          sync.Mutex
	initialized bool
}

var _ storage.Backend = (*Repository)(nil)

// Open connects to the database for the given storage method.
// Connecting is lazy; errors from the server surface in InitSchema.
func Open(method, dsn string, logger *logging.Logger) (*Repository, error) {
	dialect, err := LookupDialect(method)
	if err != nil {
		return nil, types.WrapError(types.ErrInvalidArgument, "unknown storage method", err)
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, types.WrapError(types.ErrPersistenceConnect, fmt.Sprintf("failed to open %s database", dialect.Name), err)
	}
	if dialect.Name == storage.MethodSQLite {
		// go-sqlite3 serializes writers; one connection avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	return NewWithDB(db, dialect, logger), nil
}

// NewWithDB wraps an already opened database
func NewWithDB(db *sql.DB, dialect Dialect, logger *logging.Logger) *Repository {
	if logger == nil {
		logger = logging.Default
	}
	return &Repository{
		db:      db,
		dialect: dialect,
		logger:  logger.Named(dialect.Name),
	}
}

// Name implements storage.Backend
func (r *Repository) Name() string {
	return r.dialect.Name
}

// InitSchema pings the server and creates the stats table. Only the first
// successful call does any work.
func (r *Repository) InitSchema(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return nil
	}

	if err := r.db.PingContext(ctx); err != nil {
		return types.WrapError(types.ErrPersistenceConnect, fmt.Sprintf("failed to connect to %s", r.dialect.Name), err)
	}
	if _, err := r.db.ExecContext(ctx, r.dialect.createTable); err != nil {
		return types.WrapError(types.ErrPersistenceConnect, "failed to create stats table", err)
	}

	r.initialized = true
	r.logger.Info("Schema ready")
	return nil
}

// Load reads every row ordered by player id
func (r *Repository) Load(ctx context.Context) ([]ledger.Entry, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.selectAll)
	if err != nil {
		return nil, types.WrapError(types.ErrPersistenceConnect, "failed to query stats", err)
	}
	defer rows.Close()

	entries := []ledger.Entry{}
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.PlayerID, &e.Stats.ScrapSpent, &e.Stats.ScrapLost, &e.Stats.ScrapEarned); err != nil {
			return nil, types.WrapError(types.ErrPersistenceConnect, "failed to scan stats row", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.ErrPersistenceConnect, "error iterating stats rows", err)
	}

	r.logger.Info("Loaded %d players", len(entries))
	return entries, nil
}

// Flush deletes removed players and upserts every entry in one transaction
func (r *Repository) Flush(ctx context.Context, snapshot ledger.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.WrapError(types.ErrPersistenceConnect, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if len(snapshot.Removed) > 0 {
		del, err := tx.PrepareContext(ctx, r.dialect.deleteOne)
		if err != nil {
			return types.WrapError(types.ErrPersistenceConnect, "failed to prepare delete", err)
		}
		defer del.Close()

		for _, id := range snapshot.Removed {
			if _, err := del.ExecContext(ctx, id); err != nil {
				return types.WrapError(types.ErrPersistenceConnect, fmt.Sprintf("failed to delete player %s", id), err)
			}
		}
	}

	if len(snapshot.Entries) > 0 {
		upsert, err := tx.PrepareContext(ctx, r.dialect.upsert)
		if err != nil {
			return types.WrapError(types.ErrPersistenceConnect, "failed to prepare upsert", err)
		}
		defer upsert.Close()

		for _, e := range snapshot.Entries {
			if _, err := upsert.ExecContext(ctx, e.PlayerID, e.Stats.ScrapSpent, e.Stats.ScrapLost, e.Stats.ScrapEarned); err != nil {
				return types.WrapError(types.ErrPersistenceConnect, fmt.Sprintf("failed to save player %s", e.PlayerID), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return types.WrapError(types.ErrPersistenceConnect, "failed to commit transaction", err)
	}

	r.logger.Debug("Flushed %d players, deleted %d", len(snapshot.Entries), len(snapshot.Removed))
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
