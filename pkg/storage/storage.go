package storage

import (
	"context"
	"strings"

	"github.com/fadedpez/scrapstats/pkg/ledger"
)

// Storage methods accepted by the storage_method setting
const (
	MethodInternal      = "internal"
	MethodMySQL         = "mysql"
	MethodSQLite        = "sqlite"
	MethodPostgres      = "postgres"
	MethodElasticsearch = "elasticsearch"
)

// Backend persists the ledger.
// InitSchema is called once before any Load or Flush.
type Backend interface {
	// Name identifies the backend in logs and metrics
	Name() string

	// InitSchema prepares the storage medium (directories, tables, indices)
	InitSchema(ctx context.Context) error

	// Load reads every stored entry; missing data yields an empty slice
	Load(ctx context.Context) ([]ledger.Entry, error)

	// Flush durably writes the complete snapshot
	Flush(ctx context.Context, snapshot ledger.Snapshot) error

	// Close releases any resources held by the backend
	Close() error
}

// NormalizeMethod lower-cases a configured storage method and maps aliases
func NormalizeMethod(method string) string {
	m := strings.ToLower(strings.TrimSpace(method))
	switch m {
	case "", "file", "json":
		return MethodInternal
	case "sqlite3":
		return MethodSQLite
	case "postgresql", "pg":
		return MethodPostgres
	case "es", "elastic":
		return MethodElasticsearch
	}
	return m
}

// IsSQL reports whether method is served by the relational backend
func IsSQL(method string) bool {
	switch method {
	case MethodMySQL, MethodSQLite, MethodPostgres:
		return true
	}
	return false
}
