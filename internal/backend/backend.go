// Package backend builds the configured storage backend.
package backend

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fadedpez/scrapstats/internal/config"
	"github.com/fadedpez/scrapstats/internal/logging"
	"github.com/fadedpez/scrapstats/internal/types"
	"github.com/fadedpez/scrapstats/pkg/storage"
	"github.com/fadedpez/scrapstats/pkg/storage/elastic"
	"github.com/fadedpez/scrapstats/pkg/storage/file"
	"github.com/fadedpez/scrapstats/pkg/storage/sqldb"
)

// Open creates the backend for method using the connection settings in cfg.
// An empty method uses cfg.StorageMethod.
func Open(cfg *config.Config, method string, logger *logging.Logger) (storage.Backend, error) {
	if logger == nil {
		logger = logging.Default
	}
	if method == "" {
		method = cfg.StorageMethod
	}
	method = storage.NormalizeMethod(method)

	switch {
	case method == storage.MethodInternal:
		opts := file.NewOptions()
		opts.DataDir = cfg.DataDir
		opts.InstanceName = cfg.InstanceName
		opts.BackupCount = cfg.BackupCount
		opts.Logger = logger
		fs, err := file.New(opts)
		if err != nil {
			return nil, err
		}
		return fs, nil

	case storage.IsSQL(method):
		if method == storage.MethodSQLite {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
				return nil, types.WrapError(types.ErrPersistenceConnect, "failed to create sqlite directory", err)
			}
		}
		repo, err := sqldb.Open(method, DSN(cfg, method), logger)
		if err != nil {
			return nil, err
		}
		return repo, nil

	case method == storage.MethodElasticsearch:
		esCfg := elastic.DefaultConfig()
		esCfg.URL = cfg.ESURL
		esCfg.Username = cfg.ESUsername
		esCfg.Password = cfg.ESPassword
		if cfg.ESIndex != "" {
			esCfg.Index = cfg.ESIndex
		}
		esCfg.Logger = logger
		repo, err := elastic.New(esCfg)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}

	return nil, types.NewStatsError(types.ErrInvalidArgument, fmt.Sprintf("unknown storage method %q", method))
}

// DSN returns the connection string for a relational method
func DSN(cfg *config.Config, method string) string {
	params := sqldb.ConnParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.PostgresSSLMode,
	}

	switch storage.NormalizeMethod(method) {
	case storage.MethodMySQL:
		return sqldb.MySQLDSN(params)
	case storage.MethodPostgres:
		return sqldb.PostgresDSN(params)
	case storage.MethodSQLite:
		return sqldb.SQLiteDSN(cfg.SQLitePath)
	}
	return ""
}
