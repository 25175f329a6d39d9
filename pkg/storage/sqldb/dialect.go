package sqldb

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/fadedpez/scrapstats/pkg/storage"
	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const tableName = "gambling_stats"

// Dialect captures the SQL differences between the supported databases
type Dialect struct {
	Name   string
	Driver string

	createTable string
	selectAll   string
	deleteOne   string
	upsert      string
}

var dialects = map[string]Dialect{
	storage.MethodMySQL: {
		Name:   storage.MethodMySQL,
		Driver: "mysql",
		createTable: `
		CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			player_id VARCHAR(32) NOT NULL PRIMARY KEY,
			scrap_spent BIGINT NOT NULL DEFAULT 0,
			scrap_lost BIGINT NOT NULL DEFAULT 0,
			scrap_earned BIGINT NOT NULL DEFAULT 0
		)`,
		selectAll: `SELECT player_id, scrap_spent, scrap_lost, scrap_earned FROM ` + tableName + ` ORDER BY player_id`,
		deleteOne: `DELETE FROM ` + tableName + ` WHERE player_id = ?`,
		upsert:    `REPLACE INTO ` + tableName + ` (player_id, scrap_spent, scrap_lost, scrap_earned) VALUES (?, ?, ?, ?)`,
	},
	storage.MethodSQLite: {
		Name:   storage.MethodSQLite,
		Driver: "sqlite3",
		createTable: `
		CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			player_id TEXT NOT NULL PRIMARY KEY,
			scrap_spent INTEGER NOT NULL DEFAULT 0,
			scrap_lost INTEGER NOT NULL DEFAULT 0,
			scrap_earned INTEGER NOT NULL DEFAULT 0
		)`,
		selectAll: `SELECT player_id, scrap_spent, scrap_lost, scrap_earned FROM ` + tableName + ` ORDER BY player_id`,
		deleteOne: `DELETE FROM ` + tableName + ` WHERE player_id = ?`,
		upsert:    `REPLACE INTO ` + tableName + ` (player_id, scrap_spent, scrap_lost, scrap_earned) VALUES (?, ?, ?, ?)`,
	},
	storage.MethodPostgres: {
		Name:   storage.MethodPostgres,
		Driver: "postgres",
		createTable: `
		CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			player_id VARCHAR(32) NOT NULL PRIMARY KEY,
			scrap_spent BIGINT NOT NULL DEFAULT 0,
			scrap_lost BIGINT NOT NULL DEFAULT 0,
			scrap_earned BIGINT NOT NULL DEFAULT 0
		)`,
		selectAll: `SELECT player_id, scrap_spent, scrap_lost, scrap_earned FROM ` + tableName + ` ORDER BY player_id`,
		deleteOne: `DELETE FROM ` + tableName + ` WHERE player_id = $1`,
		upsert: `
		INSERT INTO ` + tableName + ` (player_id, scrap_spent, scrap_lost, scrap_earned)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_id)
		DO UPDATE SET scrap_spent = EXCLUDED.scrap_spent,
		              scrap_lost = EXCLUDED.scrap_lost,
		              scrap_earned = EXCLUDED.scrap_earned`,
	},
}

// LookupDialect returns the dialect registered for a storage method
func LookupDialect(method string) (Dialect, error) {
	d, ok := dialects[storage.NormalizeMethod(method)]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported sql dialect %q", method)
	}
	return d, nil
}

// ConnParams holds the connection settings shared by the network dialects
type ConnParams struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// MySQLDSN builds a go-sql-driver DSN
func MySQLDSN(p ConnParams) string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.DBName = p.Database
	cfg.Timeout = 10 * time.Second
	return cfg.FormatDSN()
}

// PostgresDSN builds a postgres:// URL for lib/pq. The URL form escapes
// credentials, so empty passwords and ones with spaces or quotes survive.
func PostgresDSN(p ConnParams) string {
	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.Database,
		RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
	}
	if p.Password != "" {
		u.User = url.UserPassword(p.User, p.Password)
	} else if p.User != "" {
		u.User = url.User(p.User)
	}
	return u.String()
}

// SQLiteDSN points go-sqlite3 at a database file
func SQLiteDSN(path string) string {
	return "file:" + path + "?_busy_timeout=5000"
}
