package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/markdave123-py/mindease/internal/config"
	"github.com/markdave123-py/mindease/internal/core"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type dialect struct {
	name            string
	driver          string
	script          string
	metaExistsQuery string
}

var (
	postgresDialect = dialect{
		name:   "postgres",
		driver: "pgx",
		script: "scripts/initdb_postgres.sql",
		metaExistsQuery: `
			SELECT EXISTS (
			  SELECT 1 FROM information_schema.tables
			  WHERE table_name = 'mindease_meta'
			)`,
	}
	sqliteDialect = dialect{
		name:   "sqlite",
		driver: "sqlite",
		script: "scripts/initdb_sqlite.sql",
		metaExistsQuery: `
			SELECT EXISTS (
			  SELECT 1 FROM sqlite_master
			  WHERE type = 'table' AND name = 'mindease_meta'
			)`,
	}
)

// DatabaseClient implements core.DbClient over Postgres or SQLite.
// Queries are written with ? placeholders and rebound per driver.
type DatabaseClient struct {
	db      *sqlx.DB
	dialect dialect
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	return Open(ctx, cfg.DatabaseURL, cfg.SslCertPath)
}

// Open connects to databaseURL, which is either postgres://… or sqlite://path,
// and bootstraps the schema.
func Open(ctx context.Context, databaseURL, sslCertPath string) (*DatabaseClient, error) {
	d, dsn, err := resolveDSN(databaseURL, sslCertPath)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if d.name == sqliteDialect.name {
		// one writer at a time; busy_timeout handles short waits
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetConnMaxIdleTime(10 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db, dialect: d}, nil
}

func resolveDSN(databaseURL, sslCertPath string) (dialect, string, error) {
	if databaseURL == "" {
		return dialect{}, "", errors.New("DATABASE_URL is empty")
	}

	if path, ok := strings.CutPrefix(databaseURL, "sqlite://"); ok {
		if path == "" {
			return dialect{}, "", errors.New("sqlite DATABASE_URL has no path")
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return dialect{}, "", fmt.Errorf("create data directory: %w", err)
			}
		}
		return sqliteDialect, path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite", nil
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		return dialect{}, "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return dialect{}, "", fmt.Errorf("unsupported DATABASE_URL scheme %q", u.Scheme)
	}

	if sslCertPath != "" {
		if _, err := os.Stat(sslCertPath); err != nil {
			return dialect{}, "", fmt.Errorf("ssl cert not accessible at %q: %w", sslCertPath, err)
		}
		q := u.Query()
		q.Set("sslmode", "verify-ca")
		q.Set("sslrootcert", sslCertPath)
		u.RawQuery = q.Encode()
	}
	return postgresDialect, u.String(), nil
}

func (c *DatabaseClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Dialect reports "postgres" or "sqlite".
func (c *DatabaseClient) Dialect() string {
	return c.dialect.name
}

func (c *DatabaseClient) q(query string) string {
	return c.db.Rebind(query)
}

// ts normalises timestamps so both drivers store and compare them in UTC.
func ts(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func notFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
