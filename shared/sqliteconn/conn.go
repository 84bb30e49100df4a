// Package sqliteconn owns the process-wide SQLite handle, opened on first
// access and shared by every caller thereafter. The default DSN is a shared
// in-memory database, so the package works without any external service.
package sqliteconn

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/goforj/lazy"
	"github.com/goforj/lazy/shared/sqlconn"
)

const defaultDSN = "file::memory:?cache=shared"

// Config controls how the shared SQLite handle is opened.
type Config struct {
	DSN          string
	MaxOpenConns int
	PingTimeout  time.Duration

	// Open overrides database construction; used by tests.
	Open func(ctx context.Context, cfg sqlconn.Config) (*sql.DB, error)
}

func (c Config) withDefaults() Config {
	if c.DSN == "" {
		c.DSN = defaultDSN
	}
	return c
}

// New builds a SQLite-backed shared handle. Nothing is opened until the
// first Get call.
func New(cfg Config, opts ...lazy.Option) *sqlconn.Conn {
	cfg = cfg.withDefaults()
	return sqlconn.New(sqlconn.Config{
		DriverName:   "sqlite",
		DSN:          cfg.DSN,
		MaxOpenConns: cfg.MaxOpenConns,
		PingTimeout:  cfg.PingTimeout,
		Open:         cfg.Open,
	}, opts...)
}

// The package-level conn is the one process-wide ownership unit.
var (
	mu   sync.Mutex
	conn = New(Config{})
)

// Configure replaces the process-wide configuration. It fails once the
// shared handle has been opened; call it during startup, before first use.
func Configure(cfg Config, opts ...lazy.Option) error {
	mu.Lock()
	defer mu.Unlock()
	if conn.Published() {
		return errors.New("sqliteconn: shared database already opened")
	}
	conn = New(cfg, opts...)
	return nil
}

// Get returns the process-wide SQLite handle, opening it on first call.
func Get(ctx context.Context) (*sql.DB, error) {
	return current().Get(ctx)
}

// Published reports whether the process-wide handle has been opened.
func Published() bool {
	return current().Published()
}

func current() *sqlconn.Conn {
	mu.Lock()
	defer mu.Unlock()
	return conn
}
