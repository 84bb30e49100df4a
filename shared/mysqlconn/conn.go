// Package mysqlconn owns the process-wide MySQL handle, opened on first
// access and shared by every caller thereafter.
package mysqlconn

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/goforj/lazy"
	"github.com/goforj/lazy/shared/sqlconn"
)

const defaultDSN = "root:@tcp(127.0.0.1:3306)/app?parseTime=true"

// Config controls how the shared MySQL handle is opened.
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

// New builds a MySQL-backed shared handle. Nothing is opened until the first
// Get call.
func New(cfg Config, opts ...lazy.Option) *sqlconn.Conn {
	cfg = cfg.withDefaults()
	return sqlconn.New(sqlconn.Config{
		DriverName:   "mysql",
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
		return errors.New("mysqlconn: shared database already opened")
	}
	conn = New(cfg, opts...)
	return nil
}

// Get returns the process-wide MySQL handle, opening it on first call.
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
