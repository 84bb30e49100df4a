// Package sqlconn holds the database/sql plumbing shared by the mysqlconn
// and sqliteconn packages.
package sqlconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goforj/lazy"
	"github.com/google/uuid"
)

const defaultPingTimeout = 5 * time.Second

// Config controls how the shared *sql.DB is opened.
type Config struct {
	DriverName string
	DSN        string

	// MaxOpenConns caps the pool when > 0.
	MaxOpenConns int

	// PingTimeout bounds the readiness ping on first access.
	PingTimeout time.Duration

	// Open overrides database construction; used by tests.
	Open func(ctx context.Context, cfg Config) (*sql.DB, error)
}

func (c Config) withDefaults() Config {
	if c.PingTimeout <= 0 {
		c.PingTimeout = defaultPingTimeout
	}
	if c.Open == nil {
		c.Open = open
	}
	return c
}

func open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.DriverName == "" || cfg.DSN == "" {
		return nil, errors.New("sql connection requires driver name and dsn")
	}
	db, err := sql.Open(cfg.DriverName, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s ping: %w", cfg.DriverName, err)
	}
	return db, nil
}

// Conn is a database handle opened once on first access and shared by every
// caller for the lifetime of the process.
type Conn struct {
	loader *lazy.Loader[*sql.DB]
}

// New builds a Conn around cfg. Nothing is opened until the first Get call.
func New(cfg Config, opts ...lazy.Option) *Conn {
	cfg = cfg.withDefaults()
	opts = append([]lazy.Option{lazy.WithName(cfg.DriverName)}, opts...)
	return &Conn{
		loader: lazy.NewLoader(func(ctx context.Context) (*sql.DB, error) {
			return cfg.Open(ctx, cfg)
		}, opts...),
	}
}

// Get returns the shared database, opening it on first call. Under the
// default retry policy a failed open leaves the conn unopened and the next
// call retries.
func (c *Conn) Get(ctx context.Context) (*sql.DB, error) {
	return c.loader.Value(ctx)
}

// Published reports whether the database has been opened.
func (c *Conn) Published() bool { return c.loader.Published() }

// InstanceID identifies the opened database for identity assertions.
func (c *Conn) InstanceID() uuid.UUID { return c.loader.InstanceID() }

// Attempts reports how many open attempts have run.
func (c *Conn) Attempts() uint64 { return c.loader.Attempts() }
