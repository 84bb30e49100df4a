// Package natsconn owns the process-wide NATS connection, dialed on first
// access and shared by every caller thereafter.
package natsconn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goforj/lazy"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const defaultConnectTimeout = 5 * time.Second

// Config controls how the shared connection is dialed.
type Config struct {
	URL  string
	Name string

	// ConnectTimeout bounds the dial on first access.
	ConnectTimeout time.Duration

	// Connect overrides connection construction; used by tests and callers
	// that need full control over nats.Options.
	Connect func(ctx context.Context, cfg Config) (*nats.Conn, error)
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.Connect == nil {
		c.Connect = connect
	}
	return c
}

func connect(_ context.Context, cfg Config) (*nats.Conn, error) {
	opts := []nats.Option{nats.Timeout(cfg.ConnectTimeout)}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", cfg.URL, err)
	}
	return nc, nil
}

// Conn is a NATS connection dialed once on first access and shared by every
// caller for the lifetime of the process.
type Conn struct {
	loader *lazy.Loader[*nats.Conn]
}

// New builds a Conn around cfg. Nothing is dialed until the first Get call.
func New(cfg Config, opts ...lazy.Option) *Conn {
	cfg = cfg.withDefaults()
	opts = append([]lazy.Option{lazy.WithName("nats")}, opts...)
	return &Conn{
		loader: lazy.NewLoader(func(ctx context.Context) (*nats.Conn, error) {
			return cfg.Connect(ctx, cfg)
		}, opts...),
	}
}

// Get returns the shared connection, dialing on first call. Under the
// default retry policy a failed dial leaves the conn undialed and the next
// call retries.
func (c *Conn) Get(ctx context.Context) (*nats.Conn, error) {
	return c.loader.Value(ctx)
}

// Published reports whether the connection has been dialed.
func (c *Conn) Published() bool { return c.loader.Published() }

// InstanceID identifies the dialed connection for identity assertions.
func (c *Conn) InstanceID() uuid.UUID { return c.loader.InstanceID() }

// Attempts reports how many dial attempts have run.
func (c *Conn) Attempts() uint64 { return c.loader.Attempts() }

// The package-level conn is the one process-wide ownership unit.
var (
	mu   sync.Mutex
	conn = New(Config{})
)

// Configure replaces the process-wide configuration. It fails once the
// shared connection has been dialed; call it during startup, before first use.
func Configure(cfg Config, opts ...lazy.Option) error {
	mu.Lock()
	defer mu.Unlock()
	if conn.Published() {
		return errors.New("natsconn: shared connection already dialed")
	}
	conn = New(cfg, opts...)
	return nil
}

// Get returns the process-wide connection, dialing it on first call.
func Get(ctx context.Context) (*nats.Conn, error) {
	return current().Get(ctx)
}

// Published reports whether the process-wide connection has been dialed.
func Published() bool {
	return current().Published()
}

func current() *Conn {
	mu.Lock()
	defer mu.Unlock()
	return conn
}
