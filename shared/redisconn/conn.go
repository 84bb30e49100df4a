// Package redisconn owns the process-wide redis client, dialed on first
// access and shared by every caller thereafter.
package redisconn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goforj/lazy"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultAddr        = "127.0.0.1:6379"
	defaultDialTimeout = 5 * time.Second
)

// Config controls how the shared client is dialed.
type Config struct {
	Addr     string
	Username string
	Password string
	DB       int

	// DialTimeout bounds the readiness ping on first access.
	DialTimeout time.Duration

	// Dial overrides client construction; used by tests and callers that
	// need full control over redis.Options.
	Dial func(ctx context.Context, cfg Config) (*redis.Client, error)
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.Dial == nil {
		c.Dial = dial
	}
	return c
}

func dial(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Conn is a redis client dialed once on first access and shared by every
// caller for the lifetime of the process.
type Conn struct {
	loader *lazy.Loader[*redis.Client]
}

// New builds a Conn around cfg. Nothing is dialed until the first Get call.
func New(cfg Config, opts ...lazy.Option) *Conn {
	cfg = cfg.withDefaults()
	opts = append([]lazy.Option{lazy.WithName("redis")}, opts...)
	return &Conn{
		loader: lazy.NewLoader(func(ctx context.Context) (*redis.Client, error) {
			return cfg.Dial(ctx, cfg)
		}, opts...),
	}
}

// Get returns the shared client, dialing on first call. Under the default
// retry policy a failed dial leaves the conn undialed and the next call
// retries.
func (c *Conn) Get(ctx context.Context) (*redis.Client, error) {
	return c.loader.Value(ctx)
}

// Published reports whether the client has been dialed.
func (c *Conn) Published() bool { return c.loader.Published() }

// InstanceID identifies the dialed client for identity assertions.
func (c *Conn) InstanceID() uuid.UUID { return c.loader.InstanceID() }

// Attempts reports how many dial attempts have run.
func (c *Conn) Attempts() uint64 { return c.loader.Attempts() }

// The package-level conn is the one process-wide ownership unit.
var (
	mu   sync.Mutex
	conn = New(Config{})
)

// Configure replaces the process-wide configuration. It fails once the
// shared client has been dialed; call it during startup, before first use.
func Configure(cfg Config, opts ...lazy.Option) error {
	mu.Lock()
	defer mu.Unlock()
	if conn.Published() {
		return errors.New("redisconn: shared client already dialed")
	}
	conn = New(cfg, opts...)
	return nil
}

// Get returns the process-wide redis client, dialing it on first call.
func Get(ctx context.Context) (*redis.Client, error) {
	return current().Get(ctx)
}

// Published reports whether the process-wide client has been dialed.
func Published() bool {
	return current().Published()
}

func current() *Conn {
	mu.Lock()
	defer mu.Unlock()
	return conn
}
