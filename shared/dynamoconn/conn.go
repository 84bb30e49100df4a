// Package dynamoconn owns the process-wide DynamoDB client, built on first
// access and shared by every caller thereafter.
package dynamoconn

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/goforj/lazy"
	"github.com/google/uuid"
)

const defaultRegion = "us-east-1"

// Config controls how the shared client is built.
type Config struct {
	Region string

	// Endpoint points the client at a non-AWS endpoint (e.g. dynamodb-local).
	// When set, static dummy credentials are used, matching local tooling.
	Endpoint string

	// Load overrides client construction; used by tests and callers that
	// need full control over aws.Config.
	Load func(ctx context.Context, cfg Config) (*dynamodb.Client, error)
}

func (c Config) withDefaults() Config {
	if c.Region == "" {
		c.Region = defaultRegion
	}
	if c.Load == nil {
		c.Load = load
	}
	return c
}

func load(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")),
			config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{URL: cfg.Endpoint, HostnameImmutable: true}, nil
				})),
		)
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(awsCfg), nil
}

// Conn is a DynamoDB client built once on first access and shared by every
// caller for the lifetime of the process.
type Conn struct {
	loader *lazy.Loader[*dynamodb.Client]
}

// New builds a Conn around cfg. Nothing is constructed until the first Get
// call.
func New(cfg Config, opts ...lazy.Option) *Conn {
	cfg = cfg.withDefaults()
	opts = append([]lazy.Option{lazy.WithName("dynamodb")}, opts...)
	return &Conn{
		loader: lazy.NewLoader(func(ctx context.Context) (*dynamodb.Client, error) {
			return cfg.Load(ctx, cfg)
		}, opts...),
	}
}

// Get returns the shared client, building it on first call. Under the
// default retry policy a failed load leaves the conn unbuilt and the next
// call retries.
func (c *Conn) Get(ctx context.Context) (*dynamodb.Client, error) {
	return c.loader.Value(ctx)
}

// Published reports whether the client has been built.
func (c *Conn) Published() bool { return c.loader.Published() }

// InstanceID identifies the built client for identity assertions.
func (c *Conn) InstanceID() uuid.UUID { return c.loader.InstanceID() }

// Attempts reports how many load attempts have run.
func (c *Conn) Attempts() uint64 { return c.loader.Attempts() }

// The package-level conn is the one process-wide ownership unit.
var (
	mu   sync.Mutex
	conn = New(Config{})
)

// Configure replaces the process-wide configuration. It fails once the
// shared client has been built; call it during startup, before first use.
func Configure(cfg Config, opts ...lazy.Option) error {
	mu.Lock()
	defer mu.Unlock()
	if conn.Published() {
		return errors.New("dynamoconn: shared client already built")
	}
	conn = New(cfg, opts...)
	return nil
}

// Get returns the process-wide client, building it on first call.
func Get(ctx context.Context) (*dynamodb.Client, error) {
	return current().Get(ctx)
}

// Published reports whether the process-wide client has been built.
func Published() bool {
	return current().Published()
}

func current() *Conn {
	mu.Lock()
	defer mu.Unlock()
	return conn
}
