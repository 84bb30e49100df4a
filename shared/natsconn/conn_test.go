package natsconn

import (
	"context"
	"errors"
	"testing"

	"github.com/goforj/lazy/lazytest"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

func TestConnDialsOnceAndSharesConnection(t *testing.T) {
	sentinel := &nats.Conn{}
	dials := 0
	conn := New(Config{
		Connect: func(context.Context, Config) (*nats.Conn, error) {
			dials++
			return sentinel, nil
		},
	})

	ctx := context.Background()
	first, err := conn.Get(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	second, err := conn.Get(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if first != sentinel || second != sentinel {
		t.Fatalf("expected the sentinel connection from every call")
	}
	if dials != 1 {
		t.Fatalf("expected one dial, got %d", dials)
	}
}

func TestConfigDefaults(t *testing.T) {
	var got Config
	conn := New(Config{
		Connect: func(_ context.Context, cfg Config) (*nats.Conn, error) {
			got = cfg
			return &nats.Conn{}, nil
		},
	})
	if _, err := conn.Get(context.Background()); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.URL != nats.DefaultURL {
		t.Fatalf("expected default url, got %q", got.URL)
	}
	if got.ConnectTimeout != defaultConnectTimeout {
		t.Fatalf("expected default connect timeout, got %v", got.ConnectTimeout)
	}
}

func TestConnRetriesAfterDialFailure(t *testing.T) {
	boom := errors.New("no servers available")
	dials := 0
	conn := New(Config{
		Connect: func(context.Context, Config) (*nats.Conn, error) {
			dials++
			if dials == 1 {
				return nil, boom
			}
			return &nats.Conn{}, nil
		},
	})

	ctx := context.Background()
	if _, err := conn.Get(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected dial failure, got %v", err)
	}
	if conn.Published() {
		t.Fatalf("failed dial must not publish")
	}
	if _, err := conn.Get(ctx); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
}

func TestConnSingletonContract(t *testing.T) {
	conn := New(Config{
		Connect: func(context.Context, Config) (*nats.Conn, error) {
			return &nats.Conn{}, nil
		},
	})
	lazytest.RunSingletonContract(t, lazytest.Fixture{
		Get: func(ctx context.Context) (uuid.UUID, error) {
			if _, err := conn.Get(ctx); err != nil {
				return uuid.Nil, err
			}
			return conn.InstanceID(), nil
		},
		Builds: conn.Attempts,
	}, lazytest.Options{})
}

func TestProcessWideConfigureLifecycle(t *testing.T) {
	sentinel := &nats.Conn{}
	err := Configure(Config{
		Connect: func(context.Context, Config) (*nats.Conn, error) {
			return sentinel, nil
		},
	})
	if err != nil {
		t.Fatalf("configure before first use failed: %v", err)
	}

	nc, err := Get(context.Background())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if nc != sentinel {
		t.Fatalf("expected configured dialer to be used")
	}
	if err := Configure(Config{}); err == nil {
		t.Fatalf("expected configure to fail once the connection is dialed")
	}
}
