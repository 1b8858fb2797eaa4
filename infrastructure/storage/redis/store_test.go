package redis

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/chartgen/domain/session"
	"github.com/felixgeelhaar/chartgen/infrastructure/storage/storetest"
)

// Set CHARTGEN_TEST_REDIS_ADDR to run the conformance suite against a live server.
const addrEnv = "CHARTGEN_TEST_REDIS_ADDR"

func TestStore_key(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix string
		key    string
		want   string
	}{
		{"chartgen:", "default:generatedData", "chartgen:session:default:generatedData"},
		{"", "abc:generatedData", "session:abc:generatedData"},
		{"staging:", "k", "staging:session:k"},
	}

	for _, tt := range tests {
		s := NewStoreFromClient(nil, tt.prefix)
		if got := s.key(tt.key); got != tt.want {
			t.Errorf("key(%q) = %s, want %s", tt.key, got, tt.want)
		}
	}
}

func TestStore_CancelledContext(t *testing.T) {
	t.Parallel()

	s := NewStoreFromClient(nil, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := s.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
	if err := s.Set(ctx, "k", nil, session.SetOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Set() error = %v, want context.Canceled", err)
	}
	if err := s.Delete(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Delete() error = %v, want context.Canceled", err)
	}
	if _, err := s.Exists(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Exists() error = %v, want context.Canceled", err)
	}
}

func TestStore_EmptyKey(t *testing.T) {
	t.Parallel()

	s := NewStoreFromClient(nil, "")
	if err := s.Set(context.Background(), "", []byte("v"), session.SetOptions{}); !errors.Is(err, session.ErrInvalidKey) {
		t.Errorf("Set() error = %v, want ErrInvalidKey", err)
	}
}

func TestStore_CloseBorrowedClient(t *testing.T) {
	t.Parallel()

	s := NewStoreFromClient(nil, "")
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewStore_Unreachable(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	_, err = NewStore(DefaultConfig(),
		WithAddress(addr),
		WithDialTimeout(200*time.Millisecond),
		WithIOTimeout(200*time.Millisecond),
		WithMaxRetries(-1),
	)
	if !errors.Is(err, session.ErrConnectionFailed) {
		t.Errorf("NewStore() error = %v, want ErrConnectionFailed", err)
	}
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	if wrapError(nil) != nil {
		t.Error("wrapError(nil) should be nil")
	}
	if err := wrapError(context.DeadlineExceeded); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("wrapError(deadline) = %v", err)
	}
	if err := wrapError(&net.OpError{Op: "dial", Err: errors.New("refused")}); !errors.Is(err, session.ErrConnectionFailed) {
		t.Errorf("wrapError(net) = %v, want ErrConnectionFailed", err)
	}
	plain := errors.New("WRONGTYPE")
	if err := wrapError(plain); err != plain {
		t.Errorf("wrapError(plain) = %v", err)
	}
}

func TestStore_Conformance(t *testing.T) {
	addr := os.Getenv(addrEnv)
	if addr == "" {
		t.Skipf("%s not set", addrEnv)
	}

	storetest.Run(t, func(t *testing.T) session.Store {
		prefix := "chartgen-test:" + t.Name() + ":"
		client := redis.NewClient(&redis.Options{Addr: addr})
		t.Cleanup(func() { _ = client.Close() })
		return NewStoreFromClient(client, prefix)
	}, false)
}
