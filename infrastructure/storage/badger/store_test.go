package badger_test

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/chartgen/domain/session"
	"github.com/felixgeelhaar/chartgen/infrastructure/storage/badger"
	"github.com/felixgeelhaar/chartgen/infrastructure/storage/storetest"
)

func newTestStore(t *testing.T, opts ...badger.Option) *badger.Store {
	t.Helper()
	s, err := badger.NewStore(badger.DefaultConfig(), append([]badger.Option{badger.WithInMemory()}, opts...)...)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) session.Store {
		return newTestStore(t)
	}, true)
}

func TestStore_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := badger.NewStore(badger.DefaultConfig(), badger.WithDir(dir))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := s.Set(ctx, "k", []byte("persisted"), session.SetOptions{}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := badger.NewStore(badger.DefaultConfig(), badger.WithDir(dir))
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.Get(ctx, "k")
	if err != nil || !ok || string(got) != "persisted" {
		t.Errorf("Get() after reopen = %q, %v, %v", got, ok, err)
	}
}

func TestStore_KeyPrefixIsolation(t *testing.T) {
	s := newTestStore(t, badger.WithKeyPrefix("a:"))
	defer s.Close()
	ctx := context.Background()

	_ = s.Set(ctx, "k1", []byte("v"), session.SetOptions{})
	_ = s.Set(ctx, "k2", []byte("v"), session.SetOptions{})
	_, _, _ = s.Get(ctx, "k1")
	_, _, _ = s.Get(ctx, "k3")

	stats := s.Stats()
	if stats.Size != 2 || stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
