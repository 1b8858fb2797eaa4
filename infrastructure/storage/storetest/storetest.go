// Package storetest runs a shared conformance suite against session.Store
// implementations.
package storetest

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/chartgen/domain/dataset"
	"github.com/felixgeelhaar/chartgen/domain/session"
)

// Factory opens a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) session.Store

// Run exercises the session.Store contract. Backends that cannot honor
// sub-second TTLs should pass skipTTL.
func Run(t *testing.T, open Factory, skipTTL bool) {
	t.Helper()

	t.Run("set and get", func(t *testing.T) {
		s := openStore(t, open)
		ctx := context.Background()

		if err := s.Set(ctx, "k1", []byte("v1"), session.SetOptions{}); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, ok, err := s.Get(ctx, "k1")
		if err != nil || !ok {
			t.Fatalf("Get() = %v, %v, want found", ok, err)
		}
		if !bytes.Equal(got, []byte("v1")) {
			t.Errorf("Get() = %s, want v1", got)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		s := openStore(t, open)
		_, ok, err := s.Get(context.Background(), "nope")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() found a key that was never set")
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		s := openStore(t, open)
		ctx := context.Background()
		_ = s.Set(ctx, "k", []byte("a"), session.SetOptions{})
		_ = s.Set(ctx, "k", []byte("b"), session.SetOptions{})
		got, _, _ := s.Get(ctx, "k")
		if string(got) != "b" {
			t.Errorf("Get() = %s, want b", got)
		}
	})

	t.Run("delete and exists", func(t *testing.T) {
		s := openStore(t, open)
		ctx := context.Background()
		_ = s.Set(ctx, "k", []byte("v"), session.SetOptions{})

		if ok, err := s.Exists(ctx, "k"); err != nil || !ok {
			t.Fatalf("Exists() = %v, %v, want true", ok, err)
		}
		if err := s.Delete(ctx, "k"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if ok, _ := s.Exists(ctx, "k"); ok {
			t.Error("Exists() = true after Delete")
		}
		if err := s.Delete(ctx, "k"); err != nil {
			t.Errorf("Delete() of missing key error = %v", err)
		}
	})

	t.Run("empty key", func(t *testing.T) {
		s := openStore(t, open)
		err := s.Set(context.Background(), "", []byte("v"), session.SetOptions{})
		if !errors.Is(err, session.ErrInvalidKey) {
			t.Errorf("Set(\"\") error = %v, want ErrInvalidKey", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := openStore(t, open)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, _, err := s.Get(ctx, "k"); err == nil {
			t.Error("Get() with cancelled context should fail")
		}
		if err := s.Set(ctx, "k", []byte("v"), session.SetOptions{}); err == nil {
			t.Error("Set() with cancelled context should fail")
		}
	})

	t.Run("ttl", func(t *testing.T) {
		if skipTTL {
			t.Skip("backend TTL resolution is one second")
		}
		s := openStore(t, open)
		ctx := context.Background()
		_ = s.Set(ctx, "short", []byte("v"), session.SetOptions{TTL: 20 * time.Millisecond})
		_ = s.Set(ctx, "long", []byte("v"), session.SetOptions{TTL: time.Hour})
		time.Sleep(60 * time.Millisecond)

		if _, ok, _ := s.Get(ctx, "short"); ok {
			t.Error("expired entry still returned")
		}
		if _, ok, _ := s.Get(ctx, "long"); !ok {
			t.Error("unexpired entry missing")
		}
	})

	t.Run("handoff", func(t *testing.T) {
		s := openStore(t, open)
		ctx := context.Background()
		h := session.NewHandoff(s, 0)

		data := &dataset.GeneratedData{
			BasicData: dataset.BasicData{Dim: 1, Axes: []dataset.AxisInfo{{Name: "x", Min: 0, Max: 1, Interval: 1}}},
			Samples:   []dataset.Sample{dataset.NewSample([]float64{1}, 3)},
		}
		if err := h.Save(ctx, "sess", data); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got, err := h.Load(ctx, "sess")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(got.Samples) != 1 || got.Samples[0].String() != "(1) -> 3" {
			t.Errorf("Load() samples = %v", got.Samples)
		}
		if _, err := h.Load(ctx, "other"); !errors.Is(err, session.ErrNoData) {
			t.Errorf("Load(other) error = %v, want ErrNoData", err)
		}
	})
}

func openStore(t *testing.T, open Factory) session.Store {
	t.Helper()
	s := open(t)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
