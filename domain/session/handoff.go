package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/chartgen/domain/dataset"
)

// DefaultID is the session used when the caller supplies none.
const DefaultID = "default"

const dataSuffix = ":generatedData"

// Key returns the storage key of a session's generated data.
func Key(sessionID string) string {
	return sessionID + dataSuffix
}

// Handoff stores the most recently generated dataset per session.
type Handoff struct {
	store Store
	ttl   time.Duration
}

// NewHandoff creates a hand-off over store. A zero ttl keeps data until it
// is replaced or cleared.
func NewHandoff(store Store, ttl time.Duration) *Handoff {
	return &Handoff{store: store, ttl: ttl}
}

// Save replaces the session's data.
func (h *Handoff) Save(ctx context.Context, sessionID string, data *dataset.GeneratedData) error {
	if sessionID == "" {
		return ErrInvalidKey
	}
	if data == nil {
		return fmt.Errorf("save session %s: nil data", sessionID)
	}
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode generated data: %w", err)
	}
	return h.store.Set(ctx, Key(sessionID), b, SetOptions{TTL: h.ttl})
}

// Load returns the session's data, or ErrNoData when nothing was saved.
func (h *Handoff) Load(ctx context.Context, sessionID string) (*dataset.GeneratedData, error) {
	if sessionID == "" {
		return nil, ErrInvalidKey
	}
	b, ok, err := h.store.Get(ctx, Key(sessionID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoData
	}
	var data dataset.GeneratedData
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptData, err)
	}
	return &data, nil
}

// Has reports whether the session holds data.
func (h *Handoff) Has(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, ErrInvalidKey
	}
	return h.store.Exists(ctx, Key(sessionID))
}

// Clear drops the session's data.
func (h *Handoff) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidKey
	}
	return h.store.Delete(ctx, Key(sessionID))
}
