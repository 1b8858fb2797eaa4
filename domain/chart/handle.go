package chart

import (
	"sync"
	"time"
)

// Handle is a live chart configuration. Releasing it runs the release hook
// once; later calls are no-ops.
type Handle struct {
	ID        string
	Config    *Config
	CreatedAt time.Time

	once      sync.Once
	mu        sync.Mutex
	released  bool
	onRelease func(*Handle)
}

// NewHandle wraps a configuration. onRelease may be nil.
func NewHandle(id string, cfg *Config, onRelease func(*Handle)) *Handle {
	return &Handle{
		ID:        id,
		Config:    cfg,
		CreatedAt: time.Now(),
		onRelease: onRelease,
	}
}

// Release frees the handle.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.mu.Lock()
		h.released = true
		h.mu.Unlock()
		if h.onRelease != nil {
			h.onRelease(h)
		}
	})
}

// Released reports whether Release has run.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
