// Package inflight prevents the same action from being submitted twice while
// an earlier request for it is still running.
package inflight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrBusy is returned by Acquire when the key is already held.
var ErrBusy = errors.New("request already in progress")

// Guard hands out exclusive holds on keys. Holding one key never blocks
// another.
type Guard interface {
	// Acquire takes key or fails with ErrBusy. The returned release func
	// must be called exactly once when the request finishes.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Key identifies one viewer's request for one action on one campaign.
func Key(action string, campaignID uint64, viewer string) string {
	return fmt.Sprintf("%s:%d:%s", action, campaignID, strings.ToLower(viewer))
}

// Memory is a process-local Guard.
type Memory struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemory creates an empty process-local guard.
func NewMemory() *Memory {
	return &Memory{held: make(map[string]struct{})}
}

func (m *Memory) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.held[key]; ok {
		return nil, ErrBusy
	}
	m.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, key)
			m.mu.Unlock()
		})
	}, nil
}
