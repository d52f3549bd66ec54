// Package store holds per-interaction artifacts: every extractor writes
// its intermediate and final results under a unique interaction ID so a
// whole request can be inspected after the fact.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/invoflow/invoflow/internal/logger"
)

// Store is a keyed artifact store scoped by interaction ID. A Put against
// an ID that was never initialized is a no-op with a warning, not a fault.
type Store interface {
	// Init registers an interaction ID. Re-initializing an existing ID
	// keeps its artifacts.
	Init(ctx context.Context, id string) error

	// Put records one artifact under an interaction.
	Put(ctx context.Context, id, key string, value any) error

	// Get returns an artifact, or nil when the interaction or key is
	// unknown.
	Get(ctx context.Context, id, key string) (any, error)

	// Dump returns every interaction with all of its artifacts.
	Dump(ctx context.Context) (map[string]map[string]any, error)

	Close() error
}

// MemoryStore is the default in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]any
}

var _ Store = (*MemoryStore)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]any)}
}

func (s *MemoryStore) Init(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		s.data[id] = make(map[string]any)
	}
	logger.Debug("interaction context initialized", "interaction_id", id)
	return nil
}

func (s *MemoryStore) Put(_ context.Context, id, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, ok := s.data[id]
	if !ok {
		logger.Warn("interaction not initialized, dropping artifact",
			"interaction_id", id, "key", key)
		return nil
	}
	ctx[key] = value
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id, key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctx, ok := s.data[id]
	if !ok {
		return nil, nil
	}
	return ctx[key], nil
}

func (s *MemoryStore) Dump(_ context.Context) (map[string]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]any, len(s.data))
	for id, ctx := range s.data {
		copied := make(map[string]any, len(ctx))
		for k, v := range ctx {
			copied[k] = v
		}
		out[id] = copied
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// Keys returns the sorted artifact keys of one interaction, mainly for
// diagnostics.
func (s *MemoryStore) Keys(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctx, ok := s.data[id]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
