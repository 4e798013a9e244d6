// Package dedup remembers which payloads were already written to a graph so
// repeated conversions of the same object do not re-serialize it.
package dedup

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/c360studio/semstreams/pkg/cache"
	"github.com/cespare/xxhash/v2"
)

// Store is a set of (graph, content) keys. It is safe for concurrent use.
type Store struct {
	maxPerGraph int
	logger      *slog.Logger

	mu     sync.Mutex
	graphs map[string]cache.Cache[struct{}]
}

// Option configures a Store.
type Option func(*Store)

// WithMaxEntriesPerGraph bounds every graph's key set with an LRU of the
// given size. Zero keeps the sets unbounded.
func WithMaxEntriesPerGraph(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxPerGraph = n
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		logger: slog.Default(),
		graphs: make(map[string]cache.Cache[struct{}]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key computes the deduplication key of content within a graph. Mapping keys
// are serialized in sorted order, list order is significant.
func Key(graphID string, content any) (string, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("serialize content: %w", err)
	}
	h := xxhash.New()
	_, _ = h.WriteString(graphID)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(data)
	return strconv.FormatUint(h.Sum64(), 16), nil
}

// SeenBefore records content for a graph and reports whether it had been
// recorded already. Content that cannot be serialized is never considered
// seen.
func (s *Store) SeenBefore(graphID string, content any) bool {
	key, err := Key(graphID, content)
	if err != nil {
		s.logger.Warn("Cannot compute deduplication key", "graph", graphID, "error", err)
		return false
	}
	set, err := s.set(graphID)
	if err != nil {
		s.logger.Warn("Cannot create deduplication set", "graph", graphID, "error", err)
		return false
	}
	created, err := set.Set(key, struct{}{})
	if err != nil {
		s.logger.Warn("Cannot record deduplication key", "graph", graphID, "error", err)
		return false
	}
	return !created
}

// Forget removes content from a graph's set.
func (s *Store) Forget(graphID string, content any) error {
	key, err := Key(graphID, content)
	if err != nil {
		return err
	}
	s.mu.Lock()
	set, ok := s.graphs[graphID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	_, err = set.Delete(key)
	return err
}

// Len returns the number of keys recorded for a graph.
func (s *Store) Len(graphID string) int {
	s.mu.Lock()
	set, ok := s.graphs[graphID]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	return set.Size()
}

// Reset drops all recorded keys.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for id, set := range s.graphs {
		if err := set.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close set for graph %s: %w", id, err)
		}
	}
	s.graphs = make(map[string]cache.Cache[struct{}])
	return firstErr
}

func (s *Store) set(graphID string) (cache.Cache[struct{}], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.graphs[graphID]; ok {
		return set, nil
	}
	var (
		set cache.Cache[struct{}]
		err error
	)
	if s.maxPerGraph > 0 {
		set, err = cache.NewLRU[struct{}](s.maxPerGraph)
	} else {
		set, err = cache.NewSimple[struct{}]()
	}
	if err != nil {
		return nil, err
	}
	s.graphs[graphID] = set
	return set, nil
}
