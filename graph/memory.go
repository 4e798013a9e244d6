package graph

import (
	"context"
	"sync"

	"github.com/c360studio/semonto/rdf"
)

// Memory is an in-memory triple set.
type Memory struct {
	id      string
	decoder *rdf.Decoder

	mu       sync.RWMutex
	triples  map[string]rdf.Triple
	subjects map[string]int
}

// NewMemory creates an empty in-memory graph. A nil decoder gets a default one.
func NewMemory(id string, decoder *rdf.Decoder) *Memory {
	if decoder == nil {
		decoder = rdf.NewDecoder()
	}
	return &Memory{
		id:       id,
		decoder:  decoder,
		triples:  make(map[string]rdf.Triple),
		subjects: make(map[string]int),
	}
}

// Identifier implements Graph.
func (m *Memory) Identifier() string { return m.id }

// Parse implements Graph.
func (m *Memory) Parse(ctx context.Context, data []byte, format rdf.Format) error {
	return parseInto(ctx, m.decoder, m, data, format)
}

// Add implements Graph. Adding a triple already present is a no-op.
func (m *Memory) Add(_ context.Context, triples ...rdf.Triple) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range triples {
		key := t.String()
		if _, ok := m.triples[key]; ok {
			continue
		}
		m.triples[key] = t
		if t.Subject.IsIRI() {
			m.subjects[t.Subject.Value]++
		}
	}
	return nil
}

// Contains implements Graph.
func (m *Memory) Contains(_ context.Context, subject string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.subjects[subject] > 0, nil
}

// Len returns the number of triples.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.triples)
}

// Triples returns all triples in N-Triples order.
func (m *Memory) Triples() []rdf.Triple {
	m.mu.RLock()
	out := make([]rdf.Triple, 0, len(m.triples))
	for _, t := range m.triples {
		out = append(out, t)
	}
	m.mu.RUnlock()
	rdf.Sort(out)
	return out
}
