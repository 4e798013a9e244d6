package graph_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/c360studio/semstreams/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/rdf"
)

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	messages [][]byte
	err      error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.messages = append(p.messages, data)
	return nil
}

func TestNATS_Add(t *testing.T) {
	pub := &fakePublisher{}
	sink := graph.NewNATS("https://example.org/graph", "", pub, nil)

	err := sink.Add(context.Background(), rdf.Triple{
		Subject: rdf.IRI("https://a"), Predicate: rdf.IRI("https://p"), Object: rdf.Literal("v", ""),
	})
	require.NoError(t, err)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, graph.DefaultSubject, pub.subjects[0])

	var payload graph.RDFPayload
	require.NoError(t, json.Unmarshal(pub.messages[0], &payload))
	assert.Equal(t, "https://example.org/graph", payload.Graph)
	assert.Equal(t, []string{`<https://a> <https://p> "v" .`}, payload.Triples)
	assert.NoError(t, payload.Validate())
	assert.False(t, payload.PublishedAt.IsZero())
}

func TestNATS_ContainsUnsupported(t *testing.T) {
	sink := graph.NewNATS("g", "custom.subject", &fakePublisher{}, nil)
	_, err := sink.Contains(context.Background(), "https://a")
	assert.ErrorIs(t, err, graph.ErrUnsupported)
}

func TestNATS_PublishError(t *testing.T) {
	sink := graph.NewNATS("g", "", &fakePublisher{err: errors.New("no responders")}, nil)
	err := sink.Add(context.Background(), rdf.Triple{
		Subject: rdf.IRI("https://a"), Predicate: rdf.IRI("https://p"), Object: rdf.Literal("v", ""),
	})
	assert.ErrorContains(t, err, "no responders")
}

func TestRDFPayload_Registered(t *testing.T) {
	p := component.CreatePayload("graph", "rdf", "v1")
	require.NotNil(t, p)
	_, ok := p.(*graph.RDFPayload)
	assert.True(t, ok)

	empty := &graph.RDFPayload{}
	assert.Error(t, empty.Validate())
	assert.Equal(t, graph.RDFType, empty.Schema())
}
