package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360studio/semonto/rdf"
)

// DefaultSubject is the subject RDF batches are published to.
const DefaultSubject = "graph.ingest.rdf"

// Publisher publishes raw messages. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATS publishes triples as RDF payload batches. It cannot answer queries.
type NATS struct {
	id      string
	subject string
	pub     Publisher
	conn    *nats.Conn
	decoder *rdf.Decoder
	now     func() time.Time
}

// NewNATS creates a sink publishing through pub.
func NewNATS(id, subject string, pub Publisher, decoder *rdf.Decoder) *NATS {
	if subject == "" {
		subject = DefaultSubject
	}
	if decoder == nil {
		decoder = rdf.NewDecoder()
	}
	return &NATS{id: id, subject: subject, pub: pub, decoder: decoder, now: time.Now}
}

// DialNATS connects to a NATS server and creates a sink owning the
// connection.
func DialNATS(url, id, subject string, decoder *rdf.Decoder) (*NATS, error) {
	conn, err := nats.Connect(url, nats.Name("semonto"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	s := NewNATS(id, subject, conn, decoder)
	s.conn = conn
	return s, nil
}

// Identifier implements Graph.
func (n *NATS) Identifier() string { return n.id }

// Parse implements Graph.
func (n *NATS) Parse(ctx context.Context, data []byte, format rdf.Format) error {
	return parseInto(ctx, n.decoder, n, data, format)
}

// Add implements Graph.
func (n *NATS) Add(ctx context.Context, triples ...rdf.Triple) error {
	if len(triples) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	payload := &RDFPayload{
		Graph:       n.id,
		Triples:     make([]string, len(triples)),
		PublishedAt: n.now().UTC(),
	}
	for i, t := range triples {
		payload.Triples[i] = t.String()
	}
	data, err := payload.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal rdf payload: %w", err)
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish rdf payload: %w", err)
	}
	return nil
}

// Contains implements Graph. Published triples cannot be queried back.
func (n *NATS) Contains(context.Context, string) (bool, error) {
	return false, ErrUnsupported
}

// Close flushes and closes a connection the sink owns.
func (n *NATS) Close() error {
	if n.conn == nil {
		return nil
	}
	if err := n.conn.Flush(); err != nil {
		n.conn.Close()
		return fmt.Errorf("flush NATS connection: %w", err)
	}
	n.conn.Close()
	return nil
}
