package graph

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "graph",
		Category:    "rdf",
		Version:     "v1",
		Description: "Batch of N-Triples converted from tracking metadata",
		Factory:     func() any { return &RDFPayload{} },
	})
	if err != nil {
		panic("failed to register RDFPayload: " + err.Error())
	}
}

// RDFType is the message type of RDF batch payloads.
var RDFType = message.Type{Domain: "graph", Category: "rdf", Version: "v1"}

// RDFPayload is a batch of triples for one named graph, each triple encoded
// as an N-Triples line.
type RDFPayload struct {
	Graph       string    `json:"graph"`
	Triples     []string  `json:"triples"`
	PublishedAt time.Time `json:"published_at"`
}

// Schema returns the payload message type.
func (p *RDFPayload) Schema() message.Type { return RDFType }

// Validate checks the payload has content.
func (p *RDFPayload) Validate() error {
	if len(p.Triples) == 0 {
		return errors.New("rdf payload has no triples")
	}
	return nil
}

func (p *RDFPayload) MarshalJSON() ([]byte, error) {
	type Alias RDFPayload
	return json.Marshal((*Alias)(p))
}

func (p *RDFPayload) UnmarshalJSON(data []byte) error {
	type Alias RDFPayload
	return json.Unmarshal(data, (*Alias)(p))
}
