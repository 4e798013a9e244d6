// Package rdf holds the triple model shared by graph sinks and exporters and
// decodes JSON-LD documents into triples.
package rdf

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Well-known IRIs.
const (
	RDFType    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	XSDString  = "http://www.w3.org/2001/XMLSchema#string"
	LangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)

// TermKind discriminates RDF terms.
type TermKind int

// Term kinds.
const (
	KindIRI TermKind = iota
	KindBlank
	KindLiteral
)

// Term is an IRI, blank node or literal.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Language string
}

// IRI returns an IRI term.
func IRI(v string) Term { return Term{Kind: KindIRI, Value: v} }

// Blank returns a blank node term. The label excludes the "_:" prefix.
func Blank(label string) Term { return Term{Kind: KindBlank, Value: label} }

// Literal returns a typed literal. An empty datatype means xsd:string.
func Literal(v, datatype string) Term {
	return Term{Kind: KindLiteral, Value: v, Datatype: datatype}
}

// LangLiteral returns a language tagged literal.
func LangLiteral(v, lang string) Term {
	return Term{Kind: KindLiteral, Value: v, Datatype: LangString, Language: lang}
}

// IsIRI reports whether the term is an IRI.
func (t Term) IsIRI() bool { return t.Kind == KindIRI }

// String returns the N-Triples form of the term.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + escapeIRI(t.Value) + ">"
	case KindBlank:
		return "_:" + t.Value
	default:
		lit := `"` + EscapeLiteral(t.Value) + `"`
		switch {
		case t.Language != "":
			return lit + "@" + t.Language
		case t.Datatype == "" || t.Datatype == XSDString:
			return lit
		default:
			return lit + "^^<" + escapeIRI(t.Datatype) + ">"
		}
	}
}

// Triple is a single RDF statement.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// String returns the N-Triples line of the triple without a newline.
func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s .", t.Subject, t.Predicate, t.Object)
}

// EncodeNTriples writes triples as N-Triples, one per line.
func EncodeNTriples(w io.Writer, triples []Triple) error {
	for _, t := range triples {
		if _, err := io.WriteString(w, t.String()+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// NTriples returns triples as N-Triples text.
func NTriples(triples []Triple) string {
	var sb strings.Builder
	_ = EncodeNTriples(&sb, triples)
	return sb.String()
}

// Sort orders triples by their N-Triples form.
func Sort(triples []Triple) {
	sort.Slice(triples, func(i, j int) bool {
		return triples[i].String() < triples[j].String()
	})
}

// EscapeLiteral escapes special characters of a literal lexical form.
func EscapeLiteral(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}

func escapeIRI(s string) string {
	s = strings.ReplaceAll(s, ">", "%3E")
	s = strings.ReplaceAll(s, "<", "%3C")
	s = strings.ReplaceAll(s, " ", "%20")
	return s
}
