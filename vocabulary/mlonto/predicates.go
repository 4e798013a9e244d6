package mlonto

import "github.com/c360studio/semstreams/vocabulary"

// Object predicates shared by every converted tracking object.
const (
	// ObjectContainedIn links an object to its run or experiment.
	ObjectContainedIn = "mlonto.object.contained_in"

	// ObjectCreatedAt is when the object was tracked (RFC3339).
	ObjectCreatedAt = "mlonto.object.created_at"

	// ObjectLabel is the object's display name.
	ObjectLabel = "mlonto.object.label"

	// ObjectRelatesTo links an object to its logging context.
	ObjectRelatesTo = "mlonto.object.relates_to"

	// ObjectRepresents is the reference string of the entity the object stands for.
	ObjectRepresents = "mlonto.object.represents"

	// ObjectProducedBy links an object to the logger call that produced it.
	ObjectProducedBy = "mlonto.object.produced_by"
)

// Run predicates.
const (
	// RunFailure flags a failed run.
	RunFailure = "mlonto.run.failure"
)

// Concept predicates linking tracked values to the t-box.
const (
	// ConceptImplements links a parameter instance to its concept.
	ConceptImplements = "mlonto.concept.implements"

	// ConceptConfigures links a parameter concept to an implementation.
	ConceptConfigures = "mlonto.concept.configures"

	// ConceptIncludes links an algorithm to its parameters.
	ConceptIncludes = "mlonto.concept.includes"

	// ConceptSolves links an algorithm to a task.
	ConceptSolves = "mlonto.concept.solves"
)

// Registry data types used by the ontology predicates.
const (
	DataTypeEntity   = "entity_id"
	DataTypeString   = "string"
	DataTypeBool     = "bool"
	DataTypeDateTime = "datetime"
)

type predicate struct {
	name        string
	term        string
	description string
	dataType    string
}

var predicates = []predicate{
	{ObjectContainedIn, TermContainedIn, "Run or experiment the object belongs to", DataTypeEntity},
	{ObjectCreatedAt, TermCreatedAt, "Tracking timestamp (RFC3339)", DataTypeDateTime},
	{ObjectLabel, TermLabel, "Display name of the tracked object", DataTypeString},
	{ObjectRelatesTo, TermRelatesTo, "Logging context the object relates to", DataTypeEntity},
	{ObjectRepresents, TermRepresents, "Reference of the entity the object stands for", DataTypeString},
	{ObjectProducedBy, TermProducedBy, "Logger call that produced the object", DataTypeEntity},
	{RunFailure, TermFailure, "Whether the run failed", DataTypeBool},
	{ConceptImplements, TermImplements, "Links a tracked parameter to its t-box concept", DataTypeEntity},
	{ConceptConfigures, TermConfigures, "Links a parameter concept to the implementation it configures", DataTypeEntity},
	{ConceptIncludes, TermIncludes, "Links an algorithm to its parameters", DataTypeEntity},
	{ConceptSolves, TermSolves, "Links an algorithm to the task it solves", DataTypeEntity},
}

// Register adds the ontology predicates to the semstreams vocabulary registry
// with IRIs under base. The registry is process wide; registering again with
// another base replaces the IRIs.
func Register(base string) {
	for _, p := range predicates {
		vocabulary.Register(p.name,
			vocabulary.WithDescription(p.description),
			vocabulary.WithDataType(p.dataType),
			vocabulary.WithIRI(Term(base, p.term)))
	}
}

// Predicates returns the ontology predicate names in declaration order.
func Predicates() []string {
	out := make([]string, len(predicates))
	for i, p := range predicates {
		out[i] = p.name
	}
	return out
}

// LocalName returns the term local name of an ontology predicate.
func LocalName(name string) (string, bool) {
	for _, p := range predicates {
		if p.name == name {
			return p.term, true
		}
	}
	return "", false
}

// Coercion returns the JSON-LD @type a registered predicate's values are
// coerced to: an XSD datatype for literals or "@id" for entity references.
// It reports false for predicates missing from the registry.
func Coercion(name string) (string, bool) {
	meta := vocabulary.GetPredicateMetadata(name)
	if meta == nil {
		return "", false
	}
	switch meta.DataType {
	case DataTypeEntity:
		return "@id", true
	case DataTypeString:
		return XSDString, true
	case DataTypeBool:
		return XSDBoolean, true
	case DataTypeDateTime:
		return XSDDateTime, true
	default:
		return "", false
	}
}
