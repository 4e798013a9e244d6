package mlonto

import "strings"

// DefaultNamespace is the base IRI of the padre-lab ML ontology.
const DefaultNamespace = "https://www.padre-lab.eu/onto/"

// Standard namespaces used by the default JSON-LD context.
const (
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"

	XSDString   = XSDNamespace + "string"
	XSDBoolean  = XSDNamespace + "boolean"
	XSDDateTime = XSDNamespace + "dateTime"
)

// Class local names.
const (
	ClassExperiment              = "Experiment"
	ClassRun                     = "Run"
	ClassParameter               = "Parameter"
	ClassMetric                  = "Metric"
	ClassTag                     = "Tag"
	ClassArtifact                = "Artifact"
	ClassLoggerCall              = "LoggerCall"
	ClassTask                    = "Task"
	ClassAlgorithm               = "Algorithm"
	ClassAlgorithmParameter      = "AlgorithmParameter"
	ClassAlgorithmImplementation = "AlgorithmImplementation"
)

// Term local names.
const (
	// TermContainedIn links an object to the run or experiment it belongs to.
	TermContainedIn = "contained_in"

	// TermCreatedAt is the creation timestamp (xsd:dateTime).
	TermCreatedAt = "created_at"

	// TermLabel is the display name (xsd:string).
	TermLabel = "label"

	// TermRelatesTo links an object to its context.
	TermRelatesTo = "relates_to"

	// TermRepresents links an object to the thing it references.
	TermRepresents = "represents"

	// TermProducedBy links an object to the call that produced it.
	TermProducedBy = "produced_by"

	// TermFailure flags failed runs (xsd:boolean).
	TermFailure = "failure"

	// TermImplements links a parameter instance to its t-box concept.
	TermImplements = "implements"

	// TermConfigures links a parameter concept to the implementation it configures.
	TermConfigures = "configures"

	// TermIncludes links an algorithm to its parameters.
	TermIncludes = "includes"

	// TermSolves links an algorithm to the task it solves.
	TermSolves = "solves"
)

// NormalizeBase returns base with a trailing separator. An empty base yields
// DefaultNamespace.
func NormalizeBase(base string) string {
	if base == "" {
		return DefaultNamespace
	}
	if strings.HasSuffix(base, "/") || strings.HasSuffix(base, "#") {
		return base
	}
	return base + "/"
}

// Class returns the IRI of a class under base.
func Class(base, name string) string {
	return NormalizeBase(base) + name
}

// Term returns the IRI of a term under base.
func Term(base, name string) string {
	return NormalizeBase(base) + name
}

// Dummy returns the placeholder individual IRI for a class under base.
func Dummy(base, class string) string {
	return Class(base, class) + "#Dummy"
}
