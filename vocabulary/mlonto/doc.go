// Package mlonto provides the vocabulary of the machine learning experiment
// ontology that converted tracking metadata is annotated with.
//
// Class and term IRIs are relative to a configurable base namespace; the
// constants here are the local names and the helpers join them with a base.
// Predicates are registered with the semstreams vocabulary registry by
// Register, normally once from plugin.New:
//
//	mlonto.Register(cfg.Ontology.BaseURI)
//
// The default JSON-LD context reads each predicate's data type back from the
// registry to decide how term values are coerced.
package mlonto
