package schema

import (
	"fmt"

	"github.com/c360studio/semonto/vocabulary/mlonto"
)

// Names of the built-in concept types.
const (
	TypeAlgorithm          = "Algorithm"
	TypeAlgorithmParameter = "AlgorithmParameter"
	TypeParameter          = "Parameter"
)

// Label and description keys of concept documents.
const (
	LabelKey       = "rdfs:label"
	DescriptionKey = "rdfs:comment"
)

const unknown = "Unknown"

var parameterGroups = []string{
	"model_parameters",
	"optimisation_parameters",
	"execution_parameters",
}

// AlgorithmType describes the abstract algorithm a tracked estimator implements.
func AlgorithmType(base string) *Type {
	return &Type{
		Name:       TypeAlgorithm,
		IsA:        mlonto.Class(base, mlonto.ClassAlgorithm),
		Paths:      []string{"estimator.algorithm.@schema"},
		Required:   []string{"label", "description", "solves"},
		References: []string{"solves"},
		Aliases: map[string]string{
			"label":       LabelKey,
			"description": DescriptionKey,
			"solves":      mlonto.Term(base, mlonto.TermSolves),
		},
	}
}

// AlgorithmParameterType describes the conceptual parameter of an algorithm.
func AlgorithmParameterType(base string) *Type {
	paths := make([]string, 0, len(parameterGroups))
	for _, g := range parameterGroups {
		paths = append(paths, "estimator.parameters."+g+".algorithm.@schema")
	}
	return &Type{
		Name:       TypeAlgorithmParameter,
		IsA:        mlonto.Class(base, mlonto.ClassAlgorithmParameter),
		Paths:      paths,
		Required:   []string{"label", "description", "configures"},
		References: []string{"configures", "includes"},
		Aliases: map[string]string{
			"label":       LabelKey,
			"description": DescriptionKey,
			"configures":  mlonto.Term(base, mlonto.TermConfigures),
			"includes":    mlonto.Term(base, mlonto.TermIncludes),
		},
	}
}

// ParameterType describes the parameter of a concrete algorithm
// implementation. It covers the concept only; tracked values are a-box data.
func ParameterType(base string) *Type {
	paths := make([]string, 0, len(parameterGroups))
	for _, g := range parameterGroups {
		paths = append(paths, "estimator.parameters."+g+".@schema")
	}
	term := func(name string) string { return mlonto.Term(base, name) }
	return &Type{
		Name:  TypeParameter,
		IsA:   mlonto.Class(base, mlonto.ClassParameter),
		Paths: paths,
		Required: []string{
			"configures", "implements", "optional", "path",
			"value_default", "value_type", "label", "description",
		},
		References: []string{"configures", "implements"},
		Aliases: map[string]string{
			"label":         LabelKey,
			"description":   DescriptionKey,
			"configures":    term(mlonto.TermConfigures),
			"implements":    term(mlonto.TermImplements),
			"optional":      term("optional"),
			"path":          term("path"),
			"value_default": term("value_default"),
			"value_type":    term("value_type"),
		},
	}
}

// DefaultRegistry returns a registry holding the built-in concept types.
func DefaultRegistry(base string) *Registry {
	r := NewRegistry()
	for _, t := range []*Type{AlgorithmType(base), AlgorithmParameterType(base), ParameterType(base)} {
		// Built-in paths are disjoint.
		_ = r.Register(t)
	}
	return r
}

// PlaceholderFields returns the fields of the placeholder concept used when
// tracked data does not describe a concept of the given type.
func PlaceholderFields(base, typeName string) (map[string]any, bool) {
	switch typeName {
	case TypeAlgorithm:
		return map[string]any{
			"uri":         mlonto.Dummy(base, mlonto.ClassAlgorithm),
			"solves":      mlonto.Dummy(base, mlonto.ClassTask),
			"label":       "Unknown algorithm",
			"description": "Algorithm was extracted.",
		}, true
	case TypeAlgorithmParameter:
		return map[string]any{
			"uri":         mlonto.Dummy(base, mlonto.ClassAlgorithmParameter),
			"configures":  mlonto.Dummy(base, mlonto.ClassAlgorithm),
			"label":       "Unknown algorithm parameter",
			"description": "Algorithm parameter was extracted.",
		}, true
	case TypeParameter:
		return map[string]any{
			"uri":           mlonto.Class(base, mlonto.ClassParameter) + "#" + unknown,
			"configures":    mlonto.Dummy(base, mlonto.ClassAlgorithmImplementation),
			"implements":    mlonto.Dummy(base, mlonto.ClassAlgorithmParameter),
			"optional":      unknown,
			"path":          unknown,
			"value_default": unknown,
			"value_type":    unknown,
			"label":         unknown,
			"description":   unknown,
		}, true
	default:
		return nil, false
	}
}

// Placeholder coerces the placeholder fields of a registered type.
func (r *Registry) Placeholder(base, typeName string) (*Model, error) {
	t, ok := r.Type(typeName)
	if !ok {
		return nil, fmt.Errorf("placeholder for unregistered type %s", typeName)
	}
	fields, ok := PlaceholderFields(base, typeName)
	if !ok {
		return nil, fmt.Errorf("no placeholder defined for type %s", typeName)
	}
	m, err := t.Coerce(fields)
	if err != nil {
		return nil, fmt.Errorf("coerce %s placeholder: %w", typeName, err)
	}
	m.Placeholder = true
	return m, nil
}
