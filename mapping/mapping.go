// Package mapping loads mapping files describing where tracked objects carry
// ontology information in their additional data, and annotates objects with
// the corresponding @rdf and @json-ld instructions.
package mapping

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semonto/jsonld"
	"github.com/c360studio/semonto/tracking"
)

// ErrInvalidMapping is returned for mapping documents that fail validation.
var ErrInvalidMapping = errors.New("invalid mapping")

// Entry maps objects to the additional-data paths holding their ontology
// information. Declared selectors must all match; an entry without
// selectors matches every object.
type Entry struct {
	Hook        string               `yaml:"hook,omitempty" json:"hook,omitempty"`
	StorageType tracking.StorageType `yaml:"storage_type,omitempty" json:"storage_type,omitempty"`
	Category    string               `yaml:"category,omitempty" json:"category,omitempty"`

	// RDF lists paths to mappings merged into the object's fields.
	RDF []string `yaml:"rdf,omitempty" json:"rdf,omitempty"`

	// JSONLD lists paths to JSON-LD fragments written beside the object.
	JSONLD []string `yaml:"json_ld,omitempty" json:"json_ld,omitempty"`
}

// Matches reports whether obj satisfies every declared selector.
func (e Entry) Matches(obj tracking.Object) bool {
	if e.Hook != "" && e.Hook != obj.Hook() {
		return false
	}
	if e.StorageType != "" && e.StorageType != obj.StorageType() {
		return false
	}
	if e.Category != "" && e.Category != obj.Category() {
		return false
	}
	return true
}

// File is a parsed mapping document.
type File struct {
	Name     string  `yaml:"name" json:"name"`
	Mappings []Entry `yaml:"mappings" json:"mappings"`

	// Path is the file the document was loaded from.
	Path string `yaml:"-" json:"-"`
}

// Validate checks that every entry declares at least one path.
func (f *File) Validate() error {
	for i, e := range f.Mappings {
		if len(e.RDF) == 0 && len(e.JSONLD) == 0 {
			return fmt.Errorf("%w: %s entry %d declares no rdf or json_ld paths", ErrInvalidMapping, f.Name, i)
		}
	}
	return nil
}

// Parse decodes a YAML or JSON mapping document.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMapping, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads and parses a mapping file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	if f.Name == "" {
		f.Name = path
	}
	return f, nil
}

// Set is a collection of mapping files applied together.
type Set struct {
	files  []*File
	logger *slog.Logger
}

// NewSet creates a set from already loaded files.
func NewSet(logger *slog.Logger, files ...*File) *Set {
	if logger == nil {
		logger = slog.Default()
	}
	return &Set{files: files, logger: logger}
}

// Files returns the files in load order.
func (s *Set) Files() []*File {
	out := make([]*File, len(s.files))
	copy(out, s.files)
	return out
}

// Entries returns the entries matching obj, in load order.
func (s *Set) Entries(obj tracking.Object) []Entry {
	var out []Entry
	for _, f := range s.files {
		for _, e := range f.Mappings {
			if e.Matches(obj) {
				out = append(out, e)
			}
		}
	}
	return out
}

// Annotate returns obj with the instructions of every matching entry added
// to its additional data. json_ld paths are appended to @json-ld once each;
// mappings found at rdf paths are merged into @rdf, later entries winning.
func (s *Set) Annotate(obj tracking.Object) tracking.Object {
	entries := s.Entries(obj)
	if len(entries) == 0 {
		return obj
	}
	ad := obj.AdditionalData()

	paths := existingPaths(ad[jsonld.KeyJSONLD])
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if str, ok := p.(string); ok {
			seen[str] = true
		}
	}
	rdf, _ := ad[jsonld.KeyRDF].(map[string]any)

	for _, e := range entries {
		for _, p := range e.JSONLD {
			if seen[p] {
				continue
			}
			seen[p] = true
			paths = append(paths, p)
		}
		for _, p := range e.RDF {
			v, ok := jsonld.Lookup(ad, p)
			if !ok {
				s.logger.Warn("Mapping does not define rdf in additional data", "path", p)
				continue
			}
			m, ok := v.(map[string]any)
			if !ok {
				s.logger.Warn("Value found for rdf path is not a mapping", "path", p)
				continue
			}
			rdf = jsonld.Merge(rdf, m)
		}
	}

	if len(paths) > 0 {
		ad[jsonld.KeyJSONLD] = paths
	}
	if rdf != nil {
		ad[jsonld.KeyRDF] = rdf
	}
	return obj.WithAdditionalData(ad)
}

func existingPaths(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return append([]any(nil), t...)
	default:
		return []any{t}
	}
}
