// Package tracking describes the metadata objects an experiment tracking
// backend produces and the backend capabilities the ontology plugin uses.
package tracking

import (
	"errors"
	"fmt"

	"github.com/c360studio/semonto/jsonld"
)

// StorageType discriminates the kind of a tracked object.
type StorageType string

// Storage types produced by the tracking backend.
const (
	StorageTypeExperiment StorageType = "experiment"
	StorageTypeRun        StorageType = "run"
	StorageTypeParameter  StorageType = "parameter"
	StorageTypeMetric     StorageType = "metric"
	StorageTypeTag        StorageType = "tag"
	StorageTypeArtifact   StorageType = "artifact"
	StorageTypeLoggerCall StorageType = "logger_call"
)

// Field keys with a fixed meaning on every tracked object.
const (
	FieldStorageType    = "storage_type"
	FieldCategory       = "category"
	FieldUID            = "uid"
	FieldName           = "name"
	FieldRunID          = "run_id"
	FieldExperimentID   = "experiment_id"
	FieldHook           = "hook"
	FieldAdditionalData = "additional_data"
)

// Category values marking experiment and run references.
const (
	CategoryExperiment = "Experiment"
	CategoryRun        = "Run"
)

// ErrNotMapping is returned when an input cannot be viewed as a field mapping.
var ErrNotMapping = errors.New("tracked object is not a mapping")

// Mappable is implemented by host types that can flatten themselves into a
// plain field mapping.
type Mappable interface {
	ToMap() map[string]any
}

// Object is a read-only view of a tracked metadata record. The storage type
// is an explicit discriminant so converters match on it instead of probing
// for attributes.
type Object struct {
	storageType StorageType
	category    string
	uid         string
	name        string
	fields      map[string]any
}

// New creates an object of the given storage type from a field mapping.
// The storage type and uid are written back into the fields.
func New(storageType StorageType, uid string, fields map[string]any) Object {
	f := jsonld.Copy(fields)
	if f == nil {
		f = map[string]any{}
	}
	if storageType != "" {
		f[FieldStorageType] = string(storageType)
	}
	if uid != "" {
		f[FieldUID] = uid
	}
	return fromFields(f)
}

// FromMap builds an object from a flat field mapping. The mapping is copied.
func FromMap(m map[string]any) (Object, error) {
	if m == nil {
		return Object{}, ErrNotMapping
	}
	return fromFields(jsonld.Copy(m)), nil
}

// Normalize accepts an Object, *Object, map[string]any or Mappable and
// returns the corresponding Object.
func Normalize(v any) (Object, error) {
	switch o := v.(type) {
	case Object:
		return o, nil
	case *Object:
		if o == nil {
			return Object{}, ErrNotMapping
		}
		return *o, nil
	case map[string]any:
		return FromMap(o)
	case Mappable:
		return FromMap(o.ToMap())
	default:
		return Object{}, fmt.Errorf("%w: %T", ErrNotMapping, v)
	}
}

func fromFields(f map[string]any) Object {
	o := Object{fields: f}
	o.storageType = StorageType(stringField(f, FieldStorageType))
	o.category = stringField(f, FieldCategory)
	o.name = stringField(f, FieldName)
	o.uid = stringField(f, FieldUID)
	if o.uid == "" {
		o.uid = stringField(f, "id")
	}
	return o
}

// StorageType returns the storage discriminant.
func (o Object) StorageType() StorageType { return o.storageType }

// Category returns the category, empty when the object has none.
func (o Object) Category() string { return o.category }

// UID returns the stable identifier of the object.
func (o Object) UID() string { return o.uid }

// Name returns the object name.
func (o Object) Name() string { return o.name }

// HasStorageType reports whether the object declares a storage type.
func (o Object) HasStorageType() bool {
	_, ok := o.fields[FieldStorageType]
	return ok
}

// Fields returns a deep copy of all fields.
func (o Object) Fields() map[string]any {
	f := jsonld.Copy(o.fields)
	if f == nil {
		return map[string]any{}
	}
	return f
}

// Get returns the raw value of a field.
func (o Object) Get(key string) (any, bool) {
	v, ok := o.fields[key]
	return v, ok
}

// AdditionalData returns a copy of the additional_data mapping. Missing or
// null additional data yields an empty mapping.
func (o Object) AdditionalData() map[string]any {
	if ad, ok := o.fields[FieldAdditionalData].(map[string]any); ok {
		return jsonld.Copy(ad)
	}
	return map[string]any{}
}

// WithAdditionalData returns a copy of the object with additional_data replaced.
func (o Object) WithAdditionalData(data map[string]any) Object {
	f := o.Fields()
	f[FieldAdditionalData] = jsonld.Copy(data)
	return fromFields(f)
}

// RunID returns the run the object belongs to. Runs report their own uid.
// The run reference may be a plain id or an embedded run mapping.
func (o Object) RunID() string {
	if o.storageType == StorageTypeRun {
		return o.uid
	}
	return referenceID(o.fields[FieldRunID])
}

// ExperimentID returns the experiment the object belongs to.
func (o Object) ExperimentID() string {
	if o.storageType == StorageTypeExperiment {
		return o.uid
	}
	return referenceID(o.fields[FieldExperimentID])
}

// Hook returns the tracked function hook that produced the object.
func (o Object) Hook() string {
	return stringField(o.fields, FieldHook)
}

// ToMap implements Mappable.
func (o Object) ToMap() map[string]any {
	return o.Fields()
}

func referenceID(v any) string {
	switch r := v.(type) {
	case string:
		return r
	case map[string]any:
		if id := stringField(r, FieldUID); id != "" {
			return id
		}
		return stringField(r, "id")
	case nil:
		return ""
	default:
		return fmt.Sprint(r)
	}
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
