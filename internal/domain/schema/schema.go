// Package schema defines the closed metadata schema per collection.
// Records carry loosely-typed metadata at the storage level; filter
// evaluation only ever sees fields declared here, so it stays statically
// checkable. Unknown fields coming out of an LLM extraction are dropped
// with a warning, never evaluated.
package schema

// Kind is the value type of a metadata field.
type Kind int

const (
	// Tag is a short string matched exactly (case-insensitive).
	Tag Kind = iota
	// Numeric is a float64-comparable field.
	Numeric
	// Flag is a boolean stored as "true"/"false".
	Flag
)

// Field is a declared metadata field.
type Field struct {
	name string
	kind Kind
}

// Name returns the field name as stored in record metadata.
func (f Field) Name() string { return f.name }

// Kind returns the field value type.
func (f Field) Kind() Kind { return f.kind }

// Schema is the closed field set of one collection.
type Schema struct {
	collection string
	fields     map[string]Field
}

// Collection returns the collection this schema describes.
func (s Schema) Collection() string { return s.collection }

// Field looks up a declared field by name.
func (s Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Names returns all declared field names (unordered).
func (s Schema) Names() []string {
	out := make([]string, 0, len(s.fields))
	for n := range s.fields {
		out = append(out, n)
	}
	return out
}

func build(collection string, fields ...Field) Schema {
	m := make(map[string]Field, len(fields))
	for _, f := range fields {
		m[f.name] = f
	}
	return Schema{collection: collection, fields: m}
}

// Apartments is the apartment metadata schema, matching what the ingestion
// job extracts from listing feeds.
func Apartments() Schema {
	return build("apartments",
		Field{"district", Tag},
		Field{"neighborhood", Tag},
		Field{"property_type", Tag},
		Field{"url", Tag},
		Field{"exterior", Flag},
		Field{"has_lift", Flag},
		Field{"price", Numeric},
		Field{"rooms", Numeric},
		Field{"bathrooms", Numeric},
		Field{"size", Numeric},
	)
}

// Students is the student profile metadata schema, matching the PDF
// extraction job's output.
func Students() Schema {
	return build("students",
		Field{"name", Tag},
		Field{"personality", Tag},
		Field{"lifestyle", Tag},
		Field{"sleep_schedule", Tag},
		Field{"noise_tolerance", Tag},
		Field{"dog_friendliness", Tag},
		Field{"cleanliness", Tag},
		Field{"study_habits", Tag},
	)
}

// ForCollection returns the schema for a known collection name.
func ForCollection(name string) (Schema, bool) {
	switch name {
	case "apartments":
		return Apartments(), true
	case "students":
		return Students(), true
	default:
		return Schema{}, false
	}
}
