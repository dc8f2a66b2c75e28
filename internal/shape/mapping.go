package shape

// Mapping maps logical field names to physical column names.
//
// A Mapping is supplied at configuration time and only read during query
// execution; it is safe to share between concurrent queries.
type Mapping map[string]string

// Resolver turns logical field names into physical column names.
//
// The SQL generator, the row materializer and the projection builder all
// resolve through the same Resolver so a query's filter and its output
// agree on physical naming.
//
// Resolution order:
//  1. Mapping entry for the name
//  2. Column override declared on the shape's field
//  3. The name itself
type Resolver struct {
	Mapping Mapping
	Shape   *Shape
}

// NewResolver creates a Resolver for a shape and mapping. Either may be nil.
func NewResolver(s *Shape, m Mapping) Resolver {
	return Resolver{Mapping: m, Shape: s}
}

// Resolve returns the physical column for a logical name. It never fails.
func (r Resolver) Resolve(name string) string {
	if col, ok := r.Mapping[name]; ok && col != "" {
		return col
	}
	if f, ok := r.Shape.Field(name); ok && f.Column != "" {
		return f.Column
	}
	return name
}

// Explicit reports whether name has a mapping entry or a column override.
// Missing columns are only worth a warning for explicitly mapped fields.
func (r Resolver) Explicit(name string) bool {
	if col, ok := r.Mapping[name]; ok && col != "" {
		return true
	}
	f, ok := r.Shape.Field(name)
	return ok && f.Column != ""
}
