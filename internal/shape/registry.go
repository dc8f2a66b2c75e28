package shape

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps shape names to shapes. Shapes are looked up once per query
// at translation time, never per row.
//
// Thread-safety: Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	shapes map[string]*Shape
}

// NewRegistry creates a registry holding the Row shape plus the given shapes.
// Panics on duplicate names; registries are built at startup.
func NewRegistry(shapes ...*Shape) *Registry {
	r := &Registry{shapes: map[string]*Shape{RowShapeName: RowShape}}
	for _, s := range shapes {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a shape. Names must be unique.
func (r *Registry) Register(s *Shape) error {
	if s == nil || s.Name == "" {
		return fmt.Errorf("shape must have a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shapes == nil {
		r.shapes = map[string]*Shape{RowShapeName: RowShape}
	}
	if _, exists := r.shapes[s.Name]; exists {
		return fmt.Errorf("shape %q already registered", s.Name)
	}
	r.shapes[s.Name] = s
	return nil
}

// Lookup returns the shape registered under name. An empty name resolves
// to the Row shape.
func (r *Registry) Lookup(name string) (*Shape, bool) {
	if name == "" {
		name = RowShapeName
	}
	if r == nil {
		if name == RowShapeName {
			return RowShape, true
		}
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == RowShapeName {
		return RowShape, true
	}
	s, ok := r.shapes[name]
	return s, ok
}

// Names returns registered shape names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.shapes))
	for name := range r.shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
