package config

import (
	"github.com/roach88/sheetq/internal/engine"
	"github.com/roach88/sheetq/internal/shape"
)

// Workbook is a compiled sheetq.cue: the per-workbook settings a query
// runs with.
type Workbook struct {
	// Worksheet is queried when a descriptor names none. Empty means
	// engine.DefaultSheet.
	Worksheet string

	// Mapping maps logical field names to physical columns.
	Mapping shape.Mapping

	// Shapes are the declared item shapes, in declaration order.
	Shapes []*shape.Shape
}

// Registry returns a registry holding Row plus the declared shapes.
func (w *Workbook) Registry() (*shape.Registry, error) {
	reg := shape.NewRegistry()
	if w == nil {
		return reg, nil
	}
	for _, s := range w.Shapes {
		if err := reg.Register(s); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// EngineConfig converts the workbook into the configuration of one query.
func (w *Workbook) EngineConfig() (engine.Config, error) {
	reg, err := w.Registry()
	if err != nil {
		return engine.Config{}, err
	}
	if w == nil {
		return engine.Config{Registry: reg}, nil
	}
	return engine.Config{Mapping: w.Mapping, Registry: reg, Sheet: w.Worksheet}, nil
}
