package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/sheetq/internal/pipeline"
	"github.com/roach88/sheetq/internal/projection"
	"github.com/roach88/sheetq/internal/queryir"
	"github.com/roach88/sheetq/internal/querysql"
	"github.com/roach88/sheetq/internal/rows"
	"github.com/roach88/sheetq/internal/shape"
)

// DefaultSheet is the worksheet queried when a descriptor names none.
const DefaultSheet = "Sheet1"

// Source executes statements against a workbook.
//
// Implemented by store.Store (SQLite) and by fakes in tests.
type Source interface {
	// Query runs a statement with positional arguments.
	Query(ctx context.Context, text string, args []any) (*rows.RawRows, error)

	// Tables lists the worksheet names in workbook order.
	Tables(ctx context.Context) ([]string, error)

	// Columns lists the column names of a worksheet.
	Columns(ctx context.Context, table string) ([]string, error)
}

// Config carries the per-workbook settings of a query.
type Config struct {
	// Mapping maps logical field names to physical columns.
	Mapping shape.Mapping

	// Registry resolves item and output shape names. Nil only knows Row.
	Registry *shape.Registry

	// Sheet is the worksheet used when the descriptor names none.
	// Empty means DefaultSheet.
	Sheet string
}

// Engine runs query descriptors against a Source.
//
// Thread-safety: Engine holds no per-query state. Execute and Translate
// are safe to call from any goroutine.
type Engine struct {
	src          Source
	generator    *querysql.Generator
	materializer *rows.Materializer
	ids          QueryIDGenerator
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for query debug logs and materialization
// warnings. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithIDGenerator sets the query id generator. Default: UUIDv7Generator.
func WithIDGenerator(g QueryIDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithWarner routes materialization warnings to w instead of the logger.
func WithWarner(w rows.Warner) Option {
	return func(e *Engine) {
		e.materializer = rows.NewMaterializer(w)
	}
}

// New creates an Engine over src.
func New(src Source, opts ...Option) *Engine {
	e := &Engine{
		src:       src,
		generator: querysql.NewGenerator(),
		ids:       UUIDv7Generator{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.materializer == nil {
		e.materializer = rows.NewMaterializer(e.logger)
	}
	return e
}

// plan is a translated query, ready to run.
type plan struct {
	id       string
	desc     queryir.Descriptor
	resolver shape.Resolver
	stmt     *querysql.Statement

	// item is the shape rows are materialized into. With an explicit select
	// list it only holds the selected fields.
	item *shape.Shape

	// output is the shape of projected items, nil when they are not typed.
	output *shape.Shape

	projector projection.Projector
}

// Translate resolves the worksheet and generates the statement of desc
// without running it.
func (e *Engine) Translate(ctx context.Context, desc queryir.Descriptor, cfg Config) (*querysql.Statement, error) {
	p, err := e.prepare(ctx, desc, cfg)
	if err != nil {
		return nil, err
	}
	return p.stmt, nil
}

// Execute runs desc and returns its result.
func (e *Engine) Execute(ctx context.Context, desc queryir.Descriptor, cfg Config) (pipeline.Result, error) {
	p, err := e.prepare(ctx, desc, cfg)
	if err != nil {
		return pipeline.Result{}, err
	}
	fail := func(code ErrorCode, err error) (pipeline.Result, error) {
		return pipeline.Result{}, &QueryError{Code: code, QueryID: p.id, Err: err}
	}

	e.logStatement(p)

	raw, err := e.src.Query(ctx, p.stmt.Text, p.stmt.Args())
	if err != nil {
		return fail(ErrCodeExecution, e.explain(ctx, p.desc.Source, p.stmt, err))
	}
	if raw.Table == "" {
		raw.Table = p.desc.Source
	}

	if p.stmt.Scalar() {
		v, err := rows.MaterializeScalar(raw)
		if err != nil {
			return fail(ErrCodeMaterialization, err)
		}
		res, err := pipeline.Apply([]any{v}, p.desc.Operators, p.stmt.Aggregate)
		if err != nil {
			return fail(ErrCodeSequence, err)
		}
		e.logger.Debug("query complete", "query_id", p.id, "scalar", true)
		return res, nil
	}

	items, err := e.materializer.MaterializeAll(raw, p.item, p.resolver)
	if err != nil {
		return fail(ErrCodeMaterialization, err)
	}
	items, err = projection.Project(p.projector, items)
	if err != nil {
		return fail(ErrCodeProjection, err)
	}
	res, err := pipeline.Apply(items, p.desc.Operators, nil, pipeline.WithShape(p.output), pipeline.WithResolver(p.resolver))
	if err != nil {
		return fail(ErrCodeSequence, err)
	}

	e.logger.Debug("query complete", "query_id", p.id, "rows", raw.Len(), "scalar", res.IsScalar)
	return res, nil
}

func (e *Engine) prepare(ctx context.Context, desc queryir.Descriptor, cfg Config) (*plan, error) {
	p := &plan{id: e.ids.Generate()}
	fail := func(code ErrorCode, err error) (*plan, error) {
		return nil, &QueryError{Code: code, QueryID: p.id, Err: err}
	}

	if err := queryir.Validate(desc).Err(); err != nil {
		return fail(ErrCodeInvalidQuery, err)
	}

	item, ok := cfg.Registry.Lookup(desc.Shape)
	if !ok {
		return fail(ErrCodeInvalidQuery, fmt.Errorf("unknown item shape %q", desc.Shape))
	}

	sheet, err := e.resolveSheet(ctx, desc, cfg)
	if err != nil {
		return fail(ErrCodeUnknownWorksheet, err)
	}
	desc.Source = sheet
	desc.Shape = item.Name
	p.desc = desc
	p.resolver = shape.NewResolver(item, cfg.Mapping)

	p.stmt, err = e.generator.Generate(desc, p.resolver)
	if err != nil {
		return fail(ErrCodeTranslation, err)
	}

	p.item = item
	if len(p.stmt.Fields) > 0 {
		p.item = item.Only(p.stmt.Fields...)
	}
	if p.stmt.Scalar() {
		return p, nil
	}

	p.projector, err = projection.Build(desc.Projection, p.item, p.resolver, cfg.Registry)
	if err != nil {
		return fail(ErrCodeProjection, err)
	}
	p.output = outputShape(desc.Projection, p.item, cfg.Registry)
	return p, nil
}

// resolveSheet picks the worksheet: the descriptor's name, else its index,
// else the configured default, else Sheet1.
func (e *Engine) resolveSheet(ctx context.Context, desc queryir.Descriptor, cfg Config) (string, error) {
	if desc.Source != "" {
		return desc.Source, nil
	}
	if desc.SheetIndex != nil {
		tables, err := e.src.Tables(ctx)
		if err != nil {
			return "", fmt.Errorf("list worksheets: %w", err)
		}
		idx := *desc.SheetIndex
		if idx < 0 || idx >= len(tables) {
			return "", &SheetIndexError{Index: idx, Count: len(tables)}
		}
		return tables[idx], nil
	}
	if cfg.Sheet != "" {
		return cfg.Sheet, nil
	}
	return DefaultSheet, nil
}

// explain turns a failed statement into an unknown worksheet or column
// error when the workbook shows that is the cause. Otherwise the driver
// error is returned unchanged.
func (e *Engine) explain(ctx context.Context, table string, stmt *querysql.Statement, cause error) error {
	tables, err := e.src.Tables(ctx)
	if err != nil {
		return cause
	}
	if !containsFold(tables, table) {
		return &UnknownTableError{Table: table, Valid: tables}
	}

	columns, err := e.src.Columns(ctx, table)
	if err != nil {
		return cause
	}
	for _, c := range stmt.Columns {
		if !containsFold(columns, c) {
			return &UnknownColumnError{Column: c, Valid: columns}
		}
	}
	return cause
}

func (e *Engine) logStatement(p *plan) {
	e.logger.Debug("executing query",
		"query_id", p.id,
		"worksheet", p.desc.Source,
		"sql", p.stmt.Text,
	)
	for i, param := range p.stmt.Params {
		e.logger.Debug("query parameter",
			"query_id", p.id,
			"index", i,
			"kind", param.Kind.String(),
			"value", param.Text(),
		)
	}
}

// outputShape returns the shape of projected items, if they are typed.
func outputShape(expr queryir.Expr, item *shape.Shape, reg *shape.Registry) *shape.Shape {
	if projection.IsIdentity(expr, item) {
		return item
	}
	if c, ok := expr.(queryir.Construct); ok && c.Shape != "" {
		if s, ok := reg.Lookup(c.Shape); ok {
			return s
		}
	}
	return nil
}

func containsFold(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
