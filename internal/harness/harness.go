package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/sheetq/internal/config"
	"github.com/roach88/sheetq/internal/engine"
	"github.com/roach88/sheetq/internal/ir"
	"github.com/roach88/sheetq/internal/querydoc"
	"github.com/roach88/sheetq/internal/shape"
	"github.com/roach88/sheetq/internal/store"
	"github.com/roach88/sheetq/internal/testutil"
)

// Harness is the test execution engine.
// It runs one scenario against a fresh in-memory workbook with fixed query
// ids and a recording warner.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	warnings *testutil.WarningRecorder
	cfg      engine.Config
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load the scenario worksheets
// 3. Load the workbook config and apply the scenario mapping
// 4. Translate the query, then execute it
// 5. Check expectations
//
// A failing query is not an error: it is recorded in the result and checked
// against expect.error and expect.code. Run returns an error only when the
// scenario itself cannot be set up.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.DiscardHandler))
}

// RunWithLogger is Run with the engine's debug logs sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	ctx := context.Background()

	h, err := newHarness(ctx, scenario, logger)
	if err != nil {
		return nil, err
	}
	defer h.store.Close()

	desc, err := querydoc.DecodeNode(&scenario.Query)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: decode query: %w", scenario.Name, err)
	}

	result := NewResult()

	stmt, err := h.engine.Translate(ctx, desc, h.cfg)
	if err != nil {
		result.recordFailure(err)
	} else {
		result.SQL = stmt.Text
		result.Params = make([]Param, len(stmt.Params))
		for i, p := range stmt.Params {
			result.Params[i] = Param{Kind: p.Kind.String(), Text: p.Text()}
		}

		res, err := h.engine.Execute(ctx, desc, h.cfg)
		if err != nil {
			result.recordFailure(err)
		} else if res.IsScalar {
			result.IsScalar = true
			result.Scalar, err = renderScalar(res.Scalar)
			if err != nil {
				return nil, fmt.Errorf("scenario %s: render scalar: %w", scenario.Name, err)
			}
		} else {
			result.Items, err = decodeItems(res.Items)
			if err != nil {
				return nil, fmt.Errorf("scenario %s: render items: %w", scenario.Name, err)
			}
		}
	}

	result.Warnings = h.warnings.Messages()

	for _, failure := range checkExpect(result, scenario.Expect) {
		result.AddError(failure.Error())
	}
	return result, nil
}

func newHarness(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Harness, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	h := &Harness{
		store:    st,
		warnings: testutil.NewWarningRecorder(),
		logger:   logger,
	}

	if err := h.loadWorksheets(ctx, scenario); err != nil {
		st.Close()
		return nil, err
	}
	if err := h.loadConfig(scenario); err != nil {
		st.Close()
		return nil, err
	}

	// Translate and Execute each draw one id.
	ids := engine.NewFixedGenerator(scenario.Name+"/translate", scenario.Name+"/execute")
	h.engine = engine.New(st,
		engine.WithLogger(logger),
		engine.WithWarner(h.warnings),
		engine.WithIDGenerator(ids),
	)
	return h, nil
}

func (h *Harness) loadWorksheets(ctx context.Context, scenario *Scenario) error {
	for i, ws := range scenario.Worksheets {
		if ws.CSV != "" {
			if _, err := h.store.ImportCSVFile(ctx, ws.CSV, ws.Name); err != nil {
				return fmt.Errorf("scenario %s: worksheets[%d]: %w", scenario.Name, i, err)
			}
			continue
		}
		err := h.store.PutWorksheet(ctx, store.Worksheet{
			Name:    ws.Name,
			Columns: ws.Columns,
			Rows:    ws.Rows,
			Source:  scenario.Name,
		})
		if err != nil {
			return fmt.Errorf("scenario %s: worksheets[%d]: %w", scenario.Name, i, err)
		}
	}
	return nil
}

func (h *Harness) loadConfig(scenario *Scenario) error {
	var wb *config.Workbook
	if scenario.Config != "" {
		var err error
		wb, err = config.Load(scenario.Config)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}

	cfg, err := wb.EngineConfig()
	if err != nil {
		return fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	if len(scenario.Mapping) > 0 {
		merged := shape.Mapping{}
		for k, v := range cfg.Mapping {
			merged[k] = v
		}
		for k, v := range scenario.Mapping {
			merged[k] = v
		}
		cfg.Mapping = merged
	}
	h.cfg = cfg
	return nil
}

func (r *Result) recordFailure(err error) {
	r.Error = err.Error()
	var qe *engine.QueryError
	if errors.As(err, &qe) {
		r.Code = string(qe.Code)
		r.Error = qe.Err.Error()
	}
}

// renderScalar renders a scalar result. Values use their canonical text,
// items their JSON form, and a missing item is "null".
func renderScalar(v any) (string, error) {
	switch val := v.(type) {
	case nil, ir.Null:
		return "null", nil
	case ir.Object:
		data, err := json.Marshal(val)
		return string(data), err
	case ir.Value:
		return ir.Format(val), nil
	default:
		data, err := json.Marshal(val)
		return string(data), err
	}
}

// decodeItems round-trips items through JSON so typed records, rows and
// projected values compare like plain YAML data.
func decodeItems(items []any) ([]any, error) {
	out := make([]any, len(items))
	for i, item := range items {
		v, err := normalize(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
