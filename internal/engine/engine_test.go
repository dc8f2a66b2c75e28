package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sheetq/internal/ir"
	"github.com/roach88/sheetq/internal/pipeline"
	"github.com/roach88/sheetq/internal/projection"
	"github.com/roach88/sheetq/internal/queryir"
	"github.com/roach88/sheetq/internal/querysql"
	"github.com/roach88/sheetq/internal/rows"
	"github.com/roach88/sheetq/internal/shape"
	"github.com/roach88/sheetq/internal/store"
	"github.com/roach88/sheetq/internal/testutil"
)

var discard = slog.New(slog.DiscardHandler)

// createTestWorkbook opens a store holding the companies fixture as Sheet1
// plus any extra worksheets.
func createTestWorkbook(t *testing.T, extra ...store.Worksheet) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "workbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.PutWorksheet(ctx, store.Worksheet{
		Name:    "Sheet1",
		Columns: testutil.CompanyColumns,
		Rows:    testutil.CompanyValues(),
	}))
	for _, ws := range extra {
		require.NoError(t, s.PutWorksheet(ctx, ws))
	}
	return s
}

func companyConfig() Config {
	return Config{Registry: shape.NewRegistry(testutil.CompanyShape())}
}

func companies(pred queryir.Predicate, ops ...queryir.Operator) queryir.Descriptor {
	return queryir.Descriptor{Shape: "Company", Predicate: pred, Operators: ops}
}

func names(t *testing.T, items []any) []string {
	t.Helper()
	out := make([]string, 0, len(items))
	for _, item := range items {
		c, ok := item.(*testutil.Company)
		require.True(t, ok, "item is %T", item)
		out = append(out, c.Name)
	}
	return out
}

func TestExecute_ComparisonCounts(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))

	tests := []struct {
		name string
		pred queryir.Predicate
		want int
	}{
		{"equal int", queryir.Equal("EmployeeCount", ir.Int(25)), 1},
		{"not equal int", queryir.Compare("EmployeeCount", queryir.Neq, ir.Int(98)), 6},
		{"greater", queryir.Compare("EmployeeCount", queryir.Gt, ir.Int(98)), 3},
		{"greater or equal", queryir.Compare("EmployeeCount", queryir.Gte, ir.Int(98)), 4},
		{"less", queryir.Compare("EmployeeCount", queryir.Lt, ir.Int(300)), 4},
		{"less or equal", queryir.Compare("EmployeeCount", queryir.Lte, ir.Int(300)), 5},
		{"equal string", queryir.Equal("CEO", ir.String("Paul Yoder")), 1},
		{"not equal string", queryir.Compare("CEO", queryir.Neq, ir.String("Bugs Bunny")), 6},
		{"and", queryir.AndOf(
			queryir.Compare("EmployeeCount", queryir.Gt, ir.Int(5)),
			queryir.Equal("CEO", ir.String("Paul Yoder")),
		), 1},
		{"or", queryir.OrOf(
			queryir.Equal("Name", ir.String("ACME")),
			queryir.Equal("Name", ir.String("Globex")),
		), 2},
		{"no predicate", nil, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Execute(context.Background(), companies(tt.pred), companyConfig())
			require.NoError(t, err)
			assert.False(t, res.IsScalar)
			assert.Len(t, res.Items, tt.want)
		})
	}
}

func TestExecute_TypedItems(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))

	res, err := e.Execute(context.Background(), companies(queryir.Equal("EmployeeCount", ir.Int(25))), companyConfig())
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	c := res.Items[0].(*testutil.Company)
	assert.Equal(t, "ACME", c.Name)
	assert.Equal(t, "Paul Yoder", c.CEO)
	assert.Equal(t, 25, c.EmployeeCount)
	assert.Equal(t, time.Date(2008, 10, 9, 0, 0, 0, 0, time.UTC), c.StartDate)
}

func TestExecute_DateFilter(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))
	start := ir.Date(time.Date(2008, 10, 9, 0, 0, 0, 0, time.UTC))

	desc := companies(queryir.Equal("StartDate", start))
	stmt, err := e.Translate(context.Background(), desc, companyConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"10/9/2008"}, stmt.ParamTexts())

	res, err := e.Execute(context.Background(), desc, companyConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME"}, names(t, res.Items))
}

func TestExecute_RowShape(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))

	res, err := e.Execute(context.Background(), queryir.Descriptor{
		Predicate: queryir.Equal("CEO", ir.String("Paul Yoder")),
	}, Config{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	row := res.Items[0].(rows.Row)
	assert.Equal(t, testutil.CompanyColumns, row.Columns())
	assert.Equal(t, ir.String("ACME"), row.Get("Name"))
	assert.Equal(t, ir.Int(25), row.Get("EmployeeCount"))
}

func TestExecute_MappedColumn(t *testing.T) {
	s := createTestWorkbook(t, store.Worksheet{
		Name:    "Mapped",
		Columns: []string{"Name", "Chief Executive", "EmployeeCount", "StartDate"},
		Rows:    testutil.CompanyValues(),
	})
	e := New(s, WithLogger(discard))

	cfg := companyConfig()
	cfg.Mapping = shape.Mapping{"CEO": "Chief Executive"}
	desc := companies(queryir.Equal("CEO", ir.String("Paul Yoder")))
	desc.Source = "Mapped"

	stmt, err := e.Translate(context.Background(), desc, cfg)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM [Mapped] Where ([Chief Executive] = ?)", stmt.Text)

	res, err := e.Execute(context.Background(), desc, cfg)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Paul Yoder", res.Items[0].(*testutil.Company).CEO)
}

func TestExecute_MissingMappedColumnWarnsOnce(t *testing.T) {
	rec := testutil.NewWarningRecorder()
	e := New(createTestWorkbook(t), WithLogger(discard), WithWarner(rec))

	cfg := companyConfig()
	cfg.Mapping = shape.Mapping{"CEO": "Boss"}

	res, err := e.Execute(context.Background(), companies(nil), cfg)
	require.NoError(t, err)
	require.Len(t, res.Items, 7)
	for _, item := range res.Items {
		assert.Empty(t, item.(*testutil.Company).CEO)
	}

	assert.Equal(t, []string{
		"'Boss' column that is mapped to the 'CEO' property does not exist in the 'Sheet1' worksheet",
	}, rec.Messages())
}

func TestExecute_UnknownWorksheet(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))

	desc := companies(nil)
	desc.Source = "Nope"
	_, err := e.Execute(context.Background(), desc, companyConfig())
	require.Error(t, err)

	assert.Equal(t, ErrCodeExecution, CodeOf(err))
	assert.True(t, IsUnknownTable(err))
	assert.Contains(t, err.Error(), "'Nope' is not a valid worksheet name. Valid worksheet names are: 'Sheet1'")
}

func TestExecute_UnknownColumn(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))

	cfg := companyConfig()
	cfg.Mapping = shape.Mapping{"CEO": "Boss"}
	_, err := e.Execute(context.Background(), companies(queryir.Equal("CEO", ir.String("Paul Yoder"))), cfg)
	require.Error(t, err)

	assert.Equal(t, ErrCodeExecution, CodeOf(err))
	assert.True(t, IsUnknownColumn(err))
	var uce *UnknownColumnError
	require.True(t, errors.As(err, &uce))
	assert.Equal(t, "Boss", uce.Column)
	assert.Equal(t, testutil.CompanyColumns, uce.Valid)
}

func TestExecute_SheetIndex(t *testing.T) {
	s := createTestWorkbook(t, store.Worksheet{
		Name:    "Other",
		Columns: []string{"Name"},
		Rows:    [][]any{{"Only"}},
	})
	e := New(s, WithLogger(discard))

	idx := 1
	res, err := e.Execute(context.Background(), queryir.Descriptor{SheetIndex: &idx}, Config{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, ir.String("Only"), res.Items[0].(rows.Row).Get("Name"))

	idx = 5
	_, err = e.Execute(context.Background(), queryir.Descriptor{SheetIndex: &idx}, Config{})
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnknownWorksheet, CodeOf(err))
	var sie *SheetIndexError
	require.True(t, errors.As(err, &sie))
	assert.Equal(t, 2, sie.Count)
}

func TestTranslate_WorksheetDefaults(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))
	ctx := context.Background()

	stmt, err := e.Translate(ctx, companies(nil), companyConfig())
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM [Sheet1]", stmt.Text)

	cfg := companyConfig()
	cfg.Sheet = "Companies"
	stmt, err = e.Translate(ctx, companies(nil), cfg)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM [Companies]", stmt.Text)

	desc := companies(nil)
	desc.Source = "Named"
	stmt, err = e.Translate(ctx, desc, cfg)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM [Named]", stmt.Text)
}

func TestExecute_PushedAggregates(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))
	ctx := context.Background()
	over98 := queryir.Compare("EmployeeCount", queryir.Gt, ir.Int(98))

	tests := []struct {
		name string
		desc queryir.Descriptor
		sql  string
		want ir.Value
	}{
		{
			name: "count",
			desc: companies(over98, queryir.Count{}),
			sql:  "SELECT COUNT(*) FROM [Sheet1] Where ([EmployeeCount] > ?)",
			want: ir.Int(3),
		},
		{
			name: "sum",
			desc: companies(nil, queryir.Sum{Field: "EmployeeCount"}),
			sql:  "SELECT SUM([EmployeeCount]) FROM [Sheet1]",
			want: ir.Int(5939),
		},
		{
			name: "max after reverse",
			desc: companies(nil, queryir.Reverse{}, queryir.Max{Field: "EmployeeCount"}),
			sql:  "SELECT MAX([EmployeeCount]) FROM [Sheet1]",
			want: ir.Int(4000),
		},
		{
			name: "count of nothing",
			desc: companies(queryir.Equal("CEO", ir.String("Nobody")), queryir.Count{}),
			sql:  "SELECT COUNT(*) FROM [Sheet1] Where ([CEO] = ?)",
			want: ir.Int(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := e.Translate(ctx, tt.desc, companyConfig())
			require.NoError(t, err)
			assert.Equal(t, tt.sql, stmt.Text)
			assert.True(t, stmt.Scalar())

			res, err := e.Execute(ctx, tt.desc, companyConfig())
			require.NoError(t, err)
			assert.True(t, res.IsScalar)
			assert.Equal(t, tt.want, res.Scalar)
		})
	}
}

func TestExecute_AverageIsFloat(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))

	res, err := e.Execute(context.Background(), companies(nil, queryir.Average{Field: "EmployeeCount"}), companyConfig())
	require.NoError(t, err)
	avg, ok := res.Scalar.(ir.Float)
	require.True(t, ok, "scalar is %T", res.Scalar)
	assert.InDelta(t, 5939.0/7.0, float64(avg), 1e-9)
}

func TestExecute_SkipKeepsAggregateInMemory(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))
	ctx := context.Background()

	desc := companies(nil, queryir.Skip{Count: 2}, queryir.Count{})
	stmt, err := e.Translate(ctx, desc, companyConfig())
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM [Sheet1]", stmt.Text)
	assert.False(t, stmt.Scalar())

	res, err := e.Execute(ctx, desc, companyConfig())
	require.NoError(t, err)
	assert.Equal(t, ir.Int(5), res.Scalar)

	res, err = e.Execute(ctx, companies(nil, queryir.Skip{Count: 5}, queryir.Sum{Field: "EmployeeCount"}), companyConfig())
	require.NoError(t, err)
	assert.Equal(t, ir.Int(5500), res.Scalar)
}

// withSkipZero returns desc with Skip(0) before its operators, which keeps
// any aggregate in memory without changing the sequence.
func withSkipZero(desc queryir.Descriptor) queryir.Descriptor {
	desc.Operators = append([]queryir.Operator{queryir.Skip{Count: 0}}, desc.Operators...)
	return desc
}

// executeBothWays runs desc as given and with Skip(0) and checks that the
// data source and the in-memory pipeline agree.
func executeBothWays(t *testing.T, e *Engine, desc queryir.Descriptor, cfg Config) (pipeline.Result, error) {
	t.Helper()
	ctx := context.Background()

	local := withSkipZero(desc)
	stmt, err := e.Translate(ctx, local, cfg)
	if err == nil {
		assert.False(t, stmt.Scalar(), "Skip keeps the aggregate in memory")
	}

	res, err := e.Execute(ctx, desc, cfg)
	localRes, localErr := e.Execute(ctx, local, cfg)
	if err != nil {
		require.Error(t, localErr)
		var qe, localQE *QueryError
		require.ErrorAs(t, err, &qe)
		require.ErrorAs(t, localErr, &localQE)
		assert.Equal(t, qe.Code, localQE.Code)
		assert.Equal(t, qe.Err.Error(), localQE.Err.Error())
		return res, err
	}
	require.NoError(t, localErr)
	assert.Equal(t, res.Scalar, localRes.Scalar)
	return res, nil
}

func TestExecute_MappedRowAggregate(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))
	cfg := Config{Mapping: shape.Mapping{"Employees": "EmployeeCount"}}

	desc := queryir.Descriptor{Operators: []queryir.Operator{queryir.Sum{Field: "Employees"}}}
	stmt, err := e.Translate(context.Background(), desc, cfg)
	require.NoError(t, err)
	assert.Equal(t, "SELECT SUM([EmployeeCount]) FROM [Sheet1]", stmt.Text)

	res, err := executeBothWays(t, e, desc, cfg)
	require.NoError(t, err)
	assert.Equal(t, ir.Int(5939), res.Scalar)
}

func TestExecute_EmptyAggregates(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))
	none := queryir.Compare("EmployeeCount", queryir.Lt, ir.Int(0))

	tests := []struct {
		op   queryir.Operator
		want ir.Value
	}{
		{op: queryir.Count{}, want: ir.Int(0)},
		{op: queryir.LongCount{}, want: ir.Int(0)},
		{op: queryir.Sum{Field: "EmployeeCount"}, want: ir.Int(0)},
		{op: queryir.Average{Field: "EmployeeCount"}},
		{op: queryir.Min{Field: "EmployeeCount"}},
		{op: queryir.Max{Field: "StartDate"}},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			res, err := executeBothWays(t, e, companies(none, tt.op), companyConfig())
			if tt.want == nil {
				var qe *QueryError
				require.ErrorAs(t, err, &qe)
				assert.Equal(t, ErrCodeSequence, qe.Code)
				assert.ErrorIs(t, err, pipeline.ErrEmptySequence)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Scalar)
		})
	}
}

func TestExecute_ProjectedAggregateField(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))
	employees := queryir.Member{Name: "EmployeeCount"}
	doubled := queryir.Binary{Op: queryir.Mul, Left: employees, Right: queryir.Constant{Value: ir.Int(2)}}

	tests := []struct {
		name       string
		projection queryir.Expr
		op         queryir.Operator
		want       ir.Value
		pushed     bool
	}{
		{
			name:       "object member",
			projection: queryir.Construct{Fields: []queryir.Assign{{Name: "N", Expr: employees}}},
			op:         queryir.Sum{Field: "N"},
			want:       ir.Int(5939),
			pushed:     true,
		},
		{
			name:       "scalar member",
			projection: employees,
			op:         queryir.Sum{},
			want:       ir.Int(5939),
			pushed:     true,
		},
		{
			name:       "computed scalar",
			projection: doubled,
			op:         queryir.Sum{},
			want:       ir.Int(11878),
		},
		{
			name:       "computed object member",
			projection: queryir.Construct{Fields: []queryir.Assign{{Name: "N", Expr: doubled}}},
			op:         queryir.Max{Field: "N"},
			want:       ir.Int(8000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := companies(nil, tt.op)
			desc.Projection = tt.projection

			stmt, err := e.Translate(context.Background(), desc, companyConfig())
			require.NoError(t, err)
			assert.Equal(t, tt.pushed, stmt.Scalar())

			res, err := executeBothWays(t, e, desc, companyConfig())
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Scalar)
		})
	}
}

func TestExecute_AggregateFieldOfScalarProjection(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))

	desc := companies(nil, queryir.Sum{Field: "EmployeeCount"})
	desc.Projection = queryir.Member{Name: "EmployeeCount"}

	_, err := executeBothWays(t, e, desc, companyConfig())
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, ErrCodeTranslation, qe.Code)
}

func TestExecute_SequenceOperators(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))
	ctx := context.Background()

	res, err := e.Execute(ctx, companies(nil, queryir.Reverse{}, queryir.Skip{Count: 5}), companyConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"Ontario Systems", "ACME"}, names(t, res.Items))

	res, err = e.Execute(ctx, companies(nil, queryir.Reverse{}, queryir.First{}), companyConfig())
	require.NoError(t, err)
	assert.Equal(t, "Initech", res.Scalar.(*testutil.Company).Name)

	res, err = e.Execute(ctx, companies(queryir.Equal("CEO", ir.String("Nobody")), queryir.First{OrDefault: true}), companyConfig())
	require.NoError(t, err)
	assert.True(t, res.IsScalar)
	assert.Nil(t, res.Scalar)

	res, err = e.Execute(ctx, companies(nil, queryir.Skip{Count: 10}), companyConfig())
	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
}

func TestExecute_SingleWithManyResults(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))

	_, err := e.Execute(context.Background(), companies(nil, queryir.Single{}), companyConfig())
	require.Error(t, err)
	assert.Equal(t, ErrCodeSequence, CodeOf(err))
	assert.ErrorIs(t, err, pipeline.ErrMultipleResults)
}

func TestExecute_MemberProjection(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))
	ctx := context.Background()

	desc := companies(queryir.Compare("EmployeeCount", queryir.Gt, ir.Int(98)))
	desc.Projection = queryir.Member{Name: "Name"}

	stmt, err := e.Translate(ctx, desc, companyConfig())
	require.NoError(t, err)
	assert.Equal(t, "SELECT [Name] FROM [Sheet1] Where ([EmployeeCount] > ?)", stmt.Text)

	res, err := e.Execute(ctx, desc, companyConfig())
	require.NoError(t, err)
	assert.Equal(t, []any{ir.String("Consolidated"), ir.String("Globex"), ir.String("Initech")}, res.Items)
}

func TestExecute_AnonymousProjection(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))
	ctx := context.Background()

	desc := companies(queryir.Equal("EmployeeCount", ir.Int(25)))
	desc.Projection = queryir.Construct{Fields: []queryir.Assign{
		{Name: "Company", Expr: queryir.Member{Name: "Name"}},
		{Name: "Doubled", Expr: queryir.Binary{
			Op:    queryir.Mul,
			Left:  queryir.Member{Name: "EmployeeCount"},
			Right: queryir.Constant{Value: ir.Int(2)},
		}},
	}}

	stmt, err := e.Translate(ctx, desc, companyConfig())
	require.NoError(t, err)
	assert.Equal(t, "SELECT [Name], [EmployeeCount] FROM [Sheet1] Where ([EmployeeCount] = ?)", stmt.Text)

	res, err := e.Execute(ctx, desc, companyConfig())
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, ir.Object{"Company": ir.String("ACME"), "Doubled": ir.Int(50)}, res.Items[0])
}

func TestExecute_ProjectedAggregateInMemory(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))

	desc := companies(nil, queryir.Skip{Count: 6}, queryir.Max{})
	desc.Projection = queryir.Member{Name: "EmployeeCount"}

	res, err := e.Execute(context.Background(), desc, companyConfig())
	require.NoError(t, err)
	assert.Equal(t, ir.Int(4000), res.Scalar)
}

func TestExecute_FailureCodes(t *testing.T) {
	e := New(createTestWorkbook(t, store.Worksheet{
		Name:    "Bad",
		Columns: []string{"Name", "EmployeeCount"},
		Rows:    [][]any{{"A", "5"}, {"B", "many"}},
	}), WithLogger(discard))

	badSheet := companies(nil)
	badSheet.Source = "Bad"

	fieldVsField := companies(queryir.Comparison{
		Left:  queryir.Field{Name: "Name"},
		Op:    queryir.Eq,
		Right: queryir.Field{Name: "CEO"},
	})

	unknownMember := companies(nil)
	unknownMember.Projection = queryir.Member{Name: "Revenue"}

	tests := []struct {
		name   string
		desc   queryir.Descriptor
		code   ErrorCode
		target any
	}{
		{"invalid skip", companies(nil, queryir.Skip{Count: -1}), ErrCodeInvalidQuery, new(*queryir.ValidationError)},
		{"unknown shape", queryir.Descriptor{Shape: "Nope"}, ErrCodeInvalidQuery, nil},
		{"field vs field", fieldVsField, ErrCodeTranslation, new(*querysql.TranslationError)},
		{"unknown member", unknownMember, ErrCodeProjection, new(*projection.ProjectionError)},
		{"bad cell", badSheet, ErrCodeMaterialization, new(*rows.ConversionError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(context.Background(), tt.desc, companyConfig())
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err), "error: %v", err)
			if tt.target != nil {
				assert.ErrorAs(t, err, tt.target)
			}
		})
	}
}

func TestExecute_DebugLogsCarryQueryID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := New(createTestWorkbook(t),
		WithLogger(logger),
		WithIDGenerator(NewFixedGenerator("q-1", "q-2")),
	)
	ctx := context.Background()

	_, err := e.Execute(ctx, companies(queryir.Equal("EmployeeCount", ir.Int(25))), companyConfig())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `msg="executing query" query_id=q-1 worksheet=Sheet1 sql="SELECT * FROM [Sheet1] Where ([EmployeeCount] = ?)"`)
	assert.Contains(t, out, `msg="query parameter" query_id=q-1 index=0 kind=int value=25`)
	assert.Contains(t, out, `msg="query complete" query_id=q-1`)

	desc := companies(nil)
	desc.Source = "Nope"
	_, err = e.Execute(ctx, desc, companyConfig())
	var qe *QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "q-2", qe.QueryID)
}

// fakeSource serves canned results and records the statements it receives.
type fakeSource struct {
	raw       *rows.RawRows
	err       error
	tables    []string
	tablesErr error
	columns   map[string][]string

	texts []string
	args  [][]any
}

func (f *fakeSource) Query(ctx context.Context, text string, args []any) (*rows.RawRows, error) {
	f.texts = append(f.texts, text)
	f.args = append(f.args, args)
	return f.raw, f.err
}

func (f *fakeSource) Tables(ctx context.Context) ([]string, error) {
	return f.tables, f.tablesErr
}

func (f *fakeSource) Columns(ctx context.Context, table string) ([]string, error) {
	return f.columns[table], nil
}

func TestExecute_PassesParametersPositionally(t *testing.T) {
	src := &fakeSource{raw: &rows.RawRows{Columns: testutil.CompanyColumns}}
	e := New(src, WithLogger(discard))

	start := ir.Date(time.Date(1876, 6, 25, 0, 0, 0, 0, time.UTC))
	_, err := e.Execute(context.Background(), companies(queryir.AndOf(
		queryir.Equal("CEO", ir.String("Paul")),
		queryir.Compare("StartDate", queryir.Lt, start),
		queryir.Equal("EmployeeCount", ir.Int(5)),
	)), companyConfig())
	require.NoError(t, err)

	require.Len(t, src.texts, 1)
	assert.Equal(t, "SELECT * FROM [Sheet1] Where ((([CEO] = ?) AND ([StartDate] < ?)) AND ([EmployeeCount] = ?))", src.texts[0])
	assert.Equal(t, []any{"Paul", "6/25/1876", int64(5)}, src.args[0])
}

func TestExecute_DriverErrorKeptWhenWorkbookLooksFine(t *testing.T) {
	cause := errors.New("disk I/O error")
	src := &fakeSource{
		err:     cause,
		tables:  []string{"Sheet1"},
		columns: map[string][]string{"Sheet1": testutil.CompanyColumns},
	}
	e := New(src, WithLogger(discard))

	_, err := e.Execute(context.Background(), companies(queryir.Equal("CEO", ir.String("x"))), companyConfig())
	require.Error(t, err)
	assert.Equal(t, ErrCodeExecution, CodeOf(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsUnknownTable(err))
	assert.False(t, IsUnknownColumn(err))

	src.tablesErr = errors.New("catalog unavailable")
	_, err = e.Execute(context.Background(), companies(nil), companyConfig())
	assert.ErrorIs(t, err, cause)
}

func TestExecute_WarningsNameResolvedWorksheet(t *testing.T) {
	src := &fakeSource{raw: &rows.RawRows{Columns: []string{"Name"}, Values: [][]any{{"ACME"}}}}
	rec := testutil.NewWarningRecorder()
	e := New(src, WithLogger(discard), WithWarner(rec))

	cfg := companyConfig()
	cfg.Mapping = shape.Mapping{"EmployeeCount": "Staff"}
	cfg.Sheet = "Companies"

	_, err := e.Execute(context.Background(), companies(nil), cfg)
	require.NoError(t, err)

	worksheet, ok := rec.Attr(0, "worksheet")
	require.True(t, ok)
	assert.Equal(t, "Companies", worksheet)
}

func TestEngine_ConcurrentExecute(t *testing.T) {
	e := New(createTestWorkbook(t), WithLogger(discard))
	desc := companies(queryir.Compare("EmployeeCount", queryir.Gt, ir.Int(98)))

	errs := make(chan error, 20)
	counts := make(chan int, 20)
	for i := 0; i < 20; i++ {
		go func() {
			res, err := e.Execute(context.Background(), desc, companyConfig())
			errs <- err
			counts <- len(res.Items)
		}()
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, <-errs)
		assert.Equal(t, 3, <-counts)
	}
}
