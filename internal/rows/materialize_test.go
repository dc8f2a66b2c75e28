package rows

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sheetq/internal/ir"
	"github.com/roach88/sheetq/internal/shape"
	"github.com/roach88/sheetq/internal/testutil"
)

func companies() *RawRows {
	return &RawRows{
		Table:   "Sheet1",
		Columns: testutil.CompanyColumns,
		Values:  testutil.CompanyValues(),
	}
}

func TestMaterializeAll_TypedRoundTrip(t *testing.T) {
	m := NewMaterializer(nil)
	s := testutil.CompanyShape()

	items, err := m.MaterializeAll(companies(), s, shape.NewResolver(s, nil))
	require.NoError(t, err)
	require.Len(t, items, 7)

	first, ok := items[0].(*testutil.Company)
	require.True(t, ok)
	assert.Equal(t, "ACME", first.Name)
	assert.Equal(t, "Paul Yoder", first.CEO)
	assert.Equal(t, 25, first.EmployeeCount)
	assert.Equal(t, time.Date(2008, 10, 9, 0, 0, 0, 0, time.UTC), first.StartDate)
}

func TestMaterializeAll_MappedColumns(t *testing.T) {
	raw := &RawRows{
		Table:   "Companies",
		Columns: []string{"Company Title", "Chief Executive", "Employees", "Started"},
		Values:  testutil.CompanyValues(),
	}
	s := testutil.CompanyShape()
	r := shape.NewResolver(s, shape.Mapping{
		"Name":          "Company Title",
		"CEO":           "Chief Executive",
		"EmployeeCount": "Employees",
		"StartDate":     "Started",
	})
	w := testutil.NewWarningRecorder()

	items, err := NewMaterializer(w).MaterializeAll(raw, s, r)
	require.NoError(t, err)

	c := items[3].(*testutil.Company)
	assert.Equal(t, "Widget Works", c.Name)
	assert.Equal(t, "Elmer Fudd", c.CEO)
	assert.Equal(t, 98, c.EmployeeCount)
	assert.Empty(t, w.Messages())
}

func TestMaterializeAll_MissingMappedColumnWarnsOnce(t *testing.T) {
	s := testutil.CompanyShape()
	r := shape.NewResolver(s, shape.Mapping{"CEO": "Chief Executive"})
	w := testutil.NewWarningRecorder()

	items, err := NewMaterializer(w).MaterializeAll(companies(), s, r)
	require.NoError(t, err)
	require.Len(t, items, 7)

	for _, item := range items {
		assert.Equal(t, "", item.(*testutil.Company).CEO, "missing field keeps its zero value")
	}
	require.Equal(t, []string{
		"'Chief Executive' column that is mapped to the 'CEO' property does not exist in the 'Sheet1' worksheet",
	}, w.Messages())

	v, ok := w.Attr(0, "field")
	require.True(t, ok)
	assert.Equal(t, "CEO", v)
}

func TestMaterializeAll_UnmappedMissingColumnIsSilent(t *testing.T) {
	raw := &RawRows{
		Table:   "Sheet1",
		Columns: []string{"Name"},
		Values:  [][]any{{"ACME"}},
	}
	s := testutil.CompanyShape()
	w := testutil.NewWarningRecorder()

	items, err := NewMaterializer(w).MaterializeAll(raw, s, shape.NewResolver(s, nil))
	require.NoError(t, err)

	c := items[0].(*testutil.Company)
	assert.Equal(t, "ACME", c.Name)
	assert.Equal(t, 0, c.EmployeeCount)
	assert.Empty(t, w.Messages())
}

func TestMaterializeAll_ConversionErrorPropagates(t *testing.T) {
	raw := &RawRows{
		Table:   "Sheet1",
		Columns: testutil.CompanyColumns,
		Values: [][]any{
			{"ACME", "Paul", int64(25), "10/9/2008"},
			{"Bad", "Bob", "lots", "10/9/2008"},
		},
	}
	s := testutil.CompanyShape()

	_, err := NewMaterializer(nil).MaterializeAll(raw, s, shape.NewResolver(s, nil))
	require.Error(t, err)

	var ce *ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "EmployeeCount", ce.Field)
	assert.Equal(t, "EmployeeCount", ce.Column)
	assert.Equal(t, ir.KindInt, ce.Kind)
	assert.Equal(t, "lots", ce.Raw)
	assert.Contains(t, err.Error(), "row 2")
}

func TestMaterializeAll_NullCellsKeepZeroValue(t *testing.T) {
	raw := &RawRows{
		Table:   "Sheet1",
		Columns: testutil.CompanyColumns,
		Values:  [][]any{{"ACME", nil, nil, nil}},
	}
	s := testutil.CompanyShape()

	items, err := NewMaterializer(nil).MaterializeAll(raw, s, shape.NewResolver(s, nil))
	require.NoError(t, err)

	c := items[0].(*testutil.Company)
	assert.Equal(t, "", c.CEO)
	assert.True(t, c.StartDate.IsZero())
}

func TestMaterializeAll_NormalizedColumnNames(t *testing.T) {
	// The worksheet spells the column with a combining accent.
	raw := &RawRows{
		Table:   "Sheet1",
		Columns: []string{"Cafe\u0301"},
		Values:  [][]any{{"open"}},
	}
	s := shape.Dynamic("Venue", shape.FieldSpec{Name: "Caf\u00e9", Kind: ir.KindString})

	items, err := NewMaterializer(nil).MaterializeAll(raw, s, shape.NewResolver(s, nil))
	require.NoError(t, err)

	assert.Equal(t, ir.String("open"), items[0].(*shape.Record).Get("Caf\u00e9"))
}

func TestMaterializeAll_RowShape(t *testing.T) {
	items, err := NewMaterializer(nil).MaterializeAll(companies(), shape.RowShape, shape.Resolver{})
	require.NoError(t, err)
	require.Len(t, items, 7)

	row, ok := items[0].(Row)
	require.True(t, ok)
	assert.Equal(t, 4, row.Len())
	assert.Equal(t, testutil.CompanyColumns, row.Columns())

	cell, ok := row.Cell("EmployeeCount")
	require.True(t, ok)
	n, err := cell.Int()
	require.NoError(t, err)
	assert.Equal(t, int64(25), n)

	// Repeated access recomputes the same value
	again, err := cell.Int()
	require.NoError(t, err)
	assert.Equal(t, n, again)
	assert.Equal(t, int64(25), cell.Raw())

	date, err := row.At(3).Time()
	require.NoError(t, err)
	assert.Equal(t, 2008, date.Year())

	_, ok = row.Cell("Missing")
	assert.False(t, ok)
	assert.Equal(t, ir.Null{}, row.Get("Missing"))
	assert.Equal(t, ir.String("ACME"), row.Get("name"), "case-insensitive fallback")
}

func TestMaterializeAll_NilRaw(t *testing.T) {
	items, err := NewMaterializer(nil).MaterializeAll(nil, shape.RowShape, shape.Resolver{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMaterializeAll_ConcurrentCalls(t *testing.T) {
	m := NewMaterializer(nil)
	s := testutil.CompanyShape()
	r := shape.NewResolver(s, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := m.MaterializeAll(companies(), s, r)
			assert.NoError(t, err)
			assert.Len(t, items, 7)
		}()
	}
	wg.Wait()
}

func TestMaterializeScalar(t *testing.T) {
	v, err := MaterializeScalar(&RawRows{Columns: []string{"COUNT(*)"}, Values: [][]any{{int64(7)}}})
	require.NoError(t, err)
	assert.Equal(t, ir.Int(7), v)

	v, err = MaterializeScalar(&RawRows{})
	require.NoError(t, err)
	assert.Equal(t, ir.Null{}, v)

	_, err = MaterializeScalar(&RawRows{Values: [][]any{{int64(1), int64(2)}}})
	assert.Error(t, err)
}
