package testutil

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarningRecorder_RecordsInOrder(t *testing.T) {
	w := NewWarningRecorder()

	w.Warn("first", "column", "A")
	w.Warn("second")

	assert.Equal(t, []string{"first", "second"}, w.Messages())

	v, ok := w.Attr(0, "column")
	require.True(t, ok)
	assert.Equal(t, "A", v)

	_, ok = w.Attr(1, "column")
	assert.False(t, ok)
	_, ok = w.Attr(5, "column")
	assert.False(t, ok)
}

func TestWarningRecorder_Reset(t *testing.T) {
	w := NewWarningRecorder()
	w.Warn("x")

	w.Reset()

	assert.Empty(t, w.Messages())
}

func TestWarningRecorder_Concurrent(t *testing.T) {
	w := NewWarningRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Warn("w")
		}()
	}
	wg.Wait()

	assert.Len(t, w.Messages(), 50)
}

func TestCompanies_Fixture(t *testing.T) {
	values := CompanyValues()
	require.Len(t, values, 7)
	for _, row := range values {
		assert.Len(t, row, len(CompanyColumns))
	}

	lines := strings.Split(strings.TrimSpace(CompaniesCSV()), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "Name,CEO,EmployeeCount,StartDate", lines[0])
	assert.Equal(t, "ACME,Paul Yoder,25,10/9/2008", lines[1])

	s := CompanyShape()
	assert.Equal(t, "Company", s.Name)
	assert.Len(t, s.Fields, 4)
	assert.NotSame(t, s, CompanyShape())
}
