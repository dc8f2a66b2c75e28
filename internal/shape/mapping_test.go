package shape

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	s := Define[company]("Company",
		String("Name", func(c *company) *string { return &c.Name }).WithColumn("Company Title"),
		String("CEO", func(c *company) *string { return &c.CEO }),
	)
	m := Mapping{"CEO": "Chief Executive", "EmployeeCount": "Employees"}
	r := NewResolver(s, m)

	tests := []struct {
		logical  string
		physical string
		explicit bool
	}{
		{"CEO", "Chief Executive", true},
		{"EmployeeCount", "Employees", true},
		{"Name", "Company Title", true},
		{"StartDate", "StartDate", false},
	}

	for _, tt := range tests {
		t.Run(tt.logical, func(t *testing.T) {
			assert.Equal(t, tt.physical, r.Resolve(tt.logical))
			assert.Equal(t, tt.explicit, r.Explicit(tt.logical))
		})
	}
}

func TestResolver_MappingWinsOverColumnOverride(t *testing.T) {
	s := Define[company]("Company",
		String("Name", func(c *company) *string { return &c.Name }).WithColumn("Title"),
	)
	r := NewResolver(s, Mapping{"Name": "Company Name"})

	assert.Equal(t, "Company Name", r.Resolve("Name"))
}

func TestResolver_IdentityFallback(t *testing.T) {
	var r Resolver
	assert.Equal(t, "Anything", r.Resolve("Anything"))
	assert.False(t, r.Explicit("Anything"))

	r = NewResolver(nil, Mapping{"Empty": ""})
	assert.Equal(t, "Empty", r.Resolve("Empty"), "blank mapping entries fall back to identity")
}

func TestResolver_ConcurrentReads(t *testing.T) {
	r := NewResolver(nil, Mapping{"a": "A"})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "A", r.Resolve("a"))
		}()
	}
	wg.Wait()
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(companyShape())

	s, ok := reg.Lookup("Company")
	require.True(t, ok)
	assert.Equal(t, "Company", s.Name)

	s, ok = reg.Lookup("")
	require.True(t, ok)
	assert.Same(t, RowShape, s)

	_, ok = reg.Lookup("Missing")
	assert.False(t, ok)

	assert.Error(t, reg.Register(companyShape()), "duplicate names are rejected")
	assert.Error(t, reg.Register(&Shape{}))
	assert.Equal(t, []string{"Company", "Row"}, reg.Names())
}

func TestRegistry_NilLookup(t *testing.T) {
	var reg *Registry

	s, ok := reg.Lookup(RowShapeName)
	require.True(t, ok)
	assert.Same(t, RowShape, s)

	_, ok = reg.Lookup("Company")
	assert.False(t, ok)
}

func TestNewRegistry_PanicsOnDuplicate(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry(companyShape(), companyShape())
	})
}
