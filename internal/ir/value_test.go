package ir

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_SealedKinds(t *testing.T) {
	tests := []struct {
		value Value
		kind  Kind
	}{
		{Null{}, KindNull},
		{String("Paul"), KindString},
		{Int(25), KindInt},
		{Float(2.5), KindFloat},
		{Bool(true), KindBool},
		{NewDate(2008, 10, 9), KindDate},
		{Object{"a": Int(1)}, KindObject},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.value.Kind())
		})
	}
}

func TestFormat_Canonical(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"int", Int(25), "25"},
		{"negative int", Int(-7), "-7"},
		{"float", Float(2.5), "2.5"},
		{"integral float", Float(3), "3"},
		{"string", String("Paul"), "Paul"},
		{"bool", Bool(false), "false"},
		{"date", NewDate(2008, 10, 9), "10/9/2008"},
		{"date from variables", NewDate(1876, 6, 25), "6/25/1876"},
		{"date with time", Date(time.Date(2008, 10, 9, 14, 5, 0, 0, time.UTC)), "10/9/2008 2:05:00 PM"},
		{"null", Null{}, ""},
		{"object", Object{"b": Int(2), "a": String("x")}, "{a: x, b: 2}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.value))
		})
	}
}

func TestNative(t *testing.T) {
	assert.Equal(t, int64(25), Native(Int(25)))
	assert.Equal(t, 2.5, Native(Float(2.5)))
	assert.Equal(t, true, Native(Bool(true)))
	assert.Equal(t, "Paul", Native(String("Paul")))
	assert.Equal(t, "10/9/2008", Native(NewDate(2008, 10, 9)))
	assert.Nil(t, Native(Null{}))
	assert.Nil(t, Native(nil))
}

func TestFromNative(t *testing.T) {
	when := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null{}},
		{"string", "x", String("x")},
		{"bytes", []byte("y"), String("y")},
		{"int", 3, Int(3)},
		{"int64", int64(4), Int(4)},
		{"float", 1.5, Float(1.5)},
		{"bool", true, Bool(true)},
		{"time", when, Date(when)},
		{"value passthrough", Int(9), Int(9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromNative(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := FromNative(struct{}{})
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"string", "Text", " int ", "number", "bool", "datetime"} {
		_, err := ParseKind(name)
		assert.NoError(t, err, name)
	}

	k, err := ParseKind("integer")
	require.NoError(t, err)
	assert.Equal(t, KindInt, k)

	_, err = ParseKind("decimal128")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"10/9/2008", "2008-10-09", "2008-10-09T00:00:00Z"} {
		d, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, "10/9/2008", Format(d), s)
	}

	_, err := ParseDate("not a date")
	assert.Error(t, err)
}

func TestFromSerial(t *testing.T) {
	// 39730 is 10/9/2008 in spreadsheet serial form.
	assert.Equal(t, "10/9/2008", Format(FromSerial(39730)))
	assert.Equal(t, "10/9/2008 12:00:00 PM", Format(FromSerial(39730.5)))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"int lt", Int(1), Int(2), -1},
		{"int float eq", Int(2), Float(2), 0},
		{"float gt", Float(2.5), Int(2), 1},
		{"string", String("a"), String("b"), -1},
		{"date", NewDate(2009, 1, 1), NewDate(2008, 1, 1), 1},
		{"bool", Bool(false), Bool(true), -1},
		{"null first", Null{}, Int(0), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Compare(String("a"), Int(1))
	assert.Error(t, err)
}

func TestObject_MarshalJSONSortedKeys(t *testing.T) {
	obj := Object{
		"name":  String("Acme"),
		"count": Int(3),
		"start": NewDate(2008, 10, 9),
		"empty": nil,
	}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"count":3,"empty":null,"name":"Acme","start":"10/9/2008"}`, string(data))
}
