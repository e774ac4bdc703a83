package database

import (
	"testing"

	"github.com/Aleph-Alpha/dbkit/v1/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID     int64
	Name   string
	Score  float64
	Active bool
}

var userShape = schema.Shape[user]{
	New: func() user { return user{} },
	Fields: []schema.Binding[user]{
		schema.Bind(schema.Field{Name: "id", Kind: schema.Int64}, func(u *user, v any) { u.ID = v.(int64) }),
		schema.Bind(schema.Field{Name: "name", Kind: schema.String, Default: "anonymous"}, func(u *user, v any) { u.Name = v.(string) }),
		schema.Bind(schema.Field{Name: "score", Kind: schema.Float64}, func(u *user, v any) { u.Score = v.(float64) }),
		schema.Bind(schema.Field{Name: "active", Kind: schema.Bool}, func(u *user, v any) { u.Active = v.(bool) }),
	},
}

func sampleResult() *Result {
	return NewResult([]string{"id", "name", "score", "active"}, []Row{
		{"id": "1", "name": "ada", "score": "9.5", "active": "true"},
		{"id": int64(2), "name": nil, "score": 3.0, "active": int64(0)},
	})
}

func TestResultAccessors(t *testing.T) {
	res := sampleResult()
	assert.False(t, res.IsEmpty())
	assert.Equal(t, 2, res.Len())
	assert.Equal(t, []string{"id", "name", "score", "active"}, res.Columns())

	first, ok := res.First()
	require.True(t, ok)
	assert.Equal(t, "ada", first["name"])

	empty := EmptyResult()
	assert.True(t, empty.IsEmpty())
	_, ok = empty.First()
	assert.False(t, ok)
}

func TestColumnCoercesAndSkipsNulls(t *testing.T) {
	res := sampleResult()

	assert.Equal(t, []int{1, 2}, Column[int](res, "id"))
	assert.Equal(t, []string{"ada"}, Column[string](res, "name"))
	assert.Empty(t, Column[string](res, "missing"))

	id, ok := ColumnOne[int64](res, "id")
	require.True(t, ok)
	assert.Equal(t, int64(1), id)

	_, ok = ColumnOne[int64](EmptyResult(), "id")
	assert.False(t, ok)
}

func TestColumnReadsLeadingZerosAsDecimal(t *testing.T) {
	res := NewResult([]string{"n"}, []Row{{"n": "010"}, {"n": "08"}, {"n": []byte("7")}})

	assert.Equal(t, []int{10, 8, 7}, Column[int](res, "n"))
	assert.Equal(t, []uint64{10, 8, 7}, Column[uint64](res, "n"))

	n, ok := ColumnOne[int64](res, "n")
	require.True(t, ok)
	assert.Equal(t, int64(10), n)
}

func TestMapProjectsRows(t *testing.T) {
	users, err := Map(sampleResult(), userShape)
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, user{ID: 1, Name: "ada", Score: 9.5, Active: true}, users[0])
	assert.Equal(t, user{ID: 2, Name: "anonymous", Score: 3.0, Active: false}, users[1])
}

func TestMapWithoutConstructorFails(t *testing.T) {
	shape := userShape
	shape.New = nil

	_, err := Map(sampleResult(), shape)
	assert.ErrorIs(t, err, ErrMapping)
}

func TestMapRejectsUnconvertibleValue(t *testing.T) {
	res := NewResult([]string{"id"}, []Row{{"id": "not-a-number"}})
	_, err := Map(res, userShape)
	assert.ErrorIs(t, err, ErrMapping)
}
