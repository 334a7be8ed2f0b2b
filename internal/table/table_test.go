package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudreport/internal/model"
)

func TestCategoryIsAlwaysFirst(t *testing.T) {
	tbl := New()
	assert.Equal(t, []string{"category"}, tbl.Columns())

	tbl.Append([]string{"service", "cost", model.ColumnCategory}, model.Row{
		model.ColumnCategory: "core",
		"service":            "EC2",
		"cost":               float64(100),
	})
	assert.Equal(t, "category", tbl.Columns()[0])
}

func TestDisjointViewsUnionColumns(t *testing.T) {
	tbl := New()
	tbl.Append([]string{model.ColumnCategory, "A", "B"}, model.Row{
		model.ColumnCategory: "v1",
		"A":                  "a1",
		"B":                  "b1",
	})
	tbl.Append([]string{model.ColumnCategory, "C", "D"}, model.Row{
		model.ColumnCategory: "v2",
		"C":                  "c1",
		"D":                  "d1",
	})

	assert.Equal(t, []string{"category", "A", "B", "C", "D"}, tbl.Columns())

	rows := tbl.Rows()
	require.Len(t, rows, 2)
	// First view's row is back-filled with nil for the later columns.
	assert.Equal(t, []any{"v1", "a1", "b1", nil, nil}, rows[0])
	// Second view's row has nil in the first view's columns.
	assert.Equal(t, []any{"v2", nil, nil, "c1", "d1"}, rows[1])
}

func TestAddColumnsKeepsExistingOrder(t *testing.T) {
	tbl := New()
	tbl.AddColumns([]string{"service", "cost"})
	tbl.AddColumns([]string{"cost", "region", "service"})
	assert.Equal(t, []string{"category", "service", "cost", "region"}, tbl.Columns())
}

func TestEmptyViewDoesNotDropColumns(t *testing.T) {
	tbl := New()
	tbl.Append([]string{model.ColumnCategory, "service", "cost"}, model.Row{
		model.ColumnCategory: "core",
		"service":            "S3",
		"cost":               float64(12.5),
	})

	before := tbl.Columns()
	// A view contributing zero rows appends nothing.
	assert.Equal(t, before, tbl.Columns())
	assert.Equal(t, 1, tbl.Len())
}

func TestRowPadsToCurrentWidth(t *testing.T) {
	tbl := New()
	tbl.Append([]string{model.ColumnCategory, "service"}, model.Row{
		model.ColumnCategory: "core",
		"service":            "EC2",
	})
	tbl.AddColumns([]string{"region"})

	row := tbl.Row(0)
	require.Len(t, row, 3)
	assert.Nil(t, row[2])
}
