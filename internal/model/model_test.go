package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDateRange(t *testing.T) {
	dates, err := NewDateRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", dates.StartString())
	assert.Equal(t, "2024-01-31", dates.EndString())
}

func TestNewDateRangeSingleDay(t *testing.T) {
	_, err := NewDateRange("2024-06-15", "2024-06-15")
	assert.NoError(t, err)
}

func TestNewDateRangeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
	}{
		{"malformed start", "01-01-2024", "2024-01-31"},
		{"malformed end", "2024-01-01", "Jan 31 2024"},
		{"empty start", "", "2024-01-31"},
		{"inverted range", "2024-02-01", "2024-01-01"},
		{"not a date", "2024-13-45", "2024-13-46"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDateRange(tc.start, tc.end)
			assert.Error(t, err)
		})
	}
}

func TestViewSpecColumns(t *testing.T) {
	spec := ViewSpec{
		Name:       "v1",
		Dimensions: []string{"service", "region"},
		Metrics:    []string{"cost"},
		Category:   "core",
	}
	assert.Equal(t, []string{"service", "region", "cost"}, spec.Columns())
}
