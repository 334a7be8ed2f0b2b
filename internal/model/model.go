package model

import (
	"fmt"
	"time"
)

// ColumnCategory is the classification label column injected into every
// normalized row. It is always the first column of a merged table.
const ColumnCategory = "category"

// DateFormat is the wire format for report date parameters.
const DateFormat = "2006-01-02"

// ViewSpec selects the dimensions and metrics pulled for one view and the
// category label stamped onto every resulting row.
type ViewSpec struct {
	Name       string
	Dimensions []string
	Metrics    []string
	Category   string
}

// Columns returns the view's requested column order: dimensions followed by
// metrics.
func (v ViewSpec) Columns() []string {
	columns := make([]string, 0, len(v.Dimensions)+len(v.Metrics))
	columns = append(columns, v.Dimensions...)
	columns = append(columns, v.Metrics...)
	return columns
}

// RawRow is one cost line item as returned by the API: dimension and metric
// names mapped to scalar values, tag sets possibly nested one level deep.
// RawRows are transient; they exist only between fetch and normalization.
type RawRow map[string]any

// Row is a normalized flat row keyed by column name. Values are strings,
// float64, or nil.
type Row map[string]any

// DateRange is an inclusive report date range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange parses start and end in YYYY-MM-DD form and rejects inverted
// ranges.
func NewDateRange(start, end string) (DateRange, error) {
	from, err := time.Parse(DateFormat, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date %q (want YYYY-MM-DD)", start)
	}
	to, err := time.Parse(DateFormat, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end date %q (want YYYY-MM-DD)", end)
	}
	if from.After(to) {
		return DateRange{}, fmt.Errorf("start date %s is after end date %s", start, end)
	}
	return DateRange{Start: from, End: to}, nil
}

// StartString returns the range start in wire format.
func (r DateRange) StartString() string {
	return r.Start.Format(DateFormat)
}

// EndString returns the range end in wire format.
func (r DateRange) EndString() string {
	return r.End.Format(DateFormat)
}
