// Package normalize converts raw API rows into flat report rows: the view's
// category label first, then the view's dimensions and metrics, with nested
// tag sets flattened into one column per tag key. Fields the view did not
// ask for are dropped.
package normalize

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"cloudreport/internal/errs"
	"cloudreport/internal/model"
)

// Normalize flattens raw into a Row. It returns the row and its column
// order: category, then the view's dimensions (tag dimensions expanded into
// their tag-key columns) and metrics. Normalize is pure; identical inputs
// produce identical outputs.
func Normalize(raw model.RawRow, view model.ViewSpec) (model.Row, []string, error) {
	if raw == nil {
		return nil, nil, errs.DataProcessing("row is missing")
	}

	row := model.Row{model.ColumnCategory: view.Category}
	columns := []string{model.ColumnCategory}

	for _, dimension := range view.Dimensions {
		value, ok := lookup(raw, dimension)
		if !ok || value == nil {
			row[dimension] = nil
			columns = append(columns, dimension)
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			tagColumns, err := flattenTags(row, dimension, nested)
			if err != nil {
				return nil, nil, err
			}
			columns = append(columns, tagColumns...)
			continue
		}
		scalar, err := coerceScalar(dimension, value)
		if err != nil {
			return nil, nil, err
		}
		row[dimension] = scalar
		columns = append(columns, dimension)
	}

	for _, metric := range view.Metrics {
		value, ok := lookup(raw, metric)
		if !ok || value == nil {
			row[metric] = nil
			columns = append(columns, metric)
			continue
		}
		scalar, err := coerceScalar(metric, value)
		if err != nil {
			return nil, nil, err
		}
		row[metric] = scalar
		columns = append(columns, metric)
	}

	return row, columns, nil
}

// flattenTags spreads a nested tag map into one column per tag key, sorted
// for determinism. Tag values must themselves be scalar.
func flattenTags(row model.Row, dimension string, tags map[string]any) ([]string, error) {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	columns := make([]string, 0, len(keys))
	for _, key := range keys {
		value := tags[key]
		if value == nil {
			row[key] = nil
			columns = append(columns, key)
			continue
		}
		scalar, err := coerceScalar(dimension+"."+key, value)
		if err != nil {
			return nil, err
		}
		row[key] = scalar
		columns = append(columns, key)
	}
	return columns, nil
}

// lookup finds a field by exact name first, then case-insensitively; the
// API is not consistent about field casing across report types.
func lookup(raw model.RawRow, name string) (any, bool) {
	if value, ok := raw[name]; ok {
		return value, true
	}
	for key, value := range raw {
		if strings.EqualFold(key, name) {
			return value, true
		}
	}
	return nil, false
}

// coerceScalar narrows a decoded JSON value to string or float64.
func coerceScalar(field string, value any) (any, error) {
	switch typed := value.(type) {
	case string:
		return typed, nil
	case float64:
		return typed, nil
	case float32:
		return float64(typed), nil
	case int:
		return float64(typed), nil
	case int64:
		return float64(typed), nil
	case bool:
		return strconv.FormatBool(typed), nil
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return typed.String(), nil
		}
		return parsed, nil
	default:
		return nil, errs.Newf(errs.CodeDataProcessing, "field %s has unexpected type %T", field, value)
	}
}
