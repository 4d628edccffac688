package storage

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/MuskanShrestha58/FirecrawlDemo/models"
)

// Cell is one spreadsheet value: string, float64, bool, or nil for blank.
type Cell any

// Table is the tabular rendering of an extraction result. Columns hold the
// union of record keys in first-seen order; every row has len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// ToTable lays out data as rows. When unwrapSingleKey is set, an object whose
// only value is itself an object or array is replaced by that value first
// (e.g. {"listings": [...]}); a one-field record such as {"Address": "A"}
// stays a record. An object becomes one row, an array of objects one row per
// element. Anything else is rejected as not tabular.
func ToTable(data json.RawMessage, unwrapSingleKey bool) (*Table, error) {
	root := gjson.ParseBytes(data)

	if unwrapSingleKey && root.IsObject() {
		var (
			keys  int
			inner gjson.Result
		)
		root.ForEach(func(_, value gjson.Result) bool {
			keys++
			inner = value
			return keys < 2
		})
		if keys == 1 && (inner.IsObject() || inner.IsArray()) {
			root = inner
		}
	}

	var records []gjson.Result
	switch {
	case root.IsObject():
		records = []gjson.Result{root}
	case root.IsArray():
		for i, elem := range root.Array() {
			if !elem.IsObject() {
				return nil, models.NewPipelineError(models.ErrCodeNotTabular,
					fmt.Sprintf("element %d is %s, not an object", i, kind(elem)), nil)
			}
			records = append(records, elem)
		}
	default:
		return nil, models.NewPipelineError(models.ErrCodeNotTabular,
			fmt.Sprintf("top-level value is %s, not an object or array", kind(root)), nil)
	}

	t := &Table{}
	index := make(map[string]int)
	for _, rec := range records {
		row := make([]Cell, len(t.Columns))
		rec.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			col, ok := index[name]
			if !ok {
				col = len(t.Columns)
				index[name] = col
				t.Columns = append(t.Columns, name)
			}
			for len(row) <= col {
				row = append(row, nil)
			}
			row[col] = cellValue(value)
			return true
		})
		t.Rows = append(t.Rows, row)
	}

	// Earlier rows are shorter when later records introduced new keys.
	for i := range t.Rows {
		for len(t.Rows[i]) < len(t.Columns) {
			t.Rows[i] = append(t.Rows[i], nil)
		}
	}
	return t, nil
}

// cellValue converts a JSON value to a spreadsheet cell. Nested values are
// kept as compact JSON text.
func cellValue(v gjson.Result) Cell {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.String:
		return v.String()
	case gjson.Number:
		return v.Float()
	case gjson.True, gjson.False:
		return v.Bool()
	default:
		return string(pretty.Ugly([]byte(v.Raw)))
	}
}

func kind(v gjson.Result) string {
	switch {
	case v.IsObject():
		return "an object"
	case v.IsArray():
		return "an array"
	case v.Type == gjson.String:
		return "a string"
	case v.Type == gjson.Number:
		return "a number"
	case v.Type == gjson.True, v.Type == gjson.False:
		return "a boolean"
	default:
		return "null"
	}
}
