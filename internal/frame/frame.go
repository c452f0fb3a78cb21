// Package frame provides the typed table used by every pipeline stage: a row
// index of labels, a list of three-level column keys, and column-major
// float64 values where NaN marks a missing measurement.
package frame

import (
	"fmt"
	"math"
	"time"
)

// Level selects one part of a column Key.
type Level int

const (
	LevelProvince Level = iota
	LevelCity
	LevelStation
)

// Key identifies a value column by its administrative hierarchy. Aggregates
// that collapse a level leave the finer parts empty, e.g. Key{City: "Kraków"}.
type Key struct {
	Province string `json:"province,omitempty"`
	City     string `json:"city,omitempty"`
	Station  string `json:"station,omitempty"`
}

// IndexName labels the materialized index column in exports.
const IndexName = "timestamp"

// IndexKey is the header key of the index column once a frame is flattened;
// its city and station parts are empty.
var IndexKey = Key{Province: IndexName}

// Part returns the key component at the given level.
func (k Key) Part(l Level) string {
	switch l {
	case LevelProvince:
		return k.Province
	case LevelCity:
		return k.City
	default:
		return k.Station
	}
}

// Collapse keeps only the component at the given level.
func (k Key) Collapse(l Level) Key {
	switch l {
	case LevelProvince:
		return Key{Province: k.Province}
	case LevelCity:
		return Key{City: k.City}
	default:
		return Key{Station: k.Station}
	}
}

func (k Key) String() string {
	return k.Province + "/" + k.City + "/" + k.Station
}

// Month is the row label of monthly aggregates.
type Month struct {
	Year  int
	Month time.Month
}

// Before orders months chronologically.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// Frame is a table with row labels of type L.
type Frame[L any] struct {
	Index   []L
	Columns []Key
	Data    [][]float64 // Data[column][row]
}

// New allocates a frame with every value set to NaN.
func New[L any](index []L, columns []Key) Frame[L] {
	data := make([][]float64, len(columns))
	for c := range data {
		col := make([]float64, len(index))
		for r := range col {
			col[r] = math.NaN()
		}
		data[c] = col
	}
	return Frame[L]{Index: index, Columns: columns, Data: data}
}

// Len returns the number of rows.
func (f Frame[L]) Len() int { return len(f.Index) }

// Width returns the number of value columns.
func (f Frame[L]) Width() int { return len(f.Columns) }

// Clone returns a deep copy so stages never share mutable state.
func (f Frame[L]) Clone() Frame[L] {
	out := Frame[L]{
		Index:   append([]L(nil), f.Index...),
		Columns: append([]Key(nil), f.Columns...),
		Data:    make([][]float64, len(f.Data)),
	}
	for c, col := range f.Data {
		out.Data[c] = append([]float64(nil), col...)
	}
	return out
}

// ColumnIndex returns the position of key, or -1.
func (f Frame[L]) ColumnIndex(key Key) int {
	for i, k := range f.Columns {
		if k == key {
			return i
		}
	}
	return -1
}

// Column returns the values of the column with the given key.
func (f Frame[L]) Column(key Key) ([]float64, bool) {
	i := f.ColumnIndex(key)
	if i < 0 {
		return nil, false
	}
	return f.Data[i], true
}

// Find returns the first column whose component at level equals name.
func (f Frame[L]) Find(l Level, name string) (Key, bool) {
	for _, k := range f.Columns {
		if k.Part(l) == name {
			return k, true
		}
	}
	return Key{}, false
}

// Select restricts the frame to the given columns, in the given order.
// Repeated keys produce repeated columns.
func (f Frame[L]) Select(keys ...Key) (Frame[L], error) {
	out := Frame[L]{
		Index:   append([]L(nil), f.Index...),
		Columns: make([]Key, 0, len(keys)),
		Data:    make([][]float64, 0, len(keys)),
	}
	for _, k := range keys {
		i := f.ColumnIndex(k)
		if i < 0 {
			return Frame[L]{}, fmt.Errorf("select column %s: %w", k, ErrColumnNotFound)
		}
		out.Columns = append(out.Columns, k)
		out.Data = append(out.Data, append([]float64(nil), f.Data[i]...))
	}
	return out, nil
}

// SelectLevel restricts the frame to the columns whose component at level
// matches one of names, in the order of names.
func (f Frame[L]) SelectLevel(l Level, names ...string) (Frame[L], error) {
	keys := make([]Key, 0, len(names))
	for _, n := range names {
		k, ok := f.Find(l, n)
		if !ok {
			return Frame[L]{}, fmt.Errorf("select %q: %w", n, ErrColumnNotFound)
		}
		keys = append(keys, k)
	}
	return f.Select(keys...)
}

// Row returns a copy of the values at row r across all columns.
func (f Frame[L]) Row(r int) []float64 {
	out := make([]float64, len(f.Data))
	for c := range f.Data {
		out[c] = f.Data[c][r]
	}
	return out
}

// Rows keeps only the rows whose positions are listed, in that order.
func (f Frame[L]) Rows(positions []int) Frame[L] {
	index := make([]L, len(positions))
	for i, p := range positions {
		index[i] = f.Index[p]
	}
	out := New(index, append([]Key(nil), f.Columns...))
	for c := range f.Data {
		for i, p := range positions {
			out.Data[c][i] = f.Data[c][p]
		}
	}
	return out
}

// Filter keeps the rows whose label satisfies keep.
func (f Frame[L]) Filter(keep func(L) bool) Frame[L] {
	var positions []int
	for r, l := range f.Index {
		if keep(l) {
			positions = append(positions, r)
		}
	}
	return f.Rows(positions)
}
