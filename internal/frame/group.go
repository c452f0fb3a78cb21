package frame

import (
	"cmp"
	"errors"
	"math"
	"slices"
)

// ErrColumnNotFound is returned when a selection names an absent column.
var ErrColumnNotFound = errors.New("column not found")

// Reducer folds the values of one group into a single value.
type Reducer func(values []float64) float64

// Mean averages the present values; an all-missing group yields NaN.
func Mean(values []float64) float64 {
	var sum float64
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Sum adds the present values; an all-missing group yields 0.
func Sum(values []float64) float64 {
	var sum float64
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
		}
	}
	return sum
}

// Any yields 1 when at least one value is present and non-zero, else 0.
func Any(values []float64) float64 {
	for _, v := range values {
		if !math.IsNaN(v) && v != 0 {
			return 1
		}
	}
	return 0
}

// GroupRows buckets rows by key(label) and reduces each bucket per column.
// The output index is sorted ascending by less.
func GroupRows[L any, G comparable](f Frame[L], key func(L) G, less func(a, b G) bool, reduce Reducer) Frame[G] {
	buckets := make(map[G][]int)
	var order []G
	for r, l := range f.Index {
		g := key(l)
		if _, ok := buckets[g]; !ok {
			order = append(order, g)
		}
		buckets[g] = append(buckets[g], r)
	}
	slices.SortStableFunc(order, func(a, b G) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		default:
			return 0
		}
	})

	out := New(order, append([]Key(nil), f.Columns...))
	buf := make([]float64, 0, len(f.Index))
	for c, col := range f.Data {
		for i, g := range order {
			buf = buf[:0]
			for _, r := range buckets[g] {
				buf = append(buf, col[r])
			}
			out.Data[c][i] = reduce(buf)
		}
	}
	return out
}

// GroupColumns collapses columns sharing the same component at level and
// reduces them row by row. Output columns carry only that component and are
// sorted by name.
func GroupColumns[L any](f Frame[L], l Level, reduce Reducer) Frame[L] {
	groups := make(map[string][]int)
	var names []string
	for c, k := range f.Columns {
		n := k.Part(l)
		if _, ok := groups[n]; !ok {
			names = append(names, n)
		}
		groups[n] = append(groups[n], c)
	}
	slices.SortFunc(names, cmp.Compare[string])

	keys := make([]Key, len(names))
	for i, n := range names {
		keys[i] = f.Columns[groups[n][0]].Collapse(l)
	}
	out := New(append([]L(nil), f.Index...), keys)
	buf := make([]float64, 0, len(f.Columns))
	for i, n := range names {
		for r := range f.Index {
			buf = buf[:0]
			for _, c := range groups[n] {
				buf = append(buf, f.Data[c][r])
			}
			out.Data[i][r] = reduce(buf)
		}
	}
	return out
}

// Map applies fn to every value and returns a new frame.
func Map[L any](f Frame[L], fn func(float64) float64) Frame[L] {
	out := f.Clone()
	for c := range out.Data {
		for r, v := range out.Data[c] {
			out.Data[c][r] = fn(v)
		}
	}
	return out
}
