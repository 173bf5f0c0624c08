// Package summary computes page-summary values over the cell values of the
// rows visible on the current page.
//
// Built-in reducers are Sum (the zero value), Count, Avg, Max and Min.
// Callers that need something else pass a Reducer, which receives the full
// row list unchanged.
//
// Mixed input is handled explicitly: nil and non-numeric entries are
// skipped by Sum, Avg, Max and Min (numeric strings are coerced), while
// Count counts every row. Avg divides by the number of numeric entries.
package summary

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Func selects a built-in aggregation.
type Func int

const (
	Sum Func = iota
	Count
	Avg
	Max
	Min
)

// String returns the lowercase name used in configuration files.
func (f Func) String() string {
	switch f {
	case Sum:
		return "sum"
	case Count:
		return "count"
	case Avg:
		return "avg"
	case Max:
		return "max"
	case Min:
		return "min"
	}
	return fmt.Sprintf("func(%d)", int(f))
}

// ParseFunc resolves a configuration name into a Func.
// "average" is accepted as an alias of "avg".
func ParseFunc(name string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sum", "f_sum":
		return Sum, nil
	case "count", "f_count":
		return Count, nil
	case "avg", "average", "f_avg":
		return Avg, nil
	case "max", "f_max":
		return Max, nil
	case "min", "f_min":
		return Min, nil
	}
	return Sum, fmt.Errorf("summary: unknown aggregation %q", name)
}

// Reducer is a caller-supplied aggregation over the full row list.
type Reducer func(values []any) any

// Aggregate reduces values with the built-in function fn.
//
// An empty list yields "" for every function except Avg, which yields nil.
// Count returns an int; the other functions return a float64, or "" when
// no entry is numeric.
func Aggregate(values []any, fn Func) any {
	if len(values) == 0 {
		if fn == Avg {
			return nil
		}
		return ""
	}
	if fn == Count {
		return len(values)
	}

	nums := numbers(values)
	if len(nums) == 0 {
		if fn == Avg {
			return nil
		}
		return ""
	}

	switch fn {
	case Avg:
		return decimal.Sum(nums[0], nums[1:]...).
			Div(decimal.NewFromInt(int64(len(nums)))).
			InexactFloat64()
	case Max:
		return decimal.Max(nums[0], nums[1:]...).InexactFloat64()
	case Min:
		return decimal.Min(nums[0], nums[1:]...).InexactFloat64()
	default:
		return decimal.Sum(nums[0], nums[1:]...).InexactFloat64()
	}
}

// AggregateWith hands values to a custom reducer. A nil reducer falls back
// to Sum.
func AggregateWith(values []any, r Reducer) any {
	if r == nil {
		return Aggregate(values, Sum)
	}
	return r(values)
}

// numbers extracts the numeric entries of values as exact decimals.
func numbers(values []any) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		if d, ok := toDecimal(v); ok {
			out = append(out, d)
		}
	}
	return out
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil, bool:
		return decimal.Zero, false
	case decimal.Decimal:
		return n, true
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero, false
		}
		return *n, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case float32, float64:
		f, err := cast.ToFloat64E(n)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(f), true
	}
	i, err := cast.ToInt64E(v)
	if err != nil {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(i), true
}
