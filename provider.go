package hxgrid

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/spf13/cast"
)

// Sort is a single-attribute ordering.
type Sort struct {
	Attr string
	Desc bool
}

// ParseSort reads the "attr" / "-attr" query form.
func ParseSort(s string) Sort {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return Sort{Attr: s[1:], Desc: true}
	}
	return Sort{Attr: s}
}

// String returns the query form of s.
func (s Sort) String() string {
	if s.Attr == "" {
		return ""
	}
	if s.Desc {
		return "-" + s.Attr
	}
	return s.Attr
}

// Query is what a grid asks of its data provider.
type Query struct {
	// Offset and Limit select the page. Limit 0 means all rows.
	Offset int
	Limit  int
	Sort   Sort
	// Filters maps attributes to the filter row input values.
	Filters map[string]string
	// Scope carries the grid's signed scope values (e.g. a parent ID).
	Scope map[string]string
}

// Page is one page of rows plus the total row count of the query.
type Page[R any] struct {
	Rows  []R
	Total int
}

// DataProvider fetches grid rows.
type DataProvider[R any] interface {
	Fetch(ctx context.Context, q Query) (Page[R], error)
}

// ProviderFunc adapts a function to DataProvider.
type ProviderFunc[R any] func(ctx context.Context, q Query) (Page[R], error)

// Fetch implements DataProvider.
func (f ProviderFunc[R]) Fetch(ctx context.Context, q Query) (Page[R], error) {
	return f(ctx, q)
}

// SliceProvider serves rows from memory.
type SliceProvider[R any] struct {
	Rows []R
	// Field returns the value of attr in row, used for sorting and the
	// default filter. Nil disables both.
	Field func(row R, attr string) any
	// Match overrides the default filter, a case-insensitive substring
	// match on every filtered attribute.
	Match func(row R, filters map[string]string) bool
}

// Fetch implements DataProvider.
func (p *SliceProvider[R]) Fetch(_ context.Context, q Query) (Page[R], error) {
	rows := make([]R, 0, len(p.Rows))
	for _, r := range p.Rows {
		if p.match(r, q.Filters) {
			rows = append(rows, r)
		}
	}
	if q.Sort.Attr != "" && p.Field != nil {
		slices.SortStableFunc(rows, func(a, b R) int {
			c := compareValues(p.Field(a, q.Sort.Attr), p.Field(b, q.Sort.Attr))
			if q.Sort.Desc {
				return -c
			}
			return c
		})
	}
	total := len(rows)
	start := min(max(q.Offset, 0), total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	return Page[R]{Rows: rows[start:end], Total: total}, nil
}

func (p *SliceProvider[R]) match(row R, filters map[string]string) bool {
	if p.Match != nil {
		return p.Match(row, filters)
	}
	if p.Field == nil {
		return true
	}
	for attr, want := range filters {
		if want == "" {
			continue
		}
		got := cast.ToString(p.Field(row, attr))
		if !strings.Contains(strings.ToLower(got), strings.ToLower(want)) {
			return false
		}
	}
	return true
}

func compareValues(a, b any) int {
	fa, errA := cast.ToFloat64E(a)
	fb, errB := cast.ToFloat64E(b)
	if errA == nil && errB == nil {
		return cmp.Compare(fa, fb)
	}
	return strings.Compare(cast.ToString(a), cast.ToString(b))
}
