// Package sqlprovider serves grid rows from a SQL table through
// database/sql. Queries are built with go-sqlbuilder so the same provider
// works across SQLite, PostgreSQL and MySQL placeholders.
package sqlprovider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/huandu/go-sqlbuilder"

	"github.com/pthm/hxgrid"
)

// ErrNoTable is returned by Fetch when the provider has no table.
var ErrNoTable = errors.New("sqlprovider: table is required")

// Provider fetches pages of R from Table.
//
// Only attributes listed in Attrs can be sorted, filtered or scoped on, so
// request input never reaches the SQL text. Unknown sorts and filters are
// ignored; an unknown scope attribute fails the fetch.
type Provider[R any] struct {
	DB    *sql.DB
	Table string
	// Columns are the selected columns, in the order Scan reads them.
	// Empty selects "*".
	Columns []string
	// Attrs maps grid attributes to column expressions.
	Attrs map[string]string
	// Scan reads the current row.
	Scan func(rows *sql.Rows) (R, error)
	// Flavor sets the placeholder style (SQLite, PostgreSQL or MySQL).
	// Defaults to sqlbuilder.SQLite.
	Flavor sqlbuilder.Flavor
	// DefaultSort applies when the query names no sortable attribute, which
	// keeps paging stable.
	DefaultSort hxgrid.Sort
}

var _ hxgrid.DataProvider[struct{}] = (*Provider[struct{}])(nil)

func (p *Provider[R]) flavor() sqlbuilder.Flavor {
	if p.Flavor == 0 {
		return sqlbuilder.SQLite
	}
	return p.Flavor
}

// Fetch implements hxgrid.DataProvider. It runs a COUNT query for the
// total and a SELECT for the page.
func (p *Provider[R]) Fetch(ctx context.Context, q hxgrid.Query) (hxgrid.Page[R], error) {
	if p.Table == "" {
		return hxgrid.Page[R]{}, ErrNoTable
	}
	if p.Scan == nil {
		return hxgrid.Page[R]{}, fmt.Errorf("sqlprovider: table %s: Scan is required", p.Table)
	}

	total, err := p.count(ctx, q)
	if err != nil {
		return hxgrid.Page[R]{}, err
	}

	sb := sqlbuilder.NewSelectBuilder()
	cols := p.Columns
	if len(cols) == 0 {
		cols = []string{"*"}
	}
	sb.Select(cols...).From(p.Table)
	if err := p.where(sb, q); err != nil {
		return hxgrid.Page[R]{}, err
	}

	s := q.Sort
	if _, ok := p.Attrs[s.Attr]; !ok {
		s = p.DefaultSort
	}
	if col, ok := p.Attrs[s.Attr]; ok {
		sb.OrderBy(col)
		if s.Desc {
			sb.Desc()
		} else {
			sb.Asc()
		}
	}
	if q.Limit > 0 {
		sb.Limit(q.Limit)
		if q.Offset > 0 {
			sb.Offset(q.Offset)
		}
	}

	query, args := sb.BuildWithFlavor(p.flavor())
	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return hxgrid.Page[R]{}, fmt.Errorf("sqlprovider: query %s: %w", p.Table, err)
	}
	defer rows.Close()

	var out []R
	for rows.Next() {
		r, err := p.Scan(rows)
		if err != nil {
			return hxgrid.Page[R]{}, fmt.Errorf("sqlprovider: scan %s: %w", p.Table, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return hxgrid.Page[R]{}, fmt.Errorf("sqlprovider: read %s: %w", p.Table, err)
	}
	return hxgrid.Page[R]{Rows: out, Total: total}, nil
}

func (p *Provider[R]) count(ctx context.Context, q hxgrid.Query) (int, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("COUNT(*)").From(p.Table)
	if err := p.where(sb, q); err != nil {
		return 0, err
	}

	query, args := sb.BuildWithFlavor(p.flavor())
	var total int
	if err := p.DB.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sqlprovider: count %s: %w", p.Table, err)
	}
	return total, nil
}

// where adds the scope equality and filter conditions. Keys are visited in
// sorted order so the generated SQL is stable.
func (p *Provider[R]) where(sb *sqlbuilder.SelectBuilder, q hxgrid.Query) error {
	for _, attr := range sortedKeys(q.Scope) {
		col, ok := p.Attrs[attr]
		if !ok {
			return fmt.Errorf("%w: sqlprovider: table %s: scope attribute %q has no column", hxgrid.ErrInvalidConfig, p.Table, attr)
		}
		sb.Where(sb.Equal(col, q.Scope[attr]))
	}
	for _, attr := range sortedKeys(q.Filters) {
		v := strings.TrimSpace(q.Filters[attr])
		col, ok := p.Attrs[attr]
		if !ok || v == "" {
			continue
		}
		pattern := "%" + escapeLike(strings.ToLower(v)) + "%"
		sb.Where(sb.Like("LOWER("+col+")", pattern) + " ESCAPE '!'")
	}
	return nil
}

// LIKE patterns escape with '!', which every flavor accepts as a plain literal.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
