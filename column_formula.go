package hxgrid

import (
	"fmt"
)

// FormulaColumn computes its value from the raw values of other columns of
// the same row.
//
//	&hxgrid.FormulaColumn[Line]{
//	    ColumnBase: hxgrid.ColumnBase{Label: "Total", Format: "decimal:2"},
//	    Formula: func(r *hxgrid.FormulaRow[Line]) (any, error) {
//	        return cast.ToFloat64(r.Col(2)) * cast.ToFloat64(r.Col(3)), r.Err()
//	    },
//	}
type FormulaColumn[R any] struct {
	ColumnBase

	Formula func(r *FormulaRow[R]) (any, error)

	cols []Column[R]
	self int
}

// FormulaRow gives a formula access to the row being rendered.
type FormulaRow[R any] struct {
	Row   R
	Key   string
	Index int

	rc   *RenderContext
	cols []Column[R]
	self int
	err  error
}

// Col returns the raw value of the column at index i of Grid.Columns.
// Errors, including a reference back to the formula itself, are kept and
// reported by Err; Col then returns nil.
func (r *FormulaRow[R]) Col(i int) any {
	if r.err != nil {
		return nil
	}
	if i == r.self {
		r.err = fmt.Errorf("%w: column %d", ErrSelfReference, i)
		return nil
	}
	if i < 0 || i >= len(r.cols) {
		r.err = fmt.Errorf("%w: formula references column %d of %d", ErrInvalidConfig, i, len(r.cols))
		return nil
	}
	cell, err := r.cols[i].Render(r.rc, r.Row, r.Key, r.Index)
	if err != nil {
		r.err = err
		return nil
	}
	return cell.Value
}

// Err returns the first error met by Col.
func (r *FormulaRow[R]) Err() error { return r.err }

// Init implements Column.
func (c *FormulaColumn[R]) Init(*GridInfo) error {
	if c.Formula == nil {
		return configError("formula column "+c.Label, "Formula", "is required")
	}
	return nil
}

// bind hands the column the grid's columns so Col can resolve indexes.
func (c *FormulaColumn[R]) bind(cols []Column[R], self int) {
	c.cols, c.self = cols, self
}

// Header implements Column.
func (c *FormulaColumn[R]) Header(*RenderContext) string {
	return escapeLabel(c.Label)
}

// Filter implements Column.
func (c *FormulaColumn[R]) Filter(*RenderContext) string { return "" }

// Render implements Column.
func (c *FormulaColumn[R]) Render(rc *RenderContext, row R, key string, index int) (Cell, error) {
	if rc.evaluating == nil {
		rc.evaluating = map[*ColumnBase]bool{}
	}
	if rc.evaluating[&c.ColumnBase] {
		return Cell{}, fmt.Errorf("%w: formula cycle through column %d", ErrSelfReference, c.self)
	}
	rc.evaluating[&c.ColumnBase] = true
	defer delete(rc.evaluating, &c.ColumnBase)

	fr := &FormulaRow[R]{Row: row, Key: key, Index: index, rc: rc, cols: c.cols, self: c.self}
	v, err := c.Formula(fr)
	if err == nil {
		err = fr.err
	}
	if err != nil {
		return Cell{}, err
	}
	return Cell{Value: v, HTML: rc.Formatter.Format(v, c.spec)}, nil
}
