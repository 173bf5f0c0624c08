package summary

// Buffer accumulates one column's cell values during a single render pass.
// It is not safe for concurrent use; a render owns its buffers.
type Buffer struct {
	values []any
}

// Add appends the value of one visible row.
func (b *Buffer) Add(v any) {
	b.values = append(b.values, v)
}

// Values returns the accumulated values in row order.
func (b *Buffer) Values() []any {
	return b.values
}

// Len returns the number of rows seen.
func (b *Buffer) Len() int {
	return len(b.values)
}

// Reset empties the buffer so it can serve the next render.
func (b *Buffer) Reset() {
	b.values = b.values[:0]
}

// Aggregate reduces the buffered values with fn.
func (b *Buffer) Aggregate(fn Func) any {
	return Aggregate(b.values, fn)
}
