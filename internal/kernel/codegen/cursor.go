package codegen

// Cursor is the position of the next constant-buffer element a generated kernel
// reads. It is a value: emission helpers take a Cursor and return the advanced
// one, so independent generations never share a counter.
type Cursor struct {
	next int
}

// Next returns the current position and the cursor advanced by one.
func (c Cursor) Next() (int, Cursor) {
	return c.next, Cursor{next: c.next + 1}
}

// Count returns how many elements have been consumed.
func (c Cursor) Count() int {
	return c.next
}
