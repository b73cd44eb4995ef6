// Package random provides a precomputed, rewindable table of uniform random
// numbers. Grass placement draws from one shared table so that a page always
// produces the same foliage for the same bounds.
package random

import "math/rand/v2"

// DefaultSize is the number of entries in a default table.
const DefaultSize = 0x8000

// DefaultSeed seeds the default table.
const DefaultSeed = 5489

// Table is a fixed array of uniform values in [0,1) with a wrapping cursor.
type Table struct {
	values []float32
	cursor int
}

// New creates a table of size entries generated from seed.
// A size below 1 falls back to DefaultSize.
func New(size int, seed uint64) *Table {
	if size < 1 {
		size = DefaultSize
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	t := &Table{values: make([]float32, size)}
	for i := range t.values {
		t.values[i] = rng.Float32()
	}
	return t
}

// NewDefault creates a table with DefaultSize entries and DefaultSeed.
func NewDefault() *Table {
	return New(DefaultSize, DefaultSeed)
}

// Next returns the value under the cursor and advances it, wrapping at the end.
func (t *Table) Next() float32 {
	if t.cursor >= len(t.values) {
		t.cursor = 0
	}
	v := t.values[t.cursor]
	t.cursor++
	return v
}

// Range returns lo + Next()*(hi-lo).
func (t *Table) Range(lo, hi float32) float32 {
	return lo + (hi-lo)*t.Next()
}

// Reset rewinds the cursor to the start of the table.
func (t *Table) Reset() {
	t.cursor = 0
}

// Skip advances the cursor as if Next had been called n times.
func (t *Table) Skip(n int) {
	if n <= 0 {
		return
	}
	size := len(t.values)
	t.cursor = (t.cursor%size+(n-1)%size)%size + 1
}

// Cursor returns how many values have been drawn since the last wrap or reset.
func (t *Table) Cursor() int {
	return t.cursor
}

// Len returns the table size.
func (t *Table) Len() int {
	return len(t.values)
}
