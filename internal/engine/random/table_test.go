package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextInUnitRange(t *testing.T) {
	tbl := New(4096, 1)
	for i := 0; i < tbl.Len(); i++ {
		v := tbl.Next()
		require.GreaterOrEqual(t, v, float32(0))
		require.Less(t, v, float32(1))
	}
}

func TestResetReproducesSequence(t *testing.T) {
	tbl := NewDefault()
	first := make([]float32, 100)
	for i := range first {
		first[i] = tbl.Next()
	}
	tbl.Reset()
	for i := range first {
		assert.Equal(t, first[i], tbl.Next(), "draw %d", i)
	}
}

func TestCursorWraps(t *testing.T) {
	tbl := New(3, 7)
	a, b, c := tbl.Next(), tbl.Next(), tbl.Next()
	assert.Equal(t, a, tbl.Next())
	assert.Equal(t, b, tbl.Next())
	assert.Equal(t, c, tbl.Next())
}

func TestSameSeedSameTable(t *testing.T) {
	x, y := New(64, 42), New(64, 42)
	for i := 0; i < 64; i++ {
		assert.Equal(t, x.Next(), y.Next())
	}
}

func TestRange(t *testing.T) {
	tbl := New(16, 3)
	v := tbl.Next()
	tbl.Reset()
	assert.Equal(t, 10+v*(20-10), tbl.Range(10, 20))
}

func TestInvalidSizeFallsBack(t *testing.T) {
	assert.Equal(t, DefaultSize, New(0, 1).Len())
}

func TestSkipMatchesDraws(t *testing.T) {
	for _, n := range []int{0, 1, 7, 16, 17, 40} {
		for _, start := range []int{0, 5, 16} {
			drawn := New(16, 3)
			skipped := New(16, 3)
			for i := 0; i < start; i++ {
				drawn.Next()
				skipped.Next()
			}
			for i := 0; i < n; i++ {
				drawn.Next()
			}
			skipped.Skip(n)
			assert.Equal(t, drawn.Next(), skipped.Next(), "start %d skip %d", start, n)
		}
	}
}
