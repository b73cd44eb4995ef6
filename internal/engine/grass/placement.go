package grass

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-foliage/internal/engine/random"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// instance is one accepted grass placement.
type instance struct {
	x, z float32
	// size blends between minimum and maximum size.
	size float32
	// angle is the planar rotation in [0, 2π). Sprites use it to mirror.
	angle float32
}

// placement is the outcome of populating one layer on one page.
type placement struct {
	instances []instance
	requested int
	rejected  int
}

// maxCandidates bounds the candidates drawn for one layer on one page.
const maxCandidates = 1<<31 - 1

// instanceCount returns how many candidates a page of the given bounds gets.
func (l *Layer) instanceCount(bounds math.Rect, densityFactor float32) int {
	n := l.density * densityFactor * bounds.Area()
	switch {
	case n <= 0 || math32.IsNaN(n):
		return 0
	case n >= maxCandidates:
		return maxCandidates
	}
	return int(n)
}

// randomsPerCandidate is how many table values one candidate consumes.
func (l *Layer) randomsPerCandidate() int {
	if l.densityMap != nil {
		return 5
	}
	return 4
}

// heightRange returns the accepted Y interval and whether it applies.
func (l *Layer) heightRange() (lo, hi float32, ok bool) {
	if l.minY == 0 && l.maxY == 0 {
		return 0, 0, false
	}
	lo, hi = math32.Inf(-1), math32.Inf(1)
	if l.minY != 0 {
		lo = l.minY
	}
	if l.maxY != 0 {
		hi = l.maxY
	}
	return lo, hi, true
}

// populate draws count candidates inside bounds. Every candidate consumes the
// same randoms whether or not it is accepted: two for position, one for
// density when a density map is set, then size and angle. Once more instances
// are accepted than a page can index, the remaining candidates are skipped in
// the table without being drawn.
func (l *Layer) populate(bounds math.Rect, count int, rt *random.Table, heights HeightSource) placement {
	p := placement{requested: count, instances: make([]instance, 0, min(count, maxIndex+1))}
	lo, hi, ranged := l.heightRange()
	checkColorBounds := l.colorMap != nil && !l.mapBounds.IsZero()

	for i := 0; i < count; i++ {
		x := rt.Range(bounds.Left, bounds.Right)
		z := rt.Range(bounds.Top, bounds.Bottom)

		ok := true
		if l.densityMap != nil {
			ok = rt.Next() < l.densityMap.DensityAt(x, z, l.mapBounds)
		}
		if ok && checkColorBounds && !l.mapBounds.Contains(x, z) {
			ok = false
		}
		if ok && ranged {
			y := heights.HeightAt(x, z)
			ok = y >= lo && y <= hi
		}

		size := rt.Next()
		angle := rt.Range(0, 2*math32.Pi)

		if !ok {
			p.rejected++
			continue
		}
		p.instances = append(p.instances, instance{x: x, z: z, size: size, angle: angle})
		if len(p.instances) > maxIndex {
			left := count - i - 1
			rt.Skip(left % rt.Len() * l.randomsPerCandidate())
			break
		}
	}
	return p
}
