// Package terrain provides the heightfield grass and trees are placed on and
// the meshes that draw it.
package terrain

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// Heightfield is a regular grid of heights. Sample (x, z) sits at world
// position (x*CellSize, z*CellSize).
type Heightfield struct {
	Heights  []float32 // (CellsX+1) * (CellsZ+1) samples, row-major by z
	CellsX   int
	CellsZ   int
	CellSize float32
}

// NewHeightfield creates a flat heightfield.
func NewHeightfield(cellsX, cellsZ int, cellSize float32) *Heightfield {
	return &Heightfield{
		Heights:  make([]float32, (cellsX+1)*(cellsZ+1)),
		CellsX:   cellsX,
		CellsZ:   cellsZ,
		CellSize: cellSize,
	}
}

// Generate creates rolling hills from a few summed sine waves. The same seed
// always gives the same terrain.
func Generate(cellsX, cellsZ int, cellSize, amplitude float32, seed uint64) *Heightfield {
	hf := NewHeightfield(cellsX, cellsZ, cellSize)
	phase := float32(seed%1000) * 0.01
	for z := 0; z <= cellsZ; z++ {
		for x := 0; x <= cellsX; x++ {
			fx, fz := float32(x)*cellSize, float32(z)*cellSize
			h := math32.Sin(fx*0.011+phase)*math32.Cos(fz*0.013-phase)*0.6 +
				math32.Sin((fx+fz)*0.027+phase*2)*0.3 +
				math32.Cos((fx-fz)*0.061-phase)*0.1
			hf.set(x, z, h*amplitude)
		}
	}
	return hf
}

// FromImage builds a heightfield from the luminance of img, one sample per
// pixel, scaled to [0, maxHeight].
func FromImage(img image.Image, cellSize, maxHeight float32) (*Heightfield, error) {
	b := img.Bounds()
	if b.Dx() < 2 || b.Dy() < 2 {
		return nil, fmt.Errorf("heightmap %dx%d is too small", b.Dx(), b.Dy())
	}
	hf := NewHeightfield(b.Dx()-1, b.Dy()-1, cellSize)
	for z := 0; z < b.Dy(); z++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+z).RGBA()
			lum := (float32(r) + float32(g) + float32(bl)) / (3 * 0xFFFF)
			hf.set(x, z, lum*maxHeight)
		}
	}
	return hf, nil
}

func (hf *Heightfield) index(x, z int) int {
	return z*(hf.CellsX+1) + x
}

func (hf *Heightfield) set(x, z int, h float32) {
	hf.Heights[hf.index(x, z)] = h
}

// Sample returns the height of grid sample (x, z), clamped to the grid.
func (hf *Heightfield) Sample(x, z int) float32 {
	x = max(0, min(x, hf.CellsX))
	z = max(0, min(z, hf.CellsZ))
	return hf.Heights[hf.index(x, z)]
}

// HeightAt returns the bilinearly interpolated height at a world position.
// Positions outside the grid use the nearest edge.
func (hf *Heightfield) HeightAt(worldX, worldZ float32) float32 {
	fx := clampf(worldX/hf.CellSize, 0, float32(hf.CellsX))
	fz := clampf(worldZ/hf.CellSize, 0, float32(hf.CellsZ))

	cx := min(int(fx), hf.CellsX-1)
	cz := min(int(fz), hf.CellsZ-1)
	tx := fx - float32(cx)
	tz := fz - float32(cz)

	north := hf.Sample(cx, cz)*(1-tx) + hf.Sample(cx+1, cz)*tx
	south := hf.Sample(cx, cz+1)*(1-tx) + hf.Sample(cx+1, cz+1)*tx
	return north*(1-tz) + south*tz
}

// Normal returns the surface normal at grid sample (x, z) from central
// differences.
func (hf *Heightfield) Normal(x, z int) math.Vec3 {
	dx := hf.Sample(x+1, z) - hf.Sample(x-1, z)
	dz := hf.Sample(x, z+1) - hf.Sample(x, z-1)
	return math.Vec3{X: -dx, Y: 2 * hf.CellSize, Z: -dz}.Normalize()
}

// Bounds returns the world rectangle the heightfield covers.
func (hf *Heightfield) Bounds() math.Rect {
	return math.Rect{
		Right:  float32(hf.CellsX) * hf.CellSize,
		Bottom: float32(hf.CellsZ) * hf.CellSize,
	}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
