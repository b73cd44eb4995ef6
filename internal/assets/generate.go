package assets

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-foliage/internal/engine/random"
)

// Names of the built-in images.
const (
	GrassBladesName = "grass_blades.png"
	BarkName        = "bark.png"
	LeavesName      = "leaves.png"
	GroundName      = "terrain.png"
	TreeAtlasName   = "tree.png"
	WaterName       = "water.png"
)

// GrassBlades draws a size*size tuft of tapered blades on a transparent
// background. The image top is the blade tips.
func GrassBlades(size int, seed uint64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	rt := random.New(256, seed)
	s := float32(size)

	blades := max(size/6, 3)
	for i := 0; i < blades; i++ {
		baseX := rt.Range(0.1, 0.9) * s
		height := rt.Range(0.55, 1) * s
		lean := rt.Range(-0.2, 0.2) * s
		width := rt.Range(0.025, 0.05) * s
		shade := uint8(rt.Range(110, 200))

		for y := 0; y < size; y++ {
			// t runs from 0 at the base to 1 at the tip.
			t := (s - float32(y)) / height
			if t > 1 {
				continue
			}
			cx := baseX + lean*t*t
			half := width * (1 - t)
			for x := int(cx - half); x <= int(cx+half); x++ {
				if x < 0 || x >= size {
					continue
				}
				img.SetRGBA(x, y, color.RGBA{
					R: uint8(float32(shade) * 0.35),
					G: shade,
					B: uint8(float32(shade) * 0.2),
					A: 255,
				})
			}
		}
	}
	return img
}

// Bark draws a size*size vertically streaked brown texture.
func Bark(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for x := 0; x < size; x++ {
		v := 0.75 + 0.25*math32.Sin(float32(x)*0.9)*math32.Cos(float32(x)*0.37)
		c := color.RGBA{R: uint8(96 * v), G: uint8(68 * v), B: uint8(44 * v), A: 255}
		for y := 0; y < size; y++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// Leaves draws a size*size canopy texture of leaf clusters with transparent
// gaps.
func Leaves(size int, seed uint64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	rt := random.New(512, seed)
	s := float32(size)

	for i := 0; i < size/2; i++ {
		cx, cy := rt.Next()*s, rt.Next()*s
		r := rt.Range(0.03, 0.08) * s
		g := uint8(rt.Range(80, 150))
		c := color.RGBA{R: g / 4, G: g, B: g / 5, A: 255}
		for y := int(cy - r); y <= int(cy+r); y++ {
			for x := int(cx - r); x <= int(cx+r); x++ {
				if x < 0 || y < 0 || x >= size || y >= size {
					continue
				}
				dx, dy := float32(x)-cx, float32(y)-cy
				if dx*dx+dy*dy <= r*r {
					img.SetRGBA(x, y, c)
				}
			}
		}
	}
	return img
}

// Ground draws a size*size mottled grass-and-soil texture.
func Ground(size int, seed uint64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	rt := random.New(size*size, seed)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := 0.8 + 0.2*rt.Next()
			img.SetRGBA(x, y, color.RGBA{R: uint8(78 * v), G: uint8(104 * v), B: uint8(52 * v), A: 255})
		}
	}
	return img
}

// Water returns soft grey ripples that tile seamlessly; vertex colour gives
// the tint.
func Water(size int, seed uint64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	rt := random.New(size*size, seed)
	k := 2 * math32.Pi / float32(size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx, fy := float32(x)*k, float32(y)*k
			w := 0.5 + 0.25*math32.Sin(3*fx+math32.Sin(2*fy)) + 0.15*math32.Cos(5*fy-fx)
			v := uint8(255 * max(0, min(0.8+0.2*w+0.05*rt.Next(), 1)))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// TreeAtlas puts Bark in the left half and Leaves in the right half of a
// (2*size)*size image.
func TreeAtlas(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2*size, size))
	bark := Bark(size)
	draw.Draw(img, image.Rect(0, 0, size, size), bark, image.Point{}, draw.Src)
	leaves := Leaves(size, 2)
	draw.Draw(img, image.Rect(size, 0, 2*size, size), leaves, image.Point{}, draw.Src)
	return img
}
