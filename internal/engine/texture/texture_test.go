package texture

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tgaHeader(imageType, w, h, bpp int, descriptor byte) []byte {
	hdr := make([]byte, 18)
	hdr[2] = byte(imageType)
	hdr[12], hdr[13] = byte(w), byte(w>>8)
	hdr[14], hdr[15] = byte(h), byte(h>>8)
	hdr[16] = byte(bpp)
	hdr[17] = descriptor
	return hdr
}

func TestDecodeTGAUncompressedBottomUp(t *testing.T) {
	data := tgaHeader(TGATypeUncompressed, 2, 2, 24, 0)
	// First stored row is the bottom row.
	data = append(data,
		0, 0, 255, 0, 255, 0, // red, green
		255, 0, 0, 255, 255, 255, // blue, white
	)

	img, err := DecodeTGA(data)
	require.NoError(t, err)
	rgba := img.(*image.RGBA)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, rgba.RGBAAt(0, 1))
	assert.Equal(t, color.RGBA{G: 255, A: 255}, rgba.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, rgba.RGBAAt(0, 0))
}

func TestDecodeTGARLE(t *testing.T) {
	data := tgaHeader(TGATypeRLE, 3, 1, 32, 0x20)
	data = append(data,
		0x81, 10, 20, 30, 40, // run of 2
		0x00, 1, 2, 3, 4, // raw 1
	)

	img, err := DecodeTGA(data)
	require.NoError(t, err)
	rgba := img.(*image.RGBA)
	assert.Equal(t, color.RGBA{R: 30, G: 20, B: 10, A: 40}, rgba.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 30, G: 20, B: 10, A: 40}, rgba.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{R: 3, G: 2, B: 1, A: 4}, rgba.RGBAAt(2, 0))
}

func TestDecodeTGARejects(t *testing.T) {
	_, err := DecodeTGA([]byte{1, 2, 3})
	assert.Error(t, err)

	_, err = DecodeTGA(tgaHeader(1, 1, 1, 24, 0))
	assert.Error(t, err)

	_, err = DecodeTGA(tgaHeader(TGATypeUncompressed, 1, 1, 16, 0))
	assert.Error(t, err)

	_, err = DecodeTGA(tgaHeader(TGATypeUncompressed, 4, 4, 24, 0))
	assert.Error(t, err, "missing pixel data")
}

func TestFlipVertical(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 3))
	img.SetRGBA(0, 0, color.RGBA{R: 1})
	img.SetRGBA(0, 2, color.RGBA{R: 3})

	FlipVertical(img)
	assert.Equal(t, uint8(3), img.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(1), img.RGBAAt(0, 2).R)
}

func TestToRGBANormalizesOrigin(t *testing.T) {
	src := image.NewGray(image.Rect(5, 5, 7, 6))
	src.SetGray(5, 5, color.Gray{Y: 200})

	rgba := ToRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 2, 1), rgba.Rect)
	assert.Equal(t, uint8(200), rgba.RGBAAt(0, 0).G)
}

func TestSaveAndLoadPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.SetRGBA(3, 1, color.RGBA{R: 9, G: 8, B: 7, A: 255})

	path := filepath.Join(t.TempDir(), "sub", "atlas.png")
	require.NoError(t, SavePNG(path, img))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), loaded.Bounds())
	r, g, b, _ := loaded.At(3, 1).RGBA()
	assert.Equal(t, []uint32{9, 8, 7}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}
