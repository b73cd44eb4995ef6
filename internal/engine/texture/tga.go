// Package texture decodes and encodes the images used for grass maps, grass
// textures and baked impostor atlases.
package texture

import (
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

// tgaReader writes decoded pixels into an image in file order.
type tgaReader struct {
	img           *image.RGBA
	width, height int
	bytesPerPixel int
	topToBottom   bool
	next          int
}

func (r *tgaReader) done() bool {
	return r.next >= r.width*r.height
}

// pixel decodes one BGR(A) pixel.
func (r *tgaReader) pixel(src []byte) color.RGBA {
	c := color.RGBA{R: src[2], G: src[1], B: src[0], A: 255}
	if r.bytesPerPixel == 4 {
		c.A = src[3]
	}
	return c
}

func (r *tgaReader) put(c color.RGBA) {
	x := r.next % r.width
	y := r.next / r.width
	if !r.topToBottom {
		y = r.height - 1 - y
	}
	r.img.SetRGBA(x, y, c)
	r.next++
}

// DecodeTGA decodes uncompressed (type 2) and RLE (type 10) true-color TGA
// data with 24 or 32 bits per pixel.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := int(data[2])
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("unsupported TGA type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("unsupported TGA bit depth %d", bpp)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("TGA data truncated")
	}
	pix := data[offset:]

	r := &tgaReader{
		img:           image.NewRGBA(image.Rect(0, 0, width, height)),
		width:         width,
		height:        height,
		bytesPerPixel: bpp / 8,
		topToBottom:   descriptor&0x20 != 0,
	}

	if imageType == TGATypeUncompressed {
		if len(pix) < width*height*r.bytesPerPixel {
			return nil, fmt.Errorf("TGA pixel data truncated")
		}
		for i := 0; !r.done(); i += r.bytesPerPixel {
			r.put(r.pixel(pix[i:]))
		}
		return r.img, nil
	}

	decodeRLE(r, pix)
	return r.img, nil
}

// decodeRLE reads run-length and raw packets until the image is full or the
// data runs out. A truncated stream leaves the remaining pixels transparent.
func decodeRLE(r *tgaReader, pix []byte) {
	bpp := r.bytesPerPixel
	i := 0
	for !r.done() && i < len(pix) {
		packet := pix[i]
		i++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if i+bpp > len(pix) {
				return
			}
			c := r.pixel(pix[i:])
			i += bpp
			for n := 0; n < count && !r.done(); n++ {
				r.put(c)
			}
			continue
		}

		for n := 0; n < count && !r.done(); n++ {
			if i+bpp > len(pix) {
				return
			}
			r.put(r.pixel(pix[i:]))
			i += bpp
		}
	}
}
