// Package screenshot writes captured frames to timestamped PNG files.
package screenshot

import (
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/Faultbox/midgard-foliage/internal/engine/texture"
)

// Saver names and writes PNG files under one directory.
type Saver struct {
	dir    string
	prefix string
	now    func() time.Time
}

// NewSaver creates a saver writing prefix_<timestamp>.png files into dir.
// An empty dir means the working directory.
func NewSaver(dir, prefix string) *Saver {
	return &Saver{dir: dir, prefix: prefix, now: time.Now}
}

// Filename returns the path the next capture is written to.
func (s *Saver) Filename() string {
	name := fmt.Sprintf("%s_%s.png", s.prefix, s.now().Format("2006-01-02_15-04-05"))
	return filepath.Join(s.dir, name)
}

// SavePixels writes bottom-up RGBA rows, as OpenGL reads them, upright.
func (s *Saver) SavePixels(pixels []byte, width, height int) (string, error) {
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}
	img := &image.RGBA{Pix: pixels, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	texture.FlipVertical(img)
	return s.SaveImage(img)
}

// SaveImage writes img to the next filename.
func (s *Saver) SaveImage(img image.Image) (string, error) {
	path := s.Filename()
	if err := texture.SavePNG(path, img); err != nil {
		return "", err
	}
	return path, nil
}
