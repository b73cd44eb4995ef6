package grass

// HeightSource answers terrain height queries.
type HeightSource interface {
	HeightAt(x, z float32) float32
}

// HeightFunc adapts a plain function to HeightSource.
type HeightFunc func(x, z float32) float32

// HeightAt calls f.
func (f HeightFunc) HeightAt(x, z float32) float32 {
	return f(x, z)
}

// flat is used when the loader has no height source.
var flat = HeightFunc(func(float32, float32) float32 { return 0 })
