package scene

import (
	"fmt"
	"sort"
	"sync"
)

// BlendMode selects how a material composites.
type BlendMode uint8

const (
	BlendOpaque BlendMode = iota
	// BlendAlphaReject discards fragments below AlphaThreshold.
	BlendAlphaReject
	// BlendAlpha uses src_alpha / one_minus_src_alpha.
	BlendAlpha
)

func (b BlendMode) String() string {
	switch b {
	case BlendAlphaReject:
		return "alpha_reject"
	case BlendAlpha:
		return "alpha_blend"
	default:
		return "opaque"
	}
}

// Material is a named set of pass properties.
type Material struct {
	Name           string
	DiffuseMap     string
	Scroll         [2]float32
	Blend          BlendMode
	AlphaThreshold uint8
	DepthWrite     bool
	Lighting       bool
	CullNone       bool

	// VertexProgram names a specialized vertex stage, empty for the fixed one.
	VertexProgram string
	// Params lists the shared parameters bound to the vertex program.
	Params []string
}

// MaterialLibrary stores materials and the shared program parameters all
// specialized materials read from.
type MaterialLibrary struct {
	mu        sync.RWMutex
	materials map[string]*Material
	shared    map[string][4]float32
}

// NewMaterialLibrary creates an empty library.
func NewMaterialLibrary() *MaterialLibrary {
	return &MaterialLibrary{
		materials: make(map[string]*Material),
		shared:    make(map[string][4]float32),
	}
}

// Define registers or replaces a material.
func (l *MaterialLibrary) Define(m *Material) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.materials[m.Name] = m
}

// Get looks up a material by name.
func (l *MaterialLibrary) Get(name string) (*Material, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.materials[name]
	return m, ok
}

// Has reports whether a material exists.
func (l *MaterialLibrary) Has(name string) bool {
	_, ok := l.Get(name)
	return ok
}

// Clone copies src under a new name, replacing any existing dst.
func (l *MaterialLibrary) Clone(src, dst string) (*Material, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.materials[src]
	if !ok {
		return nil, fmt.Errorf("material %q not found", src)
	}
	c := *m
	c.Name = dst
	c.Params = append([]string(nil), m.Params...)
	l.materials[dst] = &c
	return &c, nil
}

// Remove deletes a material.
func (l *MaterialLibrary) Remove(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.materials, name)
}

// Names returns all material names sorted.
func (l *MaterialLibrary) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.materials))
	for n := range l.materials {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SetShared publishes a shared program parameter.
func (l *MaterialLibrary) SetShared(name string, v ...float32) {
	var p [4]float32
	copy(p[:], v)
	l.mu.Lock()
	l.shared[name] = p
	l.mu.Unlock()
}

// Shared returns a shared program parameter.
func (l *MaterialLibrary) Shared(name string) ([4]float32, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.shared[name]
	return p, ok
}
