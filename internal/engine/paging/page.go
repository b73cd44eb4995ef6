// Package paging splits the world into square pages and loads foliage for the
// pages around the viewer.
package paging

import (
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// PageInfo describes one page handed to a loader.
type PageInfo struct {
	Bounds math.Rect
	// Center is the middle of Bounds with Y = 0. Loaders store geometry
	// relative to it.
	Center math.Vec3
	XIndex int
	ZIndex int

	// Meshes collects the meshes loaders generate for the page. They are
	// destroyed when the page unloads.
	Meshes []*scene.Mesh

	// UserData is free for the loader.
	UserData any
}

// NewPageInfo builds the info for grid cell (x, z) of the given size.
func NewPageInfo(x, z int, size float32) *PageInfo {
	b := math.Rect{
		Left:   float32(x) * size,
		Top:    float32(z) * size,
		Right:  float32(x+1) * size,
		Bottom: float32(z+1) * size,
	}
	return &PageInfo{Bounds: b, Center: b.Center(), XIndex: x, ZIndex: z}
}

// Page receives the entities a loader places and turns them into something
// renderable.
type Page interface {
	AddEntity(e *scene.Entity, pos math.Vec3, rot math.Quat, scale math.Vec3)
	Build()
	SetVisible(visible bool)
	SetFade(enabled bool, visibleDist, invisibleDist float32)
	RemoveEntities()
	Close()
}

// Loader fills pages.
type Loader interface {
	LoadPage(info *PageInfo, dst Page) error
	UnloadPage(info *PageInfo)
}
