package scene

import "slices"

// TextureFilter is a sampling mode for one filtering stage.
type TextureFilter uint8

const (
	FilterNone TextureFilter = iota
	FilterPoint
	FilterLinear
	FilterAnisotropic
)

// Filtering holds the min/mag/mip texture filters.
type Filtering struct {
	Min, Mag, Mip TextureFilter
}

// FogMode selects the fog equation.
type FogMode uint8

const (
	FogNone FogMode = iota
	FogLinear
	FogExp
)

// Fog describes scene fog.
type Fog struct {
	Mode       FogMode
	Color      [3]float32
	Density    float32
	Start, End float32
}

// QueueMode decides how SpecialQueues filters render queues.
type QueueMode uint8

const (
	// QueueExclude renders every queue except the listed ones.
	QueueExclude QueueMode = iota
	// QueueInclude renders only the listed queues.
	QueueInclude
)

// RenderState is the global state every pass reads.
type RenderState struct {
	Filtering     Filtering
	Fog           Fog
	QueueMode     QueueMode
	SpecialQueues []uint8
}

// DefaultRenderState is trilinear filtering, no fog and every queue visible.
func DefaultRenderState() RenderState {
	return RenderState{
		Filtering: Filtering{Min: FilterLinear, Mag: FilterLinear, Mip: FilterLinear},
	}
}

// QueueVisible reports whether entities in queue q are drawn.
func (s RenderState) QueueVisible(q uint8) bool {
	listed := slices.Contains(s.SpecialQueues, q)
	if s.QueueMode == QueueInclude {
		return listed
	}
	return !listed
}

// Clone returns a deep copy.
func (s RenderState) Clone() RenderState {
	s.SpecialQueues = slices.Clone(s.SpecialQueues)
	return s
}
