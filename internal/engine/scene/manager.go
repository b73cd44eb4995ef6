// Package scene is a small retained scene graph: nodes, entities, manual
// meshes, materials and the global render state that render devices read.
package scene

import (
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/logger"
)

// Manager owns the node tree and the mesh and entity registries.
type Manager struct {
	mu       sync.Mutex
	root     *Node
	meshes   map[string]*Mesh
	entities map[string]*Entity
	serial   uint64

	Materials *MaterialLibrary
	State     RenderState
}

// NewManager creates an empty scene.
func NewManager() *Manager {
	return &Manager{
		root:      newNode("root", nil),
		meshes:    make(map[string]*Mesh),
		entities:  make(map[string]*Entity),
		Materials: NewMaterialLibrary(),
		State:     DefaultRenderState(),
	}
}

// Root returns the root node.
func (m *Manager) Root() *Node {
	return m.root
}

// UniqueName returns prefix followed by a counter unique to this manager.
func (m *Manager) UniqueName(prefix string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serial++
	return prefix + strconv.FormatUint(m.serial, 10)
}

// CreateMesh registers an empty mesh under name.
func (m *Manager) CreateMesh(name string) (*Mesh, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.meshes[name]; ok {
		return nil, fmt.Errorf("mesh %q already exists", name)
	}
	mesh := &Mesh{Name: name}
	m.meshes[name] = mesh
	return mesh, nil
}

// Mesh looks up a mesh.
func (m *Manager) Mesh(name string) (*Mesh, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mesh, ok := m.meshes[name]
	return mesh, ok
}

// DestroyMesh unregisters a mesh and frees its device copy.
func (m *Manager) DestroyMesh(name string) {
	m.mu.Lock()
	mesh, ok := m.meshes[name]
	delete(m.meshes, name)
	m.mu.Unlock()
	if ok {
		mesh.Invalidate()
	}
}

// MeshCount returns the number of registered meshes.
func (m *Manager) MeshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.meshes)
}

// CreateEntity creates a visible, unattached entity for mesh.
func (m *Manager) CreateEntity(name string, mesh *Mesh) (*Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[name]; ok {
		return nil, fmt.Errorf("entity %q already exists", name)
	}
	e := &Entity{
		Name:            name,
		Mesh:            mesh,
		RenderQueue:     DefaultRenderQueue,
		Visible:         true,
		CastShadows:     true,
		VisibilityFlags: VisibilityDefault,
	}
	m.entities[name] = e
	return e, nil
}

// Entity looks up an entity.
func (m *Manager) Entity(name string) (*Entity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[name]
	return e, ok
}

// DestroyEntity detaches and unregisters e. The mesh is left alone.
func (m *Manager) DestroyEntity(e *Entity) {
	e.Detach()
	m.mu.Lock()
	delete(m.entities, e.Name)
	m.mu.Unlock()
}

// EntityCount returns the number of registered entities.
func (m *Manager) EntityCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entities)
}

// Clear destroys every entity and mesh and empties the node tree.
func (m *Manager) Clear() {
	m.mu.Lock()
	meshes := m.meshes
	m.meshes = make(map[string]*Mesh)
	m.entities = make(map[string]*Entity)
	m.root = newNode("root", nil)
	m.mu.Unlock()

	for _, mesh := range meshes {
		mesh.Invalidate()
	}
	logger.Debug("scene cleared", zap.Int("meshes", len(meshes)))
}
