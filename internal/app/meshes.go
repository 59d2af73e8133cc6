package app

import (
	"sync"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
)

// MeshInfo - сводка по мешу одного чанка
type MeshInfo struct {
	Faces    int `json:"faces"`
	Vertices int `json:"vertices"`
	Indices  int `json:"indices"`
}

// MeshCache хранит последние меши чанков. Без окна это и есть потребитель
// мешей: данные остаются доступны для отрисовки или инспекции через API.
type MeshCache struct {
	mu     sync.RWMutex
	meshes map[vec.Vec3]world.MeshData
}

func NewMeshCache() *MeshCache {
	return &MeshCache{meshes: make(map[vec.Vec3]world.MeshData)}
}

// OnMesh заменяет меш чанка. Пустой меш удаляет запись.
func (mc *MeshCache) OnMesh(coords vec.Vec3, mesh world.MeshData) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if mesh.IsEmpty() {
		delete(mc.meshes, coords)
		return
	}
	mc.meshes[coords] = mesh
}

func (mc *MeshCache) OnUnload(coords vec.Vec3) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	delete(mc.meshes, coords)
}

// Get возвращает меш чанка
func (mc *MeshCache) Get(coords vec.Vec3) (world.MeshData, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	m, ok := mc.meshes[coords]
	return m, ok
}

// Len возвращает количество чанков с непустым мешем
func (mc *MeshCache) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.meshes)
}

// Totals суммирует геометрию всех мешей
func (mc *MeshCache) Totals() MeshInfo {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	var total MeshInfo
	for _, m := range mc.meshes {
		total.Faces += m.FaceCount()
		total.Vertices += len(m.Vertices)
		total.Indices += len(m.Indices)
	}
	return total
}
