package block

import "github.com/go-gl/mathgl/mgl32"

// Размеры атласа текстур в текселях и тайлах
const (
	AtlasSize  = 192
	AtlasTiles = 12
)

// Индексы граней. Порядок совпадает с нормалями в упакованной вершине.
const (
	FacePosZ = iota
	FaceNegZ
	FacePosX
	FaceNegX
	FacePosY
	FaceNegY
)

// FaceTemplate описывает грань единичного куба: нормаль и четыре угла,
// где 0 означает минимум кубоида по оси, а 1 - максимум.
type FaceTemplate struct {
	Normal  [3]int
	Corners [4][3]uint8
}

// FaceTemplates - шаблоны шести граней. Обход углов против часовой стрелки снаружи.
var FaceTemplates = [6]FaceTemplate{
	FacePosZ: {Normal: [3]int{0, 0, 1}, Corners: [4][3]uint8{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}},
	FaceNegZ: {Normal: [3]int{0, 0, -1}, Corners: [4][3]uint8{{1, 0, 0}, {0, 0, 0}, {0, 1, 0}, {1, 1, 0}}},
	FacePosX: {Normal: [3]int{1, 0, 0}, Corners: [4][3]uint8{{1, 0, 1}, {1, 0, 0}, {1, 1, 0}, {1, 1, 1}}},
	FaceNegX: {Normal: [3]int{-1, 0, 0}, Corners: [4][3]uint8{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}}},
	FacePosY: {Normal: [3]int{0, 1, 0}, Corners: [4][3]uint8{{0, 1, 1}, {1, 1, 1}, {1, 1, 0}, {0, 1, 0}}},
	FaceNegY: {Normal: [3]int{0, -1, 0}, Corners: [4][3]uint8{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}},
}

// Vertices раскладывает шаблон по кубоиду
func (t FaceTemplate) Vertices(c Cuboid) [4]mgl32.Vec3 {
	var out [4]mgl32.Vec3
	for i, corner := range t.Corners {
		for axis := 0; axis < 3; axis++ {
			if corner[axis] == 0 {
				out[i][axis] = c.Min[axis]
			} else {
				out[i][axis] = c.Max[axis]
			}
		}
	}
	return out
}
