package world

import (
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// Neighbours - соседние чанки в порядке vec.Neighbours (n, s, e, w, u, d).
// Отсутствующий сосед равен nil и считается воздухом.
type Neighbours [6]*Chunk

// All проверяет, что все шесть соседей загружены и удовлетворяют f.
// f получает индекс стороны нашего чанка.
func (n Neighbours) All(f func(side int, c *Chunk) bool) bool {
	for side, c := range n {
		if c == nil || !f(side, c) {
			return false
		}
	}
	return true
}

// Enclosed сообщает, что чанк со всех сторон закрыт непрозрачными стенами соседей
func (n Neighbours) Enclosed() bool {
	return n.All(func(side int, c *Chunk) bool {
		return c.IsSideFull(side ^ 1)
	})
}

// classAt возвращает класс блока по локальным координатам, которые могут выходить
// за чанк не более чем на единицу по одной оси.
func classAt(c *Chunk, n *Neighbours, x, y, z int) block.Class {
	const last = ChunkSize - 1

	var (
		other *Chunk
		lx    = x
		ly    = y
		lz    = z
	)
	switch {
	case InBounds(x, y, z):
		return c.Block(x, y, z).Class()
	case x < 0:
		other, lx = n[SideWest], last
	case x > last:
		other, lx = n[SideEast], 0
	case y < 0:
		other, ly = n[SideDown], last
	case y > last:
		other, ly = n[SideUp], 0
	case z < 0:
		other, lz = n[SideNorth], last
	default:
		other, lz = n[SideSouth], 0
	}

	if other == nil {
		return block.ClassAir
	}
	return other.Block(lx, ly, lz).Class()
}

// Mesh строит меш чанка с отсечением скрытых граней.
// Функция чистая: читает только чанк и соседей, поэтому безопасна
// для параллельного вызова, пока никто не пишет в эти чанки.
func Mesh(c *Chunk, neighbours Neighbours, defs *block.ModelDefs) MeshData {
	var (
		vertices []BlockVertex
		indices  []uint32
		base     uint32
	)

	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				id := c.Block(x, y, z)
				if id == block.Air {
					continue
				}
				model := defs.ForBlock(id)
				if model == nil {
					continue
				}

				class := id.Class()
				offset := mgl32.Vec3{float32(x), float32(y), float32(z)}
				foliage := c.Foliage(x, z)

				for ci, cube := range model.Cubes {
					for face, tmpl := range block.FaceTemplates {
						neighbour := classAt(c, &neighbours, x+tmpl.Normal[0], y+tmpl.Normal[1], z+tmpl.Normal[2])
						if block.Occludes(class, neighbour) {
							continue
						}

						corners := tmpl.Vertices(cube)
						uvs := model.UVs[ci][face].Corners()
						for j := 0; j < 4; j++ {
							vertices = append(vertices, NewBlockVertex(
								corners[j].Add(offset),
								uint8(face),
								uvs[j],
								id.Material(),
								foliage,
							))
						}
						indices = append(indices, base, base+1, base+2, base, base+2, base+3)
						base += 4
					}
				}
			}
		}
	}

	return MeshData{Vertices: vertices, Indices: indices}
}
