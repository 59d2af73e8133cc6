package world

import (
	"testing"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidChunk(coords vec.Vec3, id block.ID) *Chunk {
	c := NewChunk(coords)
	c.Fill(id)
	return c
}

func TestMesh_IsolatedBlock(t *testing.T) {
	defs := block.DefaultModelDefs()
	chunk := NewChunk(vec.Vec3{})
	chunk.SetBlock(4, 5, 6, block.Stone)

	mesh := Mesh(chunk, Neighbours{}, defs)

	require.Len(t, mesh.Vertices, 24, "Одиночный блок должен дать 6 граней")
	require.Len(t, mesh.Indices, 36)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, mesh.Indices[:6])
	assert.Equal(t, []uint32{20, 21, 22, 20, 22, 23}, mesh.Indices[30:])

	for i, v := range mesh.Vertices {
		assert.Equal(t, uint8(i/4), v.Normal(), "Грани идут в порядке шаблонов")
		assert.Equal(t, block.Stone.Material(), v.Material())
		for axis, lo := range []float32{4, 5, 6} {
			assert.GreaterOrEqual(t, v.Position[axis], lo)
			assert.LessOrEqual(t, v.Position[axis], lo+1)
		}
	}
}

func TestMesh_BuriedBlock(t *testing.T) {
	defs := block.DefaultModelDefs()
	chunk := solidChunk(vec.Vec3{}, block.Stone)

	var n Neighbours
	for i, d := range vec.Neighbours {
		n[i] = solidChunk(d, block.Stone)
	}

	mesh := Mesh(chunk, n, defs)
	assert.True(t, mesh.IsEmpty(), "Полностью закрытый чанк не даёт граней")
	assert.True(t, n.Enclosed())
}

func TestMesh_MissingNeighbourIsAir(t *testing.T) {
	defs := block.DefaultModelDefs()
	chunk := solidChunk(vec.Vec3{}, block.Stone)

	mesh := Mesh(chunk, Neighbours{}, defs)

	// Только внешняя оболочка: 6 сторон по 16x16 граней
	assert.Equal(t, 6*ChunkSize*ChunkSize, mesh.FaceCount())
}

func TestMesh_TranslucentAgainstOpaque(t *testing.T) {
	defs := block.DefaultModelDefs()
	chunk := NewChunk(vec.Vec3{})
	chunk.SetBlock(5, 5, 5, block.Stone)
	chunk.SetBlock(6, 5, 5, block.Glass)

	mesh := Mesh(chunk, Neighbours{}, defs)

	// Камень оставляет грань к стеклу, стекло выбрасывает грань к камню
	assert.Equal(t, 11, mesh.FaceCount())
}

func TestMesh_PartialBlocksKeepFaces(t *testing.T) {
	defs := block.DefaultModelDefs()
	chunk := NewChunk(vec.Vec3{})
	chunk.SetBlock(5, 5, 5, block.Stone)
	chunk.SetBlock(5, 6, 5, block.PlanksSlabBottom)

	mesh := Mesh(chunk, Neighbours{}, defs)

	// Полублок рисует все 6 граней, камень не закрыт полублоком
	assert.Equal(t, 12, mesh.FaceCount())
}

func TestMesh_StairsUseTwoCubes(t *testing.T) {
	defs := block.DefaultModelDefs()
	chunk := NewChunk(vec.Vec3{})
	chunk.SetBlock(1, 1, 1, block.PlanksStairsN)

	mesh := Mesh(chunk, Neighbours{}, defs)
	assert.Equal(t, 12, mesh.FaceCount())
}

func TestMesh_NeighbourFaceCulled(t *testing.T) {
	defs := block.DefaultModelDefs()
	chunk := NewChunk(vec.Vec3{})
	chunk.SetBlock(ChunkSize-1, 0, 0, block.Stone)

	var n Neighbours
	n[SideEast] = NewChunk(vec.East)
	n[SideEast].SetBlock(0, 0, 0, block.Stone)

	mesh := Mesh(chunk, n, defs)
	assert.Equal(t, 5, mesh.FaceCount(), "Грань +X закрыта блоком соседа")
}

func TestPackHelpers(t *testing.T) {
	assert.Equal(t, uint64(3<<5|7), PackUV([2]uint32{3, 7}))
	assert.Equal(t, uint64(0xABC), PackBlockPos(0xA, 0xB, 0xC))
	assert.Equal(t, uint64(63<<14|127<<7|127), PackColorRGB677(mgl32.Vec3{1, 1, 1}))
	assert.Equal(t, uint64(0), PackColorRGB677(mgl32.Vec3{}))

	v := NewBlockVertex(mgl32.Vec3{1, 2, 3}, 4, [2]uint32{16, 0}, 0xB, mgl32.Vec3{0.5, 1, 0.5})
	want := uint64(4)<<15 | uint64(16<<5)<<18 | uint64(0xB)<<28 | PackColorRGB677(mgl32.Vec3{0.5, 1, 0.5})<<44
	assert.Equal(t, want, v.Word())
	assert.Equal(t, uint32(want>>32), v.Hi)
	assert.Equal(t, uint8(4), v.Normal())
	assert.Equal(t, uint16(0xB), v.Material())
}

func TestNeighbours_Enclosed(t *testing.T) {
	var n Neighbours
	for i, d := range vec.Neighbours {
		n[i] = solidChunk(d, block.Stone)
	}
	assert.True(t, n.Enclosed())

	n[SideUp].SetBlock(3, 0, 3, block.Glass)
	assert.False(t, n.Enclosed(), "Стекло на нижней стороне верхнего соседа открывает чанк")

	n[SideUp] = nil
	assert.False(t, n.Enclosed(), "Незагруженный сосед не закрывает чанк")
}
