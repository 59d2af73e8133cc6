package world

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// BlockVertex - вершина меша блока в формате, не зависящем от графического API.
// Hi/Lo - старшая и младшая половины 64-битного слова с нормалью, UV,
// материалом и цветом листвы.
type BlockVertex struct {
	Hi       uint32
	Lo       uint32
	Position mgl32.Vec3
}

// NewBlockVertex упаковывает атрибуты вершины
func NewBlockVertex(position mgl32.Vec3, normal uint8, uv [2]uint32, material uint16, foliage mgl32.Vec3) BlockVertex {
	word := uint64(normal)<<15 |
		PackUV(uv)<<18 |
		uint64(material)<<28 |
		PackColorRGB677(foliage)<<44

	return BlockVertex{
		Hi:       uint32(word >> 32),
		Lo:       uint32(word & 0xFFFFFFFF),
		Position: position,
	}
}

// Word собирает 64-битное слово обратно
func (v BlockVertex) Word() uint64 {
	return uint64(v.Hi)<<32 | uint64(v.Lo)
}

// Normal возвращает индекс грани
func (v BlockVertex) Normal() uint8 {
	return uint8(v.Word() >> 15 & 0x7)
}

// Material возвращает индекс материала блока
func (v BlockVertex) Material() uint16 {
	return uint16(v.Word() >> 28)
}

// PackUV упаковывает тексельные координаты как u<<5 | v
func PackUV(uv [2]uint32) uint64 {
	return uint64(uv[0]<<5 | uv[1])
}

// PackBlockPos упаковывает локальную позицию блока как x<<8 | y<<4 | z
func PackBlockPos(x, y, z uint32) uint64 {
	return uint64(x<<8 | y<<4 | z)
}

// PackColorRGB677 упаковывает цвет [0,1]^3 в 20 бит: 6 на красный и по 7 на зелёный и синий
func PackColorRGB677(c mgl32.Vec3) uint64 {
	r := uint64(math32.Round(c[0] * 63))
	g := uint64(math32.Round(c[1] * 127))
	b := uint64(math32.Round(c[2] * 127))
	return r<<14 | g<<7 | b
}

// MeshData - геометрия чанка: по 4 вершины и 6 индексов на грань
type MeshData struct {
	Vertices []BlockVertex
	Indices  []uint32
}

// FaceCount возвращает количество граней в меше
func (m MeshData) FaceCount() int {
	return len(m.Vertices) / 4
}

// IsEmpty сообщает, что в меше нет геометрии
func (m MeshData) IsEmpty() bool {
	return len(m.Vertices) == 0
}
