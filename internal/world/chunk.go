package world

import (
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// ChunkSize - длина ребра чанка в блоках
const ChunkSize = 16

const chunkVolume = ChunkSize * ChunkSize * ChunkSize

// Индексы сторон чанка. Совпадают с порядком vec.Neighbours: сторона i
// смотрит на соседа i, а сосед видит нас своей стороной i^1.
const (
	SideNorth = iota // -Z
	SideSouth        // +Z
	SideEast         // +X
	SideWest         // -X
	SideUp           // +Y
	SideDown         // -Y
)

// Chunk представляет куб мира 16x16x16 блоков.
// Блоки хранятся через палитру: список различных ID плюс 16-битный индекс на ячейку.
// Палитра только растёт: устаревшие записи не удаляются.
type Chunk struct {
	Coords vec.Vec3 // Координаты чанка в мире

	palette []block.ID
	indices [chunkVolume]uint16
	foliage [ChunkSize * ChunkSize]mgl32.Vec3 // Цвет листвы по колонкам (x,z)
	dirty   bool                              // Меш нужно перестроить
}

// NewChunk создаёт чанк, заполненный воздухом. Новый чанк всегда "грязный".
func NewChunk(coords vec.Vec3) *Chunk {
	return &Chunk{
		Coords:  coords,
		palette: []block.ID{block.Air},
		dirty:   true,
	}
}

func blockIndex(x, y, z int) int {
	return x*ChunkSize*ChunkSize + y*ChunkSize + z
}

func columnIndex(x, z int) int {
	return x*ChunkSize + z
}

// InBounds проверяет, что локальные координаты лежат внутри чанка
func InBounds(x, y, z int) bool {
	return x >= 0 && x < ChunkSize && y >= 0 && y < ChunkSize && z >= 0 && z < ChunkSize
}

// Block возвращает блок по локальным координатам
func (c *Chunk) Block(x, y, z int) block.ID {
	return c.palette[c.indices[blockIndex(x, y, z)]]
}

// SetBlock устанавливает блок по локальным координатам и помечает чанк грязным
func (c *Chunk) SetBlock(x, y, z int, id block.ID) {
	c.indices[blockIndex(x, y, z)] = c.paletteIndex(id)
	c.dirty = true
}

// paletteIndex находит блок в палитре или добавляет его в конец
func (c *Chunk) paletteIndex(id block.ID) uint16 {
	for i, p := range c.palette {
		if p == id {
			return uint16(i)
		}
	}
	c.palette = append(c.palette, id)
	return uint16(len(c.palette) - 1)
}

// Palette возвращает копию палитры чанка
func (c *Chunk) Palette() []block.ID {
	out := make([]block.ID, len(c.palette))
	copy(out, c.palette)
	return out
}

// Blocks возвращает развёрнутый массив блоков в порядке x*S*S + y*S + z
func (c *Chunk) Blocks() []block.ID {
	out := make([]block.ID, chunkVolume)
	for i, idx := range c.indices {
		out[i] = c.palette[idx]
	}
	return out
}

// Foliage возвращает цвет листвы колонки
func (c *Chunk) Foliage(x, z int) mgl32.Vec3 {
	return c.foliage[columnIndex(x, z)]
}

// SetFoliage задаёт цвет листвы колонки
func (c *Chunk) SetFoliage(x, z int, color mgl32.Vec3) {
	c.foliage[columnIndex(x, z)] = color
}

// IsDirty сообщает, нужно ли перестроить меш
func (c *Chunk) IsDirty() bool { return c.dirty }

// MarkDirty помечает чанк для перестроения меша
func (c *Chunk) MarkDirty() { c.dirty = true }

// ClearDirty снимает пометку после построения меша
func (c *Chunk) ClearDirty() { c.dirty = false }

// IsEmpty проверяет, что в чанке только воздух
func (c *Chunk) IsEmpty() bool {
	airOnly := true
	for _, p := range c.palette {
		if p != block.Air {
			airOnly = false
			break
		}
	}
	if airOnly {
		return true
	}

	for _, idx := range c.indices {
		if c.palette[idx] != block.Air {
			return false
		}
	}
	return true
}

// IsSideFull проверяет, что все блоки на указанной стороне полностью непрозрачны
func (c *Chunk) IsSideFull(side int) bool {
	const last = ChunkSize - 1
	for a := 0; a < ChunkSize; a++ {
		for b := 0; b < ChunkSize; b++ {
			var id block.ID
			switch side {
			case SideNorth:
				id = c.Block(a, b, 0)
			case SideSouth:
				id = c.Block(a, b, last)
			case SideEast:
				id = c.Block(last, a, b)
			case SideWest:
				id = c.Block(0, a, b)
			case SideUp:
				id = c.Block(a, last, b)
			case SideDown:
				id = c.Block(a, 0, b)
			default:
				return false
			}
			if id.Class() != block.ClassFullOpaque {
				return false
			}
		}
	}
	return true
}

// Fill заполняет весь чанк одним блоком
func (c *Chunk) Fill(id block.ID) {
	idx := c.paletteIndex(id)
	for i := range c.indices {
		c.indices[i] = idx
	}
	c.dirty = true
}
