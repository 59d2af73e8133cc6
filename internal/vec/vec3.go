package vec

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 представляет трехмерный вектор с целочисленными координатами.
// Используется для мировых координат блоков, координат чанков и локальных позиций.
type Vec3 struct {
	X int
	Y int
	Z int
}

// Направления соседей в порядке, который используют меш и видимость:
// север (-Z), юг (+Z), восток (+X), запад (-X), верх (+Y), низ (-Y).
var (
	North = Vec3{0, 0, -1}
	South = Vec3{0, 0, 1}
	East  = Vec3{1, 0, 0}
	West  = Vec3{-1, 0, 0}
	Up    = Vec3{0, 1, 0}
	Down  = Vec3{0, -1, 0}
)

// Neighbours перечисляет смещения соседних чанков: индекс i и i^1 всегда противоположны.
var Neighbours = [6]Vec3{North, South, East, West, Up, Down}

// String возвращает строковое представление вектора
func (v Vec3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z)
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub вычитает другой вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale умножает все компоненты на скаляр
func (v Vec3) Scale(s int) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// LengthSquared возвращает квадрат длины вектора
func (v Vec3) LengthSquared() int {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Float конвертирует вектор в mgl32.Vec3
func (v Vec3) Float() mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// FloorDiv делит с округлением вниз (а не к нулю, как оператор /).
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod возвращает евклидов остаток в диапазоне [0, b) для b > 0.
func FloorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// SplitChunk раскладывает мировую координату блока на координату чанка
// и локальную позицию внутри него. Для любых w: chunk*size + local == w.
func (v Vec3) SplitChunk(size int) (chunk Vec3, local Vec3) {
	chunk = Vec3{FloorDiv(v.X, size), FloorDiv(v.Y, size), FloorDiv(v.Z, size)}
	local = Vec3{FloorMod(v.X, size), FloorMod(v.Y, size), FloorMod(v.Z, size)}
	return chunk, local
}

// JoinChunk собирает мировую координату из координаты чанка и локальной позиции
func JoinChunk(chunk, local Vec3, size int) Vec3 {
	return chunk.Scale(size).Add(local)
}

// FromFloat возвращает блок, в котором лежит точка (покомпонентный floor).
func FromFloat(p mgl32.Vec3) Vec3 {
	return Vec3{
		X: int(math32.Floor(p.X())),
		Y: int(math32.Floor(p.Y())),
		Z: int(math32.Floor(p.Z())),
	}
}
