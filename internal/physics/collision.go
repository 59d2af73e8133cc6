package physics

import (
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

// BlockSource даёт доступ к блокам по мировым координатам
type BlockSource interface {
	Block(x, y, z int) block.ID
}

// BoxCollider описывает коллайдер сущности: квадрат Width x Width в основании
// и высота Height. Позиция сущности - центр нижней грани.
type BoxCollider struct {
	Width  float32
	Height float32
}

// NewBoxCollider создаёт новый коллайдер с указанными размерами
func NewBoxCollider(width, height float32) BoxCollider {
	return BoxCollider{Width: width, Height: height}
}

// Box возвращает AABB коллайдера в позиции pos
func (bc BoxCollider) Box(pos mgl32.Vec3) cube.BBox {
	h := bc.Width / 2
	return cube.Box(-h, 0, -h, h, bc.Height, h).Translate(pos)
}

// Overlaps проверяет пересечение двух AABB. Касание считается пересечением.
func Overlaps(a, b cube.BBox) bool {
	amin, amax := a.Min(), a.Max()
	bmin, bmax := b.Min(), b.Max()
	return amin.X() <= bmax.X() && amax.X() >= bmin.X() &&
		amin.Y() <= bmax.Y() && amax.Y() >= bmin.Y() &&
		amin.Z() <= bmax.Z() && amax.Z() >= bmin.Z()
}

// CheckBoxCollision проверяет столкновение двух коллайдеров
func CheckBoxCollision(pos1 mgl32.Vec3, collider1 BoxCollider, pos2 mgl32.Vec3, collider2 BoxCollider) bool {
	return Overlaps(collider1.Box(pos1), collider2.Box(pos2))
}

// SolidAt проверяет, пересекает ли коллайдер какой-либо кубоид модели блока.
// local - позиция коллайдера относительно минимального угла блока.
func SolidAt(defs *block.ModelDefs, id block.ID, local mgl32.Vec3, collider BoxCollider) bool {
	model := defs.ForBlock(id)
	if model == nil {
		return false
	}

	box := collider.Box(local)
	for _, c := range model.Cubes {
		if Overlaps(box, cube.Box(c.Min.X(), c.Min.Y(), c.Min.Z(), c.Max.X(), c.Max.Y(), c.Max.Z())) {
			return true
		}
	}
	return false
}

// Colliding проверяет, пересекается ли коллайдер в позиции pos с блоками мира.
// Проверяются блоки от floor(min) до floor(max) включительно.
func Colliding(src BlockSource, defs *block.ModelDefs, pos mgl32.Vec3, collider BoxCollider) bool {
	box := collider.Box(pos)
	lo, hi := box.Min(), box.Max()

	x0, y0, z0 := floorInt(lo.X()), floorInt(lo.Y()), floorInt(lo.Z())
	x1, y1, z1 := floorInt(hi.X()), floorInt(hi.Y()), floorInt(hi.Z())

	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				id := src.Block(x, y, z)
				if id == block.Air {
					continue
				}
				local := pos.Sub(vec.Vec3{X: x, Y: y, Z: z}.Float())
				if SolidAt(defs, id, local, collider) {
					return true
				}
			}
		}
	}
	return false
}

// AxisMask - оси, по которым движение упёрлось в блок
type AxisMask struct {
	X, Y, Z bool
}

// Any сообщает, что столкновение было хотя бы по одной оси
func (m AxisMask) Any() bool {
	return m.X || m.Y || m.Z
}

// CollisionMask перемещает коллайдер из from в to по одной оси за раз (X, Y, Z).
// Заблокированная ось откатывается к from перед проверкой следующей.
func CollisionMask(src BlockSource, defs *block.ModelDefs, from, to mgl32.Vec3, collider BoxCollider) AxisMask {
	var mask AxisMask
	pos := from

	pos[0] = to[0]
	if Colliding(src, defs, pos, collider) {
		mask.X = true
		pos[0] = from[0]
	}

	pos[1] = to[1]
	if Colliding(src, defs, pos, collider) {
		mask.Y = true
		pos[1] = from[1]
	}

	pos[2] = to[2]
	if Colliding(src, defs, pos, collider) {
		mask.Z = true
	}

	return mask
}

func floorInt(v float32) int {
	return int(math32.Floor(v))
}
