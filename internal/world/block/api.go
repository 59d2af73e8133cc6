package block

import "github.com/go-gl/mathgl/mgl32"

// API определяет интерфейс для взаимодействия блоков с игровым миром.
// Через него поведение блока читает соседей, ломает блоки и порождает эффекты,
// не зная о внутреннем устройстве мира.
type API interface {
	// Block возвращает блок по мировым координатам (воздух для незагруженных чанков).
	Block(x, y, z int) ID

	// BreakBlock ломает блок с учётом его поведения.
	BreakBlock(x, y, z int)

	// SpawnExplosion создаёт визуальный эффект взрыва с отбрасыванием сущностей.
	SpawnExplosion(center mgl32.Vec3, size float32)
}
