package implementations

import "github.com/annel0/voxel-engine/internal/world/block"

// Регистрируем поведения блоков при импорте пакета
func init() {
	block.Register(block.Glungus, &GlungusBehavior{Radius: 2})
}
