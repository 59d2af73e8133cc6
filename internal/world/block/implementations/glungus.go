package implementations

import (
	"math/rand"

	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// GlungusBehavior - взрывная руда: при разрушении расчищает сферу и порождает взрыв
type GlungusBehavior struct {
	Radius int
}

// OnBreak ломает все блоки в сфере радиуса Radius (рекурсивно через API,
// поэтому соседняя руда тоже взрывается) и создаёт эффект взрыва в центре блока.
func (g *GlungusBehavior) OnBreak(api block.API, x, y, z int) {
	r := g.Radius
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			for dz := -r; dz <= r; dz++ {
				if dx*dx+dy*dy+dz*dz > r*r {
					continue
				}
				// Воздух и бедрок ломаются как no-op, поэтому рекурсия конечна
				api.BreakBlock(x+dx, y+dy, z+dz)
			}
		}
	}

	size := 1 + rand.Float32()
	api.SpawnExplosion(mgl32.Vec3{float32(x) + 0.5, float32(y) + 0.5, float32(z) + 0.5}, size)
}
