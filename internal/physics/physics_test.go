package physics

import (
	"math"
	"testing"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSource map[vec.Vec3]block.ID

func (m mapSource) Block(x, y, z int) block.ID {
	return m[vec.Vec3{X: x, Y: y, Z: z}]
}

var player = NewBoxCollider(0.6, 1.8)

func TestColliding_FullBlock(t *testing.T) {
	defs := block.DefaultModelDefs()
	src := mapSource{{}: block.Stone}

	assert.False(t, Colliding(src, defs, mgl32.Vec3{0.5, 1.0, 0.5}, player), "Стоя на блоке, игрок его не задевает")
	assert.True(t, Colliding(src, defs, mgl32.Vec3{0.5, 0.99, 0.5}, player))
	assert.True(t, Colliding(src, defs, mgl32.Vec3{1.2, 0.5, 0.5}, player), "Пересечение по X - столкновение")
	assert.False(t, Colliding(src, defs, mgl32.Vec3{1.4, 0.5, 0.5}, player))
}

func TestColliding_Slab(t *testing.T) {
	defs := block.DefaultModelDefs()
	src := mapSource{{}: block.PlanksSlabBottom}

	assert.False(t, Colliding(src, defs, mgl32.Vec3{0.5, 0.6, 0.5}, player), "Над нижним полублоком свободно")
	assert.True(t, Colliding(src, defs, mgl32.Vec3{0.5, 0.4, 0.5}, player))
}

func TestCollisionMask_AxisSeparation(t *testing.T) {
	defs := block.DefaultModelDefs()
	src := mapSource{
		{X: 2, Y: 5, Z: 0}: block.Stone,
		{X: 2, Y: 6, Z: 0}: block.Stone,
		{X: 2, Y: 7, Z: 0}: block.Stone,
	}

	from := mgl32.Vec3{1.4, 5, 0.5}
	to := mgl32.Vec3{1.8, 5, 1.5}

	mask := CollisionMask(src, defs, from, to, player)
	assert.Equal(t, AxisMask{X: true}, mask, "Стена блокирует только ось X")
	assert.True(t, mask.Any())

	free := CollisionMask(src, defs, from, mgl32.Vec3{1.0, 5.5, 0.5}, player)
	assert.False(t, free.Any())
}

func TestCollisionMask_Corner(t *testing.T) {
	defs := block.DefaultModelDefs()
	src := mapSource{}
	for y := 5; y <= 7; y++ {
		for i := 0; i <= 2; i++ {
			src[vec.Vec3{X: 2, Y: y, Z: i}] = block.Stone
			src[vec.Vec3{X: i, Y: y, Z: 2}] = block.Stone
		}
	}

	// Движение по диагонали в угол двух стен
	mask := CollisionMask(src, defs, mgl32.Vec3{1.5, 5, 1.5}, mgl32.Vec3{1.9, 5, 1.9}, player)
	assert.Equal(t, AxisMask{X: true, Z: true}, mask, "угол блокирует обе оси")
}

func TestCollisionMask_Floor(t *testing.T) {
	defs := block.DefaultModelDefs()
	src := mapSource{}
	for x := -1; x <= 1; x++ {
		for z := -1; z <= 1; z++ {
			src[vec.Vec3{X: x, Y: 0, Z: z}] = block.Stone
		}
	}

	mask := CollisionMask(src, defs, mgl32.Vec3{0.5, 1.1, 0.5}, mgl32.Vec3{0.6, 0.9, 0.5}, player)
	assert.Equal(t, AxisMask{Y: true}, mask)
}

func TestCheckBoxCollision(t *testing.T) {
	a := NewBoxCollider(1, 2)
	assert.True(t, CheckBoxCollision(mgl32.Vec3{0, 0, 0}, a, mgl32.Vec3{0.9, 1, 0}, a))
	assert.False(t, CheckBoxCollision(mgl32.Vec3{0, 0, 0}, a, mgl32.Vec3{1.1, 0, 0}, a))
}

func TestCastRay_HitAndNormal(t *testing.T) {
	src := mapSource{{X: 0, Y: 0, Z: -5}: block.Stone}

	hit, ok := CastRay(src, mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{0, 0, -1}, 10)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 0, Y: 0, Z: -5}, hit.Block)
	assert.Equal(t, vec.Vec3{Z: 1}, hit.Normal, "Луч входит через грань +Z")

	src = mapSource{{X: 3, Y: 0, Z: 0}: block.Glass}
	hit, ok = CastRay(src, mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}, 5)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 3}, hit.Block)
	assert.Equal(t, vec.Vec3{X: -1}, hit.Normal)
}

func TestCastRay_Miss(t *testing.T) {
	src := mapSource{{X: 0, Y: 0, Z: -5}: block.Stone}
	origin := mgl32.Vec3{0.5, 0.5, 0.5}

	_, ok := CastRay(src, origin, mgl32.Vec3{0, 0, -1}, 3)
	assert.False(t, ok, "Блок дальше дальности луча")

	_, ok = CastRay(src, origin, mgl32.Vec3{}, 10)
	assert.False(t, ok, "Нулевое направление - промах")

	_, ok = CastRay(src, origin, mgl32.Vec3{float32(math.NaN()), 0, -1}, 10)
	assert.False(t, ok, "NaN направление - промах")

	_, ok = CastRay(src, origin, mgl32.Vec3{0, 0, -1}, -1)
	assert.False(t, ok)
}

func TestFaceNormal(t *testing.T) {
	b := vec.Vec3{X: 2, Y: 1, Z: 3}
	assert.Equal(t, vec.Vec3{X: -1}, FaceNormal(mgl32.Vec3{2.0, 1.5, 3.5}, b))
	assert.Equal(t, vec.Vec3{Y: 1}, FaceNormal(mgl32.Vec3{2.5, 1.98, 3.5}, b))
	assert.Equal(t, vec.Vec3{Z: -1}, FaceNormal(mgl32.Vec3{2.5, 1.5, 3.01}, b))
}

func TestFrustum_ContainsBox(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, 0.1, 200)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	f := ExtractFrustum(proj.Mul4(view))

	assert.True(t, f.ContainsBox(cube.Box(-1, -1, -10, 1, 1, -8)), "Прямо перед камерой")
	assert.False(t, f.ContainsBox(cube.Box(-1, -1, 8, 1, 1, 10)), "Позади камеры")
	assert.False(t, f.ContainsBox(cube.Box(-1, -1, -310, 1, 1, -300)), "Дальше дальней плоскости")
	assert.False(t, f.ContainsBox(cube.Box(-100, -1, -10, -90, 1, -8)), "Левее угла обзора")
	assert.True(t, f.ContainsBox(cube.Box(-100, -100, -100, 100, 100, 100)), "Камера внутри бокса")

	for _, p := range f {
		assert.InDelta(t, 1, p.Vec3().Len(), 1e-4, "Плоскости нормированы")
	}
}

func TestFrustum_Identity(t *testing.T) {
	f := ExtractFrustum(mgl32.Ident4())

	assert.True(t, f.ContainsBox(cube.Box(-0.5, -0.5, -0.5, 0.5, 0.5, 0.5)))
	assert.True(t, f.ContainsBox(cube.Box(-3, -3, -3, 3, 3, 3)), "Пересекающий бокс не отсекается")
	assert.True(t, f.ContainsBox(cube.Box(0.5, 0.5, 0.5, 4, 4, 4)))
	assert.False(t, f.ContainsBox(cube.Box(-1, -1, 5, 1, 1, 6)), "Далеко позади")
	assert.False(t, f.ContainsBox(cube.Box(2, -1, -1, 3, 1, 1)))
}
