package physics

import (
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// RayStep - шаг марширования луча
const RayStep float32 = 0.01

// RayHit - результат попадания луча
type RayHit struct {
	Block  vec.Vec3 // Позиция блока
	Normal vec.Vec3 // Нормаль грани, через которую вошёл луч
}

// CastRay шагает от origin вдоль direction с шагом RayStep и возвращает первый
// непустой блок не дальше maxDistance. Нулевое или NaN направление - промах.
func CastRay(src BlockSource, origin, direction mgl32.Vec3, maxDistance float32) (RayHit, bool) {
	if !validDirection(direction) || !(maxDistance > 0) {
		return RayHit{}, false
	}

	steps := int(maxDistance / RayStep)
	step := direction.Mul(RayStep)
	pos := origin

	for i := 0; i < steps; i++ {
		bp := vec.FromFloat(pos)
		if src.Block(bp.X, bp.Y, bp.Z) != block.Air {
			return RayHit{Block: bp, Normal: FaceNormal(pos, bp)}, true
		}
		pos = pos.Add(step)
	}

	return RayHit{}, false
}

func validDirection(d mgl32.Vec3) bool {
	for _, c := range d {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return d.Len() > 0
}

// FaceNormal выбирает грань блока, ближайшую к точке попадания
func FaceNormal(hit mgl32.Vec3, blockPos vec.Vec3) vec.Vec3 {
	rel := hit.Sub(blockPos.Float())

	dx := math32.Abs(math32.Min(rel.X(), 1-rel.X()))
	dy := math32.Abs(math32.Min(rel.Y(), 1-rel.Y()))
	dz := math32.Abs(math32.Min(rel.Z(), 1-rel.Z()))
	m := math32.Min(dx, math32.Min(dy, dz))

	switch {
	case m == dx:
		return signedAxis(vec.East, rel.X())
	case m == dy:
		return signedAxis(vec.Up, rel.Y())
	default:
		return signedAxis(vec.South, rel.Z())
	}
}

// signedAxis возвращает positive или противоположный вектор при rel < 0.5
func signedAxis(positive vec.Vec3, rel float32) vec.Vec3 {
	if rel < 0.5 {
		return positive.Scale(-1)
	}
	return positive
}
