package physics

import (
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

// Frustum - шесть плоскостей пирамиды видимости (left, right, bottom, top, near, far).
// Плоскость (a,b,c,d) нормирована: точка p внутри, если a*px+b*py+c*pz+d >= 0.
type Frustum [6]mgl32.Vec4

// ExtractFrustum извлекает плоскости из матрицы проекция*вид
func ExtractFrustum(vp mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)

	f := Frustum{
		r3.Add(r0),
		r3.Sub(r0),
		r3.Add(r1),
		r3.Sub(r1),
		r3.Add(r2),
		r3.Sub(r2),
	}
	for i, p := range f {
		n := p.Vec3().Len()
		if n > 0 {
			f[i] = p.Mul(1 / n)
		}
	}
	return f
}

// ContainsBox проверяет AABB по положительной вершине каждой плоскости.
// Возможны ложные срабатывания на углах, но не ложные отсечения.
func (f Frustum) ContainsBox(box cube.BBox) bool {
	lo, hi := box.Min(), box.Max()
	for _, p := range f {
		v := lo
		if p.X() >= 0 {
			v[0] = hi.X()
		}
		if p.Y() >= 0 {
			v[1] = hi.Y()
		}
		if p.Z() >= 0 {
			v[2] = hi.Z()
		}
		if p.Vec3().Dot(v)+p.W() < 0 {
			return false
		}
	}
	return true
}
