package entity

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// BillboardKind - вид эффекта
type BillboardKind uint32

const (
	BillboardExplosion BillboardKind = iota
)

// Параметры эффектов
const (
	EffectRadius     float32 = 3
	billboardFadeLen float32 = 30
	explosionLifeMul         = 25
)

// KnockbackMultiplier возвращает силу отбрасывания эффекта
func (k BillboardKind) KnockbackMultiplier() float32 {
	switch k {
	case BillboardExplosion:
		return 2
	default:
		return 0
	}
}

// UVRect возвращает прямоугольник тайла эффекта в атласе 12x12 (нормированные координаты)
func (k BillboardKind) UVRect() (lo, hi mgl32.Vec2) {
	const unit = float32(1) / 12
	tx := float32(uint32(k) % 12)
	ty := float32(uint32(k) / 12)
	return mgl32.Vec2{tx * unit, ty * unit}, mgl32.Vec2{(tx + 1) * unit, (ty + 1) * unit}
}

// Billboard - временный эффект в фиксированной точке. Один раз отталкивает
// соседние сущности, затухает и по истечении жизни просит удаления.
type Billboard struct {
	position  mgl32.Vec3
	size      float32
	startSize float32
	life      uint32
	kind      BillboardKind
	applied   bool
}

// NewBillboard создаёт эффект
func NewBillboard(pos mgl32.Vec3, size float32, life uint32, kind BillboardKind) *Billboard {
	return &Billboard{
		position:  pos,
		size:      size,
		startSize: size,
		life:      life,
		kind:      kind,
	}
}

// NewExplosion создаёт взрыв размера size; жизнь равна int(size)*25 тиков
func NewExplosion(pos mgl32.Vec3, size float32) *Billboard {
	return NewBillboard(pos, size, uint32(size)*explosionLifeMul, BillboardExplosion)
}

func (b *Billboard) Kind() string              { return KindBillboard }
func (b *Billboard) Position() mgl32.Vec3      { return b.position }
func (b *Billboard) Velocity() mgl32.Vec3      { return mgl32.Vec3{} }
func (b *Billboard) ApplyImpulse(mgl32.Vec3)   {}
func (b *Billboard) Width() float32            { return b.size }
func (b *Billboard) Height() float32           { return b.size }
func (b *Billboard) EyeHeight() float32        { return b.size / 2 }
func (b *Billboard) RequestsRemoval() bool     { return b.life == 0 }
func (b *Billboard) Size() float32             { return b.size }
func (b *Billboard) Life() uint32              { return b.life }
func (b *Billboard) EffectKind() BillboardKind { return b.kind }

// Update уменьшает жизнь и размер; на первом тике отталкивает соседей
func (b *Billboard) Update(id ID, api EntityAPI, _ Input, _ float32) {
	if b.life > 0 {
		b.life--
	}
	if b.life > 0 {
		b.size = b.startSize * float32(b.life) / billboardFadeLen
	}

	if b.applied {
		return
	}
	b.applied = true

	mult := b.kind.KnockbackMultiplier()
	api.ForEachEntity(func(other ID, e Entity) {
		if other == id || e.Kind() == KindBillboard {
			return
		}
		d := e.Position().Sub(b.position)
		distSq := d.LenSqr()
		if distSq <= 0 || distSq >= EffectRadius*EffectRadius {
			return
		}
		e.ApplyImpulse(d.Normalize().Mul((EffectRadius - math32.Sqrt(distSq)) * mult))
	})
}

// billboardState - раскладка данных эффекта в сохранении (little-endian)
type billboardState struct {
	Position  [3]float32
	Size      float32
	StartSize float32
	Life      uint32
	Kind      uint32
}

// MarshalBinary сериализует состояние эффекта
func (b *Billboard) MarshalBinary() ([]byte, error) {
	s := billboardState{
		Position:  b.position,
		Size:      b.size,
		StartSize: b.startSize,
		Life:      b.life,
		Kind:      uint32(b.kind),
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, s); err != nil {
		return nil, fmt.Errorf("ошибка сериализации эффекта: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBillboard восстанавливает эффект из данных сохранения
func UnmarshalBillboard(data []byte) (*Billboard, error) {
	var s billboardState
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &s); err != nil {
		return nil, fmt.Errorf("ошибка чтения эффекта: %w", err)
	}
	return &Billboard{
		position:  s.Position,
		size:      s.Size,
		startSize: s.StartSize,
		life:      s.Life,
		kind:      BillboardKind(s.Kind),
		applied:   true,
	}, nil
}
