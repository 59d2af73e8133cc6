package entity

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/annel0/voxel-engine/internal/physics"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Параметры игрока
const (
	PlayerWidth         float32 = 0.6
	PlayerHeight        float32 = 1.8
	PlayerEyeHeight     float32 = 1.7
	PlayerSneakEye      float32 = 1.55
	DefaultFOV          float32 = 90
	NearPlane           float32 = 0.1
	FarPlane            float32 = 200
	MouseSensitivity    float32 = 0.1
	MaxPitch            float32 = 89
	ReachDistance       float32 = 5
	BreakPlaceCooldown          = 12
	walkAccel           float32 = 0.9
	slowAccel           float32 = 0.5
	sprintMultiplier    float32 = 1.5
	jumpAccel           float32 = 8
	gravity             float32 = 0.75
	airDrag             float32 = 0.2
	damping             float32 = 0.85
	sneakDamping        float32 = 0.5
	stepHeight          float32 = 0.55
	placeColliderWidth  float32 = 0.5
	groundProbeDistance         = 4
)

// SpawnPosition - стартовая позиция нового игрока
var SpawnPosition = mgl32.Vec3{0, 100, 0}

// Player - управляемая сущность: ходит, прыгает, ломает и ставит блоки
type Player struct {
	position    mgl32.Vec3
	oldPosition mgl32.Vec3
	velocity    mgl32.Vec3
	forward     mgl32.Vec3
	up          mgl32.Vec3
	yaw         float32
	pitch       float32
	fov         float32

	jumping  bool // В воздухе
	sneaking bool
	chatOpen bool

	keys  map[Key]bool
	mouse map[MouseButton]bool

	cooldown  int
	target    physics.RayHit
	hasTarget bool
	current   int // Индекс в block.Placeable
}

// NewPlayer создаёт игрока в позиции pos, смотрящего вдоль -Z
func NewPlayer(pos mgl32.Vec3) *Player {
	return &Player{
		position:    pos,
		oldPosition: pos,
		forward:     mgl32.Vec3{0, 0, -1},
		up:          mgl32.Vec3{0, 1, 0},
		yaw:         -90,
		fov:         DefaultFOV,
		keys:        make(map[Key]bool),
		mouse:       make(map[MouseButton]bool),
	}
}

func (p *Player) Kind() string                  { return KindPlayer }
func (p *Player) Position() mgl32.Vec3          { return p.position }
func (p *Player) Velocity() mgl32.Vec3          { return p.velocity }
func (p *Player) ApplyImpulse(delta mgl32.Vec3) { p.velocity = p.velocity.Add(delta) }
func (p *Player) Width() float32                { return PlayerWidth }
func (p *Player) Height() float32               { return PlayerHeight }
func (p *Player) RequestsRemoval() bool         { return false }
func (p *Player) Collider() physics.BoxCollider {
	return physics.NewBoxCollider(PlayerWidth, PlayerHeight)
}

// EyeHeight возвращает высоту глаз; при приседании она ниже
func (p *Player) EyeHeight() float32 {
	if p.sneaking {
		return PlayerSneakEye
	}
	return PlayerEyeHeight
}

// CameraPos возвращает позицию камеры
func (p *Player) CameraPos() mgl32.Vec3 {
	return p.position.Add(mgl32.Vec3{0, p.EyeHeight(), 0})
}

// Forward возвращает единичный вектор взгляда
func (p *Player) Forward() mgl32.Vec3 { return p.forward }

// Rotation возвращает рыскание и тангаж в градусах
func (p *Player) Rotation() (yaw, pitch float32) { return p.yaw, p.pitch }

// IsAirborne сообщает, что игрок не стоит на земле
func (p *Player) IsAirborne() bool { return p.jumping }

// IsSneaking сообщает, что игрок присел
func (p *Player) IsSneaking() bool { return p.sneaking }

// ChatOpen сообщает, открыт ли чат
func (p *Player) ChatOpen() bool { return p.chatOpen }

// Teleport переносит игрока и сбрасывает скорость
func (p *Player) Teleport(pos mgl32.Vec3) {
	p.position = pos
	p.oldPosition = pos
	p.velocity = mgl32.Vec3{}
}

// FOV возвращает угол обзора в градусах
func (p *Player) FOV() float32 { return p.fov }

// SetFOV задаёт угол обзора; значение ограничивается диапазоном (0, 180)
func (p *Player) SetFOV(deg float32) {
	p.fov = math32.Max(1, math32.Min(179, deg))
}

// Selected возвращает индекс и блок, выбранные для установки
func (p *Player) Selected() (int, block.ID) {
	return p.current, block.Placeable[p.current]
}

// SetSelected выбирает блок для установки по индексу (по модулю длины списка)
func (p *Player) SetSelected(i int) {
	n := len(block.Placeable)
	p.current = ((i % n) + n) % n
}

// Target возвращает блок под прицелом после последнего тика
func (p *Player) Target() (physics.RayHit, bool) {
	return p.target, p.hasTarget
}

// Look поворачивает камеру на смещение мыши
func (p *Player) Look(dx, dy float32) {
	p.SetRotation(p.yaw+dx*MouseSensitivity, p.pitch-dy*MouseSensitivity)
}

// SetRotation задаёт углы камеры; тангаж ограничивается ±89°
func (p *Player) SetRotation(yaw, pitch float32) {
	p.yaw = yaw
	p.pitch = math32.Max(-MaxPitch, math32.Min(MaxPitch, pitch))

	y := mgl32.DegToRad(p.yaw)
	pt := mgl32.DegToRad(p.pitch)
	p.forward = mgl32.Vec3{
		math32.Cos(y) * math32.Cos(pt),
		math32.Sin(pt),
		math32.Sin(y) * math32.Cos(pt),
	}.Normalize()
}

// View возвращает матрицу вида
func (p *Player) View() mgl32.Mat4 {
	eye := p.CameraPos()
	return mgl32.LookAtV(eye, eye.Add(p.forward), p.up)
}

// Projection возвращает перспективную проекцию для соотношения сторон aspect
func (p *Player) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(p.fov), aspect, NearPlane, FarPlane)
}

// ViewProjection возвращает произведение проекции и вида
func (p *Player) ViewProjection(aspect float32) mgl32.Mat4 {
	return p.Projection(aspect).Mul4(p.View())
}

func (p *Player) cycle(delta int) {
	p.SetSelected(p.current + delta)
}

func (p *Player) handleEvents(events []Event) {
	for _, ev := range events {
		switch ev.Kind {
		case EventKeyDown:
			switch ev.Key {
			case KeyLeft:
				p.cycle(-1)
			case KeyRight:
				p.cycle(1)
			case KeyT, KeySlash:
				p.chatOpen = true
			case KeyReturn, KeyEscape:
				p.chatOpen = false
			default:
				if !p.chatOpen {
					p.keys[ev.Key] = true
				}
			}
		case EventKeyUp:
			delete(p.keys, ev.Key)
		case EventMouseDown:
			p.mouse[ev.Button] = true
		case EventMouseUp:
			delete(p.mouse, ev.Button)
		case EventScroll:
			if ev.Scroll > 0 {
				p.cycle(-1)
			} else if ev.Scroll < 0 {
				p.cycle(1)
			}
		}
	}
}

// Update выполняет тик игрока: ввод, взаимодействие с блоками, физика
func (p *Player) Update(_ ID, api EntityAPI, input Input, dt float32) {
	if input.MouseDX != 0 || input.MouseDY != 0 {
		p.Look(input.MouseDX, input.MouseDY)
	}
	p.handleEvents(input.Events)

	p.sneaking = p.keys[KeyLShift] || p.keys[KeyRShift]
	p.target, p.hasTarget = api.CastRay(p.CameraPos(), p.forward, ReachDistance)

	p.accelerate(api)

	p.oldPosition = p.position
	if p.cooldown > 0 {
		p.cooldown--
	}
	p.interact(api)

	p.velocity[1] -= gravity - airDrag*p.velocity[1]
	p.position = p.position.Add(p.velocity.Mul(dt))
	if p.sneaking {
		p.velocity[0] *= sneakDamping
		p.velocity[2] *= sneakDamping
		p.velocity[1] *= damping
	} else {
		p.velocity = p.velocity.Mul(damping)
	}

	p.resolveCollisions(api)
}

// accelerate применяет ускорение от клавиш движения и прыжка
func (p *Player) accelerate(api EntityAPI) {
	accel := walkAccel
	below := api.Block(int(p.position.X()), int(p.position.Y())-groundProbeDistance, int(p.position.Z()))
	if p.sneaking || below == block.Air {
		accel = slowAccel
	}
	sprint := accel
	if !p.sneaking {
		sprint *= sprintMultiplier
	}

	flat := mgl32.Vec3{p.forward.X(), 0, p.forward.Z()}.Normalize()
	side := p.forward.Cross(p.up).Normalize()

	if p.keys[KeyW] {
		a := accel
		if p.keys[KeyLCtrl] || p.keys[KeyQ] {
			a = sprint
		}
		p.velocity = p.velocity.Add(flat.Mul(a))
	}
	if p.keys[KeyS] {
		p.velocity = p.velocity.Sub(flat.Mul(accel))
	}
	if p.keys[KeyA] {
		p.velocity = p.velocity.Sub(side.Mul(accel))
	}
	if p.keys[KeyD] {
		p.velocity = p.velocity.Add(side.Mul(accel))
	}
	if p.keys[KeySpace] && !p.jumping {
		p.velocity[1] += jumpAccel
	}
}

// interact ставит (ПКМ) или ломает (ЛКМ) блок под прицелом
func (p *Player) interact(api EntityAPI) {
	if p.cooldown != 0 || !p.hasTarget {
		return
	}

	if p.mouse[MouseRight] {
		pos := p.target.Block.Add(p.target.Normal)
		api.SetBlock(pos.X, pos.Y, pos.Z, block.Placeable[p.current])

		collider := physics.NewBoxCollider(placeColliderWidth, PlayerHeight)
		if api.CollisionMask(p.oldPosition, p.position, collider).Any() {
			api.SetBlock(pos.X, pos.Y, pos.Z, block.Air)
		}
		p.cooldown = BreakPlaceCooldown
	}

	if p.mouse[MouseLeft] && p.cooldown == 0 {
		b := p.target.Block
		if api.Block(b.X, b.Y, b.Z) != block.Bedrock {
			api.BreakBlock(b.X, b.Y, b.Z)
			p.cooldown = BreakPlaceCooldown
		}
	}
}

// resolveCollisions откатывает перемещение по заблокированным осям.
// По X/Z сначала пробуется подъём на ступеньку, если игрок на земле.
func (p *Player) resolveCollisions(api EntityAPI) {
	collider := p.Collider()
	mask := api.CollisionMask(p.oldPosition, p.position, collider)

	if mask.Y {
		p.position[1] = p.oldPosition[1]
		p.jumping = false
		p.velocity[1] = 0
	} else {
		p.jumping = true
	}

	if !mask.X && !mask.Z {
		return
	}

	stepped := mgl32.Vec3{p.position.X(), p.oldPosition.Y() + stepHeight, p.position.Z()}
	if !p.jumping && !api.IsColliding(stepped, collider) {
		p.position = stepped
		return
	}

	if mask.X {
		p.position[0] = p.oldPosition[0]
		p.velocity[0] = 0
	}
	if mask.Z {
		p.position[2] = p.oldPosition[2]
		p.velocity[2] = 0
	}
}

// playerState - раскладка данных игрока в сохранении (little-endian)
type playerState struct {
	Position [3]float32
	Velocity [3]float32
	Yaw      float32
	Pitch    float32
	FOV      float32
	Selected uint32
}

// MarshalBinary сериализует состояние игрока
func (p *Player) MarshalBinary() ([]byte, error) {
	s := playerState{
		Position: p.position,
		Velocity: p.velocity,
		Yaw:      p.yaw,
		Pitch:    p.pitch,
		FOV:      p.fov,
		Selected: uint32(p.current),
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, s); err != nil {
		return nil, fmt.Errorf("ошибка сериализации игрока: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalPlayer восстанавливает игрока из данных сохранения
func UnmarshalPlayer(data []byte) (*Player, error) {
	var s playerState
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &s); err != nil {
		return nil, fmt.Errorf("ошибка чтения игрока: %w", err)
	}

	p := NewPlayer(s.Position)
	p.velocity = s.Velocity
	p.SetRotation(s.Yaw, s.Pitch)
	p.SetFOV(s.FOV)
	p.SetSelected(int(s.Selected))
	return p, nil
}
