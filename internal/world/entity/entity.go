package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/annel0/voxel-engine/internal/physics"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Имена типов сущностей. Используются в ID и в файле сохранения.
const (
	KindPlayer    = "Player"
	KindBillboard = "Billboard"
)

var (
	// ErrUnknownKind возвращается при загрузке сущности неизвестного типа
	ErrUnknownKind = errors.New("unknown entity kind")
	// ErrMalformedID возвращается при разборе некорректного ID
	ErrMalformedID = errors.New("malformed entity id")
)

// ID - уникальный идентификатор сущности: случайный номер и имя типа
type ID struct {
	Num  uint32
	Kind string
}

// NewID создаёт ID со случайным номером
func NewID(kind string) ID {
	return ID{Num: uuid.New().ID(), Kind: kind}
}

// String возвращает ID в виде "номер-тип"
func (id ID) String() string {
	return strconv.FormatUint(uint64(id.Num), 10) + "-" + id.Kind
}

// ParseID разбирает строку вида "номер-тип"
func ParseID(s string) (ID, error) {
	num, kind, ok := strings.Cut(s, "-")
	if !ok || kind == "" {
		return ID{}, fmt.Errorf("%w: %q", ErrMalformedID, s)
	}
	n, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q: %v", ErrMalformedID, s, err)
	}
	return ID{Num: uint32(n), Kind: kind}, nil
}

// Entity - симулируемый объект мира
type Entity interface {
	// Kind возвращает имя типа сущности
	Kind() string

	Position() mgl32.Vec3
	Velocity() mgl32.Vec3

	// ApplyImpulse добавляет delta к скорости
	ApplyImpulse(delta mgl32.Vec3)

	Width() float32
	Height() float32
	EyeHeight() float32

	// RequestsRemoval сообщает, что сущность нужно удалить в начале следующего прохода
	RequestsRemoval() bool

	// Update выполняет один тик симуляции
	Update(id ID, api EntityAPI, input Input, dt float32)

	// MarshalBinary возвращает данные сущности для файла сохранения
	MarshalBinary() ([]byte, error)
}

// EntityAPI предоставляет интерфейс для взаимодействия сущностей с миром
type EntityAPI interface {
	// Block возвращает блок по мировым координатам
	Block(x, y, z int) block.ID

	// SetBlock устанавливает блок и записывает изменение
	SetBlock(x, y, z int, id block.ID)

	// BreakBlock ломает блок с учётом особых эффектов
	BreakBlock(x, y, z int)

	// IsColliding проверяет столкновение коллайдера с блоками
	IsColliding(pos mgl32.Vec3, collider physics.BoxCollider) bool

	// CollisionMask пробует перемещение по осям X, Y, Z
	CollisionMask(from, to mgl32.Vec3, collider physics.BoxCollider) physics.AxisMask

	// CastRay ищет первый непустой блок вдоль луча
	CastRay(origin, direction mgl32.Vec3, maxDistance float32) (physics.RayHit, bool)

	// ForEachEntity обходит зарегистрированные сущности
	ForEachEntity(fn func(id ID, e Entity))
}

// Decode восстанавливает сущность из данных сохранения
func Decode(kind string, data []byte) (Entity, error) {
	switch kind {
	case KindPlayer:
		return UnmarshalPlayer(data)
	case KindBillboard:
		return UnmarshalBillboard(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}
