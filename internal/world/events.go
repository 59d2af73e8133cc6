package world

import (
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/annel0/voxel-engine/internal/world/entity"
)

// EventType определяет тип события
type EventType uint8

const (
	EventTypeBlockChange   EventType = iota // Изменение блока
	EventTypeChunkLoad                      // Чанк стал резидентным
	EventTypeChunkUnload                    // Чанк выгружен
	EventTypeEntitySpawn                    // Создание сущности
	EventTypeEntityDespawn                  // Удаление сущности
)

// String возвращает имя типа события
func (t EventType) String() string {
	switch t {
	case EventTypeBlockChange:
		return "block_change"
	case EventTypeChunkLoad:
		return "chunk_load"
	case EventTypeChunkUnload:
		return "chunk_unload"
	case EventTypeEntitySpawn:
		return "entity_spawn"
	case EventTypeEntityDespawn:
		return "entity_despawn"
	default:
		return "unknown"
	}
}

// Event представляет собой интерфейс для всех событий
type Event interface {
	GetType() EventType
}

// BlockEvent публикуется при каждой записи блока через SetBlock
type BlockEvent struct {
	Position vec.Vec3 // Мировые координаты блока
	Old      block.ID // Прежнее значение (воздух для незагруженного чанка)
	New      block.ID
}

// GetType возвращает тип события
func (e BlockEvent) GetType() EventType {
	return EventTypeBlockChange
}

// ChunkEvent сообщает о загрузке или выгрузке чанка
type ChunkEvent struct {
	EventType EventType
	Coords    vec.Vec3
}

// GetType возвращает тип события
func (e ChunkEvent) GetType() EventType {
	return e.EventType
}

// EntityEvent сообщает о появлении или удалении сущности
type EntityEvent struct {
	EventType EventType
	ID        entity.ID
}

// GetType возвращает тип события
func (e EntityEvent) GetType() EventType {
	return e.EventType
}

// EventListener получает события мира синхронно на горутине владельца
type EventListener func(Event)

// MeshSink принимает результаты фазы построения мешей.
// Вызовы происходят на горутине владельца мира.
type MeshSink interface {
	// OnMesh передаёт новый меш чанка (возможно пустой, чтобы освободить буферы)
	OnMesh(coords vec.Vec3, mesh MeshData)
	// OnUnload сообщает, что чанк выгружен и его меш больше не нужен
	OnUnload(coords vec.Vec3)
}
