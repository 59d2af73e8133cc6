package entity

import (
	"sync"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
)

// EntityManager хранит сущности мира в порядке добавления
type EntityManager struct {
	entities *orderedmap.OrderedMap[ID, Entity]
	mu       sync.RWMutex
}

// NewEntityManager создаёт новый менеджер сущностей
func NewEntityManager() *EntityManager {
	return &EntityManager{
		entities: orderedmap.NewOrderedMap[ID, Entity](),
	}
}

// SpawnEntity регистрирует сущность под новым уникальным ID
func (em *EntityManager) SpawnEntity(e Entity) ID {
	em.mu.Lock()
	defer em.mu.Unlock()

	for {
		id := NewID(e.Kind())
		if _, exists := em.entities.Get(id); !exists {
			em.entities.Set(id, e)
			return id
		}
	}
}

// Insert регистрирует сущность под заданным ID (загрузка сохранения).
// Существующая сущность с тем же ID заменяется.
func (em *EntityManager) Insert(id ID, e Entity) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.entities.Set(id, e)
}

// DespawnEntity удаляет сущность из мира
func (em *EntityManager) DespawnEntity(id ID) bool {
	em.mu.Lock()
	defer em.mu.Unlock()
	return em.entities.Delete(id)
}

// GetEntity возвращает сущность по ID
func (em *EntityManager) GetEntity(id ID) (Entity, bool) {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return em.entities.Get(id)
}

// Count возвращает количество сущностей
func (em *EntityManager) Count() int {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return em.entities.Len()
}

// Clear удаляет все сущности
func (em *EntityManager) Clear() {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.entities = orderedmap.NewOrderedMap[ID, Entity]()
}

type entry struct {
	id ID
	e  Entity
}

// snapshot копирует список сущностей, чтобы обход не держал блокировку
func (em *EntityManager) snapshot() []entry {
	em.mu.RLock()
	defer em.mu.RUnlock()

	out := make([]entry, 0, em.entities.Len())
	for el := em.entities.Front(); el != nil; el = el.Next() {
		out = append(out, entry{id: el.Key, e: el.Value})
	}
	return out
}

// ForEach обходит сущности в порядке добавления
func (em *EntityManager) ForEach(fn func(id ID, e Entity)) {
	for _, it := range em.snapshot() {
		fn(it.id, it.e)
	}
}

// GetEntitiesInRange возвращает сущности в указанном радиусе
func (em *EntityManager) GetEntitiesInRange(center mgl32.Vec3, radius float32) []Entity {
	var result []Entity
	for _, it := range em.snapshot() {
		if it.e.Position().Sub(center).LenSqr() <= radius*radius {
			result = append(result, it.e)
		}
	}
	return result
}

// PurgeRemoved удаляет сущности, запросившие удаление, и возвращает их ID
func (em *EntityManager) PurgeRemoved() []ID {
	em.mu.Lock()
	defer em.mu.Unlock()

	var removed []ID
	for el := em.entities.Front(); el != nil; el = el.Next() {
		if el.Value.RequestsRemoval() {
			removed = append(removed, el.Key)
		}
	}
	for _, id := range removed {
		em.entities.Delete(id)
	}
	return removed
}

// UpdateEntities выполняет тик для всех сущностей.
// Сущности, созданные во время прохода, обновятся на следующем тике.
func (em *EntityManager) UpdateEntities(api EntityAPI, input Input, dt float32) {
	for _, it := range em.snapshot() {
		it.e.Update(it.id, api, input, dt)
	}
}

// FindPlayer возвращает первого игрока в реестре
func (em *EntityManager) FindPlayer() (ID, *Player, bool) {
	for _, it := range em.snapshot() {
		if p, ok := it.e.(*Player); ok {
			return it.id, p, true
		}
	}
	return ID{}, nil, false
}
