package world

import (
	"sort"
	"sync"
	"time"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/physics"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	_ "github.com/annel0/voxel-engine/internal/world/block/implementations"
	"github.com/annel0/voxel-engine/internal/world/entity"
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/samber/lo"
)

// DefaultRenderDistance - радиус резидентности в чанках
const DefaultRenderDistance = 8

// blockLog хранит блоки по чанкам, чтобы при загрузке чанка не обходить всю таблицу
type blockLog map[vec.Vec3]map[vec.Vec3]block.ID

func (l blockLog) set(key BlockKey, id block.ID) {
	m, ok := l[key.Chunk]
	if !ok {
		m = make(map[vec.Vec3]block.ID)
		l[key.Chunk] = m
	}
	m[key.Local] = id
}

func (l blockLog) setIfAbsent(key BlockKey, id block.ID) {
	if m, ok := l[key.Chunk]; ok {
		if _, exists := m[key.Local]; exists {
			return
		}
	}
	l.set(key, id)
}

func (l blockLog) get(key BlockKey) (block.ID, bool) {
	id, ok := l[key.Chunk][key.Local]
	return id, ok
}

func (l blockLog) len() int {
	n := 0
	for _, m := range l {
		n += len(m)
	}
	return n
}

// Change - одна запись журнала изменений
type Change struct {
	Key   BlockKey
	Block block.ID
}

// Stats - сводка состояния мира для консоли администратора
type Stats struct {
	Seed           int32 `json:"seed"`
	RenderDistance int   `json:"render_distance"`
	Resident       int   `json:"resident_chunks"`
	Visible        int   `json:"visible_chunks"`
	Queued         int   `json:"queued_chunks"`
	Dirty          int   `json:"dirty_chunks"`
	Entities       int   `json:"entities"`
	Changes        int   `json:"changes"`
	Overspill      int   `json:"overspill"`
}

// World владеет чанками, журналом изменений, таблицей переноса и сущностями.
// Все методы вызываются с одной горутины (тик движка); параллельно работает
// только генерация (в пуле) и построение мешей внутри MeshPhase.
type World struct {
	chunks    map[vec.Vec3]*Chunk
	changes   blockLog
	overspill blockLog
	queued    map[vec.Vec3]struct{}
	visible   map[vec.Vec3]struct{}

	entities *entity.EntityManager

	prevVP mgl32.Mat4
	hasVP  bool

	generator      *Generator
	defs           *block.ModelDefs
	renderDistance int

	listeners []EventListener
	sink      MeshSink
}

// NewWorld создаёт пустой мир с игроком в точке появления
func NewWorld(generator *Generator, defs *block.ModelDefs) *World {
	RegisterMetrics()

	w := &World{
		chunks:         make(map[vec.Vec3]*Chunk),
		changes:        make(blockLog),
		overspill:      make(blockLog),
		queued:         make(map[vec.Vec3]struct{}),
		visible:        make(map[vec.Vec3]struct{}),
		entities:       entity.NewEntityManager(),
		generator:      generator,
		defs:           defs,
		renderDistance: DefaultRenderDistance,
	}
	w.SpawnEntity(entity.NewPlayer(entity.SpawnPosition))
	return w
}

// Seed возвращает сид генератора
func (w *World) Seed() int32 {
	return w.generator.Seed()
}

// Generator возвращает генератор мира (для пула воркеров)
func (w *World) Generator() *Generator {
	return w.generator
}

// ModelDefs возвращает описания моделей блоков
func (w *World) ModelDefs() *block.ModelDefs {
	return w.defs
}

// RenderDistance возвращает радиус резидентности в чанках
func (w *World) RenderDistance() int {
	return w.renderDistance
}

// SetRenderDistance меняет радиус резидентности. Значения меньше 1 игнорируются.
func (w *World) SetRenderDistance(r int) {
	if r < 1 {
		return
	}
	w.renderDistance = r
}

// SetMeshSink подключает получателя мешей
func (w *World) SetMeshSink(sink MeshSink) {
	w.sink = sink
}

// Subscribe добавляет слушателя событий мира
func (w *World) Subscribe(l EventListener) {
	w.listeners = append(w.listeners, l)
}

func (w *World) publish(e Event) {
	for _, l := range w.listeners {
		l(e)
	}
}

// Entities возвращает реестр сущностей
func (w *World) Entities() *entity.EntityManager {
	return w.entities
}

// Player возвращает основного игрока
func (w *World) Player() (entity.ID, *entity.Player, bool) {
	return w.entities.FindPlayer()
}

// PlayerPosition возвращает позицию игрока или точку появления, если игрока нет
func (w *World) PlayerPosition() mgl32.Vec3 {
	if _, p, ok := w.entities.FindPlayer(); ok {
		return p.Position()
	}
	return entity.SpawnPosition
}

// PlayerChunk возвращает чанк, в котором стоит игрок
func (w *World) PlayerChunk() vec.Vec3 {
	pos := w.PlayerPosition().Mul(1.0 / ChunkSize)
	return vec.Vec3{
		X: int(math32.Floor(pos.X())),
		Y: int(math32.Floor(pos.Y())),
		Z: int(math32.Floor(pos.Z())),
	}
}

func (w *World) inRange(center, coords vec.Vec3) bool {
	return coords.Sub(center).LengthSquared() <= w.renderDistance*w.renderDistance
}

// --- Чанки ---

// Chunk возвращает резидентный чанк
func (w *World) Chunk(coords vec.Vec3) (*Chunk, bool) {
	c, ok := w.chunks[coords]
	return c, ok
}

// ChunkExists проверяет, загружен ли чанк
func (w *World) ChunkExists(coords vec.Vec3) bool {
	_, ok := w.chunks[coords]
	return ok
}

// ResidentChunks возвращает отсортированный список загруженных чанков
func (w *World) ResidentChunks() []vec.Vec3 {
	return sortedCoords(lo.Keys(w.chunks))
}

// IsQueued сообщает, ожидает ли чанк генерации
func (w *World) IsQueued(coords vec.Vec3) bool {
	_, ok := w.queued[coords]
	return ok
}

func (w *World) neighbours(coords vec.Vec3) Neighbours {
	var n Neighbours
	for i, off := range vec.Neighbours {
		n[i] = w.chunks[coords.Add(off)]
	}
	return n
}

// RequestChunks ставит в пул генерации все чанки в радиусе, которые не загружены
// и ещё не запрошены. Возвращает число новых задач.
func (w *World) RequestChunks(pool *GenerationPool) int {
	center := w.PlayerChunk()
	r := w.renderDistance
	submitted := 0

	for x := -r; x <= r; x++ {
		for y := -r; y <= r; y++ {
			for z := -r; z <= r; z++ {
				offset := vec.Vec3{X: x, Y: y, Z: z}
				if offset.LengthSquared() > r*r {
					continue
				}
				coords := center.Add(offset)
				if w.ChunkExists(coords) || w.IsQueued(coords) {
					continue
				}
				// Очередь полна: остальное запросим на следующем тике
				if !pool.Submit(coords) {
					return submitted
				}
				w.queued[coords] = struct{}{}
				submitted++
			}
		}
	}
	return submitted
}

// DrainResults забирает готовые чанки без блокировки и вливает их в мир.
// Ошибка воркера возвращается сразу: движок должен остановиться.
func (w *World) DrainResults(results <-chan GenerationResult) (int, error) {
	merged := 0
	for {
		select {
		case res := <-results:
			if res.Err != nil {
				delete(w.queued, res.Coords)
				return merged, res.Err
			}
			if w.AddChunk(res.Chunk, res.Overspill) {
				merged++
			}
		default:
			return merged, nil
		}
	}
}

// AddChunk вливает сгенерированный чанк. Порядок: блоки из таблицы переноса,
// затем журнал изменений, затем перенос нового чанка в таблицу (без перезаписи).
// Чанк вне радиуса отбрасывается.
func (w *World) AddChunk(c *Chunk, overspill Overspill) bool {
	coords := c.Coords
	delete(w.queued, coords)

	if !w.inRange(w.PlayerChunk(), coords) {
		droppedResults.Inc()
		logging.Trace("Чанк %s вне радиуса, отброшен", coords)
		return false
	}
	if w.ChunkExists(coords) {
		return false
	}

	for local, id := range w.overspill[coords] {
		c.SetBlock(local.X, local.Y, local.Z, id)
	}
	delete(w.overspill, coords)

	for local, id := range w.changes[coords] {
		c.SetBlock(local.X, local.Y, local.Z, id)
	}

	for key, id := range overspill {
		w.applyOverspill(key, id)
	}

	c.MarkDirty()
	w.chunks[coords] = c
	for _, n := range w.neighbours(coords) {
		if n != nil {
			n.MarkDirty()
		}
	}
	w.hasVP = false

	residentChunks.Set(float64(len(w.chunks)))
	w.publish(ChunkEvent{EventType: EventTypeChunkLoad, Coords: coords})
	return true
}

// applyOverspill дописывает блок соседнего чанка. Загруженный сосед получает его
// сразу, если клетка пуста и не тронута игроком. Остальное ждёт в таблице.
func (w *World) applyOverspill(key BlockKey, id block.ID) {
	c, ok := w.chunks[key.Chunk]
	if !ok {
		w.overspill.setIfAbsent(key, id)
		return
	}
	if _, edited := w.changes.get(key); edited {
		return
	}
	if c.Block(key.Local.X, key.Local.Y, key.Local.Z) != block.Air {
		return
	}
	c.SetBlock(key.Local.X, key.Local.Y, key.Local.Z, id)
	c.MarkDirty()
	w.dirtyBorder(key)
}

// RemoveChunk выгружает чанк и сообщает получателю мешей.
// Соседи перестраиваются: их грани на месте выгруженного чанка открылись.
func (w *World) RemoveChunk(coords vec.Vec3) bool {
	if !w.ChunkExists(coords) {
		return false
	}
	delete(w.chunks, coords)
	delete(w.visible, coords)
	w.hasVP = false
	for _, n := range w.neighbours(coords) {
		if n != nil {
			n.MarkDirty()
		}
	}

	if w.sink != nil {
		w.sink.OnUnload(coords)
	}
	residentChunks.Set(float64(len(w.chunks)))
	w.publish(ChunkEvent{EventType: EventTypeChunkUnload, Coords: coords})
	return true
}

// retainInRange выгружает чанки дальше радиуса от игрока
func (w *World) retainInRange() int {
	center := w.PlayerChunk()
	removed := 0
	for _, coords := range lo.Keys(w.chunks) {
		if !w.inRange(center, coords) {
			w.RemoveChunk(coords)
			removed++
		}
	}
	return removed
}

// --- Блоки ---

// Block возвращает блок по мировым координатам. Незагруженный чанк даёт воздух.
func (w *World) Block(x, y, z int) block.ID {
	key := KeyFor(vec.Vec3{X: x, Y: y, Z: z})
	c, ok := w.chunks[key.Chunk]
	if !ok {
		return block.Air
	}
	return c.Block(key.Local.X, key.Local.Y, key.Local.Z)
}

// SetBlock ставит блок и записывает его в журнал изменений.
// Для незагруженного чанка запись применится при его загрузке.
// Блок на границе чанка помечает соседа грязным.
func (w *World) SetBlock(x, y, z int, id block.ID) {
	pos := vec.Vec3{X: x, Y: y, Z: z}
	key := KeyFor(pos)

	old := block.Air
	if c, ok := w.chunks[key.Chunk]; ok {
		old = c.Block(key.Local.X, key.Local.Y, key.Local.Z)
		c.SetBlock(key.Local.X, key.Local.Y, key.Local.Z, id)
		w.dirtyBorder(key)
	}
	w.changes.set(key, id)

	w.publish(BlockEvent{Position: pos, Old: old, New: id})
}

func (w *World) dirtyBorder(key BlockKey) {
	mark := func(offset vec.Vec3) {
		// Грань могла замуровать или открыть соседа
		w.hasVP = false
		if n, ok := w.chunks[key.Chunk.Add(offset)]; ok {
			n.MarkDirty()
		}
	}
	l := key.Local
	if l.X == 0 {
		mark(vec.West)
	}
	if l.X == ChunkSize-1 {
		mark(vec.East)
	}
	if l.Y == 0 {
		mark(vec.Down)
	}
	if l.Y == ChunkSize-1 {
		mark(vec.Up)
	}
	if l.Z == 0 {
		mark(vec.North)
	}
	if l.Z == ChunkSize-1 {
		mark(vec.South)
	}
}

// BreakBlock заменяет блок воздухом и запускает его поведение.
// Воздух и бедрок не ломаются.
func (w *World) BreakBlock(x, y, z int) {
	id := w.Block(x, y, z)
	if id == block.Air || id == block.Bedrock {
		return
	}

	w.SetBlock(x, y, z, block.Air)

	if behavior, ok := block.Get(id); ok {
		behavior.OnBreak(w, x, y, z)
	}
}

// SpawnExplosion создаёт эффект взрыва
func (w *World) SpawnExplosion(center mgl32.Vec3, size float32) {
	w.SpawnEntity(entity.NewExplosion(center, size))
}

// Changes возвращает журнал изменений, отсортированный по мировой позиции
func (w *World) Changes() []Change {
	out := make([]Change, 0, w.changes.len())
	for chunk, m := range w.changes {
		for local, id := range m {
			out = append(out, Change{Key: BlockKey{Chunk: chunk, Local: local}, Block: id})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return lessCoords(out[i].Key.World(), out[j].Key.World())
	})
	return out
}

// ChangeCount возвращает размер журнала изменений
func (w *World) ChangeCount() int {
	return w.changes.len()
}

// OverspillAt возвращает ожидающий блок таблицы переноса
func (w *World) OverspillAt(key BlockKey) (block.ID, bool) {
	return w.overspill.get(key)
}

// --- Сущности ---

// SpawnEntity регистрирует сущность и возвращает её ID
func (w *World) SpawnEntity(e entity.Entity) entity.ID {
	id := w.entities.SpawnEntity(e)
	entityCount.Set(float64(w.entities.Count()))
	w.publish(EntityEvent{EventType: EventTypeEntitySpawn, ID: id})
	return id
}

// InsertEntity добавляет сущность с известным ID (загрузка сохранения)
func (w *World) InsertEntity(id entity.ID, e entity.Entity) {
	w.entities.Insert(id, e)
	entityCount.Set(float64(w.entities.Count()))
	w.publish(EntityEvent{EventType: EventTypeEntitySpawn, ID: id})
}

// ForEachEntity обходит сущности в порядке добавления
func (w *World) ForEachEntity(fn func(id entity.ID, e entity.Entity)) {
	w.entities.ForEach(fn)
}

// Update выполняет тик симуляции: выгрузка дальних чанков, удаление
// отработавших сущностей и обновление остальных.
func (w *World) Update(input entity.Input, dt float32) {
	if n := w.retainInRange(); n > 0 {
		logging.Debug("Выгружено чанков: %d", n)
	}

	for _, id := range w.entities.PurgeRemoved() {
		w.publish(EntityEvent{EventType: EventTypeEntityDespawn, ID: id})
	}

	w.entities.UpdateEntities(w, input, dt)
	entityCount.Set(float64(w.entities.Count()))
}

// --- Физика ---

// IsColliding проверяет столкновение коллайдера с блоками мира
func (w *World) IsColliding(pos mgl32.Vec3, collider physics.BoxCollider) bool {
	return physics.Colliding(w, w.defs, pos, collider)
}

// CollisionMask пробует перемещение from -> to по осям X, Y, Z
func (w *World) CollisionMask(from, to mgl32.Vec3, collider physics.BoxCollider) physics.AxisMask {
	return physics.CollisionMask(w, w.defs, from, to, collider)
}

// CastRay ищет первый непустой блок вдоль луча
func (w *World) CastRay(origin, direction mgl32.Vec3, maxDistance float32) (physics.RayHit, bool) {
	return physics.CastRay(w, origin, direction, maxDistance)
}

// --- Видимость и меши ---

// ChunkBox возвращает границы чанка в мировых координатах
func ChunkBox(coords vec.Vec3) cube.BBox {
	o := coords.Scale(ChunkSize).Float()
	return cube.Box(o.X(), o.Y(), o.Z(), o.X()+ChunkSize, o.Y()+ChunkSize, o.Z()+ChunkSize)
}

// UpdateVisibility пересчитывает набор видимых чанков.
// Если матрица не изменилась и набор чанков тот же, пересчёт пропускается.
func (w *World) UpdateVisibility(vp mgl32.Mat4) {
	if w.hasVP && w.prevVP == vp {
		return
	}
	w.prevVP = vp
	w.hasVP = true

	frustum := physics.ExtractFrustum(vp)
	w.visible = make(map[vec.Vec3]struct{}, len(w.visible))
	for coords := range w.chunks {
		if !frustum.ContainsBox(ChunkBox(coords)) {
			continue
		}
		if w.neighbours(coords).Enclosed() {
			continue
		}
		w.visible[coords] = struct{}{}
	}
	visibleChunks.Set(float64(len(w.visible)))
}

// IsVisible сообщает, попал ли чанк в последний расчёт видимости
func (w *World) IsVisible(coords vec.Vec3) bool {
	_, ok := w.visible[coords]
	return ok
}

// VisibleChunks возвращает отсортированный список видимых чанков
func (w *World) VisibleChunks() []vec.Vec3 {
	return sortedCoords(lo.Keys(w.visible))
}

type meshJob struct {
	coords vec.Vec3
	chunk  *Chunk
	n      Neighbours
	skip   bool
	mesh   MeshData
}

// MeshPhase перестраивает меши всех грязных чанков.
// Пустые и замурованные чанки получают пустой меш. Возвращает число обработанных чанков.
func (w *World) MeshPhase() int {
	start := time.Now()

	var jobs []*meshJob
	for coords, c := range w.chunks {
		if !c.IsDirty() {
			continue
		}
		n := w.neighbours(coords)
		jobs = append(jobs, &meshJob{
			coords: coords,
			chunk:  c,
			n:      n,
			skip:   c.IsEmpty() || n.Enclosed(),
		})
	}
	if len(jobs) == 0 {
		return 0
	}

	// Чанки только читаются, поэтому меши строятся параллельно
	var wg sync.WaitGroup
	for _, job := range jobs {
		if job.skip {
			continue
		}
		wg.Add(1)
		go func(job *meshJob) {
			defer wg.Done()
			job.mesh = Mesh(job.chunk, job.n, w.defs)
		}(job)
	}
	wg.Wait()

	sort.Slice(jobs, func(i, j int) bool { return lessCoords(jobs[i].coords, jobs[j].coords) })
	for _, job := range jobs {
		job.chunk.ClearDirty()
		if w.sink != nil {
			w.sink.OnMesh(job.coords, job.mesh)
		}
	}

	meshedChunks.Add(float64(len(jobs)))
	meshSeconds.Observe(time.Since(start).Seconds())
	return len(jobs)
}

// DirtyCount возвращает число чанков, ждущих перестроения меша
func (w *World) DirtyCount() int {
	return len(lo.Filter(lo.Values(w.chunks), func(c *Chunk, _ int) bool { return c.IsDirty() }))
}

// Stats возвращает сводку состояния мира
func (w *World) Stats() Stats {
	return Stats{
		Seed:           w.Seed(),
		RenderDistance: w.renderDistance,
		Resident:       len(w.chunks),
		Visible:        len(w.visible),
		Queued:         len(w.queued),
		Dirty:          w.DirtyCount(),
		Entities:       w.entities.Count(),
		Changes:        w.changes.len(),
		Overspill:      w.overspill.len(),
	}
}

func lessCoords(a, b vec.Vec3) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

func sortedCoords(coords []vec.Vec3) []vec.Vec3 {
	sort.Slice(coords, func(i, j int) bool { return lessCoords(coords[i], coords[j]) })
	return coords
}
