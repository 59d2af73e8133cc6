package world

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/annel0/voxel-engine/internal/world/entity"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink запоминает меши и выгрузки
type recordingSink struct {
	meshes   map[vec.Vec3]MeshData
	unloaded []vec.Vec3
}

func newRecordingSink() *recordingSink {
	return &recordingSink{meshes: make(map[vec.Vec3]MeshData)}
}

func (s *recordingSink) OnMesh(coords vec.Vec3, mesh MeshData) { s.meshes[coords] = mesh }
func (s *recordingSink) OnUnload(coords vec.Vec3)              { s.unloaded = append(s.unloaded, coords) }

// Игрок стоит в (0,100,0), то есть в чанке (0,6,0)
func newTestWorld(t *testing.T) *World {
	t.Helper()
	return NewWorld(NewGenerator(42), block.DefaultModelDefs())
}

func addEmpty(t *testing.T, w *World, coords vec.Vec3) *Chunk {
	t.Helper()
	c := NewChunk(coords)
	require.True(t, w.AddChunk(c, nil), "чанк %v должен быть принят", coords)
	return c
}

func TestWorld_NewHasPlayer(t *testing.T) {
	w := newTestWorld(t)

	_, p, ok := w.Player()
	require.True(t, ok)
	assert.Equal(t, entity.SpawnPosition, p.Position())
	assert.Equal(t, vec.Vec3{X: 0, Y: 6, Z: 0}, w.PlayerChunk())
	assert.Equal(t, int32(42), w.Seed())
	assert.Equal(t, DefaultRenderDistance, w.RenderDistance())
}

func TestWorld_UnloadedBlockIsAir(t *testing.T) {
	w := newTestWorld(t)
	assert.Equal(t, block.Air, w.Block(3, -200, 7))
}

func TestWorld_SetBlockDirtiesBorderNeighbours(t *testing.T) {
	w := newTestWorld(t)
	center := addEmpty(t, w, vec.Vec3{})
	west := addEmpty(t, w, vec.Vec3{X: -1})
	up := addEmpty(t, w, vec.Vec3{Y: 1})
	for _, c := range []*Chunk{center, west, up} {
		c.ClearDirty()
	}

	// Внутренний блок не трогает соседей
	w.SetBlock(5, 5, 5, block.Stone)
	assert.True(t, center.IsDirty())
	assert.False(t, west.IsDirty())
	assert.False(t, up.IsDirty())

	center.ClearDirty()
	w.SetBlock(0, 15, 3, block.Stone)
	assert.True(t, center.IsDirty())
	assert.True(t, west.IsDirty(), "x=0 должен пометить западного соседа")
	assert.True(t, up.IsDirty(), "y=15 должен пометить верхнего соседа")
	assert.Equal(t, block.Stone, w.Block(0, 15, 3))
}

func TestWorld_SetBlockOnUnloadedChunkAppliedOnLoad(t *testing.T) {
	w := newTestWorld(t)

	w.SetBlock(-1, 20, 33, block.Brick)
	assert.Equal(t, block.Air, w.Block(-1, 20, 33))
	assert.Equal(t, 1, w.ChangeCount())

	c := addEmpty(t, w, vec.Vec3{X: -1, Y: 1, Z: 2})
	assert.Equal(t, block.Brick, c.Block(15, 4, 1))
	assert.Equal(t, block.Brick, w.Block(-1, 20, 33))
}

func TestWorld_OverspillThenChangeLog(t *testing.T) {
	w := newTestWorld(t)
	target := vec.Vec3{X: 1}
	keyA := BlockKey{Chunk: target, Local: vec.Vec3{X: 0, Y: 6, Z: 0}}
	keyB := BlockKey{Chunk: target, Local: vec.Vec3{X: 0, Y: 7, Z: 0}}

	// Игрок сломал блок, пока соседа ещё не было
	w.SetBlock(16, 6, 0, block.Air)

	source := NewChunk(vec.Vec3{})
	require.True(t, w.AddChunk(source, Overspill{keyA: block.Leaves, keyB: block.Leaves}))

	got, ok := w.OverspillAt(keyA)
	require.True(t, ok)
	assert.Equal(t, block.Leaves, got)

	// Повторный перенос в ту же клетку не перезаписывает первый
	other := NewChunk(vec.Vec3{Z: 1})
	require.True(t, w.AddChunk(other, Overspill{keyB: block.OakLog}))
	got, _ = w.OverspillAt(keyB)
	assert.Equal(t, block.Leaves, got)

	c := addEmpty(t, w, target)
	assert.Equal(t, block.Air, c.Block(0, 6, 0), "журнал изменений применяется после переноса")
	assert.Equal(t, block.Leaves, c.Block(0, 7, 0))

	_, ok = w.OverspillAt(keyB)
	assert.False(t, ok, "применённый перенос удаляется из таблицы")
}

func TestWorld_OverspillIntoResidentChunk(t *testing.T) {
	w := newTestWorld(t)

	// Верхний чанк сгенерировался раньше чанка с деревом
	above := addEmpty(t, w, vec.Vec3{Y: 1})
	above.SetBlock(3, 2, 3, block.Stone)
	w.SetBlock(4, 17, 3, block.Air)
	w.MeshPhase()
	require.False(t, above.IsDirty())

	leaves := BlockKey{Chunk: vec.Vec3{Y: 1}, Local: vec.Vec3{X: 3, Y: 1, Z: 3}}
	occupied := BlockKey{Chunk: vec.Vec3{Y: 1}, Local: vec.Vec3{X: 3, Y: 2, Z: 3}}
	edited := BlockKey{Chunk: vec.Vec3{Y: 1}, Local: vec.Vec3{X: 4, Y: 1, Z: 3}}
	require.True(t, w.AddChunk(NewChunk(vec.Vec3{}), Overspill{
		leaves:   block.Leaves,
		occupied: block.Leaves,
		edited:   block.Leaves,
	}))

	assert.Equal(t, block.Leaves, above.Block(3, 1, 3), "крона дерева не обрезается")
	assert.Equal(t, block.Stone, above.Block(3, 2, 3), "перенос заменяет только воздух")
	assert.Equal(t, block.Air, above.Block(4, 1, 3), "правка игрока важнее переноса")
	assert.True(t, above.IsDirty())

	for _, key := range []BlockKey{leaves, occupied, edited} {
		_, parked := w.OverspillAt(key)
		assert.False(t, parked, "перенос в загруженный чанк не остаётся в таблице")
	}
}

func TestWorld_AddChunkOutOfRangeDiscarded(t *testing.T) {
	w := newTestWorld(t)

	far := NewChunk(vec.Vec3{X: 20})
	assert.False(t, w.AddChunk(far, nil))
	assert.False(t, w.ChunkExists(far.Coords))

	// Дубликат тоже не принимается
	addEmpty(t, w, vec.Vec3{})
	assert.False(t, w.AddChunk(NewChunk(vec.Vec3{}), nil))
}

func TestWorld_UpdateUnloadsFarChunks(t *testing.T) {
	w := newTestWorld(t)
	sink := newRecordingSink()
	w.SetMeshSink(sink)

	var unloaded []vec.Vec3
	w.Subscribe(func(e Event) {
		if ce, ok := e.(ChunkEvent); ok && ce.GetType() == EventTypeChunkUnload {
			unloaded = append(unloaded, ce.Coords)
		}
	})

	addEmpty(t, w, vec.Vec3{})
	addEmpty(t, w, vec.Vec3{Y: 6})

	_, p, _ := w.Player()
	p.Teleport(mgl32.Vec3{1000, 100, 0})
	w.Update(entity.Input{}, 0)

	assert.Empty(t, w.ResidentChunks())
	assert.ElementsMatch(t, []vec.Vec3{{}, {Y: 6}}, sink.unloaded)
	assert.ElementsMatch(t, []vec.Vec3{{}, {Y: 6}}, unloaded)
}

func TestWorld_BreakGlungus(t *testing.T) {
	w := newTestWorld(t)
	c := addEmpty(t, w, vec.Vec3{})
	c.Fill(block.Stone)
	w.SetBlock(8, 8, 8, block.Glungus)
	w.SetBlock(9, 8, 8, block.Bedrock)

	w.BreakBlock(8, 8, 8)

	assert.Equal(t, block.Air, w.Block(8, 8, 8))
	assert.Equal(t, block.Air, w.Block(10, 8, 8))
	assert.Equal(t, block.Air, w.Block(7, 7, 7))
	assert.Equal(t, block.Stone, w.Block(10, 9, 8), "d² = 5 за пределами сферы")
	assert.Equal(t, block.Bedrock, w.Block(9, 8, 8))

	var billboards []*entity.Billboard
	w.ForEachEntity(func(_ entity.ID, e entity.Entity) {
		if b, ok := e.(*entity.Billboard); ok {
			billboards = append(billboards, b)
		}
	})
	require.Len(t, billboards, 1)
	assert.Equal(t, mgl32.Vec3{8.5, 8.5, 8.5}, billboards[0].Position())
	assert.GreaterOrEqual(t, billboards[0].Size(), float32(1))
	assert.Less(t, billboards[0].Size(), float32(2))
}

func TestWorld_BreakAirAndBedrockNoop(t *testing.T) {
	w := newTestWorld(t)
	addEmpty(t, w, vec.Vec3{})
	w.SetBlock(1, 1, 1, block.Bedrock)
	before := w.ChangeCount()

	w.BreakBlock(1, 1, 1)
	w.BreakBlock(2, 2, 2)

	assert.Equal(t, block.Bedrock, w.Block(1, 1, 1))
	assert.Equal(t, before, w.ChangeCount())
	assert.Equal(t, 1, w.Entities().Count())
}

func TestWorld_BlockEvents(t *testing.T) {
	w := newTestWorld(t)
	addEmpty(t, w, vec.Vec3{})

	var events []BlockEvent
	w.Subscribe(func(e Event) {
		if be, ok := e.(BlockEvent); ok {
			events = append(events, be)
		}
	})

	w.SetBlock(1, 2, 3, block.Dirt)
	w.SetBlock(1, 2, 3, block.Grass)

	require.Len(t, events, 2)
	assert.Equal(t, BlockEvent{Position: vec.Vec3{X: 1, Y: 2, Z: 3}, Old: block.Air, New: block.Dirt}, events[0])
	assert.Equal(t, block.Dirt, events[1].Old)
}

func TestWorld_VisibilityFrustum(t *testing.T) {
	w := newTestWorld(t)
	addEmpty(t, w, vec.Vec3{})
	addEmpty(t, w, vec.Vec3{Z: 3})

	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, 0.1, 200)
	view := mgl32.LookAtV(mgl32.Vec3{8, 8, 40}, mgl32.Vec3{8, 8, 0}, mgl32.Vec3{0, 1, 0})
	w.UpdateVisibility(proj.Mul4(view))

	assert.True(t, w.IsVisible(vec.Vec3{}))
	assert.False(t, w.IsVisible(vec.Vec3{Z: 3}), "чанк за камерой отсекается")
	assert.Equal(t, []vec.Vec3{{}}, w.VisibleChunks())
}

func TestWorld_VisibilityExcludesEnclosed(t *testing.T) {
	w := newTestWorld(t)
	center := vec.Vec3{Y: 4}
	addEmpty(t, w, center)
	for _, off := range vec.Neighbours {
		c := NewChunk(center.Add(off))
		c.Fill(block.Stone)
		require.True(t, w.AddChunk(c, nil))
	}

	w.UpdateVisibility(mgl32.Ortho(-500, 500, -500, 500, -500, 500))

	assert.False(t, w.IsVisible(center), "замурованный чанк не виден")
	assert.True(t, w.IsVisible(center.Add(vec.Up)))

	// Открываем стену: после смены набора чанков видимость пересчитывается
	w.RemoveChunk(center.Add(vec.Up))
	w.UpdateVisibility(mgl32.Ortho(-500, 500, -500, 500, -500, 500))
	assert.True(t, w.IsVisible(center))
}

func TestWorld_MeshPhase(t *testing.T) {
	w := newTestWorld(t)
	sink := newRecordingSink()
	w.SetMeshSink(sink)

	solo := addEmpty(t, w, vec.Vec3{})
	empty := addEmpty(t, w, vec.Vec3{X: 3})
	w.SetBlock(5, 5, 5, block.Stone)

	assert.Equal(t, 2, w.MeshPhase())
	assert.False(t, solo.IsDirty())
	assert.False(t, empty.IsDirty())

	require.Contains(t, sink.meshes, vec.Vec3{})
	assert.Equal(t, 6, sink.meshes[vec.Vec3{}].FaceCount())
	require.Contains(t, sink.meshes, vec.Vec3{X: 3})
	assert.True(t, sink.meshes[vec.Vec3{X: 3}].IsEmpty(), "пустой чанк получает пустой меш")

	assert.Equal(t, 0, w.MeshPhase(), "чистые чанки не перестраиваются")
	assert.Equal(t, 0, w.DirtyCount())
}

func TestWorld_EnclosedChunkRemeshedWhenOpened(t *testing.T) {
	w := newTestWorld(t)
	sink := newRecordingSink()
	w.SetMeshSink(sink)

	center := vec.Vec3{Y: 4}
	c := NewChunk(center)
	c.Fill(block.Stone)
	require.True(t, w.AddChunk(c, nil))
	for _, off := range vec.Neighbours {
		n := NewChunk(center.Add(off))
		n.Fill(block.Stone)
		require.True(t, w.AddChunk(n, nil))
	}

	w.MeshPhase()
	require.Contains(t, sink.meshes, center)
	assert.True(t, sink.meshes[center].IsEmpty(), "замурованный чанк получает пустой меш")

	require.True(t, w.RemoveChunk(center.Add(vec.Up)))
	assert.True(t, c.IsDirty(), "выгрузка соседа открывает грань")

	w.MeshPhase()
	assert.False(t, c.IsDirty())
	assert.Equal(t, ChunkSize*ChunkSize, sink.meshes[center].FaceCount(), "видна только верхняя грань")
}

func TestWorld_BorderEditResetsVisibility(t *testing.T) {
	w := newTestWorld(t)
	center := vec.Vec3{Y: 4}
	addEmpty(t, w, center)
	for _, off := range vec.Neighbours {
		c := NewChunk(center.Add(off))
		c.Fill(block.Stone)
		require.True(t, w.AddChunk(c, nil))
	}

	vp := mgl32.Ortho(-500, 500, -500, 500, -500, 500)
	w.UpdateVisibility(vp)
	require.False(t, w.IsVisible(center))

	// Нижний слой верхнего чанка: y = 5*16
	w.SetBlock(3, 80, 3, block.Air)
	w.UpdateVisibility(vp)
	assert.True(t, w.IsVisible(center), "пробитая стена открывает чанк без движения камеры")
}

// panicSource падает на любом чанке
type panicSource struct{}

func (panicSource) Generate(vec.Vec3) (*Chunk, Overspill) { panic("шум сломан") }

func TestGenerationPool_PanicIsFatal(t *testing.T) {
	w := newTestWorld(t)
	pool := NewGenerationPool(panicSource{}, 1, 4)
	pool.Start(context.Background())
	defer pool.Stop()

	require.True(t, pool.Submit(vec.Vec3{}))

	var err error
	require.Eventually(t, func() bool {
		_, err = w.DrainResults(pool.Results())
		return err != nil
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, errors.Is(err, ErrWorkerPanic))
}

func TestGenerationPool_RequestAndDrain(t *testing.T) {
	w := newTestWorld(t)
	w.SetRenderDistance(1)
	pool := NewGenerationPool(w.Generator(), 2, 64)
	pool.Start(context.Background())
	defer pool.Stop()

	// Радиус 1: центр и шесть соседей
	assert.Equal(t, 7, w.RequestChunks(pool))
	assert.True(t, w.IsQueued(vec.Vec3{Y: 6}))
	assert.Equal(t, 0, w.RequestChunks(pool), "запрошенные чанки не запрашиваются повторно")

	total := 0
	require.Eventually(t, func() bool {
		n, err := w.DrainResults(pool.Results())
		assert.NoError(t, err)
		total += n
		return total == 7
	}, 5*time.Second, 10*time.Millisecond)

	assert.True(t, w.ChunkExists(vec.Vec3{Y: 6}))
	assert.False(t, w.IsQueued(vec.Vec3{Y: 6}))
	assert.Len(t, w.ResidentChunks(), 7)
}

func TestGenerationPool_SubmitFullQueue(t *testing.T) {
	pool := NewGenerationPool(NewGenerator(1), 1, 1)
	// Воркеры не запущены, очередь на одну задачу
	assert.True(t, pool.Submit(vec.Vec3{}))
	assert.False(t, pool.Submit(vec.Vec3{X: 1}))
}
