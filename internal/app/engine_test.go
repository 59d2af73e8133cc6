package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/annel0/voxel-engine/internal/storage"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panicSource struct{}

func (panicSource) Generate(vec.Vec3) (*world.Chunk, world.Overspill) {
	panic("сломанный генератор")
}

func newTestWorld(seed int32) *world.World {
	w := world.NewWorld(world.NewGenerator(seed), block.DefaultModelDefs())
	w.SetRenderDistance(1)
	return w
}

func startEngine(t *testing.T, opts Options) (*Engine, context.CancelFunc, <-chan error) {
	t.Helper()
	if opts.TickRate == 0 {
		opts.TickRate = 200
	}
	e := NewEngine(opts)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()
	return e, cancel, errc
}

func stopEngine(t *testing.T, cancel context.CancelFunc, errc <-chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("движок не остановился")
	}
}

func TestEngine_LoadsChunksAroundPlayer(t *testing.T) {
	e, cancel, errc := startEngine(t, Options{World: newTestWorld(9), Workers: 2})
	defer stopEngine(t, cancel, errc)

	ctx := context.Background()
	require.Eventually(t, func() bool {
		loaded := false
		err := e.Do(ctx, func(w *world.World) error {
			assert.LessOrEqual(t, w.Stats().Resident, 7)
			center := w.PlayerChunk()
			loaded = w.ChunkExists(center)
			for _, d := range []vec.Vec3{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1}} {
				loaded = loaded && w.ChunkExists(center.Add(d))
			}
			return nil
		})
		return err == nil && loaded
	}, 10*time.Second, 20*time.Millisecond)

	assert.Greater(t, e.Ticks(), uint64(0))
}

func TestEngine_DoReturnsCommandError(t *testing.T) {
	e, cancel, errc := startEngine(t, Options{World: newTestWorld(1)})
	defer stopEngine(t, cancel, errc)

	boom := errors.New("ошибка команды")
	err := e.Do(context.Background(), func(*world.World) error { return boom })
	assert.ErrorIs(t, err, boom)

	var changes int
	require.NoError(t, e.Do(context.Background(), func(w *world.World) error {
		w.SetBlock(3, 4, 5, block.Brick)
		changes = w.ChangeCount()
		return nil
	}))
	assert.Equal(t, 1, changes)
}

func TestEngine_DoAfterStop(t *testing.T) {
	e, cancel, errc := startEngine(t, Options{World: newTestWorld(1)})
	stopEngine(t, cancel, errc)

	err := e.Do(context.Background(), func(*world.World) error { return nil })
	assert.ErrorIs(t, err, ErrStopped)
}

func TestEngine_WorkerPanicStopsEngine(t *testing.T) {
	_, cancel, errc := startEngine(t, Options{World: newTestWorld(1), Source: panicSource{}})
	defer cancel()

	select {
	case err := <-errc:
		require.Error(t, err)
		assert.True(t, errors.Is(err, world.ErrWorkerPanic))
	case <-time.After(5 * time.Second):
		t.Fatal("движок не остановился после паники воркера")
	}
}

func TestEngine_SaveAndReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewWorldStorage(dir)
	require.NoError(t, err)
	snapshot := filepath.Join(dir, "world.mp3d.zst")

	w := newTestWorld(314)
	e, cancel, errc := startEngine(t, Options{World: w, Store: store, SnapshotPath: snapshot})

	ctx := context.Background()
	require.NoError(t, e.Do(ctx, func(w *world.World) error {
		w.SetBlock(1, 2, 3, block.Glass)
		return nil
	}))
	require.NoError(t, e.Save(ctx))
	stopEngine(t, cancel, errc)
	require.NoError(t, store.Close())

	// Из BadgerDB
	store, err = storage.NewWorldStorage(dir)
	require.NoError(t, err)
	defer store.Close()

	reopened, err := OpenWorld(store, "", 0, false, block.DefaultModelDefs())
	require.NoError(t, err)
	assert.Equal(t, int32(314), reopened.Seed())
	require.Len(t, reopened.Changes(), 1)
	assert.Equal(t, block.Glass, reopened.Changes()[0].Block)

	// Из файла снимка
	fromFile, err := OpenWorld(nil, snapshot, 0, false, block.DefaultModelDefs())
	require.NoError(t, err)
	assert.Equal(t, int32(314), fromFile.Seed())
	assert.Equal(t, reopened.Changes(), fromFile.Changes())
}

func TestOpenWorld_New(t *testing.T) {
	w, err := OpenWorld(nil, filepath.Join(t.TempDir(), "нет.mp3d"), 77, true, block.DefaultModelDefs())
	require.NoError(t, err)
	assert.Equal(t, int32(77), w.Seed())
	assert.Zero(t, w.ChangeCount())
}

func TestMeshCache(t *testing.T) {
	mc := NewMeshCache()
	mesh := world.MeshData{
		Vertices: make([]world.BlockVertex, 8),
		Indices:  make([]uint32, 12),
	}
	c := vec.Vec3{X: 1}

	mc.OnMesh(c, mesh)
	assert.Equal(t, 1, mc.Len())
	assert.Equal(t, MeshInfo{Faces: 2, Vertices: 8, Indices: 12}, mc.Totals())

	mc.OnMesh(c, world.MeshData{})
	assert.Zero(t, mc.Len())

	mc.OnMesh(c, mesh)
	mc.OnUnload(c)
	_, ok := mc.Get(c)
	assert.False(t, ok)
}

func TestEngine_InputIsConsumedOnce(t *testing.T) {
	e := NewEngine(Options{World: newTestWorld(1)})
	e.AddMouseDelta(3, -1)
	e.AddMouseDelta(1, 1)

	in := e.takeInput()
	assert.Equal(t, float32(4), in.MouseDX)
	assert.Equal(t, float32(0), in.MouseDY)
	assert.Zero(t, e.takeInput().MouseDX)
}
