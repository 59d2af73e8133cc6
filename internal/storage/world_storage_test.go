package storage

import (
	"errors"
	"os"
	"testing"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/annel0/voxel-engine/internal/world/entity"
	"github.com/go-gl/mathgl/mgl32"
)

func setupTestStorage(t *testing.T) (*WorldStorage, string) {
	// Создаем временную директорию для тестов
	tempDir, err := os.MkdirTemp("", "world-storage-test")
	if err != nil {
		t.Fatalf("Не удалось создать временную директорию: %v", err)
	}

	storage, err := NewWorldStorage(tempDir)
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("Не удалось создать хранилище: %v", err)
	}

	return storage, tempDir
}

func cleanupTestStorage(storage *WorldStorage, tempDir string) {
	if storage != nil {
		storage.Close()
	}
	if tempDir != "" {
		os.RemoveAll(tempDir)
	}
}

func TestLoadEmptyStorage(t *testing.T) {
	storage, tempDir := setupTestStorage(t)
	defer cleanupTestStorage(storage, tempDir)

	_, err := storage.LoadWorld()
	if !errors.Is(err, ErrNoWorld) {
		t.Fatalf("Ожидалась ErrNoWorld, получено %v", err)
	}
}

func TestSaveAndLoadWorld(t *testing.T) {
	storage, tempDir := setupTestStorage(t)
	defer cleanupTestStorage(storage, tempDir)

	w := world.NewWorld(world.NewGenerator(-77), block.DefaultModelDefs())
	w.SetBlock(-1, 20, 33, block.Brick)
	w.SetBlock(5, -40, 0, block.Glass)
	_, p, _ := w.Player()
	p.Teleport(mgl32.Vec3{3, 50, -8})

	if err := storage.SaveWorld(Snapshot(w)); err != nil {
		t.Fatalf("Ошибка сохранения мира: %v", err)
	}

	sf, err := storage.LoadWorld()
	if err != nil {
		t.Fatalf("Ошибка загрузки мира: %v", err)
	}
	if sf.Seed != -77 {
		t.Errorf("Неверный сид: %d, ожидался -77", sf.Seed)
	}
	if len(sf.Changes) != 2 {
		t.Fatalf("Неверное количество изменений: %d, ожидалось 2", len(sf.Changes))
	}
	if len(sf.Entities) != 1 || sf.Entities[0].ID.Kind != entity.KindPlayer {
		t.Fatalf("Ожидался один игрок, получено %+v", sf.Entities)
	}

	restored := sf.Restore(block.DefaultModelDefs())
	_, rp, ok := restored.Player()
	if !ok {
		t.Fatal("Игрок не восстановлен")
	}
	if rp.Position() != (mgl32.Vec3{3, 50, -8}) {
		t.Errorf("Неверная позиция игрока: %v", rp.Position())
	}

	// Изменение применяется при загрузке чанка
	chunk := world.NewChunk(vec.Vec3{X: -1, Y: 1, Z: 2})
	restored.AddChunk(chunk, nil)
	if got := restored.Block(-1, 20, 33); got != block.Brick {
		t.Errorf("Неверный блок после загрузки: %v, ожидался brick", got)
	}
}

func TestSaveWorldRemovesDespawnedEntities(t *testing.T) {
	storage, tempDir := setupTestStorage(t)
	defer cleanupTestStorage(storage, tempDir)

	w := world.NewWorld(world.NewGenerator(1), block.DefaultModelDefs())
	id := w.SpawnEntity(entity.NewExplosion(mgl32.Vec3{0, 10, 0}, 1.5))

	if err := storage.SaveWorld(Snapshot(w)); err != nil {
		t.Fatalf("Ошибка сохранения мира: %v", err)
	}
	if !w.Entities().DespawnEntity(id) {
		t.Fatal("Эффект не удалён")
	}
	if err := storage.SaveWorld(Snapshot(w)); err != nil {
		t.Fatalf("Ошибка повторного сохранения: %v", err)
	}

	sf, err := storage.LoadWorld()
	if err != nil {
		t.Fatalf("Ошибка загрузки мира: %v", err)
	}
	if len(sf.Entities) != 1 {
		t.Errorf("Удалённая сущность осталась в базе: %+v", sf.Entities)
	}
}

func TestParseChangeKey(t *testing.T) {
	key := world.BlockKey{Chunk: vec.Vec3{X: -3, Y: 0, Z: 12}, Local: vec.Vec3{X: 15, Y: 0, Z: 7}}
	got, err := parseChangeKey(string(changeKey(key)))
	if err != nil {
		t.Fatalf("Ошибка разбора ключа: %v", err)
	}
	if got != key {
		t.Errorf("Ключ не совпадает: %+v, ожидался %+v", got, key)
	}

	for _, bad := range []string{"change:1:2:3", "change:a:0:0:0:0:0", "change:0:0:0:16:0:0"} {
		if _, err := parseChangeKey(bad); err == nil {
			t.Errorf("Ключ %q должен быть отклонён", bad)
		}
	}
}
