package app

import (
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/storage"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// OpenWorld восстанавливает мир. Порядок источников: BadgerDB, файл снимка,
// новый мир. Если seed не задан (ok=false), новый мир получает случайный сид.
func OpenWorld(store *storage.WorldStorage, snapshotPath string, seed int32, ok bool, defs *block.ModelDefs) (*world.World, error) {
	if store != nil {
		sf, err := store.LoadWorld()
		switch {
		case err == nil:
			logging.Info("🌍 Мир загружен из BadgerDB: сид %d, %d изменений, %d сущностей",
				sf.Seed, len(sf.Changes), len(sf.Entities))
			return sf.Restore(defs), nil
		case !errors.Is(err, storage.ErrNoWorld):
			return nil, fmt.Errorf("ошибка загрузки мира: %w", err)
		}
	}

	if snapshotPath != "" {
		sf, err := storage.ReadSnapshot(snapshotPath)
		switch {
		case err == nil:
			logging.Info("🌍 Мир загружен из снимка %s: сид %d", snapshotPath, sf.Seed)
			return sf.Restore(defs), nil
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("ошибка загрузки снимка: %w", err)
		}
	}

	if !ok {
		seed = rand.Int31()
	}
	logging.Info("🌱 Создан новый мир: сид %d", seed)
	return world.NewWorld(world.NewGenerator(seed), defs), nil
}
