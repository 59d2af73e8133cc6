package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/annel0/voxel-engine/internal/world/entity"
	"github.com/dgraph-io/badger/v3"
)

// Ключи хранилища
const (
	seedKey      = "world:seed"
	changePrefix = "change:"
	entityPrefix = "entity:"
	chunkSizeKey = "world:chunk_size"
)

var (
	// ErrNoWorld возвращается, если в хранилище ещё нет мира
	ErrNoWorld = errors.New("world not found in storage")

	errNotReady = errors.New("хранилище не готово")
)

// WorldStorage хранит сид, журнал изменений и сущности мира в BadgerDB
type WorldStorage struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
}

// BlockDelta - значение записи журнала изменений
type BlockDelta struct {
	ID   block.ID `json:"id"`
	Name string   `json:"name,omitempty"`
}

// NewWorldStorage создает новое хранилище мира
func NewWorldStorage(dataPath string) (*WorldStorage, error) {
	dbPath := filepath.Join(dataPath, "world")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	logging.Info("🗄️ BadgerDB открыта: %s", dbPath)
	return &WorldStorage{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
	}, nil
}

// Close закрывает хранилище данных
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}

	ws.isReady = false
	return ws.db.Close()
}

func changeKey(k world.BlockKey) []byte {
	return []byte(fmt.Sprintf("%s%d:%d:%d:%d:%d:%d", changePrefix,
		k.Chunk.X, k.Chunk.Y, k.Chunk.Z, k.Local.X, k.Local.Y, k.Local.Z))
}

func parseChangeKey(key string) (world.BlockKey, error) {
	var k world.BlockKey
	parts := strings.Split(strings.TrimPrefix(key, changePrefix), ":")
	if len(parts) != 6 {
		return k, fmt.Errorf("некорректный ключ изменения %q", key)
	}
	nums := make([]int, 6)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return k, fmt.Errorf("некорректный ключ изменения %q: %w", key, err)
		}
		nums[i] = n
	}
	k.Chunk = vec.Vec3{X: nums[0], Y: nums[1], Z: nums[2]}
	k.Local = vec.Vec3{X: nums[3], Y: nums[4], Z: nums[5]}
	if !world.InBounds(k.Local.X, k.Local.Y, k.Local.Z) {
		return k, fmt.Errorf("локальная позиция вне чанка в ключе %q", key)
	}
	return k, nil
}

// SaveWorld записывает сид, журнал изменений и сущности.
// Сущности перезаписываются целиком: удалённые из мира удаляются и из базы.
func (ws *WorldStorage) SaveWorld(sf *SaveFile) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return errNotReady
	}

	stale, err := ws.keysWithPrefix(entityPrefix)
	if err != nil {
		return err
	}

	wb := ws.db.NewWriteBatch()
	defer wb.Cancel()

	if err := wb.Set([]byte(seedKey), []byte(strconv.Itoa(int(sf.Seed)))); err != nil {
		return fmt.Errorf("ошибка записи сида: %w", err)
	}
	if err := wb.Set([]byte(chunkSizeKey), []byte(strconv.Itoa(int(sf.ChunkSize)))); err != nil {
		return fmt.Errorf("ошибка записи размера чанка: %w", err)
	}

	for _, c := range sf.Changes {
		data, err := json.Marshal(BlockDelta{ID: c.Block, Name: c.Block.String()})
		if err != nil {
			return fmt.Errorf("ошибка сериализации изменения: %w", err)
		}
		if err := wb.Set(changeKey(c.Key), data); err != nil {
			return fmt.Errorf("ошибка записи изменения: %w", err)
		}
	}

	fresh := make(map[string]struct{}, len(sf.Entities))
	for _, se := range sf.Entities {
		fresh[entityPrefix+se.ID.String()] = struct{}{}
	}
	for _, key := range stale {
		if _, keep := fresh[string(key)]; keep {
			continue
		}
		if err := wb.Delete(key); err != nil {
			return fmt.Errorf("ошибка удаления сущности: %w", err)
		}
	}
	for _, se := range sf.Entities {
		payload, err := se.Entity.MarshalBinary()
		if err != nil {
			return fmt.Errorf("ошибка сериализации сущности %s: %w", se.ID, err)
		}
		if err := wb.Set([]byte(entityPrefix+se.ID.String()), payload); err != nil {
			return fmt.Errorf("ошибка записи сущности: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	logging.Debug("🗄️ Мир записан в BadgerDB: %d изменений, %d сущностей", len(sf.Changes), len(sf.Entities))
	return nil
}

// LoadWorld читает сохранение из базы. ErrNoWorld - если сид ещё не записан.
func (ws *WorldStorage) LoadWorld() (*SaveFile, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, errNotReady
	}

	sf := &SaveFile{ChunkSize: world.ChunkSize}
	err := ws.db.View(func(txn *badger.Txn) error {
		seed, err := readInt(txn, seedKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoWorld
		}
		if err != nil {
			return err
		}
		sf.Seed = int32(seed)

		if size, err := readInt(txn, chunkSizeKey); err == nil {
			sf.ChunkSize = uint8(size)
		}

		if err := scanPrefix(txn, changePrefix, func(key string, val []byte) error {
			k, err := parseChangeKey(key)
			if err != nil {
				return err
			}
			var delta BlockDelta
			if err := json.Unmarshal(val, &delta); err != nil {
				return fmt.Errorf("ошибка десериализации изменения %q: %w", key, err)
			}
			sf.Changes = append(sf.Changes, world.Change{Key: k, Block: delta.ID})
			return nil
		}); err != nil {
			return err
		}

		return scanPrefix(txn, entityPrefix, func(key string, val []byte) error {
			id, err := entity.ParseID(strings.TrimPrefix(key, entityPrefix))
			if err != nil {
				return err
			}
			e, err := entity.Decode(id.Kind, val)
			if errors.Is(err, entity.ErrUnknownKind) {
				return fmt.Errorf("%w: %s", ErrUnsupportedEntity, id.Kind)
			}
			if err != nil {
				return err
			}
			sf.Entities = append(sf.Entities, SavedEntity{ID: id, Entity: e})
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, ErrNoWorld) {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return sf, nil
}

func readInt(txn *badger.Txn, key string) (int, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return 0, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(string(val))
	if err != nil {
		return 0, fmt.Errorf("некорректное значение %s: %w", key, err)
	}
	return n, nil
}

// scanPrefix обходит ключи с префиксом в лексикографическом порядке
func scanPrefix(txn *badger.Txn, prefix string, fn func(key string, val []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		item := it.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(string(item.Key()), val); err != nil {
			return err
		}
	}
	return nil
}

func (ws *WorldStorage) keysWithPrefix(prefix string) ([][]byte, error) {
	var keys [][]byte
	err := ws.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ключей %s: %w", prefix, err)
	}
	return keys, nil
}
