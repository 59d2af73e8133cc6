package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/annel0/voxel-engine/internal/world/entity"
)

// Формат файла сохранения (little-endian):
//
//	"MP3D" | версия u8 | размер чанка u8 | сид i32
//	число изменений u64 | (чанк i32×3, локальная позиция u8×3, блок u32)...
//	число сущностей u64 | (номер u32, имя типа ASCII + NUL, длина u64, данные)...
const (
	Magic       = "MP3D"
	SaveVersion = 0
)

var (
	ErrInvalidSignature   = errors.New("invalid save file signature")
	ErrUnsupportedVersion = errors.New("unsupported save file version")
	ErrUnsupportedEntity  = errors.New("unsupported entity")
	ErrUnexpectedEOF      = errors.New("unexpected end of data")
)

// SavedEntity - сущность вместе с её ID
type SavedEntity struct {
	ID     entity.ID
	Entity entity.Entity
}

// SaveFile - содержимое сохранения: сид, журнал изменений и сущности
type SaveFile struct {
	ChunkSize uint8
	Seed      int32
	Changes   []world.Change
	Entities  []SavedEntity
}

// Snapshot снимает состояние мира для сохранения
func Snapshot(w *world.World) *SaveFile {
	sf := &SaveFile{
		ChunkSize: world.ChunkSize,
		Seed:      w.Seed(),
		Changes:   w.Changes(),
	}
	w.ForEachEntity(func(id entity.ID, e entity.Entity) {
		sf.Entities = append(sf.Entities, SavedEntity{ID: id, Entity: e})
	})
	return sf
}

// Restore создаёт мир из сохранения. Изменения проигрываются через SetBlock,
// поэтому применяются к чанкам при их загрузке.
func (sf *SaveFile) Restore(defs *block.ModelDefs) *world.World {
	w := world.NewWorld(world.NewGenerator(sf.Seed), defs)
	w.Entities().Clear()

	size := int(sf.ChunkSize)
	if size == 0 {
		size = world.ChunkSize
	}
	for _, c := range sf.Changes {
		pos := vec.JoinChunk(c.Key.Chunk, c.Key.Local, size)
		w.SetBlock(pos.X, pos.Y, pos.Z, c.Block)
	}
	for _, se := range sf.Entities {
		w.InsertEntity(se.ID, se.Entity)
	}
	return w
}

// MarshalBinary кодирует сохранение
func (sf *SaveFile) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	le := binary.LittleEndian

	buf.WriteString(Magic)
	buf.WriteByte(SaveVersion)
	buf.WriteByte(sf.ChunkSize)
	buf.Write(le.AppendUint32(nil, uint32(sf.Seed)))

	buf.Write(le.AppendUint64(nil, uint64(len(sf.Changes))))
	for _, c := range sf.Changes {
		var rec [19]byte
		le.PutUint32(rec[0:], uint32(int32(c.Key.Chunk.X)))
		le.PutUint32(rec[4:], uint32(int32(c.Key.Chunk.Y)))
		le.PutUint32(rec[8:], uint32(int32(c.Key.Chunk.Z)))
		rec[12] = uint8(c.Key.Local.X)
		rec[13] = uint8(c.Key.Local.Y)
		rec[14] = uint8(c.Key.Local.Z)
		le.PutUint32(rec[15:], uint32(c.Block))
		buf.Write(rec[:])
	}

	buf.Write(le.AppendUint64(nil, uint64(len(sf.Entities))))
	for _, se := range sf.Entities {
		payload, err := se.Entity.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("ошибка сериализации сущности %s: %w", se.ID, err)
		}
		buf.Write(le.AppendUint32(nil, se.ID.Num))
		buf.WriteString(se.ID.Kind)
		buf.WriteByte(0)
		buf.Write(le.AppendUint64(nil, uint64(len(payload))))
		buf.Write(payload)
	}

	return buf.Bytes(), nil
}

// decoder читает поля по смещению. Первая ошибка запоминается,
// последующие чтения возвращают нули.
type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.data) {
		d.err = ErrUnexpectedEOF
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u8() uint8 {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u32() uint32 {
	if b := d.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (d *decoder) u64() uint64 {
	if b := d.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (d *decoder) cstring() string {
	if d.err != nil {
		return ""
	}
	end := bytes.IndexByte(d.data[d.off:], 0)
	if end < 0 {
		d.err = ErrUnexpectedEOF
		return ""
	}
	s := string(d.data[d.off : d.off+end])
	d.off += end + 1
	return s
}

// Decode разбирает файл сохранения
func Decode(data []byte) (*SaveFile, error) {
	if len(data) < len(Magic) || string(data[:len(Magic)]) != Magic {
		return nil, ErrInvalidSignature
	}
	d := &decoder{data: data, off: len(Magic)}

	version := d.u8()
	if d.err != nil {
		return nil, d.err
	}
	if version != SaveVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	sf := &SaveFile{
		ChunkSize: d.u8(),
		Seed:      int32(d.u32()),
	}

	changes := d.u64()
	for i := uint64(0); i < changes && d.err == nil; i++ {
		var c world.Change
		c.Key.Chunk = vec.Vec3{X: int(int32(d.u32())), Y: int(int32(d.u32())), Z: int(int32(d.u32()))}
		c.Key.Local = vec.Vec3{X: int(d.u8()), Y: int(d.u8()), Z: int(d.u8())}
		c.Block = block.ID(d.u32())
		if d.err == nil {
			sf.Changes = append(sf.Changes, c)
		}
	}

	entities := d.u64()
	for i := uint64(0); i < entities && d.err == nil; i++ {
		num := d.u32()
		kind := d.cstring()
		size := d.u64()
		if size > uint64(len(data)) {
			return nil, ErrUnexpectedEOF
		}
		payload := d.take(int(size))
		if d.err != nil {
			break
		}

		e, err := entity.Decode(kind, payload)
		if errors.Is(err, entity.ErrUnknownKind) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedEntity, kind)
		}
		if err != nil {
			return nil, fmt.Errorf("ошибка загрузки сущности %d-%s: %w", num, kind, err)
		}
		sf.Entities = append(sf.Entities, SavedEntity{ID: entity.ID{Num: num, Kind: kind}, Entity: e})
	}

	if d.err != nil {
		return nil, d.err
	}
	return sf, nil
}
