package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/klauspost/compress/zstd"
)

// CompressedExt - расширение сжатых снимков
const CompressedExt = ".zst"

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Compress сжимает данные сохранения zstd
func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decompress распаковывает данные, сжатые Compress
func Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания zstd decoder: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки снимка: %w", err)
	}
	return out, nil
}

// WriteSnapshot записывает сохранение в файл. Путь с расширением .zst сжимается.
// Запись идёт через временный файл, чтобы не оставить обрезанный снимок.
func WriteSnapshot(path string, sf *SaveFile) error {
	data, err := sf.MarshalBinary()
	if err != nil {
		return err
	}
	if strings.HasSuffix(path, CompressedExt) {
		if data, err = Compress(data); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("ошибка создания директории снимка: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи снимка: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("ошибка переименования снимка: %w", err)
	}

	logging.Info("💾 Снимок мира сохранён: %s (%d байт, %d изменений, %d сущностей)",
		path, len(data), len(sf.Changes), len(sf.Entities))
	return nil
}

// ReadSnapshot читает сохранение. Сжатие определяется по сигнатуре zstd.
func ReadSnapshot(path string) (*SaveFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения снимка: %w", err)
	}
	if bytes.HasPrefix(data, zstdMagic) {
		if data, err = Decompress(data); err != nil {
			return nil, err
		}
	}
	return Decode(data)
}
