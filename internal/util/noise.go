package util

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Смещения сидов для независимых источников шума (арифметика int32 с переполнением)
const (
	CaveSeedOffset  int32 = math.MaxInt32 / 3
	BiomeSeedOffset int32 = math.MaxInt32 / 3 * 2
)

// Noise2D - двумерный когерентный шум в диапазоне примерно [-1, 1]
type Noise2D interface {
	Noise2D(x, y float32) float32
}

// Noise3D - трёхмерный когерентный шум в диапазоне примерно [-1, 1]
type Noise3D interface {
	Noise3D(x, y, z float32) float32
}

// SimplexNoise - OpenSimplex шум с частотой. Неизменяем после создания,
// поэтому безопасен для одновременного использования из нескольких горутин.
type SimplexNoise struct {
	seed      int32
	frequency float32
	noise     opensimplex.Noise32
}

// NewSimplexNoise создаёт источник OpenSimplex шума
func NewSimplexNoise(seed int32, frequency float32) *SimplexNoise {
	return &SimplexNoise{
		seed:      seed,
		frequency: frequency,
		noise:     opensimplex.New32(int64(seed)),
	}
}

// Seed возвращает сид источника
func (s *SimplexNoise) Seed() int32 { return s.seed }

// Noise2D возвращает значение шума в точке (x, y)
func (s *SimplexNoise) Noise2D(x, y float32) float32 {
	return s.noise.Eval2(x*s.frequency, y*s.frequency)
}

// Noise3D возвращает значение шума в точке (x, y, z)
func (s *SimplexNoise) Noise3D(x, y, z float32) float32 {
	return s.noise.Eval3(x*s.frequency, y*s.frequency, z*s.frequency)
}

// PerlinNoise - шум Перлина для плавных крупных структур (биомы)
type PerlinNoise struct {
	seed      int32
	frequency float32
	noise     *perlin.Perlin
}

// NewPerlinNoise создаёт источник шума Перлина
func NewPerlinNoise(seed int32, frequency float32) *PerlinNoise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &PerlinNoise{
		seed:      seed,
		frequency: frequency,
		noise:     perlin.NewPerlin(alpha, beta, n, int64(seed)),
	}
}

// Seed возвращает сид источника
func (p *PerlinNoise) Seed() int32 { return p.seed }

// Noise2D возвращает значение шума Перлина, ограниченное диапазоном [-1, 1]
func (p *PerlinNoise) Noise2D(x, y float32) float32 {
	v := p.noise.Noise2D(float64(x*p.frequency), float64(y*p.frequency))
	return float32(math.Max(-1, math.Min(1, v)))
}

// Fractal2D суммирует octaves октав шума: частота растёт в lacunarity раз,
// амплитуда падает в persistence раз. Результат нормирован на сумму амплитуд.
func Fractal2D(n Noise2D, x, y float32, octaves int, persistence, lacunarity float32) float32 {
	var (
		amplitude float32 = 1
		frequency float32 = 1
		value     float32
		maxValue  float32
	)

	for i := 0; i < octaves; i++ {
		value += n.Noise2D(x*frequency, y*frequency) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}

	if maxValue == 0 {
		return 0
	}
	return value / maxValue
}

// NoiseSet - три независимых источника шума мира, выведенных из одного сида
type NoiseSet struct {
	Seed    int32
	Terrain *SimplexNoise
	Cave    *SimplexNoise
	Biome   *PerlinNoise
}

// NewNoiseSet создаёт источники рельефа, пещер и биомов из сида мира
func NewNoiseSet(seed int32) *NoiseSet {
	return &NoiseSet{
		Seed:    seed,
		Terrain: NewSimplexNoise(seed, 0.1),
		Cave:    NewSimplexNoise(seed+CaveSeedOffset, 0.5),
		Biome:   NewPerlinNoise(seed+BiomeSeedOffset, 0.1),
	}
}
