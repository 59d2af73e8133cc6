package world

import (
	"encoding/binary"
	"math/rand"

	"github.com/annel0/voxel-engine/internal/util"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/zeebo/xxh3"
)

// Параметры биомов
const (
	plainsScale      = 0.05
	plainsOctaves    = 4
	plainsAmplitude  = 30.0
	plainsCaveThresh = 2.0

	mountainScale      = 0.04
	mountainOctaves    = 8
	mountainCaveThresh = -0.3

	biomeScale = 0.1
	caveScale  = 0.1
	oreScale   = 0.6
	oreOffset  = 100.0
	oreThresh  = 0.7

	snowStart = 96
	snowFull  = 108

	bedrockLayer = -31
	bedrockNoisy = -30
	worldBottom  = -32

	treeChance    = 0.005
	treeMinHeight = 4
	treeMaxHeight = 6
	leafRadius    = 2
	leafManhattan = 3
)

var (
	plainsFoliage   = mgl32.Vec3{0.5, 1, 0.5}
	mountainFoliage = mgl32.Vec3{0.1, 0.7, 0.5}
)

// BlockKey адресует блок через координаты чанка и локальную позицию.
// Используется журналом изменений и таблицей переноса.
type BlockKey struct {
	Chunk vec.Vec3
	Local vec.Vec3
}

// KeyFor раскладывает мировую позицию блока в BlockKey
func KeyFor(pos vec.Vec3) BlockKey {
	chunk, local := pos.SplitChunk(ChunkSize)
	return BlockKey{Chunk: chunk, Local: local}
}

// World возвращает мировую позицию блока
func (k BlockKey) World() vec.Vec3 {
	return vec.JoinChunk(k.Chunk, k.Local, ChunkSize)
}

// Overspill - блоки, которые генерация чанка хочет поставить в соседние чанки
type Overspill map[BlockKey]block.ID

// put добавляет запись, не перезаписывая существующую
func (o Overspill) put(key BlockKey, id block.ID) {
	if _, ok := o[key]; !ok {
		o[key] = id
	}
}

// Generator детерминированно строит чанки из сида мира.
// Источники шума неизменяемы, поэтому Generate можно вызывать из нескольких горутин.
type Generator struct {
	noise *util.NoiseSet
}

// NewGenerator создаёт генератор для сида мира
func NewGenerator(seed int32) *Generator {
	return &Generator{noise: util.NewNoiseSet(seed)}
}

// NewGeneratorFromNoise создаёт генератор поверх готового набора шумов
func NewGeneratorFromNoise(noise *util.NoiseSet) *Generator {
	return &Generator{noise: noise}
}

// Seed возвращает сид мира
func (g *Generator) Seed() int32 {
	return g.noise.Seed
}

// chunkSeed смешивает сид мира с координатами чанка
func (g *Generator) chunkSeed(coords vec.Vec3) int64 {
	var buf [16]byte
	binary.LittleEndian.PutUint32(buf[0:], uint32(g.noise.Seed))
	binary.LittleEndian.PutUint32(buf[4:], uint32(int32(coords.X)))
	binary.LittleEndian.PutUint32(buf[8:], uint32(int32(coords.Y)))
	binary.LittleEndian.PutUint32(buf[12:], uint32(int32(coords.Z)))
	return int64(xxh3.Hash(buf[:]))
}

// Generate строит чанк и возвращает блоки деревьев, вышедшие за его границы
func (g *Generator) Generate(coords vec.Vec3) (*Chunk, Overspill) {
	chunk := NewChunk(coords)
	rng := rand.New(rand.NewSource(g.chunkSeed(coords)))

	base := coords.Scale(ChunkSize)
	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			g.fillColumn(chunk, rng, base, x, z)
		}
	}

	overspill := make(Overspill)
	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			g.plantTree(chunk, overspill, rng, x, z)
		}
	}

	return chunk, overspill
}

// fillColumn заполняет колонку (x, z) по смеси равнин и гор
func (g *Generator) fillColumn(chunk *Chunk, rng *rand.Rand, base vec.Vec3, x, z int) {
	rx := float32(base.X + x)
	rz := float32(base.Z + z)

	t := (g.noise.Biome.Noise2D(rx*biomeScale, rz*biomeScale) + 1) / 2
	t *= t

	plains := util.Fractal2D(g.noise.Terrain, rx*plainsScale, rz*plainsScale, plainsOctaves, 0.5, 2) * plainsAmplitude
	mv := util.Fractal2D(g.noise.Terrain, rx*mountainScale, rz*mountainScale, mountainOctaves, 0.5, 2)
	mountain := (mv*7 + 10) * (mv*7 + 10) / 2

	height := int(plains*(1-t) + mountain*t)
	caveThresh := float32(plainsCaveThresh)*(1-t) + float32(mountainCaveThresh)*t
	chunk.SetFoliage(x, z, plainsFoliage.Mul(1-t).Add(mountainFoliage.Mul(t)))

	var snowChance float64
	switch {
	case height <= snowStart:
		snowChance = 0
	case height >= snowFull:
		snowChance = 1
	default:
		snowChance = float64(height-snowStart) / float64(snowFull-snowStart)
	}
	snowDraw := rng.Float64()

	for y := 0; y < ChunkSize; y++ {
		ry := base.Y + y
		fy := float32(ry)

		isCave := g.noise.Cave.Noise3D(rx*caveScale, fy*caveScale, rz*caveScale) > caveThresh
		isOre := g.noise.Cave.Noise3D(rx*oreScale+oreOffset, fy*oreScale+oreOffset, rz*oreScale+oreOffset) > oreThresh

		var id block.ID
		switch {
		case ry < worldBottom:
			id = block.Air
		case ry == bedrockLayer:
			id = block.Bedrock
		case ry == bedrockNoisy && rng.Intn(2) == 0:
			id = block.Bedrock
		case isCave:
			id = block.Air
		case ry < height-3:
			if isOre {
				id = block.Glungus
			} else {
				id = block.Stone
			}
		case ry < height-1:
			id = block.Dirt
		case snowDraw < snowChance && ry < height:
			id = block.Snow
		case ry < height:
			id = block.Grass
		default:
			id = block.Air
		}

		if id != block.Air {
			chunk.SetBlock(x, y, z, id)
		}
	}
}

// plantTree ищет сверху первую непустую клетку колонки и, если это трава,
// с вероятностью treeChance сажает дерево.
func (g *Generator) plantTree(chunk *Chunk, overspill Overspill, rng *rand.Rand, x, z int) {
	for y := ChunkSize - 1; y >= 0; y-- {
		id := chunk.Block(x, y, z)
		if id == block.Air {
			continue
		}
		if id != block.Grass || rng.Float64() >= treeChance {
			return
		}

		origin := vec.JoinChunk(chunk.Coords, vec.Vec3{X: x, Y: y, Z: z}, ChunkSize)
		growTree(chunk, overspill, origin, treeMinHeight+rng.Intn(treeMaxHeight-treeMinHeight+1))
		return
	}
}

// growTree ставит ствол высотой height над origin и крону вокруг его вершины.
// Листва занимает только воздух; клетки вне чанка считаются воздухом.
func growTree(chunk *Chunk, overspill Overspill, origin vec.Vec3, height int) {
	for ty := 1; ty <= height; ty++ {
		placeGenerated(chunk, overspill, origin.Add(vec.Vec3{Y: ty}), block.OakLog)
	}

	top := origin.Add(vec.Vec3{Y: height})
	for dx := -leafRadius; dx <= leafRadius; dx++ {
		for dz := -leafRadius; dz <= leafRadius; dz++ {
			for dy := -leafRadius; dy <= leafRadius; dy++ {
				if abs(dx)+abs(dy)+abs(dz) > leafManhattan {
					continue
				}
				pos := top.Add(vec.Vec3{X: dx, Y: dy, Z: dz})
				key := KeyFor(pos)
				if key.Chunk == chunk.Coords && chunk.Block(key.Local.X, key.Local.Y, key.Local.Z) != block.Air {
					continue
				}
				placeGenerated(chunk, overspill, pos, block.Leaves)
			}
		}
	}
}

// placeGenerated ставит блок в чанк или откладывает его в таблицу переноса
func placeGenerated(chunk *Chunk, overspill Overspill, pos vec.Vec3, id block.ID) {
	key := KeyFor(pos)
	if key.Chunk == chunk.Coords {
		chunk.SetBlock(key.Local.X, key.Local.Y, key.Local.Z, id)
		return
	}
	overspill.put(key, id)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
