package block

import (
	"fmt"
	"sort"
	"strings"
)

// ID представляет идентификатор блока.
// Младшие 16 бит - индекс материала (он же номер тайла в атласе),
// биты 16..19 - тег формы (полный куб, полублок, ступеньки).
type ID uint32

const (
	materialMask ID = 0x0000FFFF
	shapeShift      = 16
	shapeMask    ID = 0xF
)

// Константы форм, сдвинутые в позицию тега
const (
	fullBlock         ID = ID(ShapeFull) << shapeShift
	partialSlabTop    ID = ID(ShapeSlabTop) << shapeShift
	partialSlabBottom ID = ID(ShapeSlabBottom) << shapeShift
	partialStairsN    ID = ID(ShapeStairsN) << shapeShift
	partialStairsS    ID = ID(ShapeStairsS) << shapeShift
	partialStairsE    ID = ID(ShapeStairsE) << shapeShift
	partialStairsW    ID = ID(ShapeStairsW) << shapeShift
)

// Константы ID блоков
const (
	Air              = fullBlock
	Grass            = fullBlock | 0x0001
	Dirt             = fullBlock | 0x0002
	Planks           = fullBlock | 0x0003
	PlanksSlabTop    = partialSlabTop | 0x0003
	PlanksSlabBottom = partialSlabBottom | 0x0003
	PlanksStairsN    = partialStairsN | 0x0003
	PlanksStairsS    = partialStairsS | 0x0003
	PlanksStairsE    = partialStairsE | 0x0003
	PlanksStairsW    = partialStairsW | 0x0003
	Stone            = fullBlock | 0x0004
	OakLog           = fullBlock | 0x0005
	Leaves           = fullBlock | 0x0006
	CobbleStone      = fullBlock | 0x0007
	StoneSlabTop     = partialSlabTop | 0x0007
	StoneSlabBottom  = partialSlabBottom | 0x0007
	StoneStairsN     = partialStairsN | 0x0007
	StoneStairsS     = partialStairsS | 0x0007
	StoneStairsE     = partialStairsE | 0x0007
	StoneStairsW     = partialStairsW | 0x0007
	Glass            = fullBlock | 0x0008
	Brick            = fullBlock | 0x0009
	Snow             = fullBlock | 0x000A
	Glungus          = fullBlock | 0x000B
	Bedrock          = fullBlock | 0x000C
)

// Placeable - блоки, которые игрок может выбрать и поставить (в порядке перебора)
var Placeable = [...]ID{
	Grass,
	Dirt,
	Planks,
	PlanksSlabTop,
	PlanksSlabBottom,
	PlanksStairsN,
	PlanksStairsS,
	PlanksStairsE,
	PlanksStairsW,
	OakLog,
	Leaves,
	CobbleStone,
	StoneSlabTop,
	StoneSlabBottom,
	StoneStairsN,
	StoneStairsS,
	StoneStairsE,
	StoneStairsW,
	Glass,
	Brick,
	Snow,
	Glungus,
}

var (
	names   = make(map[ID]string)
	byName  = make(map[string]ID)
	behaves = make(map[ID]Behavior)
)

func init() {
	for id, name := range map[ID]string{
		Air:              "air",
		Grass:            "grass",
		Dirt:             "dirt",
		Planks:           "planks",
		PlanksSlabTop:    "planks_slab_top",
		PlanksSlabBottom: "planks_slab_bottom",
		PlanksStairsN:    "planks_stairs_n",
		PlanksStairsS:    "planks_stairs_s",
		PlanksStairsE:    "planks_stairs_e",
		PlanksStairsW:    "planks_stairs_w",
		Stone:            "stone",
		OakLog:           "oak_log",
		Leaves:           "leaves",
		CobbleStone:      "cobblestone",
		StoneSlabTop:     "stone_slab_top",
		StoneSlabBottom:  "stone_slab_bottom",
		StoneStairsN:     "stone_stairs_n",
		StoneStairsS:     "stone_stairs_s",
		StoneStairsE:     "stone_stairs_e",
		StoneStairsW:     "stone_stairs_w",
		Glass:            "glass",
		Brick:            "brick",
		Snow:             "snow",
		Glungus:          "glungus",
		Bedrock:          "bedrock",
	} {
		names[id] = name
		byName[name] = id
	}
}

// Register добавляет поведение блока в регистр.
// Повторная регистрация заменяет предыдущее поведение.
func Register(id ID, behavior Behavior) {
	behaves[id] = behavior
}

// Get возвращает поведение для указанного ID
func Get(id ID) (Behavior, bool) {
	behavior, exists := behaves[id]
	return behavior, exists
}

// IsValid проверяет, является ли ID известным блоком
func IsValid(id ID) bool {
	_, exists := names[id]
	return exists
}

// Parse находит блок по имени ("grass", "stone_stairs_n" и т.д.)
func Parse(name string) (ID, bool) {
	id, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// Names возвращает отсортированный список имён всех известных блоков
func Names() []string {
	out := make([]string, 0, len(byName))
	for name := range byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// String возвращает имя блока или шестнадцатеричный ID для неизвестных значений
func (id ID) String() string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("block(0x%05X)", uint32(id))
}

// Material возвращает индекс материала (без тега формы)
func (id ID) Material() uint16 {
	return uint16(id & materialMask)
}

// Shape возвращает тег формы блока
func (id ID) Shape() Shape {
	return Shape((id >> shapeShift) & shapeMask)
}

// Class возвращает класс непрозрачности блока
func (id ID) Class() Class {
	if id == Air {
		return ClassAir
	}
	if id.Shape() != ShapeFull {
		return ClassPartial
	}
	if id.IsTransparent() {
		return ClassTranslucent
	}
	return ClassFullOpaque
}

// IsTransparent сообщает, пропускает ли материал свет (воздух, листва, стекло)
func (id ID) IsTransparent() bool {
	return id == Air || id == Leaves || id == Glass
}

// UVOffset возвращает смещение тайла материала в атласе 12x12 (в долях атласа)
func (id ID) UVOffset() (u, v float32) {
	tile := uint32(id.Material())
	const unit = 1.0 / AtlasTiles
	return float32(tile%AtlasTiles) * unit, float32(tile/AtlasTiles) * unit
}

// Behavior описывает побочные эффекты, которые блок вызывает в мире
type Behavior interface {
	// OnBreak вызывается после того, как блок в позиции pos заменён воздухом
	OnBreak(api API, x, y, z int)
}
