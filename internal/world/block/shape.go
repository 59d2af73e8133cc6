package block

// Shape - геометрическая форма блока
type Shape uint8

const (
	ShapeFull Shape = iota
	ShapeSlabTop
	ShapeSlabBottom
	ShapeStairsN
	ShapeStairsS
	ShapeStairsE
	ShapeStairsW

	shapeCount
)

// shapeKeys - ключи форм в файле определений моделей
var shapeKeys = [shapeCount]string{
	ShapeFull:       "full",
	ShapeSlabTop:    "slab_top",
	ShapeSlabBottom: "slab_bottom",
	ShapeStairsN:    "stairs_n",
	ShapeStairsS:    "stairs_s",
	ShapeStairsE:    "stairs_e",
	ShapeStairsW:    "stairs_w",
}

// ModelKey возвращает имя модели для формы
func (s Shape) ModelKey() string {
	if s >= shapeCount {
		return ""
	}
	return shapeKeys[s]
}

// IsPartial сообщает, занимает ли форма только часть куба
func (s Shape) IsPartial() bool {
	return s != ShapeFull
}

func (s Shape) String() string {
	if key := s.ModelKey(); key != "" {
		return key
	}
	return "unknown"
}
