package block

// Class - класс непрозрачности блока, определяющий отсечение граней
type Class uint8

const (
	ClassFullOpaque Class = iota
	ClassTranslucent
	ClassPartial
	ClassAir
)

// String возвращает строковое представление класса
func (c Class) String() string {
	switch c {
	case ClassFullOpaque:
		return "full_opaque"
	case ClassTranslucent:
		return "translucent"
	case ClassPartial:
		return "partial"
	case ClassAir:
		return "air"
	default:
		return "unknown"
	}
}

// Occludes решает, нужно ли выбросить грань блока класса self,
// если по нормали этой грани стоит блок класса neighbour.
func Occludes(self, neighbour Class) bool {
	switch self {
	case ClassFullOpaque:
		return neighbour == ClassFullOpaque
	case ClassTranslucent:
		return neighbour == ClassFullOpaque || neighbour == ClassTranslucent
	default:
		// Частичные блоки рисуют все грани, у воздуха граней нет
		return false
	}
}
