package entity

// Key - клавиша, которую понимает игрок
type Key int

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeySpace
	KeyLShift
	KeyRShift
	KeyLCtrl
	KeyQ
	KeyLeft
	KeyRight
	KeyT
	KeySlash
	KeyReturn
	KeyEscape
)

var keyNames = map[string]Key{
	"w": KeyW, "a": KeyA, "s": KeyS, "d": KeyD,
	"space": KeySpace, "lshift": KeyLShift, "rshift": KeyRShift,
	"lctrl": KeyLCtrl, "q": KeyQ, "left": KeyLeft, "right": KeyRight,
	"t": KeyT, "slash": KeySlash, "return": KeyReturn, "escape": KeyEscape,
}

// ParseKey возвращает клавишу по имени
func ParseKey(name string) (Key, bool) {
	k, ok := keyNames[name]
	return k, ok
}

// MouseButton - кнопка мыши
type MouseButton int

const (
	MouseLeft MouseButton = iota + 1
	MouseRight
)

// EventKind - тип события ввода
type EventKind int

const (
	EventKeyDown EventKind = iota + 1
	EventKeyUp
	EventMouseDown
	EventMouseUp
	EventScroll
	EventText
)

// Event - дискретное событие ввода за тик
type Event struct {
	Kind   EventKind
	Key    Key
	Button MouseButton
	Scroll int
	Text   string
}

// Input - ввод за один тик: события и смещение мыши
type Input struct {
	Events  []Event
	MouseDX float32
	MouseDY float32
}

// KeyDown создаёт событие нажатия клавиши
func KeyDown(k Key) Event { return Event{Kind: EventKeyDown, Key: k} }

// KeyUp создаёт событие отпускания клавиши
func KeyUp(k Key) Event { return Event{Kind: EventKeyUp, Key: k} }

// MouseDown создаёт событие нажатия кнопки мыши
func MouseDown(b MouseButton) Event { return Event{Kind: EventMouseDown, Button: b} }

// MouseUp создаёт событие отпускания кнопки мыши
func MouseUp(b MouseButton) Event { return Event{Kind: EventMouseUp, Button: b} }

// Scroll создаёт событие прокрутки колеса
func Scroll(y int) Event { return Event{Kind: EventScroll, Scroll: y} }
