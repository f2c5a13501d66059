package fluid

import (
	"fmt"
	"sort"
)

// ID представляет идентификатор типа жидкости
type ID uint8

// None — зарезервированный идентификатор пустой клетки
const None ID = 0

// Kind группирует типы жидкостей по поведению после тика.
// Движок потока сам по себе не различает виды; метку используют
// внешние обработчики (см. PostFlowFunc).
type Kind uint8

const (
	KindNone  Kind = iota
	KindBasic      // обычная жидкость без побочных эффектов
	KindHot        // горячая жидкость, взаимодействует с окружением
	KindGas        // газоподобная субстанция, всплывает вверх
)

// Fluid описывает неизменяемые свойства типа жидкости.
// Значение регистрируется один раз и далее читается по ID.
type Fluid struct {
	ID              ID
	Name            string
	Kind            Kind
	Density         float64      // используется только правилами контакта
	Viscosity       int          // задержка в тиках перед переоценкой клетки
	Flow            VerticalFlow // естественное вертикальное направление
	ChecksContact   bool         // инициирует ли контакт с другой жидкостью
	ReceivesContact bool         // участвует ли в контакте как принимающая сторона
}

// Instance описывает жидкость, находящуюся в конкретной клетке сетки
type Instance struct {
	ID     ID
	Level  Level
	Static bool
}

// IsEmpty сообщает, что клетка не содержит жидкости
func (i Instance) IsEmpty() bool {
	return i.ID == None
}

var (
	registry     = make(map[ID]Fluid)
	nameRegistry = make(map[string]ID)
)

// Register добавляет тип жидкости в регистр.
// Паникует при повторной регистрации ID или имени и при попытке занять None.
func Register(f Fluid) {
	if f.ID == None {
		panic("fluid: идентификатор None зарезервирован за пустой клеткой")
	}
	if _, exists := registry[f.ID]; exists {
		panic(fmt.Sprintf("fluid: тип %d уже зарегистрирован", f.ID))
	}
	if _, exists := nameRegistry[f.Name]; exists {
		panic(fmt.Sprintf("fluid: имя %q уже занято", f.Name))
	}
	if f.Viscosity < 0 {
		panic(fmt.Sprintf("fluid: отрицательная вязкость у типа %q", f.Name))
	}
	registry[f.ID] = f
	nameRegistry[f.Name] = f.ID
}

// Get возвращает тип жидкости по ID
func Get(id ID) (Fluid, bool) {
	f, exists := registry[id]
	return f, exists
}

// MustGet возвращает тип жидкости по ID, паникуя для незарегистрированных
func MustGet(id ID) Fluid {
	f, exists := registry[id]
	if !exists {
		panic(fmt.Sprintf("fluid: тип %d не зарегистрирован", id))
	}
	return f
}

// GetByName возвращает тип жидкости по имени
func GetByName(name string) (Fluid, bool) {
	id, exists := nameRegistry[name]
	if !exists {
		return Fluid{}, false
	}
	return registry[id], true
}

// All возвращает зарегистрированные типы в порядке возрастания ID
func All() []Fluid {
	ids := make([]ID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Fluid, 0, len(ids))
	for _, id := range ids {
		out = append(out, registry[id])
	}
	return out
}
