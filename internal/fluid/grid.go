package fluid

import "github.com/annel0/fluid-sim/internal/vec"

// Grid открывает движку доступ к клеткам мира. Реализация обязана быть
// синхронной: движок читает соседей и пишет несколько клеток в рамках
// одного тика без промежуточных блокировок.
type Grid interface {
	// FillableAt возвращает способность клетки содержать жидкость
	// или nil, если блок в клетке жидкость не принимает.
	FillableAt(pos vec.Vec3) Fillable

	// FluidAt возвращает жидкость в клетке. Для пустых клеток
	// и позиций вне мира возвращается пустой Instance.
	FluidAt(pos vec.Vec3) Instance

	// SetFluid записывает жидкость в клетку
	SetFluid(pos vec.Vec3, inst Instance)

	// ResetFluid очищает клетку от жидкости
	ResetFluid(pos vec.Vec3)

	// Bounds возвращает жёсткие вертикальные пределы мира
	Bounds() Range
}

// Fillable определяет, пропускает ли блок жидкость через свои грани.
// Реализуется типами блоков, способными содержать жидкость.
type Fillable interface {
	// AllowInflow разрешает жидкости войти в клетку через грань side
	AllowInflow(g Grid, pos vec.Vec3, side vec.Side, id ID) bool

	// AllowOutflow разрешает жидкости покинуть клетку через грань side
	AllowOutflow(g Grid, pos vec.Vec3, side vec.Side) bool
}

// Scheduler планирует будущие переоценки клеток с жидкостью
type Scheduler interface {
	// ScheduleTick ставит тик для пары (позиция, жидкость) через delay кадров.
	// Повторная постановка при уже ожидающем тике игнорируется.
	ScheduleTick(pos vec.Vec3, id ID, delay int)

	// TickSoon требует переоценку на ближайшем кадре
	TickSoon(pos vec.Vec3, id ID)

	// CancelTick снимает ожидающий тик, если он есть
	CancelTick(pos vec.Vec3, id ID)
}

// Contact описывает одну из сторон столкновения двух разных жидкостей
type Contact struct {
	ID     ID
	Pos    vec.Vec3
	Level  Level
	Static bool
}

// ContactResolver разрешает столкновение двух разных типов жидкостей.
// Возвращает true, если контакт обработан: в этом случае обработчик сам
// отвечает за итоговое состояние обеих клеток, а вызвавшая стратегия
// потока считает перенос завершённым.
type ContactResolver interface {
	HandleContact(g Grid, src, dst Contact) bool
}
