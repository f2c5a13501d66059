package fluid

import (
	"fmt"

	"github.com/annel0/fluid-sim/internal/vec"
)

// farFlowRange ограничивает дальность прямого выравнивания уровней
const farFlowRange = 4

// PostFlowFunc вызывается после завершения обработки тика клетки.
// Хук получает состояние клетки до и после тика и позволяет навесить
// поведение конкретных видов жидкостей (затвердевание, поджигание),
// не усложняя сам алгоритм потока.
type PostFlowFunc func(g Grid, pos vec.Vec3, f Fluid, before, after Instance)

// Stats описывает счётчики движка потока
type Stats struct {
	Ticks     uint64 // обработанных тиков
	Moves     uint64 // переносов объёма между клетками
	Settled   uint64 // клеток, перешедших в стабильное состояние
	Drained   uint64 // клеток, осушенных на границе мира
	Contacts  uint64 // разрешённых контактов разных жидкостей
	Destroyed uint64 // единиц объёма, уничтоженных при вытеснении
}

// Engine реализует пошаговое распространение жидкостей по сетке мира.
// Каждый тик обрабатывается целиком до начала следующего; движок
// не потокобезопасен и принадлежит циклу симуляции.
type Engine struct {
	grid     Grid
	sched    Scheduler
	contact  ContactResolver
	postFlow PostFlowFunc
	stats    Stats
}

// Option настраивает движок при создании
type Option func(*Engine)

// WithContactResolver заменяет обработчик контакта разных жидкостей
func WithContactResolver(r ContactResolver) Option {
	return func(e *Engine) {
		e.contact = r
	}
}

// WithPostFlowHook задаёт обработчик, вызываемый после каждого тика
func WithPostFlowHook(fn PostFlowFunc) Option {
	return func(e *Engine) {
		e.postFlow = fn
	}
}

// NewEngine создаёт движок потока поверх сетки и планировщика.
// По умолчанию контакты разрешает DensityResolver.
func NewEngine(g Grid, sched Scheduler, opts ...Option) *Engine {
	if g == nil {
		panic("fluid: движку нужна сетка")
	}
	if sched == nil {
		panic("fluid: движку нужен планировщик")
	}
	e := &Engine{
		grid:    g,
		sched:   sched,
		contact: NewDensityResolver(sched),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stats возвращает копию счётчиков движка
func (e *Engine) Stats() Stats {
	return e.stats
}

// ScheduledUpdate обрабатывает созревший тик клетки: проверяет границу
// мира, затем выбирает поток для валидного или невалидного местоположения.
// Пустые клетки пропускаются — тик мог пережить свою жидкость.
func (e *Engine) ScheduledUpdate(pos vec.Vec3) {
	before := e.grid.FluidAt(pos)
	if before.IsEmpty() {
		return
	}
	if !before.Level.Valid() {
		panic(fmt.Sprintf("fluid: недопустимый уровень %d в клетке %v", before.Level, pos))
	}
	f := MustGet(before.ID)
	e.stats.Ticks++

	bounds := e.grid.Bounds()
	switch {
	case f.Flow == Downward && pos.Y == bounds.Min(),
		f.Flow == Upward && pos.Y == bounds.Max():
		// Жёсткая граница мира: граничные клетки не накапливают
		// жидкость, объём всегда утекает за край
		e.clear(pos, before.ID)
		e.stats.Drained++
	default:
		if curFillable := e.grid.FillableAt(pos); curFillable != nil {
			e.validLocationFlow(pos, f, before.Level, curFillable)
		} else {
			e.invalidLocationFlow(pos, f, before.Level)
		}
	}

	if e.postFlow != nil {
		e.postFlow(e.grid, pos, f, before, e.grid.FluidAt(pos))
	}
}

// validLocationFlow — основной порядок стратегий для клетки, блок которой
// может содержать жидкость: сначала вертикаль, затем горизонталь и дальнее
// выравнивание либо лужа, иначе стабилизация.
func (e *Engine) validLocationFlow(pos vec.Vec3, f Fluid, level Level, curFillable Fillable) {
	remaining, consumed := e.flowVertical(pos, f, level, f.Flow, curFillable, true)
	if consumed {
		return
	}
	progressed := remaining < level

	if remaining > LevelOne {
		if e.flowHorizontal(pos, f, remaining, curFillable) {
			return
		}
		if e.flowFar(pos, f, remaining) {
			return
		}
	} else if e.flowPuddle(pos, f, remaining, curFillable) {
		return
	}

	if !progressed {
		// Движения нет: клетка стабилизируется до внешнего возмущения
		e.settle(pos, f.ID, remaining)
		e.stats.Settled++
	}
}

// invalidLocationFlow вытесняет жидкость из клетки, блок которой больше
// не может её содержать: вертикаль по потоку, затем против, затем раздача
// по соседям с уничтожением остатка. Контакты при этом не разрешаются.
func (e *Engine) invalidLocationFlow(pos vec.Vec3, f Fluid, level Level) {
	remaining, consumed := e.flowVertical(pos, f, level, f.Flow, nil, false)
	if consumed {
		return
	}
	remaining, consumed = e.flowVertical(pos, f, remaining, f.Flow.Opposite(), nil, false)
	if consumed {
		return
	}
	e.spreadOrDestroy(pos, f, remaining)
}

// flowVertical пытается перелить объём в соседнюю по вертикали клетку.
// Возвращает оставшийся в источнике уровень и признак полного ухода объёма.
// При нулевом curFillable проверка разрешения на выход пропускается.
func (e *Engine) flowVertical(pos vec.Vec3, f Fluid, level Level, dir VerticalFlow, curFillable Fillable, handleContact bool) (Level, bool) {
	dst := pos.Add(dir.Vector())
	if !e.grid.Bounds().Contains(dst.Y) {
		return level, false
	}
	dstFillable := e.grid.FillableAt(dst)
	if dstFillable == nil {
		return level, false
	}
	if !dstFillable.AllowInflow(e.grid, dst, dir.EntrySide(), f.ID) {
		return level, false
	}
	if curFillable != nil && !curFillable.AllowOutflow(e.grid, pos, dir.ExitSide()) {
		return level, false
	}

	dstInst := e.grid.FluidAt(dst)
	switch {
	case dstInst.IsEmpty():
		// Пустой сосед принимает весь объём целиком
		e.setDynamic(dst, f.ID, level, f.Viscosity)
		e.clear(pos, f.ID)
		e.stats.Moves++
		return 0, true

	case dstInst.ID == f.ID:
		if dstInst.Level == LevelEight {
			return level, false
		}
		room := int(LevelEight - dstInst.Level) // свободные единицы приёмника
		units := level.Units()
		if units <= room {
			// Приёмник вмещает весь объём
			e.setDynamic(dst, f.ID, dstInst.Level+Level(units), f.Viscosity)
			e.clear(pos, f.ID)
			e.stats.Moves++
			return 0, true
		}
		// Приёмник заполняется доверху, остаток ждёт следующего тика
		e.setDynamic(dst, f.ID, LevelEight, f.Viscosity)
		remaining := level - Level(room)
		e.setDynamic(pos, f.ID, remaining, f.Viscosity)
		e.stats.Moves++
		return remaining, false

	case handleContact && f.ChecksContact && MustGet(dstInst.ID).ReceivesContact:
		src := Contact{ID: f.ID, Pos: pos, Level: level}
		other := Contact{ID: dstInst.ID, Pos: dst, Level: dstInst.Level, Static: dstInst.Static}
		if e.contact.HandleContact(e.grid, src, other) {
			e.stats.Contacts++
			return 0, true
		}
		return level, false

	default:
		return level, false
	}
}

// flowHorizontal выбирает одного лучшего горизонтального соседа и переносит
// в него объём. Обход начинается с направления, зависящего от позиции,
// чтобы у растекания не было постоянного уклона.
func (e *Engine) flowHorizontal(pos vec.Vec3, f Fluid, level Level, curFillable Fillable) bool {
	var (
		targetPos   vec.Vec3
		targetLevel Level
		haveTarget  bool
	)

	for _, o := range shuffledOrientations(pos) {
		side := o.Side()
		dst := pos.Add(o.Offset())
		dstFillable := e.grid.FillableAt(dst)
		if dstFillable == nil {
			continue
		}
		if !curFillable.AllowOutflow(e.grid, pos, side) {
			continue
		}
		if !dstFillable.AllowInflow(e.grid, dst, side.Opposite(), f.ID) {
			continue
		}

		dstInst := e.grid.FluidAt(dst)
		switch {
		case dstInst.IsEmpty():
			// Пустой сосед принимает объём сразу. Если под соседом
			// открыт вертикальный сброс, весь объём уходит туда же,
			// иначе переносится ровно одна единица.
			if e.dropBeyond(dst, dstFillable, f, level) {
				e.clear(pos, f.ID)
				e.stats.Moves++
				return true
			}
			e.setDynamic(dst, f.ID, LevelOne, f.Viscosity)
			if level == LevelOne {
				e.clear(pos, f.ID)
			} else {
				e.setDynamic(pos, f.ID, level-1, f.Viscosity)
			}
			e.stats.Moves++
			return true

		case dstInst.ID == f.ID:
			if dstInst.Level >= level {
				continue
			}
			if !e.qualifiesHorizontal(pos, dst, o, f, level, dstInst.Level) {
				continue
			}
			// Побеждает сосед с наименьшим уровнем, при равенстве — первый
			if !haveTarget || dstInst.Level < targetLevel {
				targetPos = dst
				targetLevel = dstInst.Level
				haveTarget = true
			}

		case f.ChecksContact && MustGet(dstInst.ID).ReceivesContact:
			src := Contact{ID: f.ID, Pos: pos, Level: level}
			other := Contact{ID: dstInst.ID, Pos: dst, Level: dstInst.Level, Static: dstInst.Static}
			if e.contact.HandleContact(e.grid, src, other) {
				e.stats.Contacts++
				return true
			}
		}
	}

	if !haveTarget {
		return false
	}

	// Перенос одной единицы в выбранного соседа
	e.setDynamic(targetPos, f.ID, targetLevel+1, f.Viscosity)
	if level == LevelOne {
		e.clear(pos, f.ID)
	} else {
		e.setDynamic(pos, f.ID, level-1, f.Viscosity)
	}
	e.stats.Moves++
	return true
}

// qualifiesHorizontal проверяет, достоин ли сосед с меньшим уровнем стать
// целью горизонтального переноса. Простая разница в один уровень потока
// не порождает: требуется заметный перепад, давление полной клетки у
// поверхности либо продолжение спуска за соседом.
func (e *Engine) qualifiesHorizontal(pos, dst vec.Vec3, o vec.Orientation, f Fluid, level, dstLevel Level) bool {
	// Перепад больше одного шага
	if dstLevel < level-1 {
		return true
	}
	// Полная клетка у открытой поверхности давит в сторону закрытой
	if level == LevelEight && e.atSurface(pos, f) && !e.atSurface(dst, f) {
		return true
	}
	// За соседом уровень продолжает падать либо открывается пустота
	far := dst.Add(o.Offset())
	farInst := e.grid.FluidAt(far)
	if farInst.ID == f.ID && farInst.Level < dstLevel {
		return true
	}
	if farInst.IsEmpty() && e.grid.FillableAt(far) != nil {
		return true
	}
	return false
}

// atSurface сообщает, что против направления потока над клеткой
// нет той же жидкости, то есть клетка открыта
func (e *Engine) atSurface(pos vec.Vec3, f Fluid) bool {
	above := pos.Add(f.Flow.Opposite().Vector())
	return e.grid.FluidAt(above).ID != f.ID
}

// dropBeyond сбрасывает весь объём в пустую клетку за соседом по направлению
// потока, если обе клетки пропускают его. Перенос выглядит так, как если бы
// вертикальный поток сработал уже в соседе.
func (e *Engine) dropBeyond(dst vec.Vec3, dstFillable Fillable, f Fluid, level Level) bool {
	beyond := dst.Add(f.Flow.Vector())
	if !e.grid.Bounds().Contains(beyond.Y) {
		return false
	}
	beyondFillable := e.grid.FillableAt(beyond)
	if beyondFillable == nil {
		return false
	}
	if !e.grid.FluidAt(beyond).IsEmpty() {
		return false
	}
	if !dstFillable.AllowOutflow(e.grid, dst, f.Flow.ExitSide()) {
		return false
	}
	if !beyondFillable.AllowInflow(e.grid, beyond, f.Flow.EntrySide(), f.ID) {
		return false
	}
	e.setDynamic(beyond, f.ID, level, f.Viscosity)
	return true
}

// flowFar ищет в радиусе farFlowRange клетку той же жидкости с уровнем
// ниже минимум на два и переносит единицу напрямую, минуя промежуточные
// клетки. Это ускоряет выравнивание больших плоских объёмов, которым
// иначе потребовалось бы много пошаговых переносов.
func (e *Engine) flowFar(pos vec.Vec3, f Fluid, level Level) bool {
	if level < LevelThree {
		return false
	}

	type node struct {
		pos  vec.Vec3
		dist int
	}
	visited := map[vec.Vec3]bool{pos: true}
	queue := []node{{pos: pos, dist: 0}}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.dist == farFlowRange {
			continue
		}
		fromFillable := e.grid.FillableAt(n.pos)
		if fromFillable == nil {
			continue
		}

		for _, o := range shuffledOrientations(n.pos) {
			next := n.pos.Add(o.Offset())
			if visited[next] {
				continue
			}
			visited[next] = true

			side := o.Side()
			if !fromFillable.AllowOutflow(e.grid, n.pos, side) {
				continue
			}
			nextFillable := e.grid.FillableAt(next)
			if nextFillable == nil {
				continue
			}
			if !nextFillable.AllowInflow(e.grid, next, side.Opposite(), f.ID) {
				continue
			}

			inst := e.grid.FluidAt(next)
			dist := n.dist + 1
			// Ближние клетки обслуживает обычный горизонтальный поток
			if dist >= 2 && inst.ID == f.ID && inst.Level+2 <= level {
				e.setDynamic(next, f.ID, inst.Level+1, f.Viscosity)
				e.setDynamic(pos, f.ID, level-1, f.Viscosity)
				e.stats.Moves++
				return true
			}
			if inst.IsEmpty() || inst.ID == f.ID {
				queue = append(queue, node{pos: next, dist: dist})
			}
		}
	}
	return false
}

// flowPuddle позволяет минимальной порции ползти по плоской поверхности:
// единица объёма перетекает в пустого соседа, под которым есть куда
// спускаться. Так тонкая плёнка жидкости расползается по открытым плитам.
func (e *Engine) flowPuddle(pos vec.Vec3, f Fluid, level Level, curFillable Fillable) bool {
	if level != LevelOne {
		return false
	}
	belowSrc := pos.Add(f.Flow.Vector())

	for _, o := range shuffledOrientations(pos) {
		side := o.Side()
		dst := pos.Add(o.Offset())
		dstFillable := e.grid.FillableAt(dst)
		if dstFillable == nil {
			continue
		}
		if !curFillable.AllowOutflow(e.grid, pos, side) {
			continue
		}
		if !dstFillable.AllowInflow(e.grid, dst, side.Opposite(), f.ID) {
			continue
		}
		if !e.grid.FluidAt(dst).IsEmpty() {
			continue
		}

		// За соседом должен открываться спуск: либо та же жидкость
		// с незаполненным объёмом, либо пустая проходимая клетка,
		// когда сам источник стоит на твёрдой опоре
		below := dst.Add(f.Flow.Vector())
		belowInst := e.grid.FluidAt(below)
		ok := belowInst.ID == f.ID && belowInst.Level < LevelEight
		if !ok && belowInst.IsEmpty() &&
			e.grid.FillableAt(below) != nil &&
			e.grid.FluidAt(belowSrc).IsEmpty() {
			ok = true
		}
		if !ok {
			continue
		}

		e.setDynamic(dst, f.ID, LevelOne, f.Viscosity)
		e.clear(pos, f.ID)
		e.stats.Moves++
		return true
	}
	return false
}

// spreadOrDestroy раздаёт объём по шести соседям в фиксированном порядке;
// непоместившийся остаток уничтожается. Исходная клетка безусловно
// очищается независимо от исхода.
func (e *Engine) spreadOrDestroy(pos vec.Vec3, f Fluid, level Level) {
	sides := [6]vec.Side{
		vec.SideNorth, vec.SideEast, vec.SideSouth, vec.SideWest,
		f.Flow.ExitSide(), f.Flow.Opposite().ExitSide(),
	}

	units := level.Units()
	for i := 0; i < len(sides) && units > 0; i++ {
		side := sides[i]
		dst := pos.Add(side.Offset())
		if !e.grid.Bounds().Contains(dst.Y) {
			continue
		}
		dstFillable := e.grid.FillableAt(dst)
		if dstFillable == nil {
			continue
		}
		if !dstFillable.AllowInflow(e.grid, dst, side.Opposite(), f.ID) {
			continue
		}

		dstInst := e.grid.FluidAt(dst)
		switch {
		case dstInst.IsEmpty():
			// Пустой сосед вмещает любой остаток целиком
			e.setDynamic(dst, f.ID, Level(units-1), f.Viscosity)
			units = 0
		case dstInst.ID == f.ID && dstInst.Level < LevelEight:
			room := int(LevelEight - dstInst.Level)
			if units <= room {
				e.setDynamic(dst, f.ID, dstInst.Level+Level(units), f.Viscosity)
				units = 0
			} else {
				e.setDynamic(dst, f.ID, LevelEight, f.Viscosity)
				units -= room
			}
		}
	}

	if units > 0 {
		e.stats.Destroyed += uint64(units)
	}
	e.clear(pos, f.ID)
}

// setDynamic записывает динамичную жидкость и планирует её следующий тик
func (e *Engine) setDynamic(pos vec.Vec3, id ID, level Level, viscosity int) {
	if !level.Valid() {
		panic(fmt.Sprintf("fluid: недопустимый уровень %d при записи в %v", level, pos))
	}
	e.grid.SetFluid(pos, Instance{ID: id, Level: level, Static: false})
	e.sched.ScheduleTick(pos, id, viscosity)
}

// settle переводит клетку в стабильное состояние и снимает её тик
func (e *Engine) settle(pos vec.Vec3, id ID, level Level) {
	if !level.Valid() {
		panic(fmt.Sprintf("fluid: недопустимый уровень %d при стабилизации %v", level, pos))
	}
	e.grid.SetFluid(pos, Instance{ID: id, Level: level, Static: true})
	e.sched.CancelTick(pos, id)
}

// clear очищает клетку и снимает её тик
func (e *Engine) clear(pos vec.Vec3, id ID) {
	e.grid.ResetFluid(pos)
	e.sched.CancelTick(pos, id)
}
