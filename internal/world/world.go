package world

import (
	"fmt"
	"sort"

	"github.com/annel0/fluid-sim/internal/fluid"
	"github.com/annel0/fluid-sim/internal/logging"
	"github.com/annel0/fluid-sim/internal/vec"
	"github.com/annel0/fluid-sim/internal/world/block"
)

// ChunkLoader загружает ранее сохранённый чанк из хранилища.
// Возвращает nil, если чанк ещё не сохранялся.
type ChunkLoader func(coords vec.Vec3) *Chunk

// World хранит карту чанков и реализует fluid.Grid для движка
// жидкостей. Чанки создаются лениво: при первом обращении чанк
// загружается через ChunkLoader, а при его отсутствии генерируется.
//
// Мир принадлежит горутине симуляции. Все методы вызываются из неё,
// поэтому внутренняя синхронизация не требуется.
type World struct {
	chunks    map[vec.Vec3]*Chunk
	generator *Generator
	bounds    fluid.Range
	sched     fluid.Scheduler
	loader    ChunkLoader
	events    chan Event
}

// NewWorld создаёт мир с указанным генератором, вертикальными
// границами и планировщиком тиков. Генератор может быть nil — тогда
// новые чанки состоят из воздуха.
func NewWorld(gen *Generator, bounds fluid.Range, sched fluid.Scheduler) *World {
	return &World{
		chunks:    make(map[vec.Vec3]*Chunk),
		generator: gen,
		bounds:    bounds,
		sched:     sched,
		events:    make(chan Event, 1024),
	}
}

// SetChunkLoader устанавливает функцию загрузки чанков из хранилища.
// Загрузчик опрашивается до генератора.
func (w *World) SetChunkLoader(loader ChunkLoader) {
	w.loader = loader
}

// Events возвращает канал событий мира. События пишутся без
// блокировки: при переполнении канала событие отбрасывается.
func (w *World) Events() <-chan Event {
	return w.events
}

// ChunkAt возвращает чанк по координатам чанка, создавая его при
// необходимости.
func (w *World) ChunkAt(coords vec.Vec3) *Chunk {
	if chunk, exists := w.chunks[coords]; exists {
		return chunk
	}

	var chunk *Chunk
	if w.loader != nil {
		if chunk = w.loader(coords); chunk != nil {
			w.rescheduleDynamics(chunk)
		}
	}
	if chunk == nil {
		chunk = NewChunk(coords)
		if w.generator != nil {
			w.generator.Populate(chunk)
		}
	}
	w.chunks[coords] = chunk
	return chunk
}

// rescheduleDynamics планирует тики всем динамичным жидкостям
// загруженного чанка: нестатичная жидкость обязана иметь
// запланированный тик.
func (w *World) rescheduleDynamics(chunk *Chunk) {
	base := vec.Vec3{
		X: chunk.Coords.X << 4,
		Y: chunk.Coords.Y << 4,
		Z: chunk.Coords.Z << 4,
	}
	for y := 0; y < ChunkSize; y++ {
		for z := 0; z < ChunkSize; z++ {
			for x := 0; x < ChunkSize; x++ {
				inst := chunk.FluidAt(vec.Vec3{X: x, Y: y, Z: z})
				if inst.IsEmpty() || inst.Static {
					continue
				}
				w.sched.ScheduleTick(base.Offset(x, y, z), inst.ID, fluid.MustGet(inst.ID).Viscosity)
			}
		}
	}
}

// chunkFor возвращает чанк, содержащий мировую позицию pos.
func (w *World) chunkFor(pos vec.Vec3) *Chunk {
	return w.ChunkAt(pos.ToChunkCoords())
}

// BlockAt возвращает блок по мировым координатам.
// За вертикальными границами мира всегда воздух.
func (w *World) BlockAt(pos vec.Vec3) block.BlockID {
	if !w.bounds.Contains(pos.Y) {
		return block.AirBlockID
	}
	return w.chunkFor(pos).BlockAt(pos.LocalInChunk())
}

// FillableAt возвращает поведение блока, если блок в клетке принимает
// жидкость, и nil в остальных случаях. За границами мира всегда nil.
func (w *World) FillableAt(pos vec.Vec3) fluid.Fillable {
	if !w.bounds.Contains(pos.Y) {
		return nil
	}
	behavior, exists := block.Get(w.chunkFor(pos).BlockAt(pos.LocalInChunk()))
	if !exists {
		return nil
	}
	fillable, ok := behavior.(fluid.Fillable)
	if !ok {
		return nil
	}
	return fillable
}

// FluidAt возвращает жидкость по мировым координатам. За границами
// мира возвращается пустой Instance.
func (w *World) FluidAt(pos vec.Vec3) fluid.Instance {
	if !w.bounds.Contains(pos.Y) {
		return fluid.Instance{}
	}
	return w.chunkFor(pos).FluidAt(pos.LocalInChunk())
}

// SetFluid записывает жидкость по мировым координатам. Запись за
// вертикальными границами — ошибка программирования.
func (w *World) SetFluid(pos vec.Vec3, inst fluid.Instance) {
	if !w.bounds.Contains(pos.Y) {
		panic(fmt.Sprintf("запись жидкости за границами мира: %v", pos))
	}
	w.chunkFor(pos).SetFluid(pos.LocalInChunk(), inst)
}

// ResetFluid очищает клетку от жидкости по мировым координатам.
func (w *World) ResetFluid(pos vec.Vec3) {
	if !w.bounds.Contains(pos.Y) {
		panic(fmt.Sprintf("очистка жидкости за границами мира: %v", pos))
	}
	w.chunkFor(pos).ResetFluid(pos.LocalInChunk())
}

// Bounds возвращает вертикальные границы мира.
func (w *World) Bounds() fluid.Range {
	return w.bounds
}

// PlaceFluid помещает жидкость в клетку по внешнему запросу и
// планирует ей тик. Существующая жидкость в клетке замещается.
func (w *World) PlaceFluid(pos vec.Vec3, id fluid.ID, level fluid.Level) error {
	f, exists := fluid.Get(id)
	if !exists {
		return fmt.Errorf("неизвестная жидкость: %d", id)
	}
	if !level.Valid() {
		return fmt.Errorf("недопустимый уровень жидкости: %d", level)
	}
	if !w.bounds.Contains(pos.Y) {
		return fmt.Errorf("позиция %v за границами мира %v", pos, w.bounds)
	}
	if w.FillableAt(pos) == nil {
		return fmt.Errorf("блок в %v не принимает жидкость", pos)
	}

	if prev := w.FluidAt(pos); !prev.IsEmpty() && prev.ID != id {
		w.sched.CancelTick(pos, prev.ID)
	}

	w.SetFluid(pos, fluid.Instance{ID: id, Level: level})
	w.sched.ScheduleTick(pos, id, f.Viscosity)

	w.emit(FluidEvent{
		EventType: EventTypeFluidPlaced,
		Position:  pos,
		Fluid:     id,
		Level:     level,
	})
	return nil
}

// RemoveFluid удаляет жидкость из клетки по внешнему запросу.
// Соседние жидкости пробуждаются: освободившаяся клетка могла
// открыть им путь.
func (w *World) RemoveFluid(pos vec.Vec3) error {
	if !w.bounds.Contains(pos.Y) {
		return fmt.Errorf("позиция %v за границами мира %v", pos, w.bounds)
	}
	inst := w.FluidAt(pos)
	if inst.IsEmpty() {
		return fmt.Errorf("в клетке %v нет жидкости", pos)
	}

	w.sched.CancelTick(pos, inst.ID)
	w.ResetFluid(pos)
	w.wakeNeighbours(pos)

	w.emit(FluidEvent{
		EventType: EventTypeFluidRemoved,
		Position:  pos,
		Fluid:     inst.ID,
		Level:     inst.Level,
	})
	return nil
}

// PlaceBlock устанавливает блок по внешнему запросу. Жидкость в
// изменённой клетке и в соседних клетках пробуждается: новый блок
// мог открыть или перекрыть пути потока.
func (w *World) PlaceBlock(pos vec.Vec3, id block.BlockID) error {
	if !block.IsValidBlockID(id) {
		return fmt.Errorf("неизвестный блок: %d", id)
	}
	if !w.bounds.Contains(pos.Y) {
		return fmt.Errorf("позиция %v за границами мира %v", pos, w.bounds)
	}

	w.chunkFor(pos).SetBlock(pos.LocalInChunk(), id)

	if inst := w.FluidAt(pos); !inst.IsEmpty() {
		w.sched.TickSoon(pos, inst.ID)
	}
	w.wakeNeighbours(pos)

	w.emit(BlockEvent{
		EventType: EventTypeBlockPlaced,
		Position:  pos,
		Block:     id,
	})
	return nil
}

// wakeNeighbours планирует ближайший тик всем жидкостям в шести
// соседних клетках.
func (w *World) wakeNeighbours(pos vec.Vec3) {
	for side := vec.SideTop; side <= vec.SideWest; side++ {
		neighbour := pos.Add(side.Offset())
		if !w.bounds.Contains(neighbour.Y) {
			continue
		}
		if inst := w.FluidAt(neighbour); !inst.IsEmpty() {
			w.sched.TickSoon(neighbour, inst.ID)
		}
	}
}

// CellInfo описывает содержимое одной клетки мира.
type CellInfo struct {
	Pos   vec.Vec3
	Block block.BlockID
	Fluid fluid.Instance
}

// Cell возвращает содержимое клетки по мировым координатам.
func (w *World) Cell(pos vec.Vec3) CellInfo {
	return CellInfo{
		Pos:   pos,
		Block: w.BlockAt(pos),
		Fluid: w.FluidAt(pos),
	}
}

// LoadedChunks возвращает количество загруженных чанков.
func (w *World) LoadedChunks() int {
	return len(w.chunks)
}

// DirtyChunks возвращает чанки с несохранёнными изменениями в
// детерминированном порядке.
func (w *World) DirtyChunks() []*Chunk {
	dirty := make([]*Chunk, 0)
	for _, chunk := range w.chunks {
		if chunk.Dirty() {
			dirty = append(dirty, chunk)
		}
	}
	sort.Slice(dirty, func(i, j int) bool {
		return dirty[i].Coords.Less(dirty[j].Coords)
	})
	return dirty
}

// ActiveFluidCells возвращает количество клеток с жидкостью во всех
// загруженных чанках.
func (w *World) ActiveFluidCells() int {
	count := 0
	for _, chunk := range w.chunks {
		for i := range chunk.fluids {
			if chunk.fluids[i].ID != fluid.None {
				count++
			}
		}
	}
	return count
}

// emit отправляет событие в канал без блокировки. При переполнении
// канала событие отбрасывается.
func (w *World) emit(ev Event) {
	select {
	case w.events <- ev:
	default:
		logging.Warn("Канал событий мира переполнен, событие типа %d отброшено", ev.GetType())
	}
}
