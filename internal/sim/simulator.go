package sim

import (
	"context"
	"encoding/json"
	"time"

	"github.com/annel0/fluid-sim/internal/eventbus"
	"github.com/annel0/fluid-sim/internal/fluid"
	"github.com/annel0/fluid-sim/internal/logging"
	"github.com/annel0/fluid-sim/internal/storage"
	"github.com/annel0/fluid-sim/internal/vec"
	"github.com/annel0/fluid-sim/internal/world"
	"github.com/annel0/fluid-sim/internal/world/block"
	"github.com/google/uuid"
)

// DefaultTPS — частота кадров симуляции по умолчанию
const DefaultTPS = 20

// gaugeEveryFrames задаёт период обновления gauge-метрик мира:
// подсчёт клеток с жидкостью обходит все чанки и слишком дорог
// для каждого кадра.
const gaugeEveryFrames = 20

// Типы событий, публикуемых в шину
const (
	EventFluidPlaced  = "fluid.placed"
	EventFluidRemoved = "fluid.removed"
	EventBlockPlaced  = "block.placed"
	EventFrame        = "sim.frame"
	EventSave         = "sim.save"
)

// Options настраивают симулятор. Storage, Bus и Metrics опциональны.
type Options struct {
	TPS      int           // Кадров в секунду (по умолчанию DefaultTPS)
	Autosave time.Duration // Период автосохранения (0 — выключено)
	Seed     int64         // Сид мира для метаданных хранилища
	Source   string        // Имя источника в событиях

	Storage *storage.WorldStorage
	Bus     eventbus.EventBus
	Metrics *Metrics
}

// Simulator владеет миром и выполняет цикл симуляции в одной горутине.
// Все обращения к миру извне проходят через DoSync, что избавляет
// мир и движок от внутренней синхронизации.
type Simulator struct {
	world  *world.World
	engine *fluid.Engine
	sched  *fluid.TickScheduler

	storage *storage.WorldStorage
	bus     eventbus.EventBus
	metrics *Metrics

	tps      int
	autosave time.Duration
	seed     int64
	source   string

	cmds chan func()
	done chan struct{}

	prevSched  fluid.SchedulerStats
	prevEngine fluid.Stats
}

// NewSimulator создаёт симулятор поверх готового мира, движка и
// планировщика. Если задано хранилище, мир получает загрузчик чанков.
func NewSimulator(w *world.World, engine *fluid.Engine, sched *fluid.TickScheduler, opts Options) *Simulator {
	if opts.TPS <= 0 {
		opts.TPS = DefaultTPS
	}
	if opts.Source == "" {
		opts.Source = "fluid-sim"
	}

	s := &Simulator{
		world:    w,
		engine:   engine,
		sched:    sched,
		storage:  opts.Storage,
		bus:      opts.Bus,
		metrics:  opts.Metrics,
		tps:      opts.TPS,
		autosave: opts.Autosave,
		seed:     opts.Seed,
		source:   opts.Source,
		cmds:     make(chan func(), 128),
		done:     make(chan struct{}),
	}

	if s.storage != nil {
		w.SetChunkLoader(func(coords vec.Vec3) *world.Chunk {
			chunk, err := s.storage.LoadChunk(coords)
			if err != nil {
				logging.Error("Ошибка загрузки чанка %v: %v", coords, err)
				return nil
			}
			return chunk
		})
	}
	return s
}

// Done закрывается после полной остановки цикла симуляции.
func (s *Simulator) Done() <-chan struct{} {
	return s.done
}

// Run выполняет цикл симуляции до отмены контекста. Перед выходом
// мир принудительно сохраняется.
func (s *Simulator) Run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(time.Second / time.Duration(s.tps))
	defer ticker.Stop()

	var autosaveC <-chan time.Time
	if s.storage != nil && s.autosave > 0 {
		autoTicker := time.NewTicker(s.autosave)
		defer autoTicker.Stop()
		autosaveC = autoTicker.C
	}

	logging.Info("🌊 Симуляция запущена: %d TPS, автосохранение каждые %v", s.tps, s.autosave)

	for {
		select {
		case <-ctx.Done():
			// Контекст уже отменён, сохранение идёт со своим сроком
			saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			s.Save(saveCtx, true)
			cancel()
			logging.Info("🛑 Симуляция остановлена на кадре %d", s.sched.Frame())
			return

		case fn := <-s.cmds:
			fn()

		case <-ticker.C:
			ev := s.RunFrame()
			s.flushWorldEvents(ctx)
			if ev.Processed+ev.Deferred+ev.Stale > 0 {
				s.publish(ctx, EventFrame, 1, ev)
			}
			if s.metrics != nil && ev.Frame%gaugeEveryFrames == 0 {
				s.metrics.SetWorldState(s.sched.Pending(), s.world.LoadedChunks(), s.world.ActiveFluidCells())
			}

		case <-autosaveC:
			s.Save(ctx, false)
		}
	}
}

// RunFrame выполняет один кадр симуляции и возвращает его итоги.
// Используется циклом Run и напрямую в тестах.
func (s *Simulator) RunFrame() world.FrameEvent {
	start := time.Now()
	s.sched.Advance(func(pos vec.Vec3, id fluid.ID) {
		s.engine.ScheduledUpdate(pos)
	})

	schedStats := s.sched.Stats()
	engineStats := s.engine.Stats()
	ev := world.FrameEvent{
		Frame:     schedStats.Frame,
		Processed: schedStats.Processed - s.prevSched.Processed,
		Deferred:  schedStats.Deferred - s.prevSched.Deferred,
		Stale:     schedStats.Stale - s.prevSched.Stale,
		Moves:     engineStats.Moves - s.prevEngine.Moves,
		Settled:   engineStats.Settled - s.prevEngine.Settled,
		Drained:   engineStats.Drained - s.prevEngine.Drained,
		Destroyed: engineStats.Destroyed - s.prevEngine.Destroyed,
		Contacts:  engineStats.Contacts - s.prevEngine.Contacts,
	}
	s.prevSched, s.prevEngine = schedStats, engineStats

	if s.metrics != nil {
		s.metrics.ObserveFrame(ev, time.Since(start))
	}
	return ev
}

// Save сохраняет изменённые чанки и метаданные мира.
// Возвращает количество сохранённых чанков.
func (s *Simulator) Save(ctx context.Context, forced bool) int {
	if s.storage == nil {
		return 0
	}

	saved := 0
	for _, chunk := range s.world.DirtyChunks() {
		if err := s.storage.SaveChunk(chunk); err != nil {
			logging.Error("Ошибка сохранения чанка %v: %v", chunk.Coords, err)
			continue
		}
		saved++
	}

	bounds := s.world.Bounds()
	info := storage.WorldInfo{
		Seed:    s.seed,
		Bounds:  [2]int{bounds.Min(), bounds.Max()},
		SavedAt: time.Now().UTC(),
	}
	if err := s.storage.SaveWorldInfo(info); err != nil {
		logging.Error("Ошибка сохранения метаданных мира: %v", err)
	}

	if saved > 0 || forced {
		logging.Info("💾 Сохранено чанков: %d", saved)
		s.publish(ctx, EventSave, 5, world.SaveEvent{Forced: forced, Chunks: saved})
	}
	return saved
}

// DoSync выполняет fn в горутине симуляции и дожидается завершения.
// Требует запущенного цикла Run.
func (s *Simulator) DoSync(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	select {
	case s.cmds <- func() {
		fn()
		close(ran)
	}:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return context.Canceled
	}

	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return context.Canceled
	}
}

// PlaceFluid помещает жидкость в мир из внешнего запроса.
func (s *Simulator) PlaceFluid(ctx context.Context, pos vec.Vec3, id fluid.ID, level fluid.Level) error {
	var err error
	if derr := s.DoSync(ctx, func() {
		err = s.world.PlaceFluid(pos, id, level)
	}); derr != nil {
		return derr
	}
	return err
}

// RemoveFluid удаляет жидкость из мира из внешнего запроса.
func (s *Simulator) RemoveFluid(ctx context.Context, pos vec.Vec3) error {
	var err error
	if derr := s.DoSync(ctx, func() {
		err = s.world.RemoveFluid(pos)
	}); derr != nil {
		return derr
	}
	return err
}

// PlaceBlock устанавливает блок в мире из внешнего запроса.
func (s *Simulator) PlaceBlock(ctx context.Context, pos vec.Vec3, id block.BlockID) error {
	var err error
	if derr := s.DoSync(ctx, func() {
		err = s.world.PlaceBlock(pos, id)
	}); derr != nil {
		return derr
	}
	return err
}

// CellInfo возвращает содержимое клетки мира.
func (s *Simulator) CellInfo(ctx context.Context, pos vec.Vec3) (world.CellInfo, error) {
	var info world.CellInfo
	if err := s.DoSync(ctx, func() {
		info = s.world.Cell(pos)
	}); err != nil {
		return world.CellInfo{}, err
	}
	return info, nil
}

// StatsReport — сводка состояния симуляции для внешних запросов
type StatsReport struct {
	Frame        uint64               `json:"frame"`
	Pending      int                  `json:"pending_ticks"`
	LoadedChunks int                  `json:"loaded_chunks"`
	FluidCells   int                  `json:"fluid_cells"`
	Engine       fluid.Stats          `json:"engine"`
	Scheduler    fluid.SchedulerStats `json:"scheduler"`
}

// Report собирает сводку состояния симуляции.
func (s *Simulator) Report(ctx context.Context) (StatsReport, error) {
	var report StatsReport
	if err := s.DoSync(ctx, func() {
		report = StatsReport{
			Frame:        s.sched.Frame(),
			Pending:      s.sched.Pending(),
			LoadedChunks: s.world.LoadedChunks(),
			FluidCells:   s.world.ActiveFluidCells(),
			Engine:       s.engine.Stats(),
			Scheduler:    s.sched.Stats(),
		}
	}); err != nil {
		return StatsReport{}, err
	}
	return report, nil
}

// fluidPayload — полезная нагрузка событий жидкостей
type fluidPayload struct {
	Pos   vec.Vec3 `json:"pos"`
	Fluid uint8    `json:"fluid"`
	Units int      `json:"units"`
}

// blockPayload — полезная нагрузка событий блоков
type blockPayload struct {
	Pos   vec.Vec3 `json:"pos"`
	Block uint16   `json:"block"`
}

// flushWorldEvents переносит накопленные события мира в шину.
func (s *Simulator) flushWorldEvents(ctx context.Context) {
	for {
		select {
		case ev := <-s.world.Events():
			s.publishWorldEvent(ctx, ev)
		default:
			return
		}
	}
}

func (s *Simulator) publishWorldEvent(ctx context.Context, ev world.Event) {
	switch e := ev.(type) {
	case world.FluidEvent:
		topic := EventFluidPlaced
		if e.GetType() == world.EventTypeFluidRemoved {
			topic = EventFluidRemoved
		}
		s.publish(ctx, topic, 5, fluidPayload{
			Pos:   e.Position,
			Fluid: uint8(e.Fluid),
			Units: e.Level.Units(),
		})
	case world.BlockEvent:
		s.publish(ctx, EventBlockPlaced, 5, blockPayload{
			Pos:   e.Position,
			Block: uint16(e.Block),
		})
	}
}

// publish сериализует полезную нагрузку и отправляет её в шину.
func (s *Simulator) publish(ctx context.Context, eventType string, priority int, payload interface{}) {
	if s.bus == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Ошибка сериализации события %s: %v", eventType, err)
		return
	}

	env := &eventbus.Envelope{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Source:    s.source,
		EventType: eventType,
		Version:   1,
		Priority:  priority,
		Payload:   data,
	}
	if err := s.bus.Publish(ctx, env); err != nil {
		logging.Warn("Не удалось опубликовать событие %s: %v", eventType, err)
	}
}
