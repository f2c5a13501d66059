package sim

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/annel0/fluid-sim/internal/eventbus"
	"github.com/annel0/fluid-sim/internal/fluid"
	"github.com/annel0/fluid-sim/internal/storage"
	"github.com/annel0/fluid-sim/internal/vec"
	"github.com/annel0/fluid-sim/internal/world"
	"github.com/annel0/fluid-sim/internal/world/block"
	_ "github.com/annel0/fluid-sim/internal/world/block/implementations"
	"github.com/stretchr/testify/assert"
)

// newTestSim собирает симулятор над пустым миром без хранилища и шины.
func newTestSim(bounds fluid.Range, opts Options) (*Simulator, *world.World, *fluid.TickScheduler) {
	sched := fluid.NewTickScheduler(0)
	w := world.NewWorld(nil, bounds, sched)
	engine := fluid.NewEngine(w, sched)
	return NewSimulator(w, engine, sched, opts), w, sched
}

// recordingBus запоминает опубликованные события
type recordingBus struct {
	mu        sync.Mutex
	envelopes []*eventbus.Envelope
}

func (b *recordingBus) Publish(ctx context.Context, ev *eventbus.Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.envelopes = append(b.envelopes, ev)
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, f eventbus.Filter, h eventbus.Handler) (eventbus.Subscription, error) {
	return nil, nil
}

func (b *recordingBus) Metrics() eventbus.Stats { return eventbus.Stats{} }

func newStorage(t *testing.T, dir string) *storage.WorldStorage {
	t.Helper()
	st, err := storage.NewWorldStorage(dir)
	if err != nil {
		t.Fatalf("Не удалось открыть хранилище: %v", err)
	}
	return st
}

func (b *recordingBus) byType(eventType string) []*eventbus.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*eventbus.Envelope
	for _, env := range b.envelopes {
		if env.EventType == eventType {
			out = append(out, env)
		}
	}
	return out
}

// enclose ставит каменное дно и четыре стены вокруг клетки, чтобы
// жидкость в ней не имела путей оттока.
func enclose(t *testing.T, w *world.World, pos vec.Vec3) {
	t.Helper()
	walls := []vec.Vec3{
		pos.Offset(0, -1, 0),
		pos.Offset(1, 0, 0), pos.Offset(-1, 0, 0),
		pos.Offset(0, 0, 1), pos.Offset(0, 0, -1),
	}
	for _, wall := range walls {
		if err := w.PlaceBlock(wall, block.StoneBlockID); err != nil {
			t.Fatalf("Не удалось поставить стену в %v: %v", wall, err)
		}
	}
}

func TestSimulator_RunFrame(t *testing.T) {
	// Один кадр обрабатывает запланированные тики и считает дельты
	s, w, sched := newTestSim(fluid.Range{0, 15}, Options{})

	// Замкнутая клетка: воде некуда течь, она должна осесть
	pos := vec.Vec3{X: 0, Y: 5, Z: 0}
	enclose(t, w, pos)
	err := w.PlaceFluid(pos, fluid.WaterID, fluid.LevelOne)
	assert.NoError(t, err, "Размещение воды не должно возвращать ошибку")
	assert.Equal(t, 1, sched.Pending(), "Воде должен быть запланирован тик")

	ev := s.RunFrame()
	assert.Equal(t, uint64(1), ev.Frame, "Первый кадр должен иметь номер 1")
	assert.Equal(t, uint64(1), ev.Processed, "Кадр должен обработать один тик")
	assert.Equal(t, uint64(1), ev.Settled, "Одинокая вода на камне должна осесть")
	assert.Equal(t, 0, sched.Pending(), "После оседания тиков не остаётся")

	// Пустой кадр — нулевые дельты
	ev = s.RunFrame()
	assert.Equal(t, uint64(2), ev.Frame, "Номер кадра должен расти")
	assert.Zero(t, ev.Processed, "Пустой кадр не обрабатывает тиков")
	assert.Zero(t, ev.Settled, "Дельты должны обнуляться между кадрами")
}

func TestSimulator_RunLoopDrainsFallingWater(t *testing.T) {
	// Полный цикл: вода, вылитая в пустом мире, падает и уходит
	// через нижнюю границу
	s, _, _ := newTestSim(fluid.Range{0, 15}, Options{TPS: 200})

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	err := s.PlaceFluid(ctx, vec.Vec3{X: 0, Y: 10, Z: 0}, fluid.WaterID, fluid.LevelEight)
	assert.NoError(t, err, "Размещение воды через симулятор не должно возвращать ошибку")

	assert.Eventually(t, func() bool {
		report, err := s.Report(context.Background())
		return err == nil &&
			report.Pending == 0 &&
			report.FluidCells == 0 &&
			report.Engine.Drained >= 1
	}, 5*time.Second, 10*time.Millisecond, "Вода должна стечь за нижнюю границу мира")

	cancel()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Симуляция не остановилась после отмены контекста")
	}
}

func TestSimulator_PublishesWorldEvents(t *testing.T) {
	// События мира уходят в шину с корректным конвертом
	bus := &recordingBus{}
	s, w, _ := newTestSim(fluid.Range{0, 15}, Options{Bus: bus, Source: "test-sim"})

	pos := vec.Vec3{X: 1, Y: 8, Z: 2}
	err := w.PlaceFluid(pos, fluid.WaterID, fluid.LevelThree)
	assert.NoError(t, err, "Размещение воды не должно возвращать ошибку")

	s.flushWorldEvents(context.Background())

	placed := bus.byType(EventFluidPlaced)
	assert.Len(t, placed, 1, "Должно быть опубликовано одно событие размещения")

	env := placed[0]
	assert.NotEmpty(t, env.ID, "Конверт должен иметь идентификатор")
	assert.Equal(t, "test-sim", env.Source, "Источник должен совпадать с настройкой")
	assert.Equal(t, 1, env.Version, "Версия схемы должна быть 1")

	var payload struct {
		Pos   vec.Vec3 `json:"pos"`
		Fluid uint8    `json:"fluid"`
		Units int      `json:"units"`
	}
	assert.NoError(t, json.Unmarshal(env.Payload, &payload), "Полезная нагрузка должна быть валидным JSON")
	assert.Equal(t, pos, payload.Pos, "Позиция в событии должна совпадать")
	assert.Equal(t, uint8(fluid.WaterID), payload.Fluid, "Тип жидкости должен совпадать")
	assert.Equal(t, 3, payload.Units, "Объём в событии должен совпадать")
}

func TestSimulator_FrameEventPublishedOnlyWithActivity(t *testing.T) {
	// Кадры без работы не засоряют шину
	bus := &recordingBus{}
	s, w, _ := newTestSim(fluid.Range{0, 15}, Options{Bus: bus})

	ctx := context.Background()

	// Кадр без активности
	ev := s.RunFrame()
	if ev.Processed+ev.Deferred+ev.Stale > 0 {
		s.publish(ctx, EventFrame, 1, ev)
	}
	assert.Empty(t, bus.byType(EventFrame), "Пустой кадр не должен публиковаться")

	// Кадр с активностью
	pos := vec.Vec3{X: 0, Y: 5, Z: 0}
	enclose(t, w, pos)
	_ = w.PlaceFluid(pos, fluid.WaterID, fluid.LevelOne)
	ev = s.RunFrame()
	if ev.Processed+ev.Deferred+ev.Stale > 0 {
		s.publish(ctx, EventFrame, 1, ev)
	}
	assert.Len(t, bus.byType(EventFrame), 1, "Кадр с активностью должен публиковаться")
}

func TestSimulator_SaveAndRestore(t *testing.T) {
	// Сохранение и восстановление мира через хранилище:
	// статичные жидкости возвращаются как есть, динамичные
	// снова получают тики
	tempDir, err := os.MkdirTemp("", "sim-save-test")
	assert.NoError(t, err, "Не удалось создать временную директорию")
	defer os.RemoveAll(tempDir)

	bounds := fluid.Range{0, 15}
	staticPos := vec.Vec3{X: 1, Y: 5, Z: 1}
	dynamicPos := vec.Vec3{X: 2, Y: 5, Z: 2}

	// Первый запуск: мир с жидкостями сохраняется
	st := newStorage(t, tempDir)
	s, w, _ := newTestSim(bounds, Options{Storage: st, Seed: 42})

	w.SetFluid(staticPos, fluid.Instance{ID: fluid.WaterID, Level: fluid.LevelEight, Static: true})
	err = w.PlaceFluid(dynamicPos, fluid.LavaID, fluid.LevelTwo)
	assert.NoError(t, err, "Размещение лавы не должно возвращать ошибку")

	saved := s.Save(context.Background(), true)
	assert.GreaterOrEqual(t, saved, 1, "Хотя бы один чанк должен сохраниться")
	assert.NoError(t, st.Close(), "Закрытие хранилища не должно возвращать ошибку")

	// Второй запуск: мир поднимается из хранилища
	st2 := newStorage(t, tempDir)
	defer st2.Close()
	_, w2, sched2 := newTestSim(bounds, Options{Storage: st2, Seed: 42})

	static := w2.FluidAt(staticPos)
	assert.Equal(t, fluid.WaterID, static.ID, "Статичная вода должна восстановиться")
	assert.True(t, static.Static, "Статичная вода должна остаться статичной")

	dynamic := w2.FluidAt(dynamicPos)
	assert.Equal(t, fluid.LavaID, dynamic.ID, "Динамичная лава должна восстановиться")
	assert.False(t, dynamic.Static, "Динамичная лава должна остаться динамичной")
	assert.Equal(t, 1, sched2.Pending(), "Динамичная лава должна снова получить тик")

	info, err := st2.LoadWorldInfo()
	assert.NoError(t, err, "Загрузка метаданных не должна возвращать ошибку")
	assert.NotNil(t, info, "Метаданные мира должны быть сохранены")
	assert.Equal(t, int64(42), info.Seed, "Сид в метаданных должен совпадать")
}
