package sim

import (
	"time"

	"github.com/annel0/fluid-sim/internal/world"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — Prometheus-метрики симуляции жидкостей.
//
// Метрики:
// * fluidsim_frames_total — counter кадров
// * fluidsim_ticks_processed_total / deferred / stale — работа планировщика
// * fluidsim_moves_total, settled_total, drained_total, destroyed_total,
//   contacts_total — работа движка
// * fluidsim_pending_ticks, loaded_chunks, fluid_cells — gauge состояния мира
// * fluidsim_frame_duration_seconds — histogram длительности кадра
type Metrics struct {
	frames         prometheus.Counter
	ticksProcessed prometheus.Counter
	ticksDeferred  prometheus.Counter
	ticksStale     prometheus.Counter
	moves          prometheus.Counter
	settled        prometheus.Counter
	drained        prometheus.Counter
	destroyed      prometheus.Counter
	contacts       prometheus.Counter

	pendingTicks prometheus.Gauge
	loadedChunks prometheus.Gauge
	fluidCells   prometheus.Gauge

	frameDuration prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в дефолтном регистре.
func NewMetrics() *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fluidsim",
			Name:      name,
			Help:      help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fluidsim",
			Name:      name,
			Help:      help,
		})
	}

	m := &Metrics{
		frames:         counter("frames_total", "Общее число кадров симуляции."),
		ticksProcessed: counter("ticks_processed_total", "Общее число обработанных тиков жидкостей."),
		ticksDeferred:  counter("ticks_deferred_total", "Тиков, отложенных из-за лимита на чанк."),
		ticksStale:     counter("ticks_stale_total", "Пропущенных устаревших тиков."),
		moves:          counter("moves_total", "Перемещений объёма между клетками."),
		settled:        counter("settled_total", "Клеток, перешедших в статичное состояние."),
		drained:        counter("drained_total", "Клеток, осушенных на границе мира."),
		destroyed:      counter("destroyed_total", "Единиц объёма, уничтоженных при вытеснении."),
		contacts:       counter("contacts_total", "Разрешённых контактов разных жидкостей."),
		pendingTicks:   gauge("pending_ticks", "Текущее число запланированных тиков."),
		loadedChunks:   gauge("loaded_chunks", "Количество загруженных чанков."),
		fluidCells:     gauge("fluid_cells", "Количество клеток с жидкостью."),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fluidsim",
			Name:      "frame_duration_seconds",
			Help:      "Длительность одного кадра симуляции.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}

	prometheus.MustRegister(
		m.frames, m.ticksProcessed, m.ticksDeferred, m.ticksStale,
		m.moves, m.settled, m.drained, m.destroyed, m.contacts,
		m.pendingTicks, m.loadedChunks, m.fluidCells, m.frameDuration,
	)
	return m
}

// ObserveFrame фиксирует итоги одного кадра.
func (m *Metrics) ObserveFrame(ev world.FrameEvent, duration time.Duration) {
	m.frames.Inc()
	m.ticksProcessed.Add(float64(ev.Processed))
	m.ticksDeferred.Add(float64(ev.Deferred))
	m.ticksStale.Add(float64(ev.Stale))
	m.moves.Add(float64(ev.Moves))
	m.settled.Add(float64(ev.Settled))
	m.drained.Add(float64(ev.Drained))
	m.destroyed.Add(float64(ev.Destroyed))
	m.contacts.Add(float64(ev.Contacts))
	m.frameDuration.Observe(duration.Seconds())
}

// SetWorldState обновляет gauge-метрики состояния мира.
// Обход всех чанков недёшев, поэтому вызывается периодически,
// а не каждый кадр.
func (m *Metrics) SetWorldState(pending, chunks, cells int) {
	m.pendingTicks.Set(float64(pending))
	m.loadedChunks.Set(float64(chunks))
	m.fluidCells.Set(float64(cells))
}
