package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/fluid-sim/internal/api"
	"github.com/annel0/fluid-sim/internal/config"
	"github.com/annel0/fluid-sim/internal/eventbus"
	"github.com/annel0/fluid-sim/internal/fluid"
	"github.com/annel0/fluid-sim/internal/logging"
	"github.com/annel0/fluid-sim/internal/observability"
	"github.com/annel0/fluid-sim/internal/sim"
	"github.com/annel0/fluid-sim/internal/storage"
	"github.com/annel0/fluid-sim/internal/world"

	// Регистрация встроенных типов блоков
	_ "github.com/annel0/fluid-sim/internal/world/block/implementations"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML файлу конфигурации")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🌊 Запуск сервера симуляции жидкостей...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}
	if cfg == nil {
		cfg = &config.Config{}
		logging.Info("⚙️  Конфигурация не задана, используются значения по умолчанию")
	}

	restAddr := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	metricsAddr := fmt.Sprintf(":%d", cfg.Server.GetMetricsPort())
	minY, maxY := cfg.Simulation.GetBounds()
	logging.Info("📡 Конфигурация: TPS=%d, мир Y=%d..%d, REST=%s, метрики=%s",
		cfg.Simulation.GetTPS(), minY, maxY, restAddr, metricsAddr)

	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := observability.InitTelemetry(context.Background(), cfg.Telemetry.GetServiceName())
		if err != nil {
			logging.Error("❌ Ошибка инициализации телеметрии: %v", err)
		} else {
			defer func() {
				if err := shutdownTelemetry(context.Background()); err != nil {
					logging.Error("Ошибка остановки телеметрии: %v", err)
				}
			}()
		}
	}

	// === ХРАНИЛИЩЕ ===
	worldStorage, err := storage.NewWorldStorage(cfg.Storage.GetPath())
	if err != nil {
		logging.Error("❌ Ошибка открытия хранилища: %v", err)
		log.Fatalf("❌ Ошибка открытия хранилища: %v", err)
	}
	defer worldStorage.Close()

	// Сохранённый мир диктует сид и границы, конфиг — только для нового
	bounds := fluid.Range{minY, maxY}
	seed := cfg.Simulation.Seed
	if info, err := worldStorage.LoadWorldInfo(); err != nil {
		logging.Error("❌ Ошибка чтения метаданных мира: %v", err)
		log.Fatalf("❌ Ошибка чтения метаданных мира: %v", err)
	} else if info != nil {
		seed = info.Seed
		bounds = fluid.Range{info.Bounds[0], info.Bounds[1]}
		logging.Info("💾 Найден сохранённый мир: seed=%d, Y=%d..%d (сохранён %s)",
			seed, bounds.Min(), bounds.Max(), info.SavedAt.Format(time.RFC3339))
	} else if seed == 0 {
		seed = time.Now().UnixNano()
		logging.Info("🎲 Новый мир со случайным сидом %d", seed)
	}

	// === ШИНА СОБЫТИЙ ===
	var bus eventbus.EventBus
	var jetBus *eventbus.JetStreamBus
	if cfg.EventBus.URL != "" {
		jetBus, err = eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream, cfg.EventBus.GetRetention())
		if err != nil {
			logging.Error("⚠️  NATS недоступен (%v), используется in-memory шина", err)
			jetBus = nil
			bus = eventbus.NewMemoryBus(1024)
		} else {
			logging.Info("🚌 EventBus: JetStream %s", cfg.EventBus.URL)
			bus = jetBus
		}
	} else {
		logging.Info("🚌 EventBus: in-memory")
		bus = eventbus.NewMemoryBus(1024)
	}
	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Error("Ошибка подписки лог-слушателя: %v", err)
	}

	exporter := eventbus.NewMetricsExporter(bus)
	exporter.StartHTTP(metricsAddr)

	// === СИМУЛЯЦИЯ ===
	sched := fluid.NewTickScheduler(cfg.Simulation.ChunkTickCap)
	generator := world.NewGenerator(seed, bounds)
	w := world.NewWorld(generator, bounds, sched)
	engine := fluid.NewEngine(w, sched)

	simulator := sim.NewSimulator(w, engine, sched, sim.Options{
		TPS:      cfg.Simulation.GetTPS(),
		Autosave: cfg.Storage.GetAutosave(),
		Seed:     seed,
		Source:   cfg.Telemetry.GetServiceName(),
		Storage:  worldStorage,
		Bus:      bus,
		Metrics:  sim.NewMetrics(),
	})

	simCtx, stopSim := context.WithCancel(context.Background())
	go simulator.Run(simCtx)

	// === REST API ===
	restServer := api.NewRestServer(api.Config{
		Port: restAddr,
		Sim:  simulator,
	})
	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("❌ Ошибка REST API сервера: %v", err)
		}
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost%s", restAddr)
	logging.Info("   📈 Метрики: http://localhost%s/metrics", metricsAddr)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restAddr)
	logging.Info("💡 Примеры использования:")
	logging.Info("   curl http://localhost%s/api/fluids/types", restAddr)
	logging.Info("   curl -X POST http://localhost%s/api/fluids -H 'Content-Type: application/json' -d '{\"x\":0,\"y\":80,\"z\":0,\"fluid\":\"water\",\"level\":8}'", restAddr)

	// Ждем сигнала для завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	// Сначала перестаём принимать запросы, затем гасим симуляцию:
	// она сохраняет мир в своём цикле остановки
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := restServer.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}

	stopSim()
	<-simulator.Done()

	exporter.Stop()
	if jetBus != nil {
		if err := jetBus.Close(); err != nil {
			logging.Error("Ошибка закрытия NATS: %v", err)
		}
	}

	logging.Info("👋 Сервер успешно остановлен")
}
