package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithoutPath(t *testing.T) {
	t.Setenv("FLUID_CONFIG", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load без пути вернул ошибку: %v", err)
	}
	if cfg != nil {
		t.Error("Без пути и без ENV конфиг должен быть nil")
	}
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	data := []byte(`
simulation:
  tps: 40
  seed: 777
  world_min_y: -64
  world_max_y: 255
storage:
  path: /var/lib/fluid
  autosave_seconds: 30
eventbus:
  url: nats://localhost:4222
  stream: TEST_EVENTS
  retention_hours: 12
server:
  rest_port: 9000
telemetry:
  enabled: true
  service_name: fluid-test
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Не удалось записать файл конфигурации: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load вернул ошибку: %v", err)
	}
	if cfg.Simulation.GetTPS() != 40 {
		t.Errorf("TPS: ожидалось 40, получено %d", cfg.Simulation.GetTPS())
	}
	if cfg.Simulation.Seed != 777 {
		t.Errorf("Seed: ожидалось 777, получено %d", cfg.Simulation.Seed)
	}
	min, max := cfg.Simulation.GetBounds()
	if min != -64 || max != 255 {
		t.Errorf("Границы: ожидалось -64..255, получено %d..%d", min, max)
	}
	if cfg.Storage.GetPath() != "/var/lib/fluid" {
		t.Errorf("Путь хранилища: получено %q", cfg.Storage.GetPath())
	}
	if cfg.Storage.GetAutosave() != 30*time.Second {
		t.Errorf("Автосохранение: получено %v", cfg.Storage.GetAutosave())
	}
	if cfg.EventBus.GetRetention() != 12*time.Hour {
		t.Errorf("Retention: получено %v", cfg.EventBus.GetRetention())
	}
	if cfg.Server.GetRESTPort() != 9000 {
		t.Errorf("REST порт: получено %d", cfg.Server.GetRESTPort())
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.GetServiceName() != "fluid-test" {
		t.Errorf("Телеметрия: получено %+v", cfg.Telemetry)
	}
}

func TestDefaults(t *testing.T) {
	t.Setenv("FLUID_TPS", "")
	t.Setenv("FLUID_REST_PORT", "")
	t.Setenv("FLUID_METRICS_PORT", "")
	t.Setenv("FLUID_DATA_PATH", "")

	var cfg Config
	if got := cfg.Simulation.GetTPS(); got != 20 {
		t.Errorf("TPS по умолчанию: ожидалось 20, получено %d", got)
	}
	min, max := cfg.Simulation.GetBounds()
	if min != 0 || max != 127 {
		t.Errorf("Границы по умолчанию: ожидалось 0..127, получено %d..%d", min, max)
	}
	if got := cfg.Storage.GetPath(); got != "./data" {
		t.Errorf("Путь по умолчанию: получено %q", got)
	}
	if got := cfg.Storage.GetAutosave(); got != time.Minute {
		t.Errorf("Автосохранение по умолчанию: получено %v", got)
	}
	if got := cfg.Server.GetRESTPort(); got != 8088 {
		t.Errorf("REST порт по умолчанию: получено %d", got)
	}
	if got := cfg.Server.GetMetricsPort(); got != 2112 {
		t.Errorf("Порт метрик по умолчанию: получено %d", got)
	}
	if got := cfg.EventBus.GetRetention(); got != 24*time.Hour {
		t.Errorf("Retention по умолчанию: получено %v", got)
	}
	if got := cfg.Telemetry.GetServiceName(); got != "fluid-sim" {
		t.Errorf("Имя сервиса по умолчанию: получено %q", got)
	}
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("FLUID_TPS", "60")
	t.Setenv("FLUID_REST_PORT", "9999")

	var cfg Config
	if got := cfg.Simulation.GetTPS(); got != 60 {
		t.Errorf("TPS из ENV: ожидалось 60, получено %d", got)
	}
	if got := cfg.Server.GetRESTPort(); got != 9999 {
		t.Errorf("REST порт из ENV: ожидалось 9999, получено %d", got)
	}

	// Конфиг имеет приоритет над ENV
	cfg.Server.RESTPort = 8000
	if got := cfg.Server.GetRESTPort(); got != 8000 {
		t.Errorf("Приоритет конфига: ожидалось 8000, получено %d", got)
	}
}

func TestAutosaveDisabled(t *testing.T) {
	cfg := Config{Storage: StorageConfig{AutosaveSeconds: -1}}
	if got := cfg.Storage.GetAutosave(); got != 0 {
		t.Errorf("Отрицательный период должен отключать автосохранение, получено %v", got)
	}
}
