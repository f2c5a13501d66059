package config

import (
	"io/ioutil"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера симуляции.
// Все поля опциональны: нулевые значения заменяются дефолтами
// через Get*-методы секций.

type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Storage    StorageConfig    `yaml:"storage"`
	EventBus   EventBusConfig   `yaml:"eventbus"`
	Server     ServerConfig     `yaml:"server"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

type SimulationConfig struct {
	TPS          int   `yaml:"tps"`
	Seed         int64 `yaml:"seed"`
	WorldMinY    int   `yaml:"world_min_y"`
	WorldMaxY    int   `yaml:"world_max_y"`
	ChunkTickCap int   `yaml:"chunk_tick_cap"`
}

type StorageConfig struct {
	Path            string `yaml:"path"`
	AutosaveSeconds int    `yaml:"autosave_seconds"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// TelemetryConfig включает OpenTelemetry-трассировку. Адрес коллектора
// задаётся стандартными переменными OTEL_EXPORTER_OTLP_*.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// GetTPS возвращает частоту кадров симуляции
func (s *SimulationConfig) GetTPS() int {
	return getIntWithEnvFallback(s.TPS, "FLUID_TPS", 20)
}

// GetBounds возвращает вертикальные границы мира. Пустая секция
// (обе границы нулевые) трактуется как мир 0..127.
func (s *SimulationConfig) GetBounds() (int, int) {
	if s.WorldMaxY <= s.WorldMinY {
		return 0, 127
	}
	return s.WorldMinY, s.WorldMaxY
}

// GetPath возвращает директорию хранилища с поддержкой fallback значений
func (s *StorageConfig) GetPath() string {
	if s.Path != "" {
		return s.Path
	}
	if env := os.Getenv("FLUID_DATA_PATH"); env != "" {
		return env
	}
	return "./data"
}

// GetAutosave возвращает период автосохранения. Ноль — дефолтная
// минута, отрицательное значение отключает автосохранение.
func (s *StorageConfig) GetAutosave() time.Duration {
	switch {
	case s.AutosaveSeconds < 0:
		return 0
	case s.AutosaveSeconds == 0:
		return time.Minute
	default:
		return time.Duration(s.AutosaveSeconds) * time.Second
	}
}

// GetRetention возвращает срок хранения событий в стриме
func (e *EventBusConfig) GetRetention() time.Duration {
	if e.Retention <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(e.Retention) * time.Hour
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getIntWithEnvFallback(s.RESTPort, "FLUID_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getIntWithEnvFallback(s.MetricsPort, "FLUID_METRICS_PORT", 2112)
}

// GetServiceName возвращает имя сервиса для трассировки
func (t *TelemetryConfig) GetServiceName() string {
	if t.ServiceName != "" {
		return t.ServiceName
	}
	return "fluid-sim"
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configVal int, envVar string, defaultVal int) int {
	if configVal > 0 {
		return configVal
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	return defaultVal
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV FLUID_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("FLUID_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
