package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/fluid-sim/internal/fluid"
	"github.com/annel0/fluid-sim/internal/logging"
	"github.com/annel0/fluid-sim/internal/middleware"
	"github.com/annel0/fluid-sim/internal/sim"
	"github.com/annel0/fluid-sim/internal/vec"
	"github.com/annel0/fluid-sim/internal/world/block"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer представляет REST API сервер симуляции
type RestServer struct {
	router  *gin.Engine
	sim     *sim.Simulator
	srv     *http.Server
	metrics *ServerMetrics
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port string         // порт для запуска сервера, например ":8088"
	Sim  *sim.Simulator // симуляция, которой управляет API
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	router.Use(otelgin.Middleware("fluid_api"))

	promMw := middleware.NewPrometheusMiddleware("fluid_api")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:  router,
		sim:     config.Sim,
		metrics: NewServerMetrics(),
		srv: &http.Server{
			Addr:    config.Port,
			Handler: router,
		},
	}

	// Настраиваем маршруты
	server.setupRoutes()

	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Группа API
	api := rs.router.Group("/api")
	{
		// Чтение мира
		api.GET("/cells/:x/:y/:z", rs.handleGetCell)
		api.GET("/stats", rs.handleStats)
		api.GET("/server", rs.handleServerInfo)

		// Справочники типов
		api.GET("/fluids/types", rs.handleFluidTypes)
		api.GET("/blocks/types", rs.handleBlockTypes)

		// Изменение мира
		api.POST("/fluids", rs.handlePlaceFluid)
		api.DELETE("/fluids/:x/:y/:z", rs.handleRemoveFluid)
		api.POST("/blocks", rs.handlePlaceBlock)
	}

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// PlaceFluidRequest представляет запрос на размещение жидкости.
// Level задаётся в единицах объёма 1..8.
type PlaceFluidRequest struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Fluid string `json:"fluid" binding:"required"`
	Level int    `json:"level" binding:"required,min=1,max=8"`
}

// PlaceBlockRequest представляет запрос на установку блока.
// Нулевой ID блока соответствует воздуху и стирает блок в клетке.
type PlaceBlockRequest struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Block uint16 `json:"block"`
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// parseCoords извлекает координаты клетки из параметров маршрута
func parseCoords(c *gin.Context) (vec.Vec3, error) {
	x, err := strconv.Atoi(c.Param("x"))
	if err != nil {
		return vec.Vec3{}, fmt.Errorf("неверная координата x: %q", c.Param("x"))
	}
	y, err := strconv.Atoi(c.Param("y"))
	if err != nil {
		return vec.Vec3{}, fmt.Errorf("неверная координата y: %q", c.Param("y"))
	}
	z, err := strconv.Atoi(c.Param("z"))
	if err != nil {
		return vec.Vec3{}, fmt.Errorf("неверная координата z: %q", c.Param("z"))
	}
	return vec.Vec3{X: x, Y: y, Z: z}, nil
}

func posJSON(pos vec.Vec3) gin.H {
	return gin.H{"x": pos.X, "y": pos.Y, "z": pos.Z}
}

func blockJSON(id block.BlockID) gin.H {
	name := "unknown"
	if b, ok := block.Get(id); ok {
		name = b.Name()
	}
	return gin.H{"id": id, "name": name}
}

func fluidJSON(inst fluid.Instance) gin.H {
	return gin.H{
		"id":     inst.ID,
		"name":   fluid.MustGet(inst.ID).Name,
		"units":  inst.Level.Units(),
		"static": inst.Static,
	}
}

// handleGetCell возвращает содержимое клетки мира
func (rs *RestServer) handleGetCell(c *gin.Context) {
	pos, err := parseCoords(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	info, err := rs.sim.CellInfo(c.Request.Context(), pos)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{
			Success: false,
			Message: "Симуляция недоступна",
		})
		return
	}

	data := gin.H{
		"pos":   posJSON(info.Pos),
		"block": blockJSON(info.Block),
	}
	if !info.Fluid.IsEmpty() {
		data["fluid"] = fluidJSON(info.Fluid)
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Клетка получена",
		Data:    data,
	})
}

// handlePlaceFluid размещает жидкость в клетке мира
func (rs *RestServer) handlePlaceFluid(c *gin.Context) {
	var req PlaceFluidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса: " + err.Error(),
		})
		return
	}

	f, ok := fluid.GetByName(req.Fluid)
	if !ok {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("Неизвестная жидкость %q", req.Fluid),
		})
		return
	}

	pos := vec.Vec3{X: req.X, Y: req.Y, Z: req.Z}
	level := fluid.Level(req.Level - 1)
	if err := rs.sim.PlaceFluid(c.Request.Context(), pos, f.ID, level); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Жидкость размещена",
		Data: gin.H{
			"pos":   posJSON(pos),
			"fluid": f.Name,
			"units": level.Units(),
		},
	})
}

// handleRemoveFluid удаляет жидкость из клетки мира
func (rs *RestServer) handleRemoveFluid(c *gin.Context) {
	pos, err := parseCoords(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	if err := rs.sim.RemoveFluid(c.Request.Context(), pos); err != nil {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Жидкость удалена",
		Data:    gin.H{"pos": posJSON(pos)},
	})
}

// handlePlaceBlock устанавливает блок в клетке мира
func (rs *RestServer) handlePlaceBlock(c *gin.Context) {
	var req PlaceBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса: " + err.Error(),
		})
		return
	}

	pos := vec.Vec3{X: req.X, Y: req.Y, Z: req.Z}
	if err := rs.sim.PlaceBlock(c.Request.Context(), pos, block.BlockID(req.Block)); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Блок установлен",
		Data: gin.H{
			"pos":   posJSON(pos),
			"block": blockJSON(block.BlockID(req.Block)),
		},
	})
}

// handleStats возвращает статистику симуляции и сервера
func (rs *RestServer) handleStats(c *gin.Context) {
	report, err := rs.sim.Report(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{
			Success: false,
			Message: "Симуляция недоступна",
		})
		return
	}

	stats := make(map[string]interface{})
	stats["simulation"] = report

	// Метрики сервера
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()
	systemCPU, _ := rs.metrics.GetSystemCPUUsage()

	stats["server"] = map[string]interface{}{
		"uptime":      rs.metrics.GetUptime(),
		"memory_mb":   fmt.Sprintf("%.2f", memoryMB),
		"cpu_percent": fmt.Sprintf("%.2f", cpuPercent),
		"system_cpu":  fmt.Sprintf("%.2f", systemCPU),
		"server_time": time.Now().Unix(),
	}

	// Детальная статистика памяти
	stats["memory_details"] = rs.metrics.GetDetailedMemoryStats()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleServerInfo возвращает информацию о сервере
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()

	info := map[string]interface{}{
		"version":     "v0.1.0",
		"name":        "Fluid Simulation Server",
		"status":      "running",
		"uptime":      rs.metrics.GetUptime(),
		"memory_mb":   fmt.Sprintf("%.1f", memoryMB),
		"cpu_percent": fmt.Sprintf("%.1f", cpuPercent),
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о сервере",
		Data:    info,
	})
}

// handleFluidTypes возвращает зарегистрированные типы жидкостей
func (rs *RestServer) handleFluidTypes(c *gin.Context) {
	types := make([]gin.H, 0)
	for _, f := range fluid.All() {
		types = append(types, gin.H{
			"id":        f.ID,
			"name":      f.Name,
			"density":   f.Density,
			"viscosity": f.Viscosity,
			"flow":      f.Flow.String(),
		})
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Типы жидкостей получены",
		Data: map[string]interface{}{
			"fluids": types,
			"total":  len(types),
		},
	})
}

// handleBlockTypes возвращает зарегистрированные типы блоков
func (rs *RestServer) handleBlockTypes(c *gin.Context) {
	types := make([]gin.H, 0)
	for _, b := range block.All() {
		_, fillable := b.(fluid.Fillable)
		types = append(types, gin.H{
			"id":       b.ID(),
			"name":     b.Name(),
			"fillable": fillable,
		})
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Типы блоков получены",
		Data: map[string]interface{}{
			"blocks": types,
			"total":  len(types),
		},
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер и блокируется до его остановки
func (rs *RestServer) Start() error {
	logging.Info("🌐 REST API слушает на %s", rs.srv.Addr)
	if err := rs.srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop останавливает REST сервер, дожидаясь активных запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.srv.Shutdown(ctx)
}
