package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/annel0/fluid-sim/internal/fluid"
	"github.com/annel0/fluid-sim/internal/sim"
	"github.com/annel0/fluid-sim/internal/world"
	_ "github.com/annel0/fluid-sim/internal/world/block/implementations"
	"github.com/stretchr/testify/assert"
)

// Метрики gin регистрируются в глобальном регистре Prometheus,
// поэтому на все тесты поднимается один сервер.
var (
	testOnce sync.Once
	testSrv  *RestServer
)

func testServer(t *testing.T) *RestServer {
	t.Helper()
	testOnce.Do(func() {
		sched := fluid.NewTickScheduler(0)
		w := world.NewWorld(nil, fluid.Range{0, 63}, sched)
		engine := fluid.NewEngine(w, sched)
		s := sim.NewSimulator(w, engine, sched, sim.Options{TPS: 100})
		go s.Run(context.Background())
		testSrv = NewRestServer(Config{Port: ":0", Sim: s})
	})
	return testSrv
}

func doRequest(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, GenericResponse) {
	t.Helper()
	srv := testServer(t)

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		assert.NoError(t, err, "Не удалось сериализовать тело запроса")
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	var resp GenericResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestRestServer_Health(t *testing.T) {
	rec, _ := doRequest(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "Health должен отвечать 200")
	assert.Contains(t, rec.Body.String(), `"status":"ok"`, "Health должен сообщать ok")
}

func TestRestServer_PlaceAndReadFluid(t *testing.T) {
	// Замкнутая клетка, чтобы жидкость не утекла между запросами
	pos := map[string]int{"x": 10, "y": 30, "z": 10}
	walls := [][3]int{
		{10, 29, 10},
		{11, 30, 10}, {9, 30, 10},
		{10, 30, 11}, {10, 30, 9},
	}
	for _, wall := range walls {
		rec, _ := doRequest(t, http.MethodPost, "/api/blocks", map[string]interface{}{
			"x": wall[0], "y": wall[1], "z": wall[2], "block": 1,
		})
		assert.Equal(t, http.StatusCreated, rec.Code, "Блок должен устанавливаться")
	}

	rec, resp := doRequest(t, http.MethodPost, "/api/fluids", map[string]interface{}{
		"x": pos["x"], "y": pos["y"], "z": pos["z"], "fluid": "water", "level": 8,
	})
	assert.Equal(t, http.StatusCreated, rec.Code, "Жидкость должна размещаться")
	assert.True(t, resp.Success, "Ответ должен быть успешным")

	path := fmt.Sprintf("/api/cells/%d/%d/%d", pos["x"], pos["y"], pos["z"])
	rec, resp = doRequest(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "Клетка должна читаться")

	data, ok := resp.Data.(map[string]interface{})
	assert.True(t, ok, "Ответ должен содержать данные клетки")
	fluidData, ok := data["fluid"].(map[string]interface{})
	assert.True(t, ok, "Клетка должна содержать жидкость")
	assert.Equal(t, "water", fluidData["name"], "Имя жидкости должно совпадать")
	assert.Equal(t, float64(8), fluidData["units"], "Объём должен совпадать")
}

func TestRestServer_PlaceFluidValidation(t *testing.T) {
	// Неизвестная жидкость
	rec, resp := doRequest(t, http.MethodPost, "/api/fluids", map[string]interface{}{
		"x": 0, "y": 30, "z": 0, "fluid": "mercury", "level": 4,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "Неизвестная жидкость должна отклоняться")
	assert.False(t, resp.Success)

	// Уровень за пределами 1..8
	rec, _ = doRequest(t, http.MethodPost, "/api/fluids", map[string]interface{}{
		"x": 0, "y": 30, "z": 0, "fluid": "water", "level": 9,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "Уровень 9 должен отклоняться")

	// Отсутствующий уровень
	rec, _ = doRequest(t, http.MethodPost, "/api/fluids", map[string]interface{}{
		"x": 0, "y": 30, "z": 0, "fluid": "water",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "Запрос без уровня должен отклоняться")

	// Позиция за границами мира
	rec, _ = doRequest(t, http.MethodPost, "/api/fluids", map[string]interface{}{
		"x": 0, "y": 500, "z": 0, "fluid": "water", "level": 4,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "Позиция вне мира должна отклоняться")
}

func TestRestServer_RemoveMissingFluid(t *testing.T) {
	rec, resp := doRequest(t, http.MethodDelete, "/api/cells/40/40/40", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "Неизвестный маршрут должен отвечать 404")

	rec, resp = doRequest(t, http.MethodDelete, "/api/fluids/40/40/40", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "Удаление из пустой клетки должно отвечать 404")
	assert.False(t, resp.Success)
}

func TestRestServer_BadCoordinates(t *testing.T) {
	rec, resp := doRequest(t, http.MethodGet, "/api/cells/abc/0/0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "Нечисловая координата должна отклоняться")
	assert.False(t, resp.Success)
}

func TestRestServer_FluidTypes(t *testing.T) {
	rec, resp := doRequest(t, http.MethodGet, "/api/fluids/types", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(3), data["total"], "Должно быть три встроенных жидкости")

	names := make([]string, 0)
	for _, raw := range data["fluids"].([]interface{}) {
		f := raw.(map[string]interface{})
		names = append(names, f["name"].(string))
	}
	assert.Contains(t, names, "water")
	assert.Contains(t, names, "lava")
	assert.Contains(t, names, "steam")
}

func TestRestServer_BlockTypes(t *testing.T) {
	rec, resp := doRequest(t, http.MethodGet, "/api/blocks/types", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	data := resp.Data.(map[string]interface{})
	fillableByName := make(map[string]bool)
	for _, raw := range data["blocks"].([]interface{}) {
		b := raw.(map[string]interface{})
		fillableByName[b["name"].(string)] = b["fillable"].(bool)
	}
	assert.True(t, fillableByName["Air"], "Воздух должен принимать жидкость")
	assert.False(t, fillableByName["Stone"], "Камень не должен принимать жидкость")
	assert.True(t, fillableByName["Lattice"], "Решётка должна принимать жидкость")
}

func TestRestServer_Stats(t *testing.T) {
	rec, resp := doRequest(t, http.MethodGet, "/api/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "Статистика должна отдаваться")
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Contains(t, data, "simulation", "Статистика должна содержать блок симуляции")
	assert.Contains(t, data, "server", "Статистика должна содержать блок сервера")
}
