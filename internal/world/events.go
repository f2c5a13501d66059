package world

import (
	"github.com/annel0/fluid-sim/internal/fluid"
	"github.com/annel0/fluid-sim/internal/vec"
	"github.com/annel0/fluid-sim/internal/world/block"
)

// EventType определяет тип события
type EventType uint8

const (
	EventTypeFluidPlaced  EventType = iota // Жидкость помещена внешним запросом
	EventTypeFluidRemoved                  // Жидкость удалена внешним запросом
	EventTypeBlockPlaced                   // Блок установлен внешним запросом
	EventTypeFrame                         // Кадр симуляции завершён
	EventTypeSave                          // Сохранение мира
)

// Event представляет собой интерфейс для всех событий мира
type Event interface {
	GetType() EventType
}

// FluidEvent представляет событие, связанное с жидкостью
type FluidEvent struct {
	EventType EventType
	Position  vec.Vec3    // Мировые координаты клетки
	Fluid     fluid.ID    // Тип жидкости
	Level     fluid.Level // Уровень жидкости
}

// GetType возвращает тип события
func (e FluidEvent) GetType() EventType {
	return e.EventType
}

// BlockEvent представляет событие, связанное с блоком
type BlockEvent struct {
	EventType EventType
	Position  vec.Vec3      // Мировые координаты клетки
	Block     block.BlockID // Установленный блок
}

// GetType возвращает тип события
func (e BlockEvent) GetType() EventType {
	return e.EventType
}

// FrameEvent представляет итоги одного кадра симуляции
type FrameEvent struct {
	Frame     uint64 // Номер кадра
	Processed uint64 // Обработано тиков за кадр
	Deferred  uint64 // Отложено из-за лимита чанка
	Stale     uint64 // Пропущено устаревших тиков
	Moves     uint64 // Перемещений объёмов за кадр
	Settled   uint64 // Жидкостей перешло в статичное состояние
	Drained   uint64 // Объёмов ушло за границу мира
	Destroyed uint64 // Юнитов уничтожено при вытеснении
	Contacts  uint64 // Сработавших контактов
}

// GetType возвращает тип события
func (e FrameEvent) GetType() EventType {
	return EventTypeFrame
}

// SaveEvent представляет событие сохранения мира
type SaveEvent struct {
	Forced bool // Принудительное сохранение
	Chunks int  // Количество сохранённых чанков
}

// GetType возвращает тип события
func (e SaveEvent) GetType() EventType {
	return EventTypeSave
}
