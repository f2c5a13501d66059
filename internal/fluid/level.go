package fluid

import (
	"fmt"

	"github.com/annel0/fluid-sim/internal/vec"
)

// Level задаёт квантованный объём жидкости в клетке.
// Уровень N соответствует N+1 единицам объёма из восьми возможных,
// поэтому LevelOne — минимальная порция, а LevelEight — полная клетка.
type Level int8

const (
	LevelOne Level = iota // 1 единица объёма
	LevelTwo
	LevelThree
	LevelFour
	LevelFive
	LevelSix
	LevelSeven
	LevelEight // полная клетка, 8 единиц
)

// Units возвращает объём уровня в единицах
func (l Level) Units() int {
	return int(l) + 1
}

// Valid проверяет, что уровень находится в допустимом диапазоне
func (l Level) Valid() bool {
	return l >= LevelOne && l <= LevelEight
}

// String возвращает числовое представление уровня для логов
func (l Level) String() string {
	return fmt.Sprintf("%d/8", l.Units())
}

// VerticalFlow задаёт естественное вертикальное направление потока жидкости.
// Жидкости стекают вниз, газоподобные субстанции всплывают вверх.
type VerticalFlow uint8

const (
	Downward VerticalFlow = iota
	Upward
)

// Vector возвращает единичный вектор движения в этом направлении
func (f VerticalFlow) Vector() vec.Vec3 {
	if f == Upward {
		return vec.Vec3{Y: 1}
	}
	return vec.Vec3{Y: -1}
}

// Opposite возвращает противоположное направление
func (f VerticalFlow) Opposite() VerticalFlow {
	if f == Upward {
		return Downward
	}
	return Upward
}

// ExitSide возвращает грань источника, через которую объём покидает клетку
func (f VerticalFlow) ExitSide() vec.Side {
	if f == Upward {
		return vec.SideTop
	}
	return vec.SideBottom
}

// EntrySide возвращает грань приёмника, через которую объём входит в клетку
func (f VerticalFlow) EntrySide() vec.Side {
	if f == Upward {
		return vec.SideBottom
	}
	return vec.SideTop
}

// String возвращает название направления
func (f VerticalFlow) String() string {
	if f == Upward {
		return "upward"
	}
	return "downward"
}

// Range задаёт жёсткие вертикальные пределы мира: [минимальный Y, максимальный Y],
// обе границы включительно. Жидкость, чей поток направлен за пределы, исчезает.
type Range [2]int

// Min возвращает нижнюю границу
func (r Range) Min() int {
	return r[0]
}

// Max возвращает верхнюю границу
func (r Range) Max() int {
	return r[1]
}

// Height возвращает количество клеток по вертикали
func (r Range) Height() int {
	return r[1] - r[0] + 1
}

// Contains проверяет, что координата Y лежит внутри пределов
func (r Range) Contains(y int) bool {
	return y >= r[0] && y <= r[1]
}
