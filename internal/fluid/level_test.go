package fluid

import (
	"testing"

	"github.com/annel0/fluid-sim/internal/vec"
)

func TestLevelUnits(t *testing.T) {
	if LevelOne.Units() != 1 {
		t.Errorf("минимальный уровень содержит одну единицу, получено %d", LevelOne.Units())
	}
	if LevelEight.Units() != 8 {
		t.Errorf("полная клетка содержит восемь единиц, получено %d", LevelEight.Units())
	}
}

func TestLevelValid(t *testing.T) {
	for l := LevelOne; l <= LevelEight; l++ {
		if !l.Valid() {
			t.Errorf("уровень %d должен быть допустимым", l)
		}
	}
	if Level(-1).Valid() {
		t.Error("отрицательный уровень недопустим")
	}
	if Level(8).Valid() {
		t.Error("уровень выше полной клетки недопустим")
	}
}

func TestVerticalFlowHelpers(t *testing.T) {
	if Downward.Vector() != (vec.Vec3{Y: -1}) {
		t.Errorf("нисходящий поток должен смещать вниз, получено %v", Downward.Vector())
	}
	if Upward.Vector() != (vec.Vec3{Y: 1}) {
		t.Errorf("восходящий поток должен смещать вверх, получено %v", Upward.Vector())
	}
	if Downward.Opposite() != Upward || Upward.Opposite() != Downward {
		t.Error("направления должны быть взаимно противоположными")
	}

	// Объём выходит через нижнюю грань источника и входит через верхнюю грань приёмника
	if Downward.ExitSide() != vec.SideBottom || Downward.EntrySide() != vec.SideTop {
		t.Errorf("грани нисходящего потока неверны: выход %v, вход %v",
			Downward.ExitSide(), Downward.EntrySide())
	}
	if Upward.ExitSide() != vec.SideTop || Upward.EntrySide() != vec.SideBottom {
		t.Errorf("грани восходящего потока неверны: выход %v, вход %v",
			Upward.ExitSide(), Upward.EntrySide())
	}
}

func TestRangeBounds(t *testing.T) {
	r := Range{-16, 47}
	if r.Min() != -16 || r.Max() != 47 {
		t.Errorf("границы диапазона неверны: %d..%d", r.Min(), r.Max())
	}
	if r.Height() != 64 {
		t.Errorf("высота диапазона должна быть 64, получено %d", r.Height())
	}
	for _, y := range []int{-16, 0, 47} {
		if !r.Contains(y) {
			t.Errorf("координата %d должна лежать в диапазоне", y)
		}
	}
	for _, y := range []int{-17, 48} {
		if r.Contains(y) {
			t.Errorf("координата %d не должна лежать в диапазоне", y)
		}
	}
}
