package fluid

import (
	"testing"

	"github.com/annel0/fluid-sim/internal/vec"
)

func TestShuffledOrientationsDeterministic(t *testing.T) {
	pos := vec.Vec3{X: 17, Y: -3, Z: 255}
	first := shuffledOrientations(pos)
	second := shuffledOrientations(pos)
	if first != second {
		t.Errorf("перестановка должна быть детерминированной: %v и %v", first, second)
	}
}

func TestShuffledOrientationsCoverAllDirections(t *testing.T) {
	for _, pos := range []vec.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 2, Z: 3},
		{X: -7, Y: 64, Z: 13},
	} {
		seen := map[vec.Orientation]bool{}
		for _, o := range shuffledOrientations(pos) {
			seen[o] = true
		}
		if len(seen) != 4 {
			t.Errorf("перестановка для %v должна содержать все четыре направления, получено %d", pos, len(seen))
		}
	}
}

func TestShuffledOrientationsVaryAcrossGrid(t *testing.T) {
	// Начало обхода должно различаться между клетками, иначе у растекания
	// появится постоянный уклон в одну сторону
	starts := map[vec.Orientation]bool{}
	for x := 0; x < 8; x++ {
		for z := 0; z < 8; z++ {
			starts[shuffledOrientations(vec.Vec3{X: x, Y: 6, Z: z})[0]] = true
		}
	}
	if len(starts) < 2 {
		t.Errorf("на 64 клетках должно встретиться несколько разных начал обхода, получено %d", len(starts))
	}
}

func TestPosHashDistinguishesAxes(t *testing.T) {
	// Перестановка координат не должна давать одинаковый хеш
	a := posHash(vec.Vec3{X: 1, Y: 2, Z: 3})
	b := posHash(vec.Vec3{X: 3, Y: 2, Z: 1})
	c := posHash(vec.Vec3{X: 2, Y: 1, Z: 3})
	if a == b || a == c || b == c {
		t.Errorf("хеши перестановок координат совпали: %d, %d, %d", a, b, c)
	}
}
