package fluid

import "github.com/annel0/fluid-sim/internal/vec"

// mix64 перемешивает биты по схеме финализатора splitmix64
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// posHash сводит позицию клетки к детерминированному 64-битному значению.
// Используются разные нечётные множители по осям, чтобы перестановки
// координат давали разные значения.
func posHash(pos vec.Vec3) uint64 {
	h := uint64(uint32(int32(pos.X)))*0x9e3779b97f4a7c15 ^
		uint64(uint32(int32(pos.Y)))*0xc2b2ae3d27d4eb4f ^
		uint64(uint32(int32(pos.Z)))*0x165667b19e3779f9
	return mix64(h)
}

// shuffledOrientations возвращает четыре горизонтальных направления обхода,
// начиная с направления, детерминированно выбранного по позиции клетки.
// Сдвиг начала обхода убирает постоянный уклон растекания по сетке,
// оставаясь воспроизводимым между запусками.
func shuffledOrientations(pos vec.Vec3) [4]vec.Orientation {
	start := int(posHash(pos) & 3)
	var out [4]vec.Orientation
	for i := 0; i < 4; i++ {
		out[i] = vec.Orientations[(start+i)&3]
	}
	return out
}
