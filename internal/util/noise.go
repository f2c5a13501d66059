package util

import (
	"github.com/aquilax/go-perlin"
)

// NoiseMap — детерминированная двумерная карта шума Перлина.
// Один и тот же сид и масштаб всегда дают одинаковые значения.
type NoiseMap struct {
	noise *perlin.Perlin
	scale float64
}

// NewNoiseMap создаёт карту шума с указанным сидом и масштабом.
// Масштаб задаёт сглаженность: чем меньше значение, тем плавнее рельеф.
func NewNoiseMap(seed int64, scale float64) *NoiseMap {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &NoiseMap{
		noise: perlin.NewPerlin(alpha, beta, n, seed),
		scale: scale,
	}
}

// At возвращает значение шума для мировых координат (от 0 до 1).
func (m *NoiseMap) At(x, z int) float64 {
	// Noise2D возвращает значение от -1 до 1
	v := m.noise.Noise2D(float64(x)*m.scale, float64(z)*m.scale)
	return (v + 1.0) / 2.0
}
