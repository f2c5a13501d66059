package world

import (
	"math/rand"

	"github.com/annel0/fluid-sim/internal/fluid"
	"github.com/annel0/fluid-sim/internal/util"
	"github.com/annel0/fluid-sim/internal/vec"
	"github.com/annel0/fluid-sim/internal/world/block"
)

// Масштабы шума для генерации
const (
	HeightNoiseScale = 0.05 // Сглаженность рельефа
	BiomeNoiseScale  = 0.02 // Размер биомов
)

// Generator генерирует ландшафт мира: каменное основание, почвенный
// слой, поверхность и океаны из статичной воды ниже уровня моря.
type Generator struct {
	seed     int64
	height   *util.NoiseMap // Карта высот рельефа
	biome    *util.NoiseMap // Карта биомов для выбора поверхности
	bounds   fluid.Range
	seaLevel int

	surfaceMin int // Нижняя граница рельефа
	surfaceMax int // Верхняя граница рельефа
}

// NewGenerator создаёт генератор мира с указанным сидом и
// вертикальными границами.
func NewGenerator(seed int64, bounds fluid.Range) *Generator {
	span := bounds.Height()
	return &Generator{
		seed:       seed,
		height:     util.NewNoiseMap(seed, HeightNoiseScale),
		biome:      util.NewNoiseMap(seed+42, BiomeNoiseScale),
		bounds:     bounds,
		seaLevel:   bounds.Min() + span/2 - 1,
		surfaceMin: bounds.Min() + span/4,
		surfaceMax: bounds.Min() + (span*3)/4,
	}
}

// SeaLevel возвращает уровень моря.
func (g *Generator) SeaLevel() int {
	return g.seaLevel
}

// SurfaceHeight возвращает высоту поверхности в мировой колонке (x, z).
func (g *Generator) SurfaceHeight(x, z int) int {
	h := g.height.At(x, z)
	return g.surfaceMin + int(h*float64(g.surfaceMax-g.surfaceMin))
}

// Populate заполняет чанк сгенерированным ландшафтом. Генерация
// детерминирована: для каждого чанка используется собственный сид,
// выведенный из глобального сида и координат чанка. Заполненный чанк
// помечается сохранённым — его можно восстановить повторной генерацией.
func (g *Generator) Populate(chunk *Chunk) {
	chunkSeed := g.seed +
		int64(chunk.Coords.X)*31 +
		int64(chunk.Coords.Y)*17 +
		int64(chunk.Coords.Z)*13
	rng := rand.New(rand.NewSource(chunkSeed))

	baseX := chunk.Coords.X << 4
	baseY := chunk.Coords.Y << 4
	baseZ := chunk.Coords.Z << 4

	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			wx := baseX + x
			wz := baseZ + z
			surface := g.SurfaceHeight(wx, wz)

			for y := 0; y < ChunkSize; y++ {
				wy := baseY + y
				local := vec.Vec3{X: x, Y: y, Z: z}

				switch {
				case wy < surface-3:
					chunk.SetBlock(local, block.StoneBlockID)

				case wy < surface:
					chunk.SetBlock(local, g.subsoilBlock(rng))

				case wy == surface:
					chunk.SetBlock(local, g.surfaceBlock(wx, wz, surface, rng))

				default:
					// Воздух; ниже уровня моря — статичная вода
					if wy <= g.seaLevel {
						chunk.SetFluid(local, fluid.Instance{
							ID:     fluid.WaterID,
							Level:  fluid.LevelEight,
							Static: true,
						})
					}
				}
			}
		}
	}

	chunk.MarkSaved()
}

// subsoilBlock возвращает блок почвенного слоя: земля с редкими
// карманами гравия.
func (g *Generator) subsoilBlock(rng *rand.Rand) block.BlockID {
	if rng.Float64() < 0.08 {
		return block.GravelBlockID
	}
	return block.DirtBlockID
}

// surfaceBlock возвращает верхний блок колонки в зависимости от
// биома и положения относительно уровня моря.
func (g *Generator) surfaceBlock(wx, wz, surface int, rng *rand.Rand) block.BlockID {
	if surface < g.seaLevel {
		// Дно океана
		if rng.Float64() < 0.3 {
			return block.GravelBlockID
		}
		return block.SandBlockID
	}

	if g.biome.At(wx, wz) < 0.3 {
		return block.SandBlockID // Пустыня
	}
	return block.GrassBlockID
}
