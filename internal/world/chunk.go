package world

import (
	"github.com/annel0/fluid-sim/internal/fluid"
	"github.com/annel0/fluid-sim/internal/vec"
	"github.com/annel0/fluid-sim/internal/world/block"
)

const (
	// ChunkSize — размер чанка по каждой из трёх осей
	ChunkSize = 16

	// ChunkVolume — количество клеток в одном чанке
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize
)

// Chunk представляет кубический участок мира размером 16×16×16 клеток.
// Блоки и жидкости хранятся в плоских массивах, индексируемых через
// chunkIndex. Чанком владеет горутина симуляции, поэтому методы не
// используют синхронизацию.
type Chunk struct {
	Coords vec.Vec3 // Координаты чанка в сетке чанков

	blocks [ChunkVolume]block.BlockID
	fluids [ChunkVolume]fluid.Instance

	dirty bool // Есть несохранённые изменения
}

// NewChunk создаёт пустой чанк с указанными координатами.
// Все клетки заполнены воздухом и не содержат жидкостей.
func NewChunk(coords vec.Vec3) *Chunk {
	return &Chunk{Coords: coords}
}

// chunkIndex сводит локальные координаты клетки (0..15 по каждой оси)
// к индексу плоского массива.
func chunkIndex(local vec.Vec3) int {
	return local.Y<<8 | local.Z<<4 | local.X
}

// BlockAt возвращает блок по локальным координатам.
func (c *Chunk) BlockAt(local vec.Vec3) block.BlockID {
	return c.blocks[chunkIndex(local)]
}

// SetBlock устанавливает блок по локальным координатам.
func (c *Chunk) SetBlock(local vec.Vec3, id block.BlockID) {
	c.blocks[chunkIndex(local)] = id
	c.dirty = true
}

// FluidAt возвращает жидкость по локальным координатам.
// Для пустой клетки возвращается Instance с ID == fluid.None.
func (c *Chunk) FluidAt(local vec.Vec3) fluid.Instance {
	return c.fluids[chunkIndex(local)]
}

// SetFluid записывает жидкость по локальным координатам.
func (c *Chunk) SetFluid(local vec.Vec3, inst fluid.Instance) {
	c.fluids[chunkIndex(local)] = inst
	c.dirty = true
}

// ResetFluid очищает клетку от жидкости.
func (c *Chunk) ResetFluid(local vec.Vec3) {
	c.fluids[chunkIndex(local)] = fluid.Instance{}
	c.dirty = true
}

// Dirty сообщает, есть ли в чанке изменения с момента последнего
// сохранения.
func (c *Chunk) Dirty() bool {
	return c.dirty
}

// MarkSaved сбрасывает флаг изменений после успешного сохранения.
func (c *Chunk) MarkSaved() {
	c.dirty = false
}

// ExportBlocks возвращает копию массива блоков для сериализации.
// Порядок элементов соответствует chunkIndex.
func (c *Chunk) ExportBlocks() []block.BlockID {
	out := make([]block.BlockID, ChunkVolume)
	copy(out, c.blocks[:])
	return out
}

// ExportFluids возвращает копию массива жидкостей для сериализации.
// Порядок элементов соответствует chunkIndex.
func (c *Chunk) ExportFluids() []fluid.Instance {
	out := make([]fluid.Instance, ChunkVolume)
	copy(out, c.fluids[:])
	return out
}

// ImportData восстанавливает содержимое чанка из сериализованных
// массивов. Короткие срезы дополняются воздухом, лишние элементы
// отбрасываются. Загруженный чанк считается сохранённым.
func (c *Chunk) ImportData(blocks []block.BlockID, fluids []fluid.Instance) {
	c.blocks = [ChunkVolume]block.BlockID{}
	c.fluids = [ChunkVolume]fluid.Instance{}
	copy(c.blocks[:], blocks)
	copy(c.fluids[:], fluids)
	c.dirty = false
}
