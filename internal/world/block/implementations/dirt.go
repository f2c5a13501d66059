package implementations

import (
	"github.com/annel0/fluid-sim/internal/world/block"
)

// DirtBehavior реализует поведение блока земли/грязи
type DirtBehavior struct{}

// ID возвращает идентификатор блока
func (b *DirtBehavior) ID() block.BlockID {
	return block.DirtBlockID
}

// Name возвращает имя блока
func (b *DirtBehavior) Name() string {
	return "Dirt"
}
