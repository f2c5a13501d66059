package implementations

import (
	"github.com/annel0/fluid-sim/internal/world/block"
)

// SandBehavior реализует поведение блока песка
type SandBehavior struct{}

// ID возвращает идентификатор блока
func (b *SandBehavior) ID() block.BlockID {
	return block.SandBlockID
}

// Name возвращает имя блока
func (b *SandBehavior) Name() string {
	return "Sand"
}
