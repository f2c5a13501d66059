package implementations

import (
	"github.com/annel0/fluid-sim/internal/world/block"
)

// GravelBehavior реализует поведение блока гравия
type GravelBehavior struct{}

// ID возвращает идентификатор блока
func (b *GravelBehavior) ID() block.BlockID {
	return block.GravelBlockID
}

// Name возвращает имя блока
func (b *GravelBehavior) Name() string {
	return "Gravel"
}
