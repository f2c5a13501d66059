package implementations

import (
	"github.com/annel0/fluid-sim/internal/world/block"
)

// StoneBehavior реализует поведение блока камня.
// Камень непроницаем: интерфейс fluid.Fillable не реализуется,
// поэтому жидкость не может ни войти в клетку, ни пройти сквозь неё.
type StoneBehavior struct{}

// ID возвращает идентификатор блока
func (b *StoneBehavior) ID() block.BlockID {
	return block.StoneBlockID
}

// Name возвращает имя блока
func (b *StoneBehavior) Name() string {
	return "Stone"
}
