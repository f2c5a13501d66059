package implementations

import (
	"github.com/annel0/fluid-sim/internal/fluid"
	"github.com/annel0/fluid-sim/internal/vec"
	"github.com/annel0/fluid-sim/internal/world/block"
)

// AirBehavior реализует поведение пустого блока (воздуха)
type AirBehavior struct{}

// ID возвращает идентификатор блока
func (b *AirBehavior) ID() block.BlockID {
	return block.AirBlockID
}

// Name возвращает имя блока
func (b *AirBehavior) Name() string {
	return "Air"
}

// AllowInflow разрешает жидкости входить через любую грань
func (b *AirBehavior) AllowInflow(g fluid.Grid, pos vec.Vec3, side vec.Side, id fluid.ID) bool {
	return true
}

// AllowOutflow разрешает жидкости выходить через любую грань
func (b *AirBehavior) AllowOutflow(g fluid.Grid, pos vec.Vec3, side vec.Side) bool {
	return true
}
