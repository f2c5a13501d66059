package implementations

import (
	"github.com/annel0/fluid-sim/internal/fluid"
	"github.com/annel0/fluid-sim/internal/vec"
	"github.com/annel0/fluid-sim/internal/world/block"
)

// LatticeBehavior реализует решётчатый гидротехнический блок:
// жидкость свободно течёт сквозь него вбок, но не проходит
// через верхнюю и нижнюю грани. Такими блоками выкладывают
// желоба и шлюзы, направляющие поток по горизонтали.
type LatticeBehavior struct{}

// ID возвращает идентификатор блока
func (b *LatticeBehavior) ID() block.BlockID {
	return block.LatticeBlockID
}

// Name возвращает имя блока
func (b *LatticeBehavior) Name() string {
	return "Lattice"
}

// AllowInflow пропускает жидкость только через боковые грани
func (b *LatticeBehavior) AllowInflow(g fluid.Grid, pos vec.Vec3, side vec.Side, id fluid.ID) bool {
	return side != vec.SideTop && side != vec.SideBottom
}

// AllowOutflow выпускает жидкость только через боковые грани
func (b *LatticeBehavior) AllowOutflow(g fluid.Grid, pos vec.Vec3, side vec.Side) bool {
	return side != vec.SideTop && side != vec.SideBottom
}
