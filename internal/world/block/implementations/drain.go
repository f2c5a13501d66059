package implementations

import (
	"github.com/annel0/fluid-sim/internal/fluid"
	"github.com/annel0/fluid-sim/internal/vec"
	"github.com/annel0/fluid-sim/internal/world/block"
)

// DrainBehavior реализует сливной гидротехнический блок:
// жидкость может попасть в него только сверху и покинуть его
// только через нижнюю грань. Такой односторонний вертикальный
// канал отводит излишки из бассейнов, не давая потоку
// растекаться вбок или подниматься обратно.
type DrainBehavior struct{}

// ID возвращает идентификатор блока
func (b *DrainBehavior) ID() block.BlockID {
	return block.DrainBlockID
}

// Name возвращает имя блока
func (b *DrainBehavior) Name() string {
	return "Drain"
}

// AllowInflow принимает жидкость только через верхнюю грань
func (b *DrainBehavior) AllowInflow(g fluid.Grid, pos vec.Vec3, side vec.Side, id fluid.ID) bool {
	return side == vec.SideTop
}

// AllowOutflow выпускает жидкость только через нижнюю грань
func (b *DrainBehavior) AllowOutflow(g fluid.Grid, pos vec.Vec3, side vec.Side) bool {
	return side == vec.SideBottom
}
