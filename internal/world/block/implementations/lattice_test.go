package implementations

import (
	"testing"

	"github.com/annel0/fluid-sim/internal/fluid"
	"github.com/annel0/fluid-sim/internal/vec"
	"github.com/annel0/fluid-sim/internal/world/block"
)

func TestRegistryContainsAllBlocks(t *testing.T) {
	ids := []block.BlockID{
		block.AirBlockID, block.StoneBlockID, block.DirtBlockID,
		block.GrassBlockID, block.SandBlockID, block.GravelBlockID,
		block.LatticeBlockID, block.DrainBlockID,
	}
	for _, id := range ids {
		if !block.IsValidBlockID(id) {
			t.Errorf("блок %d должен быть зарегистрирован", id)
		}
	}
}

func TestAirPassesFluidEverywhere(t *testing.T) {
	behavior, _ := block.Get(block.AirBlockID)
	fillable, ok := behavior.(fluid.Fillable)
	if !ok {
		t.Fatal("воздух должен реализовывать fluid.Fillable")
	}

	sides := []vec.Side{
		vec.SideTop, vec.SideBottom,
		vec.SideNorth, vec.SideSouth, vec.SideEast, vec.SideWest,
	}
	pos := vec.Vec3{X: 0, Y: 6, Z: 0}
	for _, side := range sides {
		if !fillable.AllowInflow(nil, pos, side, fluid.WaterID) {
			t.Errorf("воздух должен пропускать жидкость внутрь через грань %v", side)
		}
		if !fillable.AllowOutflow(nil, pos, side) {
			t.Errorf("воздух должен выпускать жидкость через грань %v", side)
		}
	}
}

func TestSolidBlocksAreNotFillable(t *testing.T) {
	for _, id := range []block.BlockID{
		block.StoneBlockID, block.DirtBlockID, block.GrassBlockID,
		block.SandBlockID, block.GravelBlockID,
	} {
		behavior, exists := block.Get(id)
		if !exists {
			t.Fatalf("блок %d должен быть зарегистрирован", id)
		}
		if _, ok := behavior.(fluid.Fillable); ok {
			t.Errorf("твёрдый блок %q не должен пропускать жидкость", behavior.Name())
		}
	}
}

func TestLatticeGatesVerticalFlow(t *testing.T) {
	behavior, _ := block.Get(block.LatticeBlockID)
	fillable, ok := behavior.(fluid.Fillable)
	if !ok {
		t.Fatal("решётка должна реализовывать fluid.Fillable")
	}

	pos := vec.Vec3{X: 0, Y: 6, Z: 0}

	// Вертикальные грани закрыты
	for _, side := range []vec.Side{vec.SideTop, vec.SideBottom} {
		if fillable.AllowInflow(nil, pos, side, fluid.WaterID) {
			t.Errorf("решётка не должна впускать жидкость через грань %v", side)
		}
		if fillable.AllowOutflow(nil, pos, side) {
			t.Errorf("решётка не должна выпускать жидкость через грань %v", side)
		}
	}

	// Боковые грани открыты
	for _, side := range []vec.Side{vec.SideNorth, vec.SideSouth, vec.SideEast, vec.SideWest} {
		if !fillable.AllowInflow(nil, pos, side, fluid.WaterID) {
			t.Errorf("решётка должна впускать жидкость через грань %v", side)
		}
		if !fillable.AllowOutflow(nil, pos, side) {
			t.Errorf("решётка должна выпускать жидкость через грань %v", side)
		}
	}
}

func TestDrainIsOneWayVerticalPipe(t *testing.T) {
	behavior, _ := block.Get(block.DrainBlockID)
	fillable, ok := behavior.(fluid.Fillable)
	if !ok {
		t.Fatal("слив должен реализовывать fluid.Fillable")
	}

	pos := vec.Vec3{X: 0, Y: 6, Z: 0}

	// Вход разрешён только сверху
	if !fillable.AllowInflow(nil, pos, vec.SideTop, fluid.WaterID) {
		t.Error("слив должен принимать жидкость через верхнюю грань")
	}
	for _, side := range []vec.Side{
		vec.SideBottom, vec.SideNorth, vec.SideSouth, vec.SideEast, vec.SideWest,
	} {
		if fillable.AllowInflow(nil, pos, side, fluid.WaterID) {
			t.Errorf("слив не должен впускать жидкость через грань %v", side)
		}
	}

	// Выход разрешён только вниз
	if !fillable.AllowOutflow(nil, pos, vec.SideBottom) {
		t.Error("слив должен выпускать жидкость через нижнюю грань")
	}
	for _, side := range []vec.Side{
		vec.SideTop, vec.SideNorth, vec.SideSouth, vec.SideEast, vec.SideWest,
	} {
		if fillable.AllowOutflow(nil, pos, side) {
			t.Errorf("слив не должен выпускать жидкость через грань %v", side)
		}
	}
}
